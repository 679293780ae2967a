// Package config loads player preferences and simulation tuning from
// defaults, an optional YAML file, TDR_ environment variables and command
// line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zeusync/tdr/internal/core/track"
)

// EnvPrefix prefixes every environment override, e.g. TDR_LAPS=3 or
// TDR_TUNING_TURNRATE=2.5.
const EnvPrefix = "TDR"

// Tuning holds the hand tuned constants of the driving model.
type Tuning struct {
	TurnRate     float64 `mapstructure:"turnRate"`
	PlayerThrust float64 `mapstructure:"playerThrust"`
	AIThrust     float64 `mapstructure:"aiThrust"`

	Friction          float64 `mapstructure:"friction"`
	OffTrackThreshold float64 `mapstructure:"offTrackThreshold"`
	OffTrackDrag      float64 `mapstructure:"offTrackDrag"`

	WhiskerFar       float64 `mapstructure:"whiskerFar"`
	WhiskerFarAngle  float64 `mapstructure:"whiskerFarAngle"`
	WhiskerNear      float64 `mapstructure:"whiskerNear"`
	WhiskerNearAngle float64 `mapstructure:"whiskerNearAngle"`
	WhiskerFront     float64 `mapstructure:"whiskerFront"`
	SteerDeadband    int     `mapstructure:"steerDeadband"`
	ThrottleMinimum  int     `mapstructure:"throttleMinimum"`

	Nudge              float64 `mapstructure:"nudge"`
	PushStep           float64 `mapstructure:"pushStep"`
	MaxSeparationSteps int     `mapstructure:"maxSeparationSteps"`
	MaxPushSteps       int     `mapstructure:"maxPushSteps"`
}

// DefaultTuning returns the reference driving model.
func DefaultTuning() Tuning {
	return Tuning{
		TurnRate:     3,
		PlayerThrust: 580,
		AIThrust:     600,

		Friction:          1.2,
		OffTrackThreshold: 140,
		OffTrackDrag:      1.2,

		WhiskerFar:       425,
		WhiskerFarAngle:  math.Pi / 12,
		WhiskerNear:      200,
		WhiskerNearAngle: math.Pi / 6,
		WhiskerFront:     425,
		SteerDeadband:    10,
		ThrottleMinimum:  50,

		Nudge:              0.5,
		PushStep:           1,
		MaxSeparationSteps: 4096,
		MaxPushSteps:       4096,
	}
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	// Every publishes one snapshot per this many ticks.
	Every int `mapstructure:"every"`
	// MaxClients caps connected spectators; 0 means unlimited.
	MaxClients int `mapstructure:"maxClients"`
}

// Preferences is the full runtime configuration.
type Preferences struct {
	// Debug is the overlay verbosity: 1 draws collision boxes, 2 adds AI
	// whiskers.
	Debug  int  `mapstructure:"debug"`
	Level  int  `mapstructure:"level"`
	Window bool `mapstructure:"window"`
	Laps   int  `mapstructure:"laps"`

	LevelDir   string  `mapstructure:"levelDir"`
	TickRate   float64 `mapstructure:"tickRate"`
	MaxTicks   int     `mapstructure:"maxTicks"`
	FieldCache int     `mapstructure:"fieldCache"`
	FieldDump  string  `mapstructure:"fieldDump"`

	Tuning    Tuning           `mapstructure:"tuning"`
	Shapes    track.ShapeTable `mapstructure:"shapes"`
	Log       LogConfig        `mapstructure:"log"`
	Telemetry TelemetryConfig  `mapstructure:"telemetry"`
}

// Default returns the preferences used when nothing overrides them.
func Default() Preferences {
	return Preferences{
		Level:      1,
		Laps:       5,
		LevelDir:   "levels",
		TickRate:   60,
		MaxTicks:   60 * 60 * 10,
		FieldCache: 4,
		Tuning:     DefaultTuning(),
		Shapes:     track.DefaultShapes(),
		Log:        LogConfig{Level: "info"},
		Telemetry:  TelemetryConfig{Addr: "127.0.0.1:8089", Every: 6, MaxClients: 16},
	}
}

// Flags registers the command line switches Load understands.
func Flags(fs *pflag.FlagSet) {
	fs.CountP("debug", "d", "turn debugging visualizations on (repeat for more)")
	fs.IntP("level", "l", 1, "jump to the selected level")
	fs.BoolP("window", "w", false, "enable windowed mode")
	fs.StringP("config", "c", "", "path to a YAML preferences file")
	fs.Int("laps", 5, "laps to race")
	fs.Int("ticks", 0, "stop after this many ticks (0 uses the configured limit)")
	fs.String("field-dump", "", "write the guidance field to this PNG")
	fs.Bool("telemetry", false, "serve the spectator websocket feed")
}

var flagKeys = map[string]string{
	"debug":      "debug",
	"level":      "level",
	"window":     "window",
	"laps":       "laps",
	"ticks":      "maxTicks",
	"field-dump": "fieldDump",
	"telemetry":  "telemetry.enabled",
}

// Load resolves preferences. path may be empty, in which case a
// "tdr.yaml" next to the working directory is used if present. fs may be
// nil.
func Load(path string, fs *pflag.FlagSet) (*Preferences, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if path == "" {
			if f := fs.Lookup("config"); f != nil {
				path = f.Value.String()
			}
		}
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadConfig, err)
		}
	} else {
		v.SetConfigName("tdr")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: %v", ErrReadConfig, err)
			}
		}
	}

	var p Preferences
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeConfig, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func setDefaults(v *viper.Viper, d Preferences) {
	v.SetDefault("debug", d.Debug)
	v.SetDefault("level", d.Level)
	v.SetDefault("window", d.Window)
	v.SetDefault("laps", d.Laps)
	v.SetDefault("levelDir", d.LevelDir)
	v.SetDefault("tickRate", d.TickRate)
	v.SetDefault("maxTicks", d.MaxTicks)
	v.SetDefault("fieldCache", d.FieldCache)
	v.SetDefault("fieldDump", d.FieldDump)

	t := d.Tuning
	v.SetDefault("tuning.turnRate", t.TurnRate)
	v.SetDefault("tuning.playerThrust", t.PlayerThrust)
	v.SetDefault("tuning.aiThrust", t.AIThrust)
	v.SetDefault("tuning.friction", t.Friction)
	v.SetDefault("tuning.offTrackThreshold", t.OffTrackThreshold)
	v.SetDefault("tuning.offTrackDrag", t.OffTrackDrag)
	v.SetDefault("tuning.whiskerFar", t.WhiskerFar)
	v.SetDefault("tuning.whiskerFarAngle", t.WhiskerFarAngle)
	v.SetDefault("tuning.whiskerNear", t.WhiskerNear)
	v.SetDefault("tuning.whiskerNearAngle", t.WhiskerNearAngle)
	v.SetDefault("tuning.whiskerFront", t.WhiskerFront)
	v.SetDefault("tuning.steerDeadband", t.SteerDeadband)
	v.SetDefault("tuning.throttleMinimum", t.ThrottleMinimum)
	v.SetDefault("tuning.nudge", t.Nudge)
	v.SetDefault("tuning.pushStep", t.PushStep)
	v.SetDefault("tuning.maxSeparationSteps", t.MaxSeparationSteps)
	v.SetDefault("tuning.maxPushSteps", t.MaxPushSteps)

	v.SetDefault("shapes", d.Shapes)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.addr", d.Telemetry.Addr)
	v.SetDefault("telemetry.every", d.Telemetry.Every)
	v.SetDefault("telemetry.maxClients", d.Telemetry.MaxClients)
}

// Validate rejects preferences the simulation cannot run with.
func (p *Preferences) Validate() error {
	if p.Debug < 0 {
		return fmt.Errorf("%w: debug %d", ErrInvalidPreference, p.Debug)
	}
	if p.Debug > 2 {
		p.Debug = 2
	}
	if p.Level < 1 {
		return fmt.Errorf("%w: level %d", ErrInvalidPreference, p.Level)
	}
	if p.Laps < 1 {
		return fmt.Errorf("%w: laps %d", ErrInvalidPreference, p.Laps)
	}
	if !(p.TickRate > 0) {
		return fmt.Errorf("%w: tick rate %v", ErrInvalidPreference, p.TickRate)
	}
	for _, r := range p.Shapes {
		if r.Tag == "" || r.Scale < 0 || r.Percent < 0 || r.Percent >= 100 {
			return fmt.Errorf("%w: shape rule %+v", ErrInvalidPreference, r)
		}
	}
	return p.Tuning.Validate()
}

// Validate checks the loop caps and step sizes that keep collision
// resolution finite.
func (t Tuning) Validate() error {
	switch {
	case t.MaxSeparationSteps <= 0, t.MaxPushSteps <= 0:
		return fmt.Errorf("%w: collision step caps must be positive", ErrInvalidTuning)
	case !(t.Nudge > 0), !(t.PushStep > 0):
		return fmt.Errorf("%w: collision step sizes must be positive", ErrInvalidTuning)
	case !(t.OffTrackThreshold > 0):
		return fmt.Errorf("%w: off-track threshold must be positive", ErrInvalidTuning)
	}
	return nil
}

// Verbose reports whether overlays of at least level n are enabled.
func (p *Preferences) Verbose(n int) bool { return p != nil && p.Debug >= n }
