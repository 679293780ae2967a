package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/tdr/internal/config"
	"github.com/zeusync/tdr/internal/core/events/bus"
	"github.com/zeusync/tdr/internal/core/guidance"
	"github.com/zeusync/tdr/internal/core/observability/log"
	"github.com/zeusync/tdr/internal/core/race"
	"github.com/zeusync/tdr/internal/server"
)

// App is everything the simulator binary needs, fully wired.
type App struct {
	Prefs      *config.Preferences
	Log        log.Log
	Bus        bus.EventBus
	Session    *race.Session
	Simulation *race.Simulation
	Hub        *server.Hub
}

// ProviderSet builds an App from loaded preferences.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideFieldCache,
	ProvideBus,
	ProvideSession,
	ProvideSimulation,
	ProvideHub,
	wire.Struct(new(App), "*"),
)

// ProvideLogger picks the console encoder when debugging overlays are on.
func ProvideLogger(prefs *config.Preferences) log.Log {
	level := log.ParseLevel(prefs.Log.Level)
	if prefs.Log.Development || prefs.Debug > 0 {
		return log.NewDevelopment(level)
	}
	return log.New(level)
}

func ProvideFieldCache(prefs *config.Preferences) *guidance.Cache {
	return guidance.NewCache(prefs.FieldCache)
}

func ProvideBus() bus.EventBus { return bus.New() }

func ProvideSession(prefs *config.Preferences, cache *guidance.Cache, b bus.EventBus, logger log.Log) *race.Session {
	return race.NewSession(prefs, cache, b, logger)
}

func ProvideSimulation(session *race.Session, logger log.Log) (*race.Simulation, error) {
	return race.NewSimulation(session, race.WithLogger(logger))
}

func ProvideHub(prefs *config.Preferences, logger log.Log) *server.Hub {
	return server.NewHub(prefs.Telemetry.MaxClients, logger.With(log.String("component", "telemetry")))
}
