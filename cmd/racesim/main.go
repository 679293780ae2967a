package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/pflag"

	"github.com/zeusync/tdr/internal/config"
	"github.com/zeusync/tdr/internal/core/observability/log"
	"github.com/zeusync/tdr/internal/injector"
	"github.com/zeusync/tdr/internal/level"
	"github.com/zeusync/tdr/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "racesim:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("racesim", pflag.ContinueOnError)
	config.Flags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	prefs, err := config.Load("", fs)
	if err != nil {
		return err
	}

	app, err := injector.InitializeApp(prefs)
	if err != nil {
		return err
	}
	logger := app.Log
	defer func() {
		if s, ok := logger.(interface{ Sync() error }); ok {
			_ = s.Sync()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if prefs.Window {
		logger.Warn("no renderer is built in, running headless")
	}

	lvl, err := level.Find(prefs.LevelDir, prefs.Level)
	if err != nil {
		return err
	}
	if err := app.Session.Load(ctx, lvl); err != nil {
		return err
	}
	defer app.Session.Unload()

	if prefs.FieldDump != "" {
		if err := imaging.Save(app.Session.Field().Image(), prefs.FieldDump); err != nil {
			return fmt.Errorf("dump guidance field: %w", err)
		}
		logger.Info("guidance field written", log.String("path", prefs.FieldDump))
	}

	var pace <-chan time.Time
	if prefs.Telemetry.Enabled {
		srv := server.NewHTTPServer(app.Hub, logger)
		if err := srv.Start(prefs.Telemetry.Addr); err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Stop(sctx)
		}()
		sub, err := app.Hub.Forward(app.Bus)
		if err != nil {
			return err
		}
		defer func() { _ = sub.Cancel() }()

		// spectators watch in real time
		t := time.NewTicker(time.Duration(float64(time.Second) / prefs.TickRate))
		defer t.Stop()
		pace = t.C
	}

	return race(ctx, app, pace)
}

func race(ctx context.Context, app *injector.App, pace <-chan time.Time) error {
	prefs, sim, logger := app.Prefs, app.Simulation, app.Log
	dt := 1 / prefs.TickRate
	started := time.Now()

	for prefs.MaxTicks <= 0 || sim.Tick() < uint64(prefs.MaxTicks) {
		if pace != nil {
			select {
			case <-ctx.Done():
			case <-pace:
			}
		}
		if ctx.Err() != nil {
			logger.Info("interrupted", log.Uint64("tick", sim.Tick()))
			return nil
		}

		if err := sim.Step(dt); err != nil {
			return err
		}
		if pace != nil && prefs.Telemetry.Every > 0 && sim.Tick()%uint64(prefs.Telemetry.Every) == 0 {
			if err := app.Hub.Broadcast("snapshot", sim.Snapshot()); err != nil {
				logger.Warn("snapshot broadcast failed", log.Error(err))
			}
		}
		if sim.Finished() {
			break
		}
	}

	logger.Info("race over",
		log.String("level", app.Session.Level()),
		log.Uint64("ticks", sim.Tick()),
		log.Bool("finished", sim.Finished()),
		log.Duration("wall", time.Since(started)),
	)
	for _, c := range sim.Snapshot().Cars {
		logger.Info("standing", log.String("car", c.Name), log.Uint32("laps", c.Lap), log.Bool("player", c.Player))
	}
	return nil
}
