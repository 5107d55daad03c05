package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/httpapi"
	apimw "github.com/hamed0406/watchdog/internal/httpapi/middleware"
	"github.com/hamed0406/watchdog/internal/logging"
	"github.com/hamed0406/watchdog/internal/metrics"
	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/notify/discord"
	"github.com/hamed0406/watchdog/internal/probe"
	"github.com/hamed0406/watchdog/internal/scheduler"
	"github.com/hamed0406/watchdog/internal/status"
)

func run(ctx context.Context, o *options) error {
	store, cfg, err := openConfig(o.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := logging.NewLogger(cfg.Log.Dir, level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	store.SetLogger(logger)
	store.SetAddressCheck(func(ctx context.Context, addr string) error {
		_, err := probe.Resolve(ctx, probe.HostOf(addr))
		return err
	})
	store.Watch(ctx)

	channel := discord.New(cfg.Discord.Token, cfg.Discord.APIBase, cfg.Discord.RequestsPerSecond)
	if channel == nil {
		return errors.New("discord.token is required (or set WATCHDOG_DISCORD_TOKEN)")
	}

	states, closeStates, err := openStateStore(ctx, cfg.State, logger)
	if err != nil {
		return fmt.Errorf("state store: %w", err)
	}
	defer closeStates()

	state := status.NewState()
	if saved, err := states.Load(ctx); err != nil {
		logger.Warn("state_load_failed", zap.String("backend", cfg.State.Backend), zap.Error(err))
	} else if saved != nil {
		state = status.Restore(*saved)
		logger.Info("state_restored",
			zap.Stringer("status", saved.Status),
			zap.Int("counter", saved.HysteresisCounter),
			zap.Int("messages", len(saved.Messages)),
		)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	dispatcher := notify.NewDispatcher(channel, state, cfg.Notify.Concurrency, logger)
	prop := scheduler.NewPropagator(state, store, dispatcher, states, m, logger)
	sched := scheduler.NewScheduler(logger, store, prop, m)

	api := httpapi.NewServer(logger, prop, store, reg, version)
	keys := apimw.Keys{Public: cfg.API.PublicAPIKeys, Admin: cfg.API.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           api.Router(keys, cfg.API.RatePerMinute, cfg.API.Burst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("watchdog_start",
		zap.String("version", version),
		zap.String("resource", cfg.Probe.ResourceName),
		zap.String("address", cfg.Probe.ResourceAddr),
		zap.String("api_addr", cfg.API.Addr),
		zap.String("state_backend", cfg.State.Backend),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		reloads := store.Subscribe()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-reloads:
				snap := store.Snapshot()
				logger.Info("config_applied",
					zap.Duration("interval", snap.Probe.Interval),
					zap.Int("threshold", snap.Probe.Threshold),
					zap.Int("destinations", len(snap.Destinations)),
				)
			}
		}
	})

	err = g.Wait()

	// best effort; the process is going away either way
	prop.Persist(context.Background())
	if err != nil {
		logger.Error("watchdog_exit", zap.Error(err))
		return err
	}
	logger.Info("watchdog_stopped")
	return nil
}

// openConfig loads the config file once; the returned Config is the store's
// start-up view.
func openConfig(path string) (*config.Store, *config.Config, error) {
	store, err := config.NewStore(path, nil)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Config(), nil
}
