package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/domain"
)

// Snapshot is the part of the configuration the monitoring loop reads on
// every tick. It never aliases the store's state.
type Snapshot struct {
	Probe        domain.ProbeConfig
	Destinations []domain.Destination
	Concurrency  int
}

// AddressCheck rejects addresses that cannot be probed, e.g. probe.Resolve.
type AddressCheck func(ctx context.Context, addr string) error

// Store holds the live configuration. Reload swaps it atomically; readers
// always get deep copies.
type Store struct {
	// reloadMu serializes Reload; the file watch and the API can both call it.
	reloadMu sync.Mutex

	mu   sync.RWMutex
	cfg  *Config
	v    *viper.Viper
	path string

	log          *zap.Logger
	checkAddress AddressCheck

	subMu sync.Mutex
	subs  []chan struct{}
}

func NewStore(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg, v, err := load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{cfg: cfg, v: v, path: path, log: log}
	s.warnTrimmed(log, cfg)
	return s, nil
}

// NewStatic wraps an already loaded config; Reload re-reads path if set.
func NewStatic(cfg *Config, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{cfg: cfg.Clone(), log: log}
}

// SetLogger replaces the store's logger and repeats start-up warnings about
// the current config on it.
func (s *Store) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	s.mu.Lock()
	s.log = log
	cfg := s.cfg
	s.mu.Unlock()
	s.warnTrimmed(log, cfg)
}

// SetAddressCheck installs a check applied to the probe address on Reload.
func (s *Store) SetAddressCheck(fn AddressCheck) {
	s.mu.Lock()
	s.checkAddress = fn
	s.mu.Unlock()
}

// Config returns a deep copy of the full configuration.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Probe:        s.cfg.Probe,
		Destinations: limitDestinations(s.cfg.SortedDestinations(), s.cfg.MaxDestinations),
		Concurrency:  s.cfg.Notify.Concurrency,
	}
}

// Reload re-reads the config file. On any error the current config is kept.
func (s *Store) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.path == "" && s.v == nil {
		return fmt.Errorf("reload: store has no backing file")
	}
	path := s.path
	if path == "" {
		path = s.v.ConfigFileUsed()
	}

	cfg, v, err := load(path)
	if err != nil {
		return err
	}

	s.mu.RLock()
	check := s.checkAddress
	prevAddr := s.cfg.Probe.ResourceAddr
	log := s.log
	s.mu.RUnlock()
	if check != nil && cfg.Probe.ResourceAddr != prevAddr {
		if err := check(ctx, cfg.Probe.ResourceAddr); err != nil {
			return fmt.Errorf("probe address %q rejected: %w", cfg.Probe.ResourceAddr, err)
		}
	}

	s.mu.Lock()
	s.cfg = cfg
	if s.v == nil {
		s.v = v
	}
	s.mu.Unlock()

	s.warnTrimmed(log, cfg)
	log.Info("config_reloaded",
		zap.String("resource", cfg.Probe.ResourceName),
		zap.Duration("interval", cfg.Probe.Interval),
		zap.Int("destinations", len(cfg.Destinations)),
	)
	s.broadcast()
	return nil
}

// Watch reloads whenever the backing file changes on disk.
func (s *Store) Watch(ctx context.Context) {
	s.mu.RLock()
	v := s.v
	log := s.log
	s.mu.RUnlock()
	if v == nil || v.ConfigFileUsed() == "" {
		log.Warn("config_watch_unavailable")
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.Reload(ctx); err != nil {
			log.Error("config_reload_error", zap.String("file", e.Name), zap.Error(err))
		}
	})
	v.WatchConfig()
}

// Subscribe returns a channel signalled after every successful reload.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) broadcast() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) warnTrimmed(log *zap.Logger, cfg *Config) {
	if cfg.MaxDestinations > 0 && len(cfg.Destinations) > cfg.MaxDestinations {
		log.Warn("destinations_over_limit",
			zap.Int("configured", len(cfg.Destinations)),
			zap.Int("max_destinations", cfg.MaxDestinations),
		)
	}
}

func limitDestinations(dests []domain.Destination, max int) []domain.Destination {
	if max > 0 && len(dests) > max {
		return dests[:max]
	}
	return dests
}
