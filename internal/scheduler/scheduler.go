package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/metrics"
	"github.com/hamed0406/watchdog/internal/probe"
)

// ConfigSource is the read side of config.Store.
type ConfigSource interface {
	Snapshot() config.Snapshot
}

// Observer receives one raw sample per tick.
type Observer interface {
	ObserveAndPropagate(ctx context.Context, out probe.Outcome, err error)
}

// Scheduler probes the resource once per tick. Interval, timeout, address
// and probe kind are re-read at the start of every tick; the wait that is
// already running is never shortened.
type Scheduler struct {
	Logger   *zap.Logger
	Config   ConfigSource
	Observer Observer
	Metrics  *metrics.Metrics

	// NewProber builds a prober for a probe kind; defaults to probe.New.
	NewProber func(kind string) (probe.Prober, error)

	kind   string
	prober probe.Prober
}

func NewScheduler(logger *zap.Logger, cfg ConfigSource, obs Observer, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Logger:    logger,
		Config:    cfg,
		Observer:  obs,
		Metrics:   m,
		NewProber: probe.New,
	}
}

// Run does an immediate probe, then one per interval, until ctx is cancelled
// (returns nil) or the probe transport breaks (returns the error).
func (s *Scheduler) Run(ctx context.Context) error {
	s.Logger.Info("scheduler_started")
	for {
		snap := s.Config.Snapshot()
		if err := s.tick(ctx, snap); err != nil {
			s.Logger.Error("scheduler_transport_failure", zap.Error(err))
			return err
		}

		t := time.NewTimer(snap.Probe.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			s.Logger.Info("scheduler_stopped")
			return nil
		case <-t.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, snap config.Snapshot) error {
	if ctx.Err() != nil {
		return nil
	}
	p, err := s.proberFor(snap.Probe.Kind)
	if err != nil {
		return &probe.ProbeError{Kind: probe.KindTransport, Addr: snap.Probe.ResourceAddr, Err: err}
	}

	out, err := p.Probe(ctx, snap.Probe.ResourceAddr, snap.Probe.Timeout)
	if probe.IsTransport(err) {
		return err
	}
	if ctx.Err() != nil {
		// shutting down; the sample says nothing about the resource
		return nil
	}

	label := out.String()
	if err != nil {
		label = "error"
		s.Logger.Warn("probe_error",
			zap.String("address", snap.Probe.ResourceAddr),
			zap.Error(err),
		)
	} else {
		s.Logger.Debug("probe_done",
			zap.String("address", snap.Probe.ResourceAddr),
			zap.String("outcome", label),
		)
	}
	s.Metrics.RecordProbe(label)

	s.Observer.ObserveAndPropagate(ctx, out, err)
	return nil
}

func (s *Scheduler) proberFor(kind string) (probe.Prober, error) {
	if s.prober != nil && kind == s.kind {
		return s.prober, nil
	}
	p, err := s.NewProber(kind)
	if err != nil {
		return nil, err
	}
	if s.prober != nil {
		s.Logger.Info("probe_kind_changed", zap.String("from", s.kind), zap.String("to", kind))
	}
	s.kind, s.prober = kind, p
	return p, nil
}
