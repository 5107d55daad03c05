package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/metrics"
	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/probe"
	"github.com/hamed0406/watchdog/internal/repo"
	"github.com/hamed0406/watchdog/internal/status"
)

// Propagator runs debounce, dispatch and persistence for one sample. A
// confirmed change is fully propagated before the call returns.
type Propagator struct {
	state      *status.State
	debouncer  *status.Debouncer
	config     ConfigSource
	dispatcher *notify.Dispatcher
	store      repo.StateStore
	metrics    *metrics.Metrics
	log        *zap.Logger

	persistTimeout time.Duration
}

func NewPropagator(
	state *status.State,
	cfg ConfigSource,
	dispatcher *notify.Dispatcher,
	store repo.StateStore,
	m *metrics.Metrics,
	log *zap.Logger,
) *Propagator {
	if log == nil {
		log = zap.NewNop()
	}
	m.SetStatus(state.Status())
	return &Propagator{
		state:          state,
		debouncer:      status.NewDebouncer(state),
		config:         cfg,
		dispatcher:     dispatcher,
		store:          store,
		metrics:        m,
		log:            log,
		persistTimeout: 10 * time.Second,
	}
}

func (p *Propagator) ObserveAndPropagate(ctx context.Context, out probe.Outcome, err error) {
	threshold := p.config.Snapshot().Probe.Threshold
	change, ok := p.debouncer.Observe(out, err, threshold)
	if !ok {
		return
	}

	p.log.Info("status_changed",
		zap.Stringer("from", change.Old),
		zap.Stringer("to", change.New),
		zap.Time("at", change.At),
	)
	p.metrics.RecordStatusChange(change.Old, change.New)
	p.metrics.SetStatus(change.New)

	// fresh snapshot: destinations or templates may have changed since the tick began
	snap := p.config.Snapshot()
	p.dispatcher.SetConcurrency(snap.Concurrency)
	results := p.dispatcher.Dispatch(ctx,
		notify.Transition{Old: change.Old, New: change.New, At: change.At},
		snap.Probe, snap.Destinations,
	)

	delivered := 0
	for _, r := range results {
		p.metrics.RecordDestination(r.Label())
		if r.Delivered {
			delivered++
			continue
		}
		p.log.Info("destination_skipped",
			zap.String("destination", string(r.Destination)),
			zap.String("reason", r.Reason),
			zap.Error(r.Err),
		)
	}
	p.log.Info("dispatch_done",
		zap.Int("destinations", len(results)),
		zap.Int("delivered", delivered),
	)

	p.Persist(ctx)
}

// Persist saves the current runtime state. Failures are logged, not returned.
func (p *Propagator) Persist(ctx context.Context) {
	if p.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.persistTimeout)
	defer cancel()

	if err := p.store.Save(ctx, p.state.Snapshot()); err != nil {
		p.metrics.RecordPersistFailure()
		p.log.Error("state_persist_failed", zap.Error(err))
		return
	}
	p.log.Debug("state_persisted")
}

func (p *Propagator) CurrentStatus() domain.ResourceStatus {
	return p.state.Status()
}

func (p *Propagator) RuntimeSnapshot() domain.RuntimeSnapshot {
	return p.state.Snapshot()
}
