package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/metrics"
	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/probe"
	"github.com/hamed0406/watchdog/internal/repo/memory"
	"github.com/hamed0406/watchdog/internal/status"
)

func guild(id string) domain.Destination {
	return domain.Destination{
		ID:          domain.DestinationID(id),
		Name:        id,
		ChannelID:   "c-" + id,
		UpMessage:   notify.DefaultUpMessage,
		DownMessage: notify.DefaultDownMessage,
	}
}

func newTestPropagator(t *testing.T, start domain.ResourceStatus, threshold int, ch notify.Channel, store *memory.Store) (*Propagator, *status.State) {
	t.Helper()
	cfg := newFakeConfig(0, threshold, guild("g1"), guild("g2"))
	st := status.Restore(domain.RuntimeSnapshot{Status: start})
	d := notify.NewDispatcher(ch, st, 1, zap.NewNop())
	p := NewPropagator(st, cfg, d, store, metrics.New(prometheus.NewRegistry()), zap.NewNop())
	return p, st
}

func TestPropagator_ConfirmedChangeDispatchesOnceAndPersists(t *testing.T) {
	ch := &fakeChannel{}
	store := memory.New()
	p, _ := newTestPropagator(t, domain.StatusUp, 3, ch, store)
	ctx := context.Background()

	p.ObserveAndPropagate(ctx, probe.Unreachable, nil)
	p.ObserveAndPropagate(ctx, probe.Unreachable, nil)
	assert.Empty(t, ch.texts)
	assert.Equal(t, 0, store.Saves())
	assert.Equal(t, domain.StatusUp, p.CurrentStatus())

	p.ObserveAndPropagate(ctx, probe.Unreachable, nil)
	assert.Equal(t, domain.StatusDown, p.CurrentStatus())
	assert.Equal(t, []string{notify.DefaultDownMessage, notify.DefaultDownMessage}, ch.texts)
	assert.Len(t, ch.embeds, 2)
	assert.Equal(t, 1, store.Saves())

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, domain.StatusDown, saved.Status)
	assert.Equal(t, 0, saved.HysteresisCounter)
	assert.Len(t, saved.Messages, 2)

	snap := p.RuntimeSnapshot()
	assert.Equal(t, saved.Messages, snap.Messages)
	assert.False(t, snap.LastChange.IsZero())
}

func TestPropagator_MatchingSamplesDoNothing(t *testing.T) {
	ch := &fakeChannel{}
	store := memory.New()
	p, st := newTestPropagator(t, domain.StatusUp, 1, ch, store)

	for i := 0; i < 5; i++ {
		p.ObserveAndPropagate(context.Background(), probe.Reachable, nil)
	}
	assert.Empty(t, ch.texts)
	assert.Empty(t, ch.embeds)
	assert.Equal(t, 0, store.Saves())
	assert.True(t, st.LastChange().IsZero())
}

func TestPropagator_ErrorToUnknownReconcilesWithoutAnnouncement(t *testing.T) {
	ch := &fakeChannel{}
	p, _ := newTestPropagator(t, domain.StatusUp, 1, ch, memory.New())

	p.ObserveAndPropagate(context.Background(), 0, errors.New("no route"))

	assert.Equal(t, domain.StatusUnknown, p.CurrentStatus())
	assert.Empty(t, ch.texts)
	require.Len(t, ch.embeds, 2)
	assert.Equal(t, notify.ColorUnknown, ch.embeds[0].Color)
}

func TestPropagator_DeliveryFailureStillPersists(t *testing.T) {
	ch := &fakeChannel{fail: true}
	store := memory.New()
	p, st := newTestPropagator(t, domain.StatusDown, 1, ch, store)

	p.ObserveAndPropagate(context.Background(), probe.Reachable, nil)

	assert.Equal(t, domain.StatusUp, p.CurrentStatus())
	assert.Equal(t, 1, store.Saves())
	_, ok := st.Message("g1")
	assert.False(t, ok)
}

func TestPropagator_PersistFailureIsNotFatal(t *testing.T) {
	cfg := newFakeConfig(0, 1, guild("g1"))
	st := status.NewState()
	d := notify.NewDispatcher(&fakeChannel{}, st, 1, zap.NewNop())
	fs := &failingStore{}
	p := NewPropagator(st, cfg, d, fs, nil, nil)

	p.ObserveAndPropagate(context.Background(), probe.Reachable, nil)

	assert.Equal(t, 1, fs.n)
	assert.Equal(t, domain.StatusUp, p.CurrentStatus())
}
