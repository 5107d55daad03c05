package notify

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/watchdog/internal/domain"
)

// Transition is a confirmed status change handed to the dispatcher.
type Transition struct {
	Old domain.ResourceStatus
	New domain.ResourceStatus
	At  time.Time
}

const (
	ResultDelivered = "delivered"
	ResultSkipped   = "skipped"
)

// Result is the per-destination outcome of one dispatch pass.
type Result struct {
	Destination domain.DestinationID
	Announced   bool
	Delivered   bool
	Reason      string
	Err         error
}

func (r Result) Label() string {
	if r.Delivered {
		return ResultDelivered
	}
	return ResultSkipped
}

type Dispatcher struct {
	channel     Channel
	reconciler  *Reconciler
	concurrency atomic.Int32
	log         *zap.Logger
}

// NewDispatcher builds a dispatcher. concurrency <= 1 processes destinations
// one after another.
func NewDispatcher(ch Channel, pointers Pointers, concurrency int, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		channel:    ch,
		reconciler: NewReconciler(ch, pointers, log),
		log:        log,
	}
	d.SetConcurrency(concurrency)
	return d
}

// SetConcurrency changes the fan-out width for subsequent passes.
func (d *Dispatcher) SetConcurrency(n int) {
	d.concurrency.Store(int32(n))
}

// Dispatch delivers t to every destination. Results are ordered by
// destination id; a failing destination never affects the others.
func (d *Dispatcher) Dispatch(ctx context.Context, t Transition, pc domain.ProbeConfig, dests []domain.Destination) []Result {
	sorted := make([]domain.Destination, len(dests))
	copy(sorted, dests)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	embed := BuildEmbed(t.New, t.At, pc.ResourceName, pc.ResourceAddr)
	results := make([]Result, len(sorted))

	limit := int(d.concurrency.Load())
	if limit <= 1 {
		for i, dest := range sorted {
			results[i] = d.deliver(ctx, t, pc, dest, embed)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, dest := range sorted {
		g.Go(func() error {
			results[i] = d.deliver(ctx, t, pc, dest, embed)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, t Transition, pc domain.ProbeConfig, dest domain.Destination, embed Embed) Result {
	res := Result{Destination: dest.ID}
	log := d.log.With(zap.String("destination", string(dest.ID)), zap.String("destination_name", dest.Name))

	if dest.ChannelID == "" {
		log.Debug("destination_no_channel")
		res.Reason = "no channel configured"
		return res
	}
	if _, err := d.channel.GetChannel(ctx, dest.ChannelID); err != nil {
		log.Warn("destination_channel_unavailable", zap.String("channel", dest.ChannelID), zap.Error(err))
		res.Reason = "channel unavailable"
		res.Err = fmt.Errorf("%w: %w", ErrChannelUnavailable, err)
		return res
	}

	if tmpl, ok := announcement(t, dest); ok {
		text := RenderTemplate(tmpl, pc.ResourceName, dest.RoleID)
		if _, err := d.channel.SendText(ctx, dest.ChannelID, text); err != nil {
			log.Error("announcement_send_failed", zap.Error(err))
			res.Reason = "announcement failed"
			res.Err = fmt.Errorf("%w: %w", ErrSendFailed, err)
			return res
		}
		res.Announced = true
	}

	if err := d.reconciler.Reconcile(ctx, dest.ID, dest.ChannelID, embed); err != nil {
		res.Reason = "status message not replaced"
		res.Err = err
		return res
	}
	res.Delivered = true
	return res
}

// announcement picks the one-off message template for Up<->Down transitions.
func announcement(t Transition, dest domain.Destination) (string, bool) {
	switch {
	case t.Old == domain.StatusUp && t.New == domain.StatusDown:
		if dest.DownMessage == "" {
			return DefaultDownMessage, true
		}
		return dest.DownMessage, true
	case t.Old == domain.StatusDown && t.New == domain.StatusUp:
		if dest.UpMessage == "" {
			return DefaultUpMessage, true
		}
		return dest.UpMessage, true
	}
	return "", false
}
