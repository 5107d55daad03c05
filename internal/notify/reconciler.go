package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hamed0406/watchdog/internal/domain"
)

// Pointers holds the live status message per destination.
type Pointers interface {
	Message(id domain.DestinationID) (domain.MessageID, bool)
	SetMessage(id domain.DestinationID, msg domain.MessageID)
}

// Reconciler keeps exactly one status message alive per destination. The old
// message is deleted and a new one posted on every confirmed change.
type Reconciler struct {
	channel  Channel
	pointers Pointers
	log      *zap.Logger
}

func NewReconciler(ch Channel, pointers Pointers, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{channel: ch, pointers: pointers, log: log}
}

// Reconcile replaces the destination's status message with embed. On error
// the stored pointer is left exactly as it was.
func (r *Reconciler) Reconcile(ctx context.Context, dest domain.DestinationID, channelID string, embed Embed) error {
	log := r.log.With(zap.String("destination", string(dest)), zap.String("channel", channelID))

	if prev, ok := r.pointers.Message(dest); ok {
		if err := r.channel.GetMessage(ctx, channelID, prev); err != nil {
			// gone already (or unreadable): post a fresh one
			err = fmt.Errorf("%w: %w", ErrMessageUnavailable, err)
			log.Warn("status_message_missing", zap.String("message", string(prev)), zap.Error(err))
		} else if err := r.channel.DeleteMessage(ctx, channelID, prev); err != nil {
			log.Error("status_message_delete_failed", zap.String("message", string(prev)), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
		} else {
			log.Info("status_message_deleted", zap.String("message", string(prev)))
		}
	}

	id, err := r.channel.SendEmbed(ctx, channelID, embed)
	if err != nil {
		log.Error("status_message_send_failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	r.pointers.SetMessage(dest, id)
	log.Info("status_message_created", zap.String("message", string(id)))
	return nil
}
