package notify

import (
	"context"
	"errors"

	"github.com/hamed0406/watchdog/internal/domain"
)

// ErrNotFound is returned (wrapped) by a Channel when the channel or message
// does not exist, as opposed to a transport failure.
var ErrNotFound = errors.New("not found")

// Per-destination failures. They are wrapped around the channel's cause and
// never leave a single destination's delivery.
var (
	ErrChannelUnavailable = errors.New("channel unavailable")
	ErrMessageUnavailable = errors.New("message unavailable")
	ErrSendFailed         = errors.New("send failed")
	ErrDeleteFailed       = errors.New("delete failed")
)

type ChannelInfo struct {
	ID   string
	Name string
}

// Channel is the messaging capability the dispatcher needs from a chat
// backend. Every call is independently fallible.
type Channel interface {
	GetChannel(ctx context.Context, channelID string) (ChannelInfo, error)
	GetMessage(ctx context.Context, channelID string, id domain.MessageID) error
	DeleteMessage(ctx context.Context, channelID string, id domain.MessageID) error
	SendText(ctx context.Context, channelID, content string) (domain.MessageID, error)
	SendEmbed(ctx context.Context, channelID string, e Embed) (domain.MessageID, error)
}
