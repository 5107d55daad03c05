package repo

import (
	"context"

	"github.com/hamed0406/watchdog/internal/domain"
)

// StateStore persists the runtime snapshot. Swap in any adapter.
type StateStore interface {
	// Load returns nil, nil when nothing has been saved yet.
	Load(ctx context.Context) (*domain.RuntimeSnapshot, error)
	Save(ctx context.Context, snap domain.RuntimeSnapshot) error
}
