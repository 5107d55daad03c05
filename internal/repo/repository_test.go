package repo_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/repo"
	"github.com/hamed0406/watchdog/internal/repo/file"
	"github.com/hamed0406/watchdog/internal/repo/memory"
	pg "github.com/hamed0406/watchdog/internal/repo/postgres"
	rds "github.com/hamed0406/watchdog/internal/repo/redis"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.StateStore = memory.New()
	var _ repo.StateStore = file.New("state.yaml")

	var _ repo.StateStore = (*pg.Store)(nil)
	var _ repo.StateStore = (*rds.Store)(nil)
}

// Behaviour every local adapter must share.
func TestLocalStores_Contract(t *testing.T) {
	stores := map[string]repo.StateStore{
		"memory": memory.New(),
		"file":   file.New(filepath.Join(t.TempDir(), "state.yaml")),
	}
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			got, err := s.Load(ctx)
			if err != nil || got != nil {
				t.Fatalf("empty load = %v, %v; want nil, nil", got, err)
			}

			want := domain.RuntimeSnapshot{
				Status:            domain.StatusDown,
				HysteresisCounter: 2,
				LastChange:        at,
				Messages:          map[domain.DestinationID]domain.MessageID{"g1": "m1"},
			}
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}
			want.Messages["g1"] = "mutated"

			got, err = s.Load(ctx)
			if err != nil || got == nil {
				t.Fatalf("load = %v, %v", got, err)
			}
			if got.Status != domain.StatusDown || got.HysteresisCounter != 2 || !got.LastChange.Equal(at) {
				t.Fatalf("unexpected snapshot %+v", got)
			}
			if got.Messages["g1"] != "m1" {
				t.Fatalf("message pointer = %q, want m1", got.Messages["g1"])
			}
		})
	}
}
