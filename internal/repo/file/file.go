package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/repo"
)

const CurrentVersion = 1

var _ repo.StateStore = (*Store)(nil)

type document struct {
	Version int                    `yaml:"version"`
	State   domain.RuntimeSnapshot `yaml:"state"`
}

// Store writes the snapshot as YAML. Writes go to a temp file in the same
// directory and are renamed into place.
type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) (*domain.RuntimeSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", s.path, err)
	}
	if doc.Version > CurrentVersion {
		return nil, fmt.Errorf("state %s has version %d, newest supported is %d", s.path, doc.Version, CurrentVersion)
	}
	if doc.State.Messages == nil {
		doc.State.Messages = map[domain.DestinationID]domain.MessageID{}
	}
	return &doc.State, nil
}

func (s *Store) Save(ctx context.Context, snap domain.RuntimeSnapshot) error {
	data, err := yaml.Marshal(document{Version: CurrentVersion, State: snap})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicWrite(s.path, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	tmp = nil

	return os.Rename(tmpName, path)
}
