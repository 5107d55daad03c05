package status

import (
	"sync"
	"time"

	"github.com/hamed0406/watchdog/internal/domain"
)

// State is the process-wide runtime state. The status group (status, counter,
// last change) and the message pointers are guarded by separate locks so a
// reconciliation never blocks status reads.
type State struct {
	mu         sync.RWMutex
	status     domain.ResourceStatus
	counter    int
	lastChange time.Time

	msgMu    sync.RWMutex
	messages map[domain.DestinationID]domain.MessageID
}

func NewState() *State {
	return &State{messages: make(map[domain.DestinationID]domain.MessageID)}
}

// Restore builds a State from a persisted snapshot.
func Restore(snap domain.RuntimeSnapshot) *State {
	s := NewState()
	s.status = snap.Status
	if snap.HysteresisCounter > 0 {
		s.counter = snap.HysteresisCounter
	}
	s.lastChange = snap.LastChange
	for k, v := range snap.Messages {
		if v != "" {
			s.messages[k] = v
		}
	}
	return s
}

func (s *State) Status() domain.ResourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *State) LastChange() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastChange
}

func (s *State) Counter() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter
}

// Message returns the live status message pointer for a destination.
func (s *State) Message(id domain.DestinationID) (domain.MessageID, bool) {
	s.msgMu.RLock()
	defer s.msgMu.RUnlock()
	m, ok := s.messages[id]
	return m, ok
}

// SetMessage replaces the pointer for a destination. Only the reconciler
// calls this, after a new status message was created.
func (s *State) SetMessage(id domain.DestinationID, msg domain.MessageID) {
	s.msgMu.Lock()
	defer s.msgMu.Unlock()
	s.messages[id] = msg
}

// Snapshot copies both lock groups. The two groups are read one after the
// other, never nested.
func (s *State) Snapshot() domain.RuntimeSnapshot {
	s.mu.RLock()
	snap := domain.RuntimeSnapshot{
		Status:            s.status,
		HysteresisCounter: s.counter,
		LastChange:        s.lastChange,
	}
	s.mu.RUnlock()

	s.msgMu.RLock()
	snap.Messages = make(map[domain.DestinationID]domain.MessageID, len(s.messages))
	for k, v := range s.messages {
		snap.Messages[k] = v
	}
	s.msgMu.RUnlock()
	return snap
}
