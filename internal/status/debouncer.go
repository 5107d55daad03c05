package status

import (
	"time"

	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/probe"
)

// Change is a confirmed status flip.
type Change struct {
	Old domain.ResourceStatus
	New domain.ResourceStatus
	At  time.Time
}

// Candidate maps a raw probe result to the status it argues for.
func Candidate(out probe.Outcome, err error) domain.ResourceStatus {
	if err != nil {
		return domain.StatusUnknown
	}
	switch out {
	case probe.Reachable:
		return domain.StatusUp
	case probe.Unreachable:
		return domain.StatusDown
	}
	return domain.StatusUnknown
}

// Debouncer turns raw samples into a confirmed status. The hysteresis counter
// is resource-wide; the threshold-th consecutive mismatching sample flips the
// status (a threshold below 1 behaves as 1).
type Debouncer struct {
	state *State
	now   func() time.Time
}

func NewDebouncer(state *State) *Debouncer {
	return &Debouncer{state: state, now: time.Now}
}

// Observe records one raw sample against the configured threshold.
func (d *Debouncer) Observe(out probe.Outcome, err error, threshold int) (Change, bool) {
	return d.ObserveStatus(Candidate(out, err), threshold)
}

func (d *Debouncer) ObserveStatus(candidate domain.ResourceStatus, threshold int) (Change, bool) {
	if threshold < 1 {
		threshold = 1
	}

	s := d.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if candidate == s.status {
		s.counter = 0
		return Change{}, false
	}

	s.counter++
	if s.counter < threshold {
		return Change{}, false
	}

	ch := Change{Old: s.status, New: candidate, At: d.now().UTC()}
	s.status = candidate
	s.counter = 0
	s.lastChange = ch.At
	return ch, true
}
