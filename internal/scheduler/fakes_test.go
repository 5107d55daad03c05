package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/domain"
	"github.com/hamed0406/watchdog/internal/notify"
	"github.com/hamed0406/watchdog/internal/probe"
)

// --- fakes ---

type fakeConfig struct {
	mu   sync.Mutex
	snap config.Snapshot
	n    int
}

func newFakeConfig(interval time.Duration, threshold int, dests ...domain.Destination) *fakeConfig {
	return &fakeConfig{snap: config.Snapshot{
		Probe: domain.ProbeConfig{
			ResourceName: "API",
			ResourceAddr: "api.example.com",
			Kind:         probe.KindICMP,
			Timeout:      50 * time.Millisecond,
			Interval:     interval,
			Threshold:    threshold,
		},
		Destinations: dests,
		Concurrency:  1,
	}}
}

func (f *fakeConfig) Snapshot() config.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	out := f.snap
	out.Destinations = append([]domain.Destination(nil), f.snap.Destinations...)
	return out
}

func (f *fakeConfig) setInterval(d time.Duration) {
	f.mu.Lock()
	f.snap.Probe.Interval = d
	f.mu.Unlock()
}

type scriptedProber struct {
	mu       sync.Mutex
	script   []probeResult
	calls    int
	inFlight int
	maxSeen  int
}

type probeResult struct {
	out probe.Outcome
	err error
}

func (p *scriptedProber) Probe(ctx context.Context, addr string, timeout time.Duration) (probe.Outcome, error) {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.maxSeen {
		p.maxSeen = p.inFlight
	}
	i := p.calls
	p.calls++
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if len(p.script) == 0 {
		return probe.Reachable, nil
	}
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	r := p.script[i]
	return r.out, r.err
}

func (p *scriptedProber) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recordingObserver struct {
	mu      sync.Mutex
	samples []probeResult
	at      []time.Time
}

func (o *recordingObserver) ObserveAndPropagate(ctx context.Context, out probe.Outcome, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.samples = append(o.samples, probeResult{out: out, err: err})
	o.at = append(o.at, time.Now())
}

func (o *recordingObserver) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.samples)
}

// fakeChannel accepts everything and records what was sent.
type fakeChannel struct {
	mu     sync.Mutex
	texts  []string
	embeds []notify.Embed
	next   int
	fail   bool
}

func (f *fakeChannel) GetChannel(ctx context.Context, id string) (notify.ChannelInfo, error) {
	return notify.ChannelInfo{ID: id}, nil
}

func (f *fakeChannel) GetMessage(ctx context.Context, channel string, id domain.MessageID) error {
	return fmt.Errorf("message %s: %w", id, notify.ErrNotFound)
}

func (f *fakeChannel) DeleteMessage(ctx context.Context, channel string, id domain.MessageID) error {
	return nil
}

func (f *fakeChannel) SendText(ctx context.Context, channel, content string) (domain.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("boom")
	}
	f.texts = append(f.texts, content)
	f.next++
	return domain.MessageID(fmt.Sprintf("t%d", f.next)), nil
}

func (f *fakeChannel) SendEmbed(ctx context.Context, channel string, e notify.Embed) (domain.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("boom")
	}
	f.embeds = append(f.embeds, e)
	f.next++
	return domain.MessageID(fmt.Sprintf("e%d", f.next)), nil
}

type failingStore struct{ n int }

func (f *failingStore) Load(ctx context.Context) (*domain.RuntimeSnapshot, error) { return nil, nil }
func (f *failingStore) Save(ctx context.Context, snap domain.RuntimeSnapshot) error {
	f.n++
	return errors.New("disk full")
}
