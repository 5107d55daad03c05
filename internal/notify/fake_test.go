package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hamed0406/watchdog/internal/domain"
)

var errBoom = errors.New("boom")

type sentText struct {
	Channel string
	Content string
}

type sentEmbed struct {
	Channel string
	Embed   Embed
}

// fakeChannel is an in-memory chat backend. Existing messages live in
// messages[channel][id]; the fail* maps inject errors per channel.
type fakeChannel struct {
	mu       sync.Mutex
	channels map[string]bool
	messages map[string]map[domain.MessageID]bool
	nextID   int

	failSendText  map[string]bool
	failSendEmbed map[string]bool
	failDelete    map[string]bool

	texts   []sentText
	embeds  []sentEmbed
	deleted []domain.MessageID
}

func newFakeChannel(channels ...string) *fakeChannel {
	f := &fakeChannel{
		channels:      map[string]bool{},
		messages:      map[string]map[domain.MessageID]bool{},
		failSendText:  map[string]bool{},
		failSendEmbed: map[string]bool{},
		failDelete:    map[string]bool{},
	}
	for _, c := range channels {
		f.channels[c] = true
		f.messages[c] = map[domain.MessageID]bool{}
	}
	return f
}

func (f *fakeChannel) put(channel string, id domain.MessageID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channel][id] = true
}

func (f *fakeChannel) GetChannel(_ context.Context, id string) (ChannelInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.channels[id] {
		return ChannelInfo{}, fmt.Errorf("channel %s: %w", id, ErrNotFound)
	}
	return ChannelInfo{ID: id, Name: "status"}, nil
}

func (f *fakeChannel) GetMessage(_ context.Context, channel string, id domain.MessageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.messages[channel][id] {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	return nil
}

func (f *fakeChannel) DeleteMessage(_ context.Context, channel string, id domain.MessageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete[channel] {
		return errBoom
	}
	delete(f.messages[channel], id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeChannel) SendText(_ context.Context, channel, content string) (domain.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSendText[channel] {
		return "", errBoom
	}
	f.texts = append(f.texts, sentText{Channel: channel, Content: content})
	return f.newIDLocked(channel), nil
}

func (f *fakeChannel) SendEmbed(_ context.Context, channel string, e Embed) (domain.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSendEmbed[channel] {
		return "", errBoom
	}
	f.embeds = append(f.embeds, sentEmbed{Channel: channel, Embed: e})
	return f.newIDLocked(channel), nil
}

func (f *fakeChannel) newIDLocked(channel string) domain.MessageID {
	f.nextID++
	id := domain.MessageID(fmt.Sprintf("m%d", f.nextID))
	f.messages[channel][id] = true
	return id
}

type memPointers struct {
	mu sync.Mutex
	m  map[domain.DestinationID]domain.MessageID
}

func newMemPointers() *memPointers {
	return &memPointers{m: map[domain.DestinationID]domain.MessageID{}}
}

func (p *memPointers) Message(id domain.DestinationID) (domain.MessageID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[id]
	return v, ok
}

func (p *memPointers) SetMessage(id domain.DestinationID, msg domain.MessageID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[id] = msg
}
