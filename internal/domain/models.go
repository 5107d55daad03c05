package domain

import (
	"fmt"
	"strings"
	"time"
)

// ResourceStatus is the confirmed (or candidate) reachability of the monitored
// resource. The zero value is StatusUnknown.
type ResourceStatus int

const (
	StatusUnknown ResourceStatus = iota
	StatusUp
	StatusDown
)

func (s ResourceStatus) String() string {
	switch s {
	case StatusUp:
		return "up"
	case StatusDown:
		return "down"
	default:
		return "unknown"
	}
}

func (s ResourceStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ResourceStatus) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStatus accepts the text form written by MarshalText. An empty string
// parses as StatusUnknown.
func ParseStatus(raw string) (ResourceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up":
		return StatusUp, nil
	case "down":
		return StatusDown, nil
	case "unknown", "":
		return StatusUnknown, nil
	}
	return StatusUnknown, fmt.Errorf("unknown resource status %q", raw)
}

type DestinationID string

// MessageID identifies a message inside a destination's channel.
type MessageID string

type ProbeConfig struct {
	ResourceName string        `json:"resource_name" yaml:"name" mapstructure:"name"`
	ResourceAddr string        `json:"resource_addr" yaml:"address" mapstructure:"address"`
	Kind         string        `json:"kind" yaml:"kind" mapstructure:"kind"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Interval     time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`
	Threshold    int           `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// Destination is one subscriber sink. ChannelID and RoleID are optional.
type Destination struct {
	ID          DestinationID `json:"id" yaml:"-" mapstructure:"-"`
	Name        string        `json:"name" yaml:"name" mapstructure:"name"`
	ChannelID   string        `json:"channel_id,omitempty" yaml:"channel" mapstructure:"channel"`
	RoleID      string        `json:"role_id,omitempty" yaml:"role" mapstructure:"role"`
	UpMessage   string        `json:"up_message" yaml:"up_message" mapstructure:"up_message"`
	DownMessage string        `json:"down_message" yaml:"down_message" mapstructure:"down_message"`
}

// RuntimeSnapshot is a point-in-time copy of the process-wide runtime state.
type RuntimeSnapshot struct {
	Status            ResourceStatus              `json:"status" yaml:"status"`
	HysteresisCounter int                         `json:"hysteresis_counter" yaml:"hysteresis_counter"`
	LastChange        time.Time                   `json:"last_change" yaml:"last_change"`
	Messages          map[DestinationID]MessageID `json:"messages" yaml:"messages"`
}

// Clone returns a snapshot whose message map does not alias s.
func (s RuntimeSnapshot) Clone() RuntimeSnapshot {
	out := s
	out.Messages = make(map[DestinationID]MessageID, len(s.Messages))
	for k, v := range s.Messages {
		out.Messages[k] = v
	}
	return out
}
