package probe

import (
	"context"
	"fmt"
	"time"
)

// Outcome is the result of a probe that completed without error.
type Outcome int

const (
	Reachable Outcome = iota + 1
	Unreachable
)

func (o Outcome) String() string {
	switch o {
	case Reachable:
		return "reachable"
	case Unreachable:
		return "unreachable"
	default:
		return "invalid"
	}
}

// Prober performs one reachability check. A timeout is reported as
// Unreachable with a nil error; every other failure is a *ProbeError.
type Prober interface {
	Probe(ctx context.Context, addr string, timeout time.Duration) (Outcome, error)
}

const (
	KindICMP = "icmp"
	KindHTTP = "http"
)

// New builds the prober for a configured probe kind. ICMP starts on raw
// sockets and drops to datagram sockets when the process lacks privileges.
func New(kind string) (Prober, error) {
	switch kind {
	case "", KindICMP:
		return NewFallbackProber(NewICMPProber(), NewUnprivilegedICMPProber()), nil
	case KindHTTP:
		return NewHTTPChecker(), nil
	}
	return nil, fmt.Errorf("unknown probe kind %q", kind)
}
