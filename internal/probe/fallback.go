package probe

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

// FallbackProber probes with primary until primary fails for lack of
// privileges, then switches to secondary for good.
type FallbackProber struct {
	primary   Prober
	secondary Prober
	fellBack  atomic.Bool
}

func NewFallbackProber(primary, secondary Prober) *FallbackProber {
	return &FallbackProber{primary: primary, secondary: secondary}
}

func (p *FallbackProber) Probe(ctx context.Context, addr string, timeout time.Duration) (Outcome, error) {
	if p.fellBack.Load() {
		return p.secondary.Probe(ctx, addr, timeout)
	}
	out, err := p.primary.Probe(ctx, addr, timeout)
	if !IsTransport(err) || !isPermissionError(err) {
		return out, err
	}
	p.fellBack.Store(true)
	return p.secondary.Probe(ctx, addr, timeout)
}

// FellBack reports whether the secondary prober is in use.
func (p *FallbackProber) FellBack() bool { return p.fellBack.Load() }

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "operation not permitted") || strings.Contains(msg, "permission denied")
}

var _ Prober = (*FallbackProber)(nil)
