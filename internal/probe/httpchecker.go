package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// HTTPChecker probes a resource over HTTP. Addresses without a scheme are
// treated as https hosts. Any 2xx/3xx response is Reachable, other statuses
// and refused connections are Unreachable.
type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *HTTPChecker) Probe(ctx context.Context, addr string, timeout time.Duration) (Outcome, error) {
	target := targetURL(addr)
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return 0, &ProbeError{Kind: KindResolution, Addr: addr, Err: errors.New("invalid address")}
	}
	if _, err := Resolve(ctx, u.Hostname()); err != nil {
		return 0, err
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, &ProbeError{Kind: KindOther, Addr: addr, Err: err}
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		if isTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
			return Unreachable, nil
		}
		if errors.Is(err, syscall.ECONNREFUSED) {
			return Unreachable, nil
		}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return 0, &ProbeError{Kind: KindResolution, Addr: addr, Err: err}
		}
		return 0, &ProbeError{Kind: KindOther, Addr: addr, Err: err}
	}
	defer resp.Body.Close()

	// A server that answers at all is up; 401, 404 or a refused HEAD still
	// prove reachability. Only server-side failures count against it.
	if resp.StatusCode < http.StatusInternalServerError {
		return Reachable, nil
	}
	return Unreachable, nil
}

func targetURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, "://") {
		return addr
	}
	return "https://" + addr
}

// HostOf returns the host part of addr. Bare hostnames and IP literals are
// returned unchanged.
func HostOf(addr string) string {
	if ip := net.ParseIP(strings.TrimSpace(addr)); ip != nil {
		return ip.String()
	}
	u, err := url.Parse(targetURL(addr))
	if err != nil || u.Hostname() == "" {
		return strings.TrimSpace(addr)
	}
	return u.Hostname()
}

var _ Prober = (*HTTPChecker)(nil)
