package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// DNSStatus describes how a resource address resolves. It is used at
// configuration time to explain why an address was rejected.
type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	IPs           []net.IP
	CNAME         string
	Class         string // "RESOLVES" | "LITERAL" | "NXDOMAIN" | "SERVFAIL_or_TIMEOUT" | "INVALID_NAME"
	ResolverError string
}

var dnsTimeout = 3 * time.Second

var resolver = net.DefaultResolver

// Resolve maps a hostname or IP literal to the first network address it
// resolves to. It fails with a resolution-kind *ProbeError when no record exists.
func Resolve(ctx context.Context, addr string) (net.IP, error) {
	host := strings.TrimSpace(addr)
	if host == "" {
		return nil, &ProbeError{Kind: KindResolution, Addr: addr, Err: errors.New("empty address")}
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &ProbeError{Kind: KindResolution, Addr: addr, Err: err}
	}
	if len(addrs) == 0 || addrs[0].IP == nil {
		return nil, &ProbeError{
			Kind: KindResolution,
			Addr: addr,
			Err:  fmt.Errorf("failed to resolve %s: no IP associated with it", host),
		}
	}
	return addrs[0].IP, nil
}

// CheckDNS classifies a resource address for configuration-time validation.
func CheckDNS(domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") || strings.ContainsAny(s.Domain, " /") {
		s.Class = "INVALID_NAME"
		return s
	}
	if ip := net.ParseIP(s.Domain); ip != nil {
		s.HasAOrAAAA = true
		s.IPs = []net.IP{ip}
		s.Class = "LITERAL"
		return s
	}

	ctx, cancel := context.WithTimeout(context.Background(), dnsTimeout)
	defer cancel()

	ips, err := resolver.LookupIP(ctx, "ip", s.Domain)
	switch {
	case err == nil && len(ips) > 0:
		s.HasAOrAAAA = true
		s.IPs = ips
		s.Class = "RESOLVES"
	case err != nil:
		var de *net.DNSError
		s.ResolverError = err.Error()
		s.Class = "SERVFAIL_or_TIMEOUT"
		if errors.As(err, &de) && de.IsNotFound {
			s.Class = "NXDOMAIN"
		}
	default:
		s.Class = "NXDOMAIN"
	}

	if cname, err := resolver.LookupCNAME(ctx, s.Domain); err == nil && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}
	return s
}

// Resolvable reports whether a DNSStatus class is acceptable for probing.
func (s DNSStatus) Resolvable() bool {
	return s.Class == "RESOLVES" || s.Class == "LITERAL"
}
