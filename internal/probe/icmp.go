package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

var echoPayload = []byte{1}

// ICMPProber sends one ICMP echo request per Probe call. The sequence number
// is 16 bits wide and wraps; the identifier is derived from the process id.
type ICMPProber struct {
	// Unprivileged switches to datagram ICMP sockets ("udp4"/"udp6"), which
	// some kernels allow without raw-socket capability.
	Unprivileged bool

	id  int
	seq uint32
}

func NewICMPProber() *ICMPProber {
	return &ICMPProber{id: os.Getpid() & 0xffff}
}

func NewUnprivilegedICMPProber() *ICMPProber {
	p := NewICMPProber()
	p.Unprivileged = true
	return p
}

// nextSeq returns the sequence number for the next attempt.
func (p *ICMPProber) nextSeq() int {
	return int(uint16(atomic.AddUint32(&p.seq, 1)))
}

func (p *ICMPProber) Probe(ctx context.Context, addr string, timeout time.Duration) (Outcome, error) {
	ip, err := Resolve(ctx, addr)
	if err != nil {
		return 0, err
	}

	network, protocol, requestType, replyType := icmpSettings(ip, p.Unprivileged)
	conn, err := icmp.ListenPacket(network, listenAddr(ip))
	if err != nil {
		return 0, &ProbeError{Kind: KindTransport, Addr: addr, Err: err}
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	seq := p.nextSeq()
	msg := icmp.Message{
		Type: requestType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  seq,
			Data: echoPayload,
		},
	}
	payload, err := msg.Marshal(nil)
	if err != nil {
		return 0, &ProbeError{Kind: KindOther, Addr: addr, Err: err}
	}

	if err := conn.SetDeadline(effectiveDeadline(ctx, timeout)); err != nil {
		return 0, &ProbeError{Kind: KindOther, Addr: addr, Err: err}
	}

	var dst net.Addr = &net.IPAddr{IP: ip}
	if p.Unprivileged {
		dst = &net.UDPAddr{IP: ip}
	}
	if _, err := conn.WriteTo(payload, dst); err != nil {
		if isTimeout(err) {
			return Unreachable, nil
		}
		return 0, &ProbeError{Kind: KindOther, Addr: addr, Err: err}
	}

	buf := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return 0, &ProbeError{Kind: KindOther, Addr: addr, Err: ctx.Err()}
			}
			if isTimeout(err) {
				return Unreachable, nil
			}
			return 0, &ProbeError{Kind: KindOther, Addr: addr, Err: err}
		}

		reply, err := icmp.ParseMessage(protocol, buf[:n])
		if err != nil || reply.Type != replyType {
			continue
		}
		body, ok := reply.Body.(*icmp.Echo)
		if !ok || body.Seq != seq {
			continue
		}
		// The kernel rewrites the identifier on datagram sockets.
		if !p.Unprivileged && body.ID != p.id {
			continue
		}
		return Reachable, nil
	}
}

func icmpSettings(ip net.IP, unprivileged bool) (network string, protocol int, requestType icmp.Type, replyType icmp.Type) {
	if ip.To4() != nil {
		network = "ip4:icmp"
		if unprivileged {
			network = "udp4"
		}
		return network, ipv4.ICMPTypeEcho.Protocol(), ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	}
	network = "ip6:ipv6-icmp"
	if unprivileged {
		network = "udp6"
	}
	return network, ipv6.ICMPTypeEchoRequest.Protocol(), ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
}

func listenAddr(ip net.IP) string {
	if ip.To4() != nil {
		return "0.0.0.0"
	}
	return "::"
}

func effectiveDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

var _ Prober = (*ICMPProber)(nil)
