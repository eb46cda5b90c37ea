// Package tcpoverlay is a reference overlay.Overlay implementation that
// stands in for the unspecified DHT rendezvous (spec.md §6) with a plain
// TCP listener plus a configured list of seed addresses to dial. It lets
// cmd/swarmtalkd run end to end without a Kademlia implementation, which
// spec.md places out of scope (§1).
package tcpoverlay

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/swarmtalk/swarmtalk/pkg/overlay"
)

// Overlay listens on a local TCP address and dials a fixed set of seed
// addresses, delivering every resulting connection on the same channel.
type Overlay struct {
	listenAddr string
	seeds      []string
	log        *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	conns chan overlay.Conn
}

// New creates a TCP-backed overlay. listenAddr is the local bind address
// (e.g. ":7946"); seeds are dialed once on Join and are tolerant of
// individual failures (a seed that refuses is logged and skipped).
func New(listenAddr string, seeds []string, log *slog.Logger) *Overlay {
	if log == nil {
		log = slog.Default()
	}
	return &Overlay{
		listenAddr: listenAddr,
		seeds:      seeds,
		log:        log.With("component", "tcpoverlay"),
		conns:      make(chan overlay.Conn, 16),
	}
}

// Join binds the listener and starts the accept loop plus a best-effort
// dial of every configured seed. The topic value is not interpreted by
// this reference implementation since it has no DHT rendezvous to scope
// membership by; all nodes sharing the same listen/seed configuration are
// considered joined to the same topic.
func (o *Overlay) Join(ctx context.Context, topic [32]byte) error {
	ln, err := net.Listen("tcp", o.listenAddr)
	if err != nil {
		return fmt.Errorf("tcpoverlay: listen %s: %w", o.listenAddr, err)
	}
	o.mu.Lock()
	o.listener = ln
	o.mu.Unlock()

	go o.acceptLoop(ctx)

	for _, seed := range o.seeds {
		go o.dialSeed(ctx, seed)
	}
	return nil
}

func (o *Overlay) acceptLoop(ctx context.Context) {
	for {
		conn, err := o.listener.Accept()
		if err != nil {
			o.mu.Lock()
			closed := o.closed
			o.mu.Unlock()
			if closed {
				return
			}
			o.log.Error("accept failed", "error", err)
			return
		}
		o.log.Debug("accepted connection", "remote", conn.RemoteAddr())
		select {
		case o.conns <- conn:
		case <-ctx.Done():
			conn.Close()
			return
		}
	}
}

func (o *Overlay) dialSeed(ctx context.Context, addr string) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		o.log.Warn("seed dial failed", "addr", addr, "error", err)
		return
	}
	o.log.Debug("dialed seed", "addr", addr)
	select {
	case o.conns <- conn:
	case <-ctx.Done():
		conn.Close()
	}
}

// Accept returns the channel of established connections, inbound and
// outbound alike.
func (o *Overlay) Accept() <-chan overlay.Conn {
	return o.conns
}

// Close stops the listener. Already-established connections are left open
// for the caller to close individually.
func (o *Overlay) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	if o.listener != nil {
		return o.listener.Close()
	}
	return nil
}
