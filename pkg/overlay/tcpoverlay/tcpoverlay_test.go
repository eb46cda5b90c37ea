package tcpoverlay

import (
	"context"
	"testing"
	"time"
)

func TestJoinAcceptsDialedSeedConnection(t *testing.T) {
	listenerOverlay := New("127.0.0.1:0", nil, nil)
	t.Cleanup(func() { listenerOverlay.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := listenerOverlay.Join(ctx, [32]byte{}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	addr := listenerOverlay.listener.Addr().String()

	dialerOverlay := New("127.0.0.1:0", []string{addr}, nil)
	t.Cleanup(func() { dialerOverlay.Close() })
	if err := dialerOverlay.Join(ctx, [32]byte{}); err != nil {
		t.Fatalf("Join (dialer): %v", err)
	}

	select {
	case conn := <-listenerOverlay.Accept():
		conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for accepted connection")
	}

	select {
	case conn := <-dialerOverlay.Accept():
		conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dialed connection")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	o := New("127.0.0.1:0", nil, nil)
	ctx := context.Background()
	if err := o.Join(ctx, [32]byte{}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}
