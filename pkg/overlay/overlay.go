// Package overlay defines the external collaborator spec.md §6 describes as
// "an object providing join(topic), a connection event yielding a duplex
// byte stream with remoteAddress, and an iterable set of current
// connections." The DHT rendezvous itself is out of scope (spec.md §1);
// this package only fixes the boundary so the engine can be built and run
// against a concrete implementation.
package overlay

import (
	"context"
	"net"
)

// Conn is a single duplex byte stream to a peer that has joined the same
// topic, ordered and reliable per spec.md §6.
type Conn interface {
	net.Conn
}

// Overlay joins a topic and yields incoming peer connections. Outbound
// connections to known seeds are established by the implementation itself
// once Join returns; the engine only consumes the Accept channel.
type Overlay interface {
	// Join announces participation in topic (the 32-byte SHA-256 of a fixed
	// topic name, per spec.md §6) and begins accepting/dialing peers.
	Join(ctx context.Context, topic [32]byte) error

	// Accept returns a channel of newly established peer connections,
	// both inbound (accepted) and outbound (dialed to a seed).
	Accept() <-chan Conn

	// Close stops accepting new connections and releases the listener.
	Close() error
}
