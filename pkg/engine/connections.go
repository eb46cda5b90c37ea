package engine

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/swarmtalk/swarmtalk/pkg/overlay"
	"github.com/swarmtalk/swarmtalk/pkg/wire"
)

// writeTimeout bounds how long a single write to a peer socket may block.
// It exists so one slow or unresponsive peer cannot stall the shared
// engine loop indefinitely, which calls Send directly from tick/relay/SubmitChat
// (spec.md §5: "it MUST NOT block the engine loop").
const writeTimeout = 2 * time.Second

// Connection wraps one overlay-provided duplex stream with its framed
// writer and the peer-id it has been bound to, if any (spec.md §4.7).
type Connection struct {
	conn     overlay.Conn
	reader   *wire.FrameReader
	writeMu  sync.Mutex
	writer   *wire.FrameWriter
	remoteIP string

	mu     sync.Mutex
	peerID []byte // bound only once a hops==0 HEARTBEAT is accepted from this socket
}

func newConnection(conn overlay.Conn, maxMessageSize int) *Connection {
	remoteIP := ""
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		remoteIP = addr.IP.String()
	} else if conn.RemoteAddr() != nil {
		remoteIP = conn.RemoteAddr().String()
	}
	return &Connection{
		conn:     conn,
		reader:   wire.NewFrameReader(conn, maxMessageSize),
		writer:   wire.NewFrameWriter(conn),
		remoteIP: remoteIP,
	}
}

// Send writes msg to the connection. Writes are serialized per connection
// so framing cannot interleave (spec.md §5). A write deadline bounds the
// call so a peer that stops reading cannot block the caller indefinitely;
// a deadline failure closes the connection rather than retrying, since a
// peer that can't keep up with its outbound buffer is treated like any
// other dead connection.
func (c *Connection) Send(msg *wire.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := c.writer.WriteMessage(msg); err != nil {
		c.conn.Close()
		return err
	}
	return nil
}

// BoundPeerID returns the peer id this socket has been bound to, if any.
func (c *Connection) BoundPeerID() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerID
}

func (c *Connection) bindPeerID(id []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peerID = append([]byte(nil), id...)
}

func (c *Connection) close() {
	c.conn.Close()
}

// onAccept attaches a newly established overlay connection, sends the
// unsolicited hello heartbeat, emits a membership-change event for the
// direct-connection count, and starts its read loop (spec.md §4.7).
func (e *Engine) onAccept(raw overlay.Conn) {
	conn := newConnection(raw, e.cfg.MaxMessageSize)

	e.connMu.Lock()
	e.connections[conn] = struct{}{}
	e.connMu.Unlock()

	e.do(func() {
		hello := e.buildHeartbeat()
		if err := conn.Send(hello); err != nil {
			e.log.Debug("hello send failed", "error", err)
		}
		e.publishMembership()
	})

	go e.readLoop(conn)
}

func (e *Engine) readLoop(conn *Connection) {
	defer e.onConnectionClosed(conn)
	for {
		msg, err := conn.reader.ReadMessage()
		if err != nil {
			if err != io.EOF {
				e.log.Debug("connection read error", "error", err)
			}
			conn.close()
			return
		}
		e.inbox <- inboundMsg{msg: msg, conn: conn}
	}
}

// onConnectionClosed removes the connection from the set. Per the decided
// Open Question (spec.md §6/§9), a bare socket close does NOT by itself
// evict the bound peer from the table: the peer may remain reachable via
// other relay paths, so eviction is left to LIVENESS_TTL or a validated
// LEAVE. Only the connection's own direct-IP/peer-id binding is discarded.
func (e *Engine) onConnectionClosed(conn *Connection) {
	e.connMu.Lock()
	delete(e.connections, conn)
	e.connMu.Unlock()

	e.do(func() {
		e.publishMembership()
	})
}

// broadcastExcept sends msg to every connection except exclude (may be
// nil to send to all). Sends run one after another on the caller's
// goroutine; a peer that is not reading holds the caller for up to
// writeTimeout, after which its write is dropped and its connection closed.
func (e *Engine) broadcastExcept(msg *wire.Message, exclude *Connection) {
	e.connMu.RLock()
	conns := make([]*Connection, 0, len(e.connections))
	for c := range e.connections {
		if c == exclude {
			continue
		}
		conns = append(conns, c)
	}
	e.connMu.RUnlock()

	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			e.log.Debug("relay send failed", "error", err)
		}
	}
}

// directConnectionCount returns the number of live connections, used for
// the "direct" field of a membership event (spec.md §6).
func (e *Engine) directConnectionCount() int {
	e.connMu.RLock()
	defer e.connMu.RUnlock()
	return len(e.connections)
}
