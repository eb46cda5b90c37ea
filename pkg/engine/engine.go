// Package engine re-expresses the Message Handler, Gossip Engine, and
// Connection Manager of spec.md §4.5-§4.7 as a single value that owns the
// Peer Table, Relay Dedup Filter, rate limiter, Diagnostics, and Event
// Bus, with every mutation serialized through one logical actor (spec.md
// §5, §9).
package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/swarmtalk/swarmtalk/internal/config"
	"github.com/swarmtalk/swarmtalk/pkg/diagnostics"
	"github.com/swarmtalk/swarmtalk/pkg/eventbus"
	"github.com/swarmtalk/swarmtalk/pkg/identity"
	"github.com/swarmtalk/swarmtalk/pkg/overlay"
	"github.com/swarmtalk/swarmtalk/pkg/peertable"
	"github.com/swarmtalk/swarmtalk/pkg/ratelimit"
	"github.com/swarmtalk/swarmtalk/pkg/relay"
	"github.com/swarmtalk/swarmtalk/pkg/wire"
)

// topicName is the fixed shared topic every node joins (spec.md §6: "the
// 32-byte SHA-256 of the fixed string topic name").
const topicName = "swarmtalk/v1"

// TopicID returns the overlay topic identifier all nodes join.
func TopicID() [32]byte {
	return sha256.Sum256([]byte(topicName))
}

type inboundMsg struct {
	msg  *wire.Message
	conn *Connection
}

// Engine owns every piece of mutable state named in spec.md §5: the Peer
// Table, the Relay Dedup Filter, the per-sender rate limiter, and
// Diagnostics. All mutation is serialized through loop, the engine's
// single logical actor.
type Engine struct {
	id  *identity.Identity
	cfg *config.Config
	log *slog.Logger

	table         *peertable.Table
	filter        *relay.Filter
	diag          *diagnostics.Diagnostics
	bus           *eventbus.Bus
	peerLimiter   *ratelimit.Limiter
	globalLimiter *ratelimit.Global

	mySeq uint64 // only touched inside loop

	connMu      sync.RWMutex
	connections map[*Connection]struct{}

	inbox   chan inboundMsg
	actions chan func()

	ov overlay.Overlay
}

// New constructs an Engine. id must already carry a solved proof-of-work
// nonce; cmd/swarmtalkd solves it at startup or loads one previously
// persisted.
func New(id *identity.Identity, cfg *config.Config, ov overlay.Overlay, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		id:            id,
		cfg:           cfg,
		log:           log.With("component", "engine"),
		table:         peertable.New(cfg.MaxPeers),
		filter:        relay.New(4096, 0.01),
		diag:          diagnostics.New(),
		bus:           eventbus.New(64),
		peerLimiter:   ratelimit.New(cfg.ChatWindow(), cfg.ChatMax),
		globalLimiter: ratelimit.NewGlobal(cfg.ChatWindow(), cfg.ChatMax),
		connections:   make(map[*Connection]struct{}),
		inbox:         make(chan inboundMsg, 256),
		actions:       make(chan func()),
		ov:            ov,
	}
	e.table.SetSelf(id.ID(), 0)
	return e
}

// Diagnostics returns a snapshot of the process counters (spec.md §4.9).
func (e *Engine) Diagnostics() diagnostics.Counters { return e.diag.Snapshot() }

// Events returns a subscription to the engine's event bus (spec.md §4.8).
func (e *Engine) Events() (<-chan eventbus.Event, func()) { return e.bus.Subscribe() }

// Run joins the configured overlay topic and drives the engine loop until
// ctx is cancelled, at which point it emits a LEAVE, waits the configured
// shutdown grace period, and returns (spec.md §4.6).
func (e *Engine) Run(ctx context.Context) error {
	if err := e.ov.Join(ctx, TopicID()); err != nil {
		return fmt.Errorf("engine: join overlay: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.acceptLoop(ctx)
	}()

	e.loop(ctx)
	e.shutdown()
	wg.Wait()
	return nil
}

func (e *Engine) acceptLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case conn, ok := <-e.ov.Accept():
			if !ok {
				return
			}
			e.onAccept(conn)
		}
	}
}

func (e *Engine) loop(ctx context.Context) {
	heartbeat := time.NewTicker(e.cfg.HeartbeatInterval())
	defer heartbeat.Stop()
	rotation := time.NewTicker(e.cfg.RotationInterval())
	defer rotation.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case in := <-e.inbox:
			e.handle(in.msg, in.conn)
		case fn := <-e.actions:
			fn()
		case <-heartbeat.C:
			e.tick()
		case <-rotation.C:
			e.filter.Rotate()
		}
	}
}

// do routes fn through the engine loop so callers on other goroutines
// (e.g. a chat submission endpoint) observe the single-writer contract
// (spec.md §5).
func (e *Engine) do(fn func()) {
	done := make(chan struct{})
	e.actions <- func() {
		fn()
		close(done)
	}
	<-done
}
