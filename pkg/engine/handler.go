package engine

import (
	"time"

	"github.com/swarmtalk/swarmtalk/pkg/identity"
	"github.com/swarmtalk/swarmtalk/pkg/relay"
	"github.com/swarmtalk/swarmtalk/pkg/wire"
)

// handle is the single entry point for an inbound message, invoked only
// from the engine loop (spec.md §4.5). It dispatches by tag.
func (e *Engine) handle(msg *wire.Message, conn *Connection) {
	switch msg.Type {
	case wire.KindHeartbeat:
		e.handleHeartbeat(msg, conn)
	case wire.KindLeave:
		e.handleLeave(msg, conn)
	case wire.KindChat:
		e.handleChat(msg, conn)
	}
}

// handleHeartbeat implements spec.md §4.5's nine-step HEARTBEAT flow.
func (e *Engine) handleHeartbeat(msg *wire.Message, conn *Connection) {
	e.diag.IncHeartbeatsReceived()

	if existing, ok := e.table.Get(msg.ID); ok && msg.Seq <= existing.Seq {
		e.diag.IncDuplicateSeq()
		return
	}

	if !identity.VerifyProofOfWork(msg.ID, msg.Nonce, e.cfg.PoWDifficulty) {
		e.diag.IncInvalidPoW()
		return
	}

	if len(msg.Sig) == 0 {
		e.diag.IncInvalidSig()
		return
	}

	if !identity.Verify(msg.ID, msg.HeartbeatSigningBytes(), msg.Sig) {
		e.diag.IncInvalidSig()
		return
	}

	directIP := ""
	if msg.Hops == 0 {
		conn.bindPeerID(msg.ID)
		directIP = conn.remoteIP
	}

	wasNew := e.table.AddOrUpdate(msg.ID, msg.Seq, directIP)
	if wasNew {
		e.diag.IncNewPeersAdded()
		e.publishMembership()
	} else if _, stored := e.table.Get(msg.ID); !stored {
		return // table full: an unknown peer is not admitted or relayed
	}

	if msg.Hops < e.cfg.MaxRelayHops {
		mark := relay.Mark(msg.ID, relay.KindHeartbeat, msg.Seq)
		if !e.filter.HasRelayed(mark) {
			e.filter.MarkRelayed(mark)
			relayed := *msg
			relayed.Hops = msg.Hops + 1
			e.broadcastExcept(&relayed, conn)
			e.diag.IncHeartbeatsRelayed()
		}
	}
}

// handleLeave implements spec.md §4.5's LEAVE flow.
func (e *Engine) handleLeave(msg *wire.Message, conn *Connection) {
	if _, ok := e.table.Get(msg.ID); !ok {
		return // no-op: absence short-circuits before signature verification
	}

	if len(msg.Sig) == 0 {
		return
	}
	if !identity.Verify(msg.ID, wire.LeaveSigningBytes(msg.ID), msg.Sig) {
		return
	}

	e.table.Remove(msg.ID)
	e.diag.IncLeaveMessages()
	e.publishMembership()

	if msg.Hops < e.cfg.MaxRelayHops {
		mark := relay.Mark(msg.ID, relay.KindLeave, 0)
		if !e.filter.HasRelayed(mark) {
			e.filter.MarkRelayed(mark)
			relayed := *msg
			relayed.Hops = msg.Hops + 1
			e.broadcastExcept(&relayed, conn)
		}
	}
}

// handleChat implements spec.md §4.5's CHAT flow for both scopes.
func (e *Engine) handleChat(msg *wire.Message, conn *Connection) {
	switch msg.Scope {
	case wire.ScopeLocal:
		e.handleLocalChat(msg, conn)
	case wire.ScopeGlobal:
		e.handleGlobalChat(msg, conn)
	}
}

func (e *Engine) handleLocalChat(msg *wire.Message, conn *Connection) {
	bound := conn.BoundPeerID()
	if len(bound) == 0 || string(bound) != string(msg.Sender) {
		return
	}
	if !e.peerLimiter.AllowID(msg.Sender) {
		return
	}
	e.publishChat(msg)
}

func (e *Engine) handleGlobalChat(msg *wire.Message, conn *Connection) {
	if len(msg.Sig) == 0 || len(msg.ID) == 0 {
		return
	}

	want := wire.ChatContentID(msg.Sender, msg.Content, msg.Timestamp)
	if string(want) != string(msg.ID) {
		return
	}

	now := time.Now().UnixMilli()
	drift := now - msg.Timestamp
	if drift < 0 {
		drift = -drift
	}
	if drift > chatFreshnessWindowMS {
		return
	}

	if !identity.Verify(msg.Sender, wire.ChatSigningBytes(msg.ID), msg.Sig) {
		return
	}

	mark := relay.Mark(msg.ID, relay.KindChat, 0)
	if e.filter.HasRelayed(mark) {
		return
	}
	e.filter.MarkRelayed(mark)

	if !e.peerLimiter.AllowID(msg.Sender) {
		return
	}

	e.publishChat(msg)

	if msg.Hops < e.cfg.MaxRelayHops {
		relayed := *msg
		relayed.Hops = msg.Hops + 1
		e.broadcastExcept(&relayed, conn)
	}
}
