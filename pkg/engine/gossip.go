package engine

import (
	"time"

	"github.com/swarmtalk/swarmtalk/pkg/eventbus"
	"github.com/swarmtalk/swarmtalk/pkg/wire"
)

// tick runs the periodic Gossip Engine round (spec.md §4.6): bump and
// broadcast the self heartbeat, then sweep stale peers.
func (e *Engine) tick() {
	e.mySeq++
	e.table.UpdateSelfSeq(e.mySeq)

	hb := e.buildHeartbeat()
	e.broadcastExcept(hb, nil)

	evicted := e.table.SweepStale(e.cfg.LivenessTTL())
	if len(evicted) > 0 {
		e.publishMembership()
	}

	e.peerLimiter.GC(10 * e.cfg.ChatWindow())
}

// buildHeartbeat constructs and signs a fresh self-heartbeat at the
// current sequence number and zero hops (spec.md §4.6/§4.7).
func (e *Engine) buildHeartbeat() *wire.Message {
	hb := wire.NewHeartbeat(e.id.ID(), e.mySeq, 0, e.id.Nonce)
	hb.Sig = e.id.Sign(hb.HeartbeatSigningBytes())
	return hb
}

// shutdown emits a signed LEAVE on every open connection and waits the
// configured grace period before Run returns (spec.md §4.6). Best-effort:
// no acknowledgements are awaited.
func (e *Engine) shutdown() {
	leave := wire.NewLeave(e.id.ID(), 0)
	leave.Sig = e.id.Sign(wire.LeaveSigningBytes(e.id.ID()))
	e.broadcastExcept(leave, nil)
	e.bus.Publish(eventbus.Event{System: &eventbus.SystemEvent{
		Type:      "SYSTEM",
		Content:   "node shutting down",
		Timestamp: time.Now().UnixMilli(),
	}})
	time.Sleep(e.cfg.ShutdownGrace())
}

// publishMembership builds and publishes a MembershipEvent reflecting the
// current Peer Table and Diagnostics snapshot (spec.md §6).
func (e *Engine) publishMembership() {
	snapshot := e.table.Snapshot()
	peers := make([]eventbus.PeerView, 0, len(snapshot))
	for _, rec := range snapshot {
		peers = append(peers, eventbus.PeerView{
			ID: hexID(rec.ID),
			IP: rec.DirectIP,
		})
	}

	diag := e.diag.Snapshot()
	e.bus.Publish(eventbus.Event{Membership: &eventbus.MembershipEvent{
		Count:       len(snapshot),
		Direct:      e.directConnectionCount(),
		TotalUnique: len(snapshot),
		ID:          hexID(e.id.ID()),
		Peers:       peers,
		Diagnostics: eventbus.DiagnosticsView{
			HeartbeatsReceived: diag.HeartbeatsReceived,
			HeartbeatsRelayed:  diag.HeartbeatsRelayed,
			DuplicateSeq:       diag.DuplicateSeq,
			InvalidPoW:         diag.InvalidPoW,
			InvalidSig:         diag.InvalidSig,
			NewPeersAdded:      diag.NewPeersAdded,
			LeaveMessages:      diag.LeaveMessages,
		},
	}})
}

// publishChat publishes an accepted chat message to the event bus.
func (e *Engine) publishChat(msg *wire.Message) {
	e.bus.Publish(eventbus.Event{Chat: &eventbus.ChatEvent{
		Type:      "CHAT",
		Sender:    hexID(msg.Sender),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Scope:     string(msg.Scope),
	}})
}
