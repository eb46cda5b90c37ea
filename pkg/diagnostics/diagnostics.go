// Package diagnostics implements the fixed set of monotonic process
// counters described in §4.9.
package diagnostics

import "sync/atomic"

// Counters holds a snapshot of diagnostic counter values.
type Counters struct {
	HeartbeatsReceived uint64
	HeartbeatsRelayed  uint64
	DuplicateSeq       uint64
	InvalidPoW         uint64
	InvalidSig         uint64
	NewPeersAdded      uint64
	LeaveMessages      uint64
}

// Diagnostics is the live, concurrency-safe counter set. All fields are
// accessed only through atomic operations so any goroutine may increment
// them without going through the engine's single-writer serialization
// point (§5 exempts diagnostics as the one shared resource safe to touch
// from socket-I/O goroutines directly).
type Diagnostics struct {
	heartbeatsReceived atomic.Uint64
	heartbeatsRelayed  atomic.Uint64
	duplicateSeq       atomic.Uint64
	invalidPoW         atomic.Uint64
	invalidSig         atomic.Uint64
	newPeersAdded      atomic.Uint64
	leaveMessages      atomic.Uint64
}

// New returns a zeroed Diagnostics.
func New() *Diagnostics { return &Diagnostics{} }

func (d *Diagnostics) IncHeartbeatsReceived() { d.heartbeatsReceived.Add(1) }
func (d *Diagnostics) IncHeartbeatsRelayed()  { d.heartbeatsRelayed.Add(1) }
func (d *Diagnostics) IncDuplicateSeq()       { d.duplicateSeq.Add(1) }
func (d *Diagnostics) IncInvalidPoW()         { d.invalidPoW.Add(1) }
func (d *Diagnostics) IncInvalidSig()         { d.invalidSig.Add(1) }
func (d *Diagnostics) IncNewPeersAdded()      { d.newPeersAdded.Add(1) }
func (d *Diagnostics) IncLeaveMessages()      { d.leaveMessages.Add(1) }

// Snapshot returns the current counter values.
func (d *Diagnostics) Snapshot() Counters {
	return Counters{
		HeartbeatsReceived: d.heartbeatsReceived.Load(),
		HeartbeatsRelayed:  d.heartbeatsRelayed.Load(),
		DuplicateSeq:       d.duplicateSeq.Load(),
		InvalidPoW:         d.invalidPoW.Load(),
		InvalidSig:         d.invalidSig.Load(),
		NewPeersAdded:      d.newPeersAdded.Load(),
		LeaveMessages:      d.leaveMessages.Load(),
	}
}
