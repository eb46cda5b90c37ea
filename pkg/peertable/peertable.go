// Package peertable implements the authoritative membership view described
// in §3/§4.3: one PeerRecord per known live peer, keyed by node id.
package peertable

import (
	"encoding/hex"
	"sync"
	"time"
)

// Record is one peer's membership state.
type Record struct {
	ID       []byte
	Seq      uint64
	LastSeen time.Time
	DirectIP string // optional, set only from 0-hop deliveries
}

// Table is the single-writer membership view. All mutating methods must
// be called from the engine's serialization point (§5).
type Table struct {
	mu       sync.RWMutex
	peers    map[string]*Record
	maxPeers int
	selfID   string
}

// New creates an empty table capped at maxPeers entries (not counting the
// local node's own record, which is always exempt from the cap and from
// staleness eviction).
func New(maxPeers int) *Table {
	return &Table{
		peers:    make(map[string]*Record),
		maxPeers: maxPeers,
	}
}

// SetSelf installs the local node's own record, exempt from the cap and
// from SweepStale.
func (t *Table) SetSelf(id []byte, seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := hex.EncodeToString(id)
	t.selfID = key
	t.peers[key] = &Record{ID: append([]byte(nil), id...), Seq: seq, LastSeen: time.Now()}
}

// UpdateSelfSeq bumps the local node's own sequence number and refreshes
// its lastSeen, without going through the cap/monotonicity checks that
// apply to remote peers.
func (t *Table) UpdateSelfSeq(seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.peers[t.selfID]; ok {
		rec.Seq = seq
		rec.LastSeen = time.Now()
	}
}

// Get returns a copy of the record for id, if present.
func (t *Table) Get(id []byte) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.peers[hex.EncodeToString(id)]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// AddOrUpdate is the single choke-point that can admit a new identity
// (§4.3). It rejects with no effect if the peer is already known and the
// proposed seq does not strictly exceed the stored one. A brand-new peer
// is admitted only if the table has room. directIP, when non-empty,
// replaces the stored DirectIP (0-hop deliveries only; callers must not
// pass a non-empty directIP for a relayed message).
func (t *Table) AddOrUpdate(id []byte, seq uint64, directIP string) (wasNew bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := hex.EncodeToString(id)
	if existing, ok := t.peers[key]; ok {
		if seq <= existing.Seq {
			return false
		}
		existing.Seq = seq
		existing.LastSeen = time.Now()
		if directIP != "" {
			existing.DirectIP = directIP
		}
		return false
	}

	remoteCount := len(t.peers) - selfSlot(t.selfID)
	if remoteCount >= t.maxPeers {
		return false
	}

	t.peers[key] = &Record{
		ID:       append([]byte(nil), id...),
		Seq:      seq,
		LastSeen: time.Now(),
		DirectIP: directIP,
	}
	return true
}

func selfSlot(selfID string) int {
	if selfID == "" {
		return 0
	}
	return 1
}

// Remove deletes a peer record unconditionally (LEAVE handling, §4.5).
func (t *Table) Remove(id []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, hex.EncodeToString(id))
}

// SweepStale removes every record (other than the local node's own) whose
// lastSeen is older than ttl, and returns the removed ids.
func (t *Table) SweepStale(ttl time.Duration) [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	var evicted [][]byte
	for key, rec := range t.peers {
		if key == t.selfID {
			continue
		}
		if now.Sub(rec.LastSeen) > ttl {
			evicted = append(evicted, rec.ID)
			delete(t.peers, key)
		}
	}
	return evicted
}

// Size returns the number of known peers, including the local node.
func (t *Table) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}

// Snapshot returns a copy of every record currently in the table.
func (t *Table) Snapshot() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, 0, len(t.peers))
	for _, rec := range t.peers {
		out = append(out, *rec)
	}
	return out
}

// PeersWithIPs returns the subset of the snapshot that have a known
// DirectIP, useful for presentation-layer geolocation (§6).
func (t *Table) PeersWithIPs() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Record
	for _, rec := range t.peers {
		if rec.DirectIP != "" {
			out = append(out, *rec)
		}
	}
	return out
}
