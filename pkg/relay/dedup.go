// Package relay implements the rotating Bloom-filter dedup scheme used to
// suppress gossip loops, as specified in §4.4.
package relay

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
)

// Kind distinguishes the namespace a relay mark belongs to, so that a
// HEARTBEAT seq and a LEAVE for the same id never collide.
type Kind string

const (
	KindHeartbeat Kind = "seq"
	KindLeave     Kind = "leave"
	KindChat      Kind = "chat"
)

// Filter is a pair of Bloom filters in a rotating current/previous scheme
// (§4.4): insertions always go to current; queries consult both
// generations, so a mark remains visible for between one and two
// rotation intervals after it was last marked.
type Filter struct {
	mu               sync.Mutex
	current, previous *bloom.BloomFilter
	expectedElements  uint
	falsePositiveRate float64
}

// New creates a Filter sized for expectedElements per rotation window at
// the given target false-positive rate (§4.4 default ≤1%).
func New(expectedElements uint, falsePositiveRate float64) *Filter {
	return &Filter{
		current:           bloom.NewWithEstimates(expectedElements, falsePositiveRate),
		previous:          bloom.NewWithEstimates(expectedElements, falsePositiveRate),
		expectedElements:  expectedElements,
		falsePositiveRate: falsePositiveRate,
	}
}

// Mark builds the dedup token for a relayable message: (id, seq) for
// HEARTBEAT, (id, "leave") for LEAVE, (messageID, "chat") for CHAT, per §3.
func Mark(id []byte, kind Kind, seqOrNothing uint64) string {
	switch kind {
	case KindHeartbeat:
		return hex.EncodeToString(id) + ":" + KindHeartbeat.seqSuffix(seqOrNothing)
	default:
		return hex.EncodeToString(id) + ":" + string(kind)
	}
}

func (k Kind) seqSuffix(seq uint64) string {
	return hex.EncodeToString([]byte{
		byte(seq >> 56), byte(seq >> 48), byte(seq >> 40), byte(seq >> 32),
		byte(seq >> 24), byte(seq >> 16), byte(seq >> 8), byte(seq),
	})
}

// HasRelayed reports whether mark has already been relayed in the current
// or previous rotation window.
func (f *Filter) HasRelayed(mark string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := []byte(mark)
	return f.current.Test(key) || f.previous.Test(key)
}

// MarkRelayed records mark as relayed. Callers must mark before
// transmission so an in-flight echo cannot re-arm the filter (§4.5).
func (f *Filter) MarkRelayed(mark string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current.Add([]byte(mark))
}

// Rotate demotes current to previous and starts a fresh current filter.
// Callers should invoke this on a ticker at ROTATION_INTERVAL (§4.4
// default 60s); the interval must exceed the worst-case relay
// propagation time by a wide margin (§9).
func (f *Filter) Rotate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previous = f.current
	f.current = bloom.NewWithEstimates(f.expectedElements, f.falsePositiveRate)
}

// RotateLoop runs Rotate on a ticker until stop is closed.
func (f *Filter) RotateLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			f.Rotate()
		}
	}
}
