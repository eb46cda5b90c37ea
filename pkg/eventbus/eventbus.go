// Package eventbus implements the local subscription fan-out described in
// §4.8/§6/§9: a multi-producer, multi-consumer broadcast with bounded
// per-subscriber buffers that drop the oldest event on overflow so a
// stalled subscriber never blocks the engine loop.
package eventbus

import "sync"

// PeerView is one entry of the peers list carried on a MembershipEvent.
type PeerView struct {
	ID  string  `json:"id"`
	IP  string  `json:"ip,omitempty"`
	Lat float64 `json:"lat,omitempty"`
	Lng float64 `json:"lng,omitempty"`
}

// DiagnosticsView mirrors diagnostics.Counters for JSON presentation.
type DiagnosticsView struct {
	HeartbeatsReceived uint64 `json:"heartbeatsReceived"`
	HeartbeatsRelayed  uint64 `json:"heartbeatsRelayed"`
	DuplicateSeq       uint64 `json:"duplicateSeq"`
	InvalidPoW         uint64 `json:"invalidPoW"`
	InvalidSig         uint64 `json:"invalidSig"`
	NewPeersAdded      uint64 `json:"newPeersAdded"`
	LeaveMessages      uint64 `json:"leaveMessages"`
}

// MembershipEvent is published whenever the membership view changes size
// or composition (§6).
type MembershipEvent struct {
	Count       int             `json:"count"`
	Direct      int             `json:"direct"`
	TotalUnique int             `json:"totalUnique"`
	ID          string          `json:"id"`
	Screenname  string          `json:"screenname,omitempty"`
	Peers       []PeerView      `json:"peers"`
	Diagnostics DiagnosticsView `json:"diagnostics"`
}

// ChatEvent is published for accepted LOCAL or GLOBAL chat messages.
type ChatEvent struct {
	Type      string `json:"type"` // "CHAT"
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Scope     string `json:"scope"`
}

// SystemEvent is a local informational message (e.g. shutdown notice).
type SystemEvent struct {
	Type      string `json:"type"` // "SYSTEM"
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Event is the tagged union delivered to subscribers. Exactly one field is
// non-nil.
type Event struct {
	Membership *MembershipEvent
	Chat       *ChatEvent
	System     *SystemEvent
}

const defaultBufferSize = 32

// Bus is the subscriber registry and fan-out point.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
	bufferSize  int
}

// New creates a Bus whose subscriber channels buffer up to bufferSize
// events before dropping the oldest (drop-oldest-on-overflow, §9). A
// bufferSize of 0 uses a sensible default.
func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{
		subscribers: make(map[int]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a new subscriber and returns its event channel plus
// an unsubscribe function. The returned channel is closed by unsubscribe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.bufferSize)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
	return ch, unsubscribe
}

// Publish broadcasts ev to every current subscriber, never blocking: if a
// subscriber's buffer is full, its oldest queued event is dropped to make
// room (§9).
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Buffer full: drop the oldest event, then enqueue the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// SubscriberCount returns the current number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
