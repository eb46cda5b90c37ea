// Package wire implements the newline-delimited JSON framing protocol
// between peers, including the field-allowlist decoder described in §4.2.
package wire

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Kind identifies the tag of a WireMessage, per §3.
type Kind string

const (
	KindHeartbeat Kind = "HEARTBEAT"
	KindLeave     Kind = "LEAVE"
	KindChat      Kind = "CHAT"
)

// Scope is the CHAT message scope, per §3.
type Scope string

const (
	ScopeLocal  Scope = "LOCAL"
	ScopeGlobal Scope = "GLOBAL"
)

// Message is the tagged union of wire protocol messages. Not every field
// applies to every Type; see the allowlists in codec.go.
type Message struct {
	Type Kind `json:"type"`

	// ID is the node identifier for HEARTBEAT/LEAVE, and the content-address
	// sha256(sender||content||timestamp) for a GLOBAL-scope CHAT (§3).
	ID    []byte `json:"id,omitempty"`
	Seq   uint64 `json:"seq"`
	Hops  uint8  `json:"hops"`
	Nonce uint64 `json:"nonce"`
	Sig   []byte `json:"sig,omitempty"`

	// CHAT
	Sender    []byte `json:"sender,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Scope     Scope  `json:"scope,omitempty"`
	Target    string `json:"target,omitempty"`
}

// IDHex returns the hex-encoded node identifier for HEARTBEAT/LEAVE
// messages, a convenient map key.
func (m *Message) IDHex() string { return hex.EncodeToString(m.ID) }

// SenderHex returns the hex-encoded sender identifier for CHAT messages.
func (m *Message) SenderHex() string { return hex.EncodeToString(m.Sender) }

// HeartbeatSigningBytes returns the bytes a HEARTBEAT's signature covers:
// the fixed string "seq:" || seq, per §3.
func (m *Message) HeartbeatSigningBytes() []byte {
	return []byte(fmt.Sprintf("seq:%d", m.Seq))
}

// LeaveSigningBytes returns the bytes a LEAVE's signature covers:
// "type:LEAVE:" || id, per §3.
func LeaveSigningBytes(id []byte) []byte {
	return []byte(fmt.Sprintf("type:LEAVE:%s", hex.EncodeToString(id)))
}

// ChatSigningBytes returns the bytes a GLOBAL CHAT's signature covers:
// "chat:" || id, per §3.
func ChatSigningBytes(messageID []byte) []byte {
	return []byte(fmt.Sprintf("chat:%s", hex.EncodeToString(messageID)))
}

// NewHeartbeat builds an unsigned HEARTBEAT message.
func NewHeartbeat(id []byte, seq uint64, hops uint8, nonce uint64) *Message {
	return &Message{Type: KindHeartbeat, ID: id, Seq: seq, Hops: hops, Nonce: nonce}
}

// NewLeave builds an unsigned LEAVE message.
func NewLeave(id []byte, hops uint8) *Message {
	return &Message{Type: KindLeave, ID: id, Hops: hops}
}

// ChatContentID computes the content-address id = sha256(sender||content||timestamp)
// used to bind a GLOBAL CHAT's id field to its payload, per §3.
func ChatContentID(sender []byte, content string, timestamp int64) []byte {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(timestamp))
	h := sha256.New()
	h.Write(sender)
	h.Write([]byte(content))
	h.Write(ts[:])
	return h.Sum(nil)
}
