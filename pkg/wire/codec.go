package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// allowedFields lists, per message Type, the exact set of JSON keys a frame
// may carry (§4.2 — "the set of keys is a subset of the allowlist").
var allowedFields = map[Kind]map[string]bool{
	KindHeartbeat: {"type": true, "id": true, "seq": true, "hops": true, "nonce": true, "sig": true},
	KindLeave:     {"type": true, "id": true, "hops": true, "sig": true},
	KindChat: {
		"type": true, "sender": true, "content": true, "timestamp": true,
		"scope": true, "hops": true, "id": true, "sig": true, "target": true,
	},
}

// requiredFields lists, per message Type, the keys that must be present
// regardless of allowlist membership (§8 property 9).
var requiredFields = map[Kind][]string{
	KindHeartbeat: {"type", "id", "seq", "hops", "nonce", "sig"},
	KindLeave:     {"type", "id", "hops", "sig"},
	KindChat:      {"type", "sender", "content", "timestamp", "scope", "hops"},
}

// ErrDropped marks a decode failure; the frame is dropped silently, per §7.
// FrameReader skips such frames; no diagnostics counter records them.
var ErrDropped = fmt.Errorf("wire: frame dropped")

// DecodeLine validates and decodes a single NDJSON line into a Message. It
// enforces the type tag, the per-tag field allowlist, and the per-tag
// required-field set. Any violation returns ErrDropped wrapped with a
// reason; callers should drop the frame without propagating the error
// further (§7).
func DecodeLine(line []byte) (*Message, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %v", ErrDropped, err)
	}

	typeRaw, ok := raw["type"]
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrDropped)
	}
	var kind Kind
	if err := json.Unmarshal(typeRaw, &kind); err != nil {
		return nil, fmt.Errorf("%w: invalid type field", ErrDropped)
	}

	allowed, known := allowedFields[kind]
	if !known {
		return nil, fmt.Errorf("%w: unknown type %q", ErrDropped, kind)
	}
	for key := range raw {
		if !allowed[key] {
			return nil, fmt.Errorf("%w: field %q not allowed for %s", ErrDropped, key, kind)
		}
	}
	for _, key := range requiredFields[kind] {
		if _, present := raw[key]; !present {
			return nil, fmt.Errorf("%w: missing required field %q for %s", ErrDropped, key, kind)
		}
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("%w: field type mismatch: %v", ErrDropped, err)
	}
	return &msg, nil
}

// EncodeLine serializes a Message to a single NDJSON line (no trailing
// newline). For a known Type only the keys on that Type's allowlist are
// written, so DecodeLine accepts what EncodeLine produces.
func EncodeLine(msg *Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	allowed, known := allowedFields[msg.Type]
	if !known {
		return data, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for key := range raw {
		if !allowed[key] {
			delete(raw, key)
		}
	}
	return json.Marshal(raw)
}

// FrameReader reads newline-delimited JSON messages from a peer
// connection, dropping oversized or malformed frames instead of failing
// the stream (§4.2 — one hostile or buggy peer must not poison reads for
// others sharing the process).
type FrameReader struct {
	scanner        *bufio.Scanner
	maxMessageSize int
}

// NewFrameReader wraps r with a line-oriented reader bounded at
// maxMessageSize bytes per frame.
func NewFrameReader(r io.Reader, maxMessageSize int) *FrameReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxMessageSize+1)
	// Split on newlines, but discard a line that grows past maxMessageSize
	// without a newline (up to its terminating newline) instead of letting
	// the scanner stop with bufio.ErrTooLong.
	skipping := false
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := bufio.ScanLines(data, atEOF)
		if advance == 0 && len(data) > maxMessageSize {
			skipping = true
			return len(data), nil, nil
		}
		if skipping && advance > 0 {
			skipping = false
			return advance, nil, nil
		}
		return advance, token, err
	})
	return &FrameReader{scanner: scanner, maxMessageSize: maxMessageSize}
}

// ReadMessage returns the next successfully decoded message, skipping over
// any number of dropped (oversized or malformed) lines. It returns io.EOF
// when the underlying stream is exhausted.
func (fr *FrameReader) ReadMessage() (*Message, error) {
	for fr.scanner.Scan() {
		line := fr.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if len(line) > fr.maxMessageSize {
			continue // oversized frame dropped silently, per §4.2/§7
		}
		msg, err := DecodeLine(line)
		if err != nil {
			continue // malformed frame dropped silently, per §4.2/§7
		}
		return msg, nil
	}
	if err := fr.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// FrameWriter serializes messages as newline-delimited JSON onto a peer
// connection. Writes for a given connection must be externally serialized
// by the caller (§5 — framing cannot interleave).
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter wraps w for frame output.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteMessage encodes and writes a single message followed by a newline.
func (fw *FrameWriter) WriteMessage(msg *Message) error {
	data, err := EncodeLine(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	data = append(data, '\n')
	_, err = fw.w.Write(data)
	return err
}
