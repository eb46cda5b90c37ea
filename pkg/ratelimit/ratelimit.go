// Package ratelimit implements the sliding-window chat rate limiter
// described in §4.8: a fixed window, a max count, reset-on-stale-window.
package ratelimit

import (
	"encoding/hex"
	"sync"
	"time"
)

type window struct {
	count       int
	windowStart time.Time
}

// Limiter is a per-key sliding window limiter. A zero Limiter is not
// usable; construct with New.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	byKey  map[string]*window
}

// New creates a limiter allowing at most max events per key within
// windowLen.
func New(windowLen time.Duration, max int) *Limiter {
	return &Limiter{
		window: windowLen,
		max:    max,
		byKey:  make(map[string]*window),
	}
}

// Allow reports whether an event for key should be accepted, expiring a
// stale window and incrementing the count on acceptance (§4.8).
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.byKey[key]
	if !ok || now.Sub(w.windowStart) > l.window {
		l.byKey[key] = &window{count: 1, windowStart: now}
		return true
	}
	if w.count >= l.max {
		return false
	}
	w.count++
	return true
}

// AllowID is a convenience wrapper for byte-string keys such as node ids.
func (l *Limiter) AllowID(id []byte) bool {
	return l.Allow(hex.EncodeToString(id))
}

// GC drops any key whose window started more than staleAfter ago, bounding
// memory for senders that have gone quiet (§9).
func (l *Limiter) GC(staleAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for key, w := range l.byKey {
		if now.Sub(w.windowStart) > staleAfter {
			delete(l.byKey, key)
		}
	}
}

// Global is the single process-wide window applied to locally submitted
// chat before signing/broadcast (§4.8). It is just a Limiter with a fixed
// key, kept as a distinct type so call sites read clearly.
type Global struct {
	limiter *Limiter
}

// NewGlobal creates a process-wide limiter.
func NewGlobal(window time.Duration, max int) *Global {
	return &Global{limiter: New(window, max)}
}

// Allow reports whether a locally submitted chat should proceed.
func (g *Global) Allow() bool {
	return g.limiter.Allow("local")
}
