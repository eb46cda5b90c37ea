package engine

import (
	"time"

	"github.com/swarmtalk/swarmtalk/pkg/wire"
)

// SubmitChat accepts a locally authored chat message (spec.md §4.11). It
// validates content length and scope, applies the process-global rate
// limiter, signs and content-addresses GLOBAL-scope chat, enqueues it to
// the Gossip Engine's relay path, and publishes it on the Event Bus.
func (e *Engine) SubmitChat(content string, scope wire.Scope, target string) error {
	if len(content) == 0 || len(content) > maxChatContentLength {
		return ErrInvalidContent
	}
	if scope != wire.ScopeLocal && scope != wire.ScopeGlobal {
		return ErrInvalidScope
	}

	var rejected error
	e.do(func() {
		if !e.globalLimiter.Allow() {
			rejected = ErrRateLimitExceeded
			return
		}

		msg := &wire.Message{
			Type:      wire.KindChat,
			Sender:    e.id.ID(),
			Content:   content,
			Timestamp: time.Now().UnixMilli(),
			Scope:     scope,
			Hops:      0,
			Target:    target,
		}

		if scope == wire.ScopeGlobal {
			msg.ID = wire.ChatContentID(msg.Sender, msg.Content, msg.Timestamp)
			msg.Sig = e.id.Sign(wire.ChatSigningBytes(msg.ID))
		}

		e.publishChat(msg)

		if scope == wire.ScopeGlobal {
			e.broadcastExcept(msg, nil)
		}
	})
	return rejected
}
