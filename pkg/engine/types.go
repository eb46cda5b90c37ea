package engine

import "errors"

// Chat submission rejection reasons, per spec.md §6.
var (
	ErrInvalidContent    = errors.New("invalid content")
	ErrInvalidScope      = errors.New("invalid scope")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

const maxChatContentLength = 140

// chatFreshnessWindowMS bounds how far a GLOBAL chat's timestamp may drift
// from the receiver's clock before it is rejected (§4.5).
const chatFreshnessWindowMS = 60_000
