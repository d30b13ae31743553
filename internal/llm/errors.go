package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// truncated returns ErrMaxTokensExceeded for a structured response that
// stopped on the token budget. Plain text is usable even when cut short.
func truncated(req Request, stopReason string, content json.RawMessage) error {
	if req.Schema != nil && stopReason == "max_tokens" {
		return &ErrMaxTokensExceeded{Content: content}
	}
	return nil
}

// ErrEndpointsExhausted indicates every endpoint of a fallback chain used
// up its attempts. Err is the last failure observed.
type ErrEndpointsExhausted struct {
	Models   []string
	Attempts int
	Err      error
}

func (e *ErrEndpointsExhausted) Error() string {
	return fmt.Sprintf("all LLM endpoints failed after %d attempts (%s): %v",
		e.Attempts, strings.Join(e.Models, ", "), e.Err)
}

func (e *ErrEndpointsExhausted) Unwrap() error { return e.Err }
