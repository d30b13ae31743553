package store

import (
	"context"
	"time"
)

// QueryOpts configures call log queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact match when set
	Token   string    // quiz token, exact match when set
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// LLMCall captures a single call to a model endpoint.
type LLMCall struct {
	ID           int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	QuizToken    string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// Usage aggregates token counts for one purpose or model.
type Usage struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// CallRecorder is the append side of the call log.
type CallRecorder interface {
	AppendLLMCall(ctx context.Context, call LLMCall) error
}
