package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/store"
)

// CallObserver receives every recorded call, e.g. to update metrics.
type CallObserver interface {
	ObserveLLMCall(call store.LLMCall)
}

// LoggingProvider is a decorator that records every LLM request in the
// call log.
type LoggingProvider struct {
	inner    Provider
	provider string
	recorder store.CallRecorder
	observer CallObserver
	logger   *zap.Logger
}

// LoggingOption configures a LoggingProvider.
type LoggingOption func(*LoggingProvider)

// WithCallObserver forwards each recorded call to o.
func WithCallObserver(o CallObserver) LoggingOption {
	return func(l *LoggingProvider) { l.observer = o }
}

// WithCallLogger sets the logger used for recording failures.
func WithCallLogger(logger *zap.Logger) LoggingOption {
	return func(l *LoggingProvider) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLogging wraps a Provider with call logging. provider names the
// backend ("gemini", "openai", ...). A nil recorder only notifies the
// observer.
func WithLogging(p Provider, provider string, rec store.CallRecorder, opts ...LoggingOption) Provider {
	l := &LoggingProvider{inner: p, provider: provider, recorder: rec, logger: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	call := store.LLMCall{
		Timestamp:   start,
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		QuizToken:   QuizTokenFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		call.InputTokens = resp.Usage.InputTokens
		call.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			call.Model = resp.Model
		}
		call.ResponseBody = string(resp.Content)
	}
	if err != nil {
		call.ErrorMessage = err.Error()
	}

	if l.observer != nil {
		l.observer.ObserveLLMCall(call)
	}
	if l.recorder != nil {
		// A cancelled request still gets its row.
		if logErr := l.recorder.AppendLLMCall(context.WithoutCancel(ctx), call); logErr != nil {
			l.logger.Warn("failed to record LLM call", zap.Error(logErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
// Attachment bytes are summarized, not copied.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	for _, a := range req.Attachments {
		b.WriteString(fmt.Sprintf("[attachment: %s, %d bytes]\n", a.MIMEType, len(a.Data)))
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			b.WriteString(fmt.Sprintf("[schema: %s]\n", req.Schema.Name))
			b.WriteString(string(schemaDef))
			b.WriteString("\n")
		}
	}

	return b.String()
}
