package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/store"
)

// Deps carries the collaborators every provider chain is wrapped with.
// All fields are optional.
type Deps struct {
	Recorder store.CallRecorder
	Observer CallObserver
	Logger   *zap.Logger
}

// NewProvider creates a Provider from configuration.
//
// Gemini gets one logged endpoint per fallback model chained by
// WithFallback. Single-endpoint providers are wrapped as
// caller → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config, deps Deps) (Provider, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logOpts := []LoggingOption{WithCallLogger(logger)}
	if deps.Observer != nil {
		logOpts = append(logOpts, WithCallObserver(deps.Observer))
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		models := cfg.Fallback.Models
		if len(models) == 0 {
			models = []string{cfg.Gemini.Model}
		}
		endpoints, err := NewGeminiEndpoints(ctx, cfg.Gemini, models)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini provider: %w", err)
		}
		chain := make([]Provider, len(endpoints))
		for i, ep := range endpoints {
			chain[i] = WithLogging(ep, cfg.Provider, deps.Recorder, logOpts...)
		}
		return WithFallback(chain, cfg.Fallback, logger), nil
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return WithLogging(NewMockProvider(), cfg.Provider, deps.Recorder, logOpts...), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, deps.Recorder, logOpts...)
	return WithRetry(logged, cfg.Retry, logger), nil
}
