package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FallbackProvider tries an ordered list of endpoints, giving each a fixed
// number of attempts with a fixed delay between any two attempts. The
// first success wins; when every endpoint is spent the last error is
// returned wrapped in *ErrEndpointsExhausted.
type FallbackProvider struct {
	endpoints []Provider
	attempts  int
	delay     time.Duration
	logger    *zap.Logger
}

// WithFallback chains endpoints. attempts and delay come from cfg; Models
// in cfg is ignored because the endpoints are already built.
func WithFallback(endpoints []Provider, cfg FallbackConfig, logger *zap.Logger) Provider {
	attempts := cfg.AttemptsPerModel
	if attempts <= 0 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackProvider{
		endpoints: endpoints,
		attempts:  attempts,
		delay:     cfg.Delay,
		logger:    logger,
	}
}

func (f *FallbackProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(f.endpoints) == 0 {
		return nil, &ErrProviderUnavailable{Err: errors.New("no endpoints configured")}
	}

	// One token per attempt; the first attempt goes out immediately.
	limit := rate.Inf
	if f.delay > 0 {
		limit = rate.Every(f.delay)
	}
	pacer := rate.NewLimiter(limit, 1)

	var (
		lastErr error
		total   int
	)
	for _, ep := range f.endpoints {
		for attempt := 1; attempt <= f.attempts; attempt++ {
			if err := pace(ctx, pacer); err != nil {
				return nil, err
			}
			total++

			resp, err := ep.Generate(ctx, req)
			if err == nil {
				return resp, nil
			}
			if isContextErr(err) {
				return nil, err
			}
			lastErr = err
			f.logger.Debug("llm attempt failed",
				zap.String("model", ep.ModelID()),
				zap.Int("attempt", attempt),
				zap.Error(err))

			// A truncated response repeats on the same model; move on.
			var maxTok *ErrMaxTokensExceeded
			if errors.As(err, &maxTok) {
				break
			}
		}
		f.logger.Warn("llm endpoint exhausted, falling back",
			zap.String("model", ep.ModelID()),
			zap.Int("attempts", f.attempts))
	}

	return nil, &ErrEndpointsExhausted{Models: f.models(), Attempts: total, Err: lastErr}
}

// pace blocks until the limiter grants the next attempt or ctx ends.
func pace(ctx context.Context, l *rate.Limiter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := l.Reserve()
	d := r.Delay()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ModelID returns the first endpoint's model.
func (f *FallbackProvider) ModelID() string {
	if len(f.endpoints) == 0 {
		return ""
	}
	return f.endpoints[0].ModelID()
}

func (f *FallbackProvider) models() []string {
	out := make([]string, len(f.endpoints))
	for i, ep := range f.endpoints {
		out[i] = ep.ModelID()
	}
	return out
}
