package generate

import (
	"time"

	"go.uber.org/zap"
)

// Purpose labels recorded with every call in the LLM call log.
const (
	PurposeGenerate    = "generate"
	PurposeRepair      = "repair"
	PurposeFeedback    = "feedback"
	PurposeMaterial    = "material"
	PurposeExplanation = "explanation"
)

// Config controls the AI-backed workflows.
type Config struct {
	// MaxTokens is the token budget for a question batch. Repair, feedback
	// and explanation requests use a fraction of it.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	Logger *zap.Logger
	Now    func() time.Time
}

// DefaultConfig returns a Config with recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   16384,
		Temperature: 0.7,
	}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Config) smallBudget() int {
	return max(c.MaxTokens/8, 1024)
}
