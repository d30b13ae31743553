package llm

import "context"

type ctxKey int

const (
	purposeKey ctxKey = iota
	quizTokenKey
)

// Purposes label every call in the call log. Calls made without one are
// logged as "unknown".
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// WithQuizToken ties the calls made under ctx to one quiz, so the call log
// can be filtered per quiz.
func WithQuizToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, quizTokenKey, token)
}

// QuizTokenFrom returns the quiz token of ctx, or "".
func QuizTokenFrom(ctx context.Context) string {
	v, _ := ctx.Value(quizTokenKey).(string)
	return v
}
