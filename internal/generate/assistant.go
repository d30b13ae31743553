package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/llm"
	"github.com/abhisek/latihan/internal/question"
)

// Fixed texts used when the service gives nothing usable.
const (
	FeedbackUnavailable = "Jawabanmu kurang tepat, yuk coba cek pembahasannya!"
	FeedbackEmpty       = "Jawabanmu kurang tepat, coba analisis kembali pertanyaannya ya!"
	NoExplanation       = "Penjelasan tidak tersedia."
)

// ErrEmptyResponse is returned when the service answers with no text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// Assistant produces the free-text helpers: wrong-answer feedback,
// teaching material and worked explanations.
type Assistant struct {
	provider llm.Provider
	config   Config
}

// NewAssistant creates an Assistant.
func NewAssistant(provider llm.Provider, cfg Config) *Assistant {
	return &Assistant{provider: provider, config: cfg}
}

// Feedback returns a short motivating hint for a wrong submission. It
// never fails: any service error yields FeedbackUnavailable.
func (a *Assistant) Feedback(ctx context.Context, rec question.Record, submitted answer.Value) string {
	text, err := a.text(llm.WithQuizToken(llm.WithPurpose(ctx, PurposeFeedback), rec.QuizToken), feedbackSystemPrompt, buildFeedbackMessage(rec, submitted), a.config.smallBudget())
	if errors.Is(err, ErrEmptyResponse) {
		return FeedbackEmpty
	}
	if err != nil {
		a.config.logger().Warn("feedback unavailable", zap.String("id", rec.ID), zap.Error(err))
		return FeedbackUnavailable
	}
	return text
}

// TeachingMaterial writes markdown slides covering the given questions.
func (a *Assistant) TeachingMaterial(ctx context.Context, records []question.Record) (string, error) {
	if len(records) == 0 {
		return "", errors.New("no questions to summarize")
	}
	text, err := a.text(llm.WithQuizToken(llm.WithPurpose(ctx, PurposeMaterial), records[0].QuizToken), materialSystemPrompt, buildMaterialMessage(records), a.config.MaxTokens)
	if err != nil {
		return "", fmt.Errorf("teaching material: %w", err)
	}
	return text, nil
}

// Explanation writes a step-by-step worked solution for rec. An empty
// response yields NoExplanation.
func (a *Assistant) Explanation(ctx context.Context, rec question.Record) (string, error) {
	text, err := a.text(llm.WithQuizToken(llm.WithPurpose(ctx, PurposeExplanation), rec.QuizToken), "", buildExplanationMessage(rec), a.config.smallBudget())
	if errors.Is(err, ErrEmptyResponse) {
		return NoExplanation, nil
	}
	if err != nil {
		return "", fmt.Errorf("explanation %s: %w", rec.ID, err)
	}
	return text, nil
}

func (a *Assistant) text(ctx context.Context, system, user string, maxTokens int) (string, error) {
	resp, err := a.provider.Generate(ctx, llm.Request{
		System: system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: a.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
