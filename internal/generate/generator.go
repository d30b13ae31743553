package generate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/aicodec"
	"github.com/abhisek/latihan/internal/llm"
	"github.com/abhisek/latihan/internal/question"
)

// Generator produces question batches using an LLM provider.
type Generator struct {
	provider llm.Provider
	config   Config
}

// New creates a Generator with the given provider and config.
func New(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, config: cfg}
}

// Generate requests a batch for req and decodes it. Malformed items are
// skipped or flagged inside the batch; only a service failure or a
// response that is not a JSON array is an error.
func (g *Generator) Generate(ctx context.Context, req Request) (aicodec.Batch, error) {
	if err := req.Validate(); err != nil {
		return aicodec.Batch{}, err
	}
	ctx = llm.WithPurpose(ctx, PurposeGenerate)
	ctx = llm.WithQuizToken(ctx, question.NormalizeToken(req.QuizToken))

	llmReq := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGenerateMessage(req)},
		},
		Schema:      ItemsSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}
	if img := req.ReferenceImage; img != nil {
		llmReq.Attachments = []llm.Attachment{{MIMEType: img.MIMEType, Data: img.Data}}
	}

	resp, err := g.provider.Generate(ctx, llmReq)
	if err != nil {
		return aicodec.Batch{}, fmt.Errorf("LLM generation failed: %w", err)
	}

	batch, err := aicodec.DecodeItems(resp.Content, aicodec.Defaults{
		Subject:   req.Subject,
		Phase:     req.Phase,
		Material:  req.Material,
		QuizToken: req.QuizToken,
		Now:       g.config.now,
		Logger:    g.config.logger(),
	})
	if err != nil {
		return aicodec.Batch{}, err
	}

	g.config.logger().Info("generated questions",
		zap.Int("requested", req.Total()),
		zap.Int("decoded", len(batch.Records)),
		zap.Int("skipped", batch.Skipped),
		zap.Int("flagged", batch.Flagged))
	return batch, nil
}
