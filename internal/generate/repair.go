package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/aicodec"
	"github.com/abhisek/latihan/internal/answer"
	"github.com/abhisek/latihan/internal/bank"
	"github.com/abhisek/latihan/internal/llm"
	"github.com/abhisek/latihan/internal/question"
)

// ErrNoOptions is returned when a repair response carries no usable option.
var ErrNoOptions = errors.New("repair response has no options")

// Repairer fills in missing options of questions that need them.
type Repairer struct {
	provider llm.Provider
	config   Config
}

// NewRepairer creates a Repairer.
func NewRepairer(provider llm.Provider, cfg Config) *Repairer {
	return &Repairer{provider: provider, config: cfg}
}

// Repair asks the service for options and an explanation for rec. On
// success the returned copy differs from rec only in Options, Explanation
// and a padded boolean answer. On failure rec is returned unchanged with
// the error.
func (r *Repairer) Repair(ctx context.Context, rec question.Record) (question.Record, error) {
	ctx = llm.WithPurpose(ctx, PurposeRepair)
	ctx = llm.WithQuizToken(ctx, rec.QuizToken)

	resp, err := r.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildRepairMessage(rec)},
		},
		Schema:      RepairSchema,
		MaxTokens:   r.config.smallBudget(),
		Temperature: r.config.Temperature,
	})
	if err != nil {
		return rec, fmt.Errorf("repair %s: %w", rec.ID, err)
	}

	out, err := aicodec.DecodeRepair(resp.Content)
	if err != nil {
		return rec, fmt.Errorf("repair %s: %w", rec.ID, err)
	}

	opts := make([]string, 0, len(out.Options))
	for _, o := range out.Options {
		opts = append(opts, strings.TrimSpace(o))
	}
	opts = question.TrimOptions(opts)
	if len(opts) == 0 {
		return rec, fmt.Errorf("repair %s: %w", rec.ID, ErrNoOptions)
	}

	fixed := rec.Clone()
	fixed.Options = opts
	if strings.TrimSpace(out.Explanation) != "" {
		fixed.Explanation = out.Explanation
	}
	fixed.CorrectAnswer = answer.Pad(fixed.CorrectAnswer, len(opts))
	if err := answer.CheckRange(fixed.Type, fixed.CorrectAnswer, len(opts)); err != nil {
		return rec, fmt.Errorf("repair %s: %w", rec.ID, err)
	}
	return fixed, nil
}

// RepairFailure is one record RepairAll could not fix.
type RepairFailure struct {
	ID  string
	Err error
}

// RepairReport summarizes a RepairAll run.
type RepairReport struct {
	Repaired []string
	Failed   []RepairFailure
}

// RepairAll repairs every active record of s that needs it and applies
// each success by replace-by-id. Individual failures are reported, not
// returned; only a cancelled context stops the run early.
func (r *Repairer) RepairAll(ctx context.Context, s *bank.Session) (RepairReport, error) {
	var report RepairReport
	log := r.config.logger()

	for _, rec := range s.Snapshot().NeedingRepair() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		fixed, err := r.Repair(ctx, rec)
		if err == nil {
			_, err = s.Replace(fixed)
		}
		if err != nil {
			log.Warn("repair failed", zap.String("id", rec.ID), zap.Error(err))
			report.Failed = append(report.Failed, RepairFailure{ID: rec.ID, Err: err})
			continue
		}
		report.Repaired = append(report.Repaired, rec.ID)
	}

	log.Info("repair finished",
		zap.Int("repaired", len(report.Repaired)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}
