package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// callRow is the llm_calls table. Timestamps are stored as unix
// milliseconds in UTC.
type callRow struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Timestamp    int64  `gorm:"not null;index:llm_calls_timestamp"`
	Provider     string `gorm:"not null"`
	Model        string `gorm:"not null"`
	Purpose      string `gorm:"not null;index:llm_calls_purpose"`
	QuizToken    string `gorm:"not null;index:llm_calls_quiz_token"`
	InputTokens  int    `gorm:"not null"`
	OutputTokens int    `gorm:"not null"`
	LatencyMs    int64  `gorm:"not null"`
	Success      bool   `gorm:"not null"`
	ErrorMessage string `gorm:"not null"`
	RequestBody  string `gorm:"not null"`
	ResponseBody string `gorm:"not null"`
}

func (callRow) TableName() string { return "llm_calls" }

func toRow(c LLMCall) callRow {
	return callRow{
		Timestamp:    c.Timestamp.UTC().UnixMilli(),
		Provider:     c.Provider,
		Model:        c.Model,
		Purpose:      c.Purpose,
		QuizToken:    c.QuizToken,
		InputTokens:  c.InputTokens,
		OutputTokens: c.OutputTokens,
		LatencyMs:    c.LatencyMs,
		Success:      c.Success,
		ErrorMessage: c.ErrorMessage,
		RequestBody:  c.RequestBody,
		ResponseBody: c.ResponseBody,
	}
}

func (r callRow) call() LLMCall {
	return LLMCall{
		ID:           r.ID,
		Timestamp:    time.UnixMilli(r.Timestamp).UTC(),
		Provider:     r.Provider,
		Model:        r.Model,
		Purpose:      r.Purpose,
		QuizToken:    r.QuizToken,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		LatencyMs:    r.LatencyMs,
		Success:      r.Success,
		ErrorMessage: r.ErrorMessage,
		RequestBody:  r.RequestBody,
		ResponseBody: r.ResponseBody,
	}
}

// CallLog appends and queries rows of the llm_calls table.
type CallLog struct {
	db *gorm.DB
}

var _ CallRecorder = (*CallLog)(nil)

// AppendLLMCall stores call. A zero timestamp is replaced with now.
func (c *CallLog) AppendLLMCall(ctx context.Context, call LLMCall) error {
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now()
	}
	row := toRow(call)
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save LLM call: %w", err)
	}
	return nil
}

// List returns calls newest first.
func (c *CallLog) List(ctx context.Context, opts QueryOpts) ([]LLMCall, error) {
	q := opts.apply(c.db.WithContext(ctx).Model(&callRow{})).Order("id DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var rows []callRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query LLM calls: %w", err)
	}
	out := make([]LLMCall, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.call())
	}
	return out, nil
}

// Get returns the call with id, or nil if there is none.
func (c *CallLog) Get(ctx context.Context, id int64) (*LLMCall, error) {
	var row callRow
	err := c.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM call %d: %w", id, err)
	}
	call := row.call()
	return &call, nil
}

// UsageByPurpose aggregates calls per purpose, ordered by purpose.
func (c *CallLog) UsageByPurpose(ctx context.Context) ([]Usage, error) {
	return c.usage(ctx, "purpose")
}

// UsageByModel aggregates calls per model, ordered by model.
func (c *CallLog) UsageByModel(ctx context.Context) ([]Usage, error) {
	return c.usage(ctx, "model")
}

type usageRow struct {
	UsageKey     string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// usage groups by column, which is always one of the fixed names above.
func (c *CallLog) usage(ctx context.Context, column string) ([]Usage, error) {
	var rows []usageRow
	err := c.db.WithContext(ctx).Model(&callRow{}).
		Select(column + " AS usage_key, COUNT(*) AS calls," +
			" SUM(CASE WHEN success THEN 0 ELSE 1 END) AS failures," +
			" COALESCE(SUM(input_tokens), 0) AS input_tokens," +
			" COALESCE(SUM(output_tokens), 0) AS output_tokens," +
			" CAST(AVG(latency_ms) AS INTEGER) AS avg_latency_ms").
		Group(column).
		Order(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query usage by %s: %w", column, err)
	}

	out := make([]Usage, 0, len(rows))
	for _, r := range rows {
		out = append(out, Usage{
			Key:          r.UsageKey,
			Calls:        r.Calls,
			Failures:     r.Failures,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
			AvgLatencyMs: r.AvgLatencyMs,
		})
	}
	return out, nil
}

func (o QueryOpts) apply(q *gorm.DB) *gorm.DB {
	if o.Purpose != "" {
		q = q.Where("purpose = ?", o.Purpose)
	}
	if o.Token != "" {
		q = q.Where("quiz_token = ?", o.Token)
	}
	if !o.From.IsZero() {
		q = q.Where("timestamp >= ?", o.From.UTC().UnixMilli())
	}
	if !o.To.IsZero() {
		q = q.Where("timestamp <= ?", o.To.UTC().UnixMilli())
	}
	return q
}
