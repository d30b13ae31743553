// Package metrics counts codec, grading and LLM activity in a private
// Prometheus registry that can be written out in the textfile format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abhisek/latihan/internal/store"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	Registry *prometheus.Registry

	RowsImported   *prometheus.CounterVec
	RecordsFlagged *prometheus.CounterVec
	Verdicts       *prometheus.CounterVec
	LLMCalls       *prometheus.CounterVec
	LLMTokens      *prometheus.CounterVec
	LLMLatency     *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RowsImported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latihan_rows_imported_total",
				Help: "Spreadsheet rows processed by import, by outcome",
			},
			[]string{"outcome"},
		),
		RecordsFlagged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latihan_records_flagged_total",
				Help: "Records whose answer was defaulted during decode, by source",
			},
			[]string{"source"},
		),
		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latihan_verdicts_total",
				Help: "Graded submissions, by question type and result",
			},
			[]string{"type", "result"},
		),
		LLMCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latihan_llm_calls_total",
				Help: "Calls to model endpoints",
			},
			[]string{"model", "purpose", "status"},
		),
		LLMTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "latihan_llm_tokens_total",
				Help: "Tokens consumed by model endpoints",
			},
			[]string{"model", "direction"},
		),
		LLMLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "latihan_llm_call_duration_seconds",
				Help:    "Duration of calls to model endpoints",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
	}
	m.Registry.MustRegister(
		m.RowsImported,
		m.RecordsFlagged,
		m.Verdicts,
		m.LLMCalls,
		m.LLMTokens,
		m.LLMLatency,
	)
	return m
}

// ObserveLLMCall updates the LLM collectors from one logged call.
func (m *Metrics) ObserveLLMCall(call store.LLMCall) {
	status := "ok"
	if !call.Success {
		status = "error"
	}
	m.LLMCalls.WithLabelValues(call.Model, call.Purpose, status).Inc()
	m.LLMTokens.WithLabelValues(call.Model, "input").Add(float64(call.InputTokens))
	m.LLMTokens.WithLabelValues(call.Model, "output").Add(float64(call.OutputTokens))
	m.LLMLatency.WithLabelValues(call.Model).Observe(float64(call.LatencyMs) / 1000)
}

// ObserveImport counts the outcome of a spreadsheet import.
func (m *Metrics) ObserveImport(imported, skipped, flagged int) {
	m.RowsImported.WithLabelValues("imported").Add(float64(imported))
	m.RowsImported.WithLabelValues("skipped").Add(float64(skipped))
	m.RecordsFlagged.WithLabelValues("sheet").Add(float64(flagged))
}

// ObserveGenerated counts records flagged while decoding a generation
// response.
func (m *Metrics) ObserveGenerated(flagged int) {
	m.RecordsFlagged.WithLabelValues("ai").Add(float64(flagged))
}

// ObserveVerdict counts one graded submission.
func (m *Metrics) ObserveVerdict(qtype string, correct, needsReview bool) {
	result := "incorrect"
	switch {
	case needsReview:
		result = "review"
	case correct:
		result = "correct"
	}
	m.Verdicts.WithLabelValues(qtype, result).Inc()
}

// WriteFile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
