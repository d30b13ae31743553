package llm

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/latihan/internal/store"
)

type recordingObserver struct {
	calls []store.LLMCall
}

func (o *recordingObserver) ObserveLLMCall(call store.LLMCall) {
	o.calls = append(o.calls, call)
}

func TestLogging_RecordsSuccessAndFailure(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"options":["a"]}`), Usage: Usage{InputTokens: 12, OutputTokens: 3}},
		MockResponse{Err: errors.New("boom")},
	)
	obs := &recordingObserver{}
	p := WithLogging(mock, "mock", s.LLMCalls(), WithCallObserver(obs))

	ctx := WithQuizToken(WithPurpose(context.Background(), "repair"), "IPA7")
	req := Request{
		System:      "sys",
		Messages:    []Message{{Role: RoleUser, Content: "perbaiki"}},
		Attachments: []Attachment{{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
	}
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected error on second call")
	}

	calls, err := s.LLMCalls().List(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("recorded %d calls, want 2", len(calls))
	}
	failed, ok := calls[0], calls[1]
	if !ok.Success || ok.InputTokens != 12 || ok.Purpose != "repair" || ok.QuizToken != "IPA7" || ok.Provider != "mock" {
		t.Errorf("unexpected success row: %+v", ok)
	}
	if !strings.Contains(ok.RequestBody, "[attachment: image/png, 3 bytes]") {
		t.Errorf("request body missing attachment summary: %q", ok.RequestBody)
	}
	if failed.Success || failed.ErrorMessage != "boom" {
		t.Errorf("unexpected failure row: %+v", failed)
	}
	if len(obs.calls) != 2 {
		t.Errorf("observer saw %d calls, want 2", len(obs.calls))
	}
}

func TestLogging_NilRecorder(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`[]`)})
	p := WithLogging(mock, "mock", nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, Deps{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}

	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, Deps{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
