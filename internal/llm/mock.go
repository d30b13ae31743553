package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted reply. A non-nil Err is returned instead of
// the content.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockCall is a request seen by MockProvider together with the labels its
// context carried.
type MockCall struct {
	Request
	Purpose   string
	QuizToken string
}

// MockProvider replays scripted responses in order. Once the script runs
// out every call fails with ErrProviderUnavailable, which is also how the
// "mock" provider setting behaves offline.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	Calls  []MockCall

	// Model overrides the "mock" model ID.
	Model string
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{
		Request:   req,
		Purpose:   PurposeFrom(ctx),
		QuizToken: QuizTokenFrom(ctx),
	})
	if len(m.script) == 0 {
		return nil, &ErrProviderUnavailable{}
	}

	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{
		Content:    next.Content,
		Usage:      next.Usage,
		Model:      m.ModelID(),
		StopReason: "end",
	}, nil
}

func (m *MockProvider) ModelID() string {
	if m.Model == "" {
		return "mock"
	}
	return m.Model
}

// AddResponse appends to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
