package ai

import (
	"context"
	"errors"
	"sync"
)

// MockResponse is a canned reply for the MockProvider.
type MockResponse struct {
	Text string
	Err  error
}

// MockProvider is a deterministic Invoker for tests and local development.
// It returns canned responses in FIFO order and records every request. When
// Repeat is set the last response is served again once the queue drains.
type MockProvider struct {
	mu        sync.Mutex
	model     string
	responses []MockResponse
	last      *MockResponse
	Repeat    bool
	Calls     []Request
}

// NewMockProvider creates a MockProvider reporting the given model id.
func NewMockProvider(model string, responses ...MockResponse) *MockProvider {
	if model == "" {
		model = "mock"
	}
	return &MockProvider{model: model, responses: responses}
}

func (m *MockProvider) ModelID() string {
	return m.model
}

func (m *MockProvider) Invoke(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	var resp MockResponse
	switch {
	case len(m.responses) > 0:
		resp = m.responses[0]
		m.responses = m.responses[1:]
		m.last = &resp
	case m.Repeat && m.last != nil:
		resp = *m.last
	default:
		return Response{}, newInvocationError("mock", m.model, KindUnavailable, errors.New("no canned response"))
	}

	if resp.Err != nil {
		return Response{}, resp.Err
	}
	return Response{Text: resp.Text, Model: m.model}, nil
}

// CallCount returns the number of Invoke calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// QuotaError builds the error a provider returns when its quota is exhausted.
func QuotaError(model string) error {
	return newInvocationError("mock", model, KindQuota, errors.New("quota exceeded"))
}
