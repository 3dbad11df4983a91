package llm

import (
	"context"
	"sync"
)

// MockGenerator implements Generator for tests. It returns canned responses
// in order, repeating the last one, and records every request.
type MockGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	next      int

	Calls []Request
}

// NewMockGenerator returns a mock that answers with a fixed line.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{responses: []string{"Honestly? I'm just trying to make it to tomorrow."}}
}

// WithResponses sets the replies returned in order.
func (m *MockGenerator) WithResponses(responses ...string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
	m.next = 0
	return m
}

// WithError makes every call fail with err.
func (m *MockGenerator) WithError(err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if m.err != nil {
		return "", m.err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	r := m.responses[min(m.next, len(m.responses)-1)]
	m.next++
	return r, nil
}

// CallCount returns how many requests the mock has seen.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
