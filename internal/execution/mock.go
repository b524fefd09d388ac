package execution

import (
	"context"
	"sync"
)

// MockReply is one scripted exchange for the mock engine.
type MockReply struct {
	Content string
	Err     error
}

// MockEngine is a simple scripted implementation for testing. Replies
// are consumed in order; once the script is exhausted the last entry
// repeats.
type MockEngine struct {
	modelID string

	mu     sync.Mutex
	script []MockReply
	calls  int
}

// NewMockEngine creates a mock engine replaying the given script.
func NewMockEngine(modelID string, script ...MockReply) *MockEngine {
	return &MockEngine{modelID: modelID, script: script}
}

func (m *MockEngine) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	if idx < 0 {
		return &ChatResponse{Model: m.modelID, Content: "{}"}, nil
	}

	reply := m.script[idx]
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &ChatResponse{Model: m.modelID, Content: reply.Content}, nil
}

// Calls returns how many times Chat was invoked.
func (m *MockEngine) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
