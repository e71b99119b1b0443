package mocks

import (
	"context"
	"sync"
)

// MockHumanVerifier implements service.HumanVerifier for testing
type MockHumanVerifier struct {
	mu sync.Mutex

	On  bool
	Err error

	Tokens []string
}

func NewMockHumanVerifier(enabled bool) *MockHumanVerifier {
	return &MockHumanVerifier{On: enabled}
}

func (m *MockHumanVerifier) Enabled() bool {
	return m.On
}

func (m *MockHumanVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Tokens = append(m.Tokens, token)
	return m.Err
}

func (m *MockHumanVerifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Tokens)
}
