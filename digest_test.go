package godigest_test

import (
	"context"
	"sync"
	"time"

	godigest "github.com/soundprediction/go-digest"
)

// MockLLM routes prompts to canned responses and records every call.
type MockLLM struct {
	mu    sync.Mutex
	calls []string

	// respond receives the last message of the conversation and decides the
	// reply. When nil, every call succeeds with a fixed short summary.
	respond func(prompt string) (string, error)
}

func (m *MockLLM) Chat(_ context.Context, messages []string) (string, error) {
	prompt := messages[len(messages)-1]

	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()

	if m.respond == nil {
		return "a short summary.", nil
	}
	return m.respond(prompt)
}

func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockLLM) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// MockHandler implements godigest.DocumentHandler with canned chunks.
type MockHandler struct {
	chunks   []godigest.Chunk
	chunkErr error

	threshold    int
	targetRatio  float64
	ceilingRatio float64
	maxRetries   int
	concurrency  int
	backoff      time.Duration
}

func (m MockHandler) ChunksDocument(string) ([]godigest.Chunk, error) {
	if m.chunkErr != nil {
		return nil, m.chunkErr
	}
	return m.chunks, nil
}

func (m MockHandler) SingleCallThreshold() int {
	return m.threshold
}

func (m MockHandler) TargetRatio() float64 {
	return m.targetRatio
}

func (m MockHandler) CeilingRatio() float64 {
	return m.ceilingRatio
}

func (m MockHandler) MaxRetries() int {
	return m.maxRetries
}

func (m MockHandler) ConcurrencyCount() int {
	return m.concurrency
}

func (m MockHandler) BackoffDuration() time.Duration {
	if m.backoff > 0 {
		return m.backoff
	}
	// Keep retry-heavy tests fast.
	return time.Millisecond
}
