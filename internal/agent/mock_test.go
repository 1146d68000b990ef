package agent_test

import (
	"context"
	"strings"
	"sync"
)

// llmCall records one Complete invocation for assertions.
type llmCall struct {
	Prompt      string
	Temperature float64
}

// mockLLM is a scripted TextGenerator. Responses are matched by prompt
// substring first, then popped from the queue; with neither it returns
// defaultReply. Setting err fails every call.
type mockLLM struct {
	mu           sync.Mutex
	byPrompt     map[string]string
	blockers     map[string]chan struct{}
	queue        []string
	defaultReply string
	err          error
	calls        []llmCall
}

func newMockLLM() *mockLLM {
	return &mockLLM{
		byPrompt:     make(map[string]string),
		blockers:     make(map[string]chan struct{}),
		defaultReply: "OK",
	}
}

func (m *mockLLM) respondTo(promptSubstring, response string) *mockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPrompt[promptSubstring] = response
	return m
}

// blockUntil makes calls whose prompt contains the substring wait until
// release is closed before answering.
func (m *mockLLM) blockUntil(promptSubstring string, release chan struct{}) *mockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockers[promptSubstring] = release
	return m
}

func (m *mockLLM) enqueue(responses ...string) *mockLLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
	return m
}

func (m *mockLLM) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	m.mu.Lock()
	var release chan struct{}
	for substring, ch := range m.blockers {
		if strings.Contains(prompt, substring) {
			release = ch
			break
		}
	}
	m.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, llmCall{Prompt: prompt, Temperature: temperature})
	if m.err != nil {
		return "", m.err
	}
	for substring, response := range m.byPrompt {
		if strings.Contains(prompt, substring) {
			return response, nil
		}
	}
	if len(m.queue) > 0 {
		response := m.queue[0]
		m.queue = m.queue[1:]
		return response, nil
	}
	return m.defaultReply, nil
}

func (m *mockLLM) GetModel() string { return "mock-model" }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLM) lastCall() llmCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return llmCall{}
	}
	return m.calls[len(m.calls)-1]
}
