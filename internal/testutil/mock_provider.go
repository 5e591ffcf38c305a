package testutil

import (
	"context"
	"sync"

	"github.com/shillcollin/reportgate/core"
)

// MockProvider is a configurable mock implementation of core.Provider for testing.
type MockProvider struct {
	mu sync.Mutex

	// Text is returned when no script or handler is set.
	Text string
	Caps core.Capabilities

	// Err is returned for every call when set.
	Err error

	// Script holds per-call outcomes consumed in order. A nil error uses
	// the paired text. Calls past the end of the script fall back to
	// Text and Err.
	Script []Step

	// Calls records every request received.
	Calls []core.Request

	// OnComplete overrides the default behaviour.
	OnComplete func(ctx context.Context, req core.Request) (*core.Completion, error)
}

// Step is one scripted outcome.
type Step struct {
	Text string
	Err  error
}

// NewMockProvider creates a new MockProvider with sensible defaults.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Text: "mock response",
		Caps: core.Capabilities{
			Provider:            core.KindOpenAI,
			Variant:             core.VariantMessageList,
			Model:               "mock-model",
			SupportsTemperature: true,
			MaxOutputTokens:     4000,
		},
	}
}

// Echo returns a provider that replies with the rendered prompt, so tests
// can assert on what reached the backend.
func Echo() *MockProvider {
	m := NewMockProvider()
	m.OnComplete = func(_ context.Context, req core.Request) (*core.Completion, error) {
		return m.completion(req.Prompt()), nil
	}
	return m
}

// Failing returns a provider whose every call fails with err.
func Failing(err error) *MockProvider {
	m := NewMockProvider()
	m.Err = err
	return m
}

// Complete implements core.Provider.
func (m *MockProvider) Complete(ctx context.Context, req core.Request) (*core.Completion, error) {
	m.mu.Lock()
	idx := len(m.Calls)
	m.Calls = append(m.Calls, req)
	handler := m.OnComplete
	var step *Step
	if idx < len(m.Script) {
		s := m.Script[idx]
		step = &s
	}
	text, err := m.Text, m.Err
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, core.TransportError(m.Caps.Provider, err)
	}
	if handler != nil {
		return handler(ctx, req)
	}
	if step != nil {
		text, err = step.Text, step.Err
	}
	if err != nil {
		return nil, err
	}
	return m.completion(text), nil
}

func (m *MockProvider) completion(text string) *core.Completion {
	return &core.Completion{
		Text:         text,
		Model:        m.Caps.Model,
		Provider:     m.Caps.Provider,
		FinishReason: "stop",
		Usage:        core.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}
}

// Capabilities implements core.Provider.
func (m *MockProvider) Capabilities() core.Capabilities {
	return m.Caps
}

// CallCount returns the number of Complete calls so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request.
func (m *MockProvider) LastCall() (core.Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return core.Request{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}

// Reset clears all tracked calls.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}
