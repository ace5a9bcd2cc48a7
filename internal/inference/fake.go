package inference

import (
	"context"
	"sync"
)

// FakeClient is a scripted Client for tests. Handler decides the reply for
// each prompt; every prompt is recorded.
type FakeClient struct {
	Handler func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// NewFakeClient returns a FakeClient using handler.
func NewFakeClient(handler func(prompt string) (string, error)) *FakeClient {
	return &FakeClient{Handler: handler}
}

// Complete records prompt and returns the scripted reply.
func (f *FakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Handler == nil {
		return "", ErrEmptyResponse
	}
	return f.Handler(prompt)
}

// Prompts returns the prompts received so far.
func (f *FakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

// Calls returns the number of prompts received.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
