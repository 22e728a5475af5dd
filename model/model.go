package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Request is the normalized model input used for plan generation and
// revision. Instructions map to the provider's system prompt; Prompt is the
// user turn.
type Request struct {
	Instructions string  `json:"instructions,omitempty"`
	Prompt       string  `json:"prompt"`
	MaxTokens    int64   `json:"max_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// Usage captures token usage statistics for a response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a completed generation.
type Response struct {
	ID           string `json:"id,omitempty"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"` // "stop", "length", etc.
	Usage        *Usage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface the planner needs to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// Mock is a lightweight in-memory Model for tests and examples. Canned
// responses are matched by prompt substring in registration order;
// unmatched prompts return the default response or an error when none is
// set.
type Mock struct {
	info Info

	mu        sync.Mutex
	canned    []mockEntry
	fallback  string
	hasFinal  bool
	err       error
	lastReq   *Request
	callCount int
}

type mockEntry struct {
	substring string
	response  string
}

// NewMock constructs a Mock model.
func NewMock(name string) *Mock {
	return &Mock{info: Info{Name: name, Provider: "mock"}}
}

// AddResponse registers a canned completion returned when the prompt
// contains the given substring.
func (m *Mock) AddResponse(substring, response string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canned = append(m.canned, mockEntry{substring: substring, response: response})
	return m
}

// SetDefault registers the completion returned for unmatched prompts.
func (m *Mock) SetDefault(response string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
	m.hasFinal = true
	return m
}

// SetError makes every Generate call fail with err.
func (m *Mock) SetError(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Generate implements Model.
func (m *Mock) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReq = &req
	m.callCount++

	if m.err != nil {
		return nil, m.err
	}
	for _, entry := range m.canned {
		if entry.substring != "" && strings.Contains(req.Prompt, entry.substring) {
			return &Response{Content: entry.response, FinishReason: "stop"}, nil
		}
	}
	if m.hasFinal {
		return &Response{Content: m.fallback, FinishReason: "stop"}, nil
	}
	return nil, fmt.Errorf("mock model: no canned response for prompt")
}

// Info implements Model.
func (m *Mock) Info() Info { return m.info }

// LastRequest returns the most recent request, or nil before any call.
func (m *Mock) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

// CallCount returns the number of Generate calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
