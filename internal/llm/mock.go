package llm

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockClient is a scripted client for tests and local development.
//
// Complete returns Err when set, otherwise the joined Fragments.
// CompleteStream emits Fragments in order; when Err is set it stops after
// FailAfter fragments and returns the partial text with Err.
type MockClient struct {
	Fragments []string
	Err       error
	FailAfter int
	Delay     time.Duration

	mu       sync.Mutex
	requests []*CompletionRequest
}

// NewMockClient creates a mock that replies with the given fragments.
func NewMockClient(fragments ...string) *MockClient {
	return &MockClient{Fragments: fragments}
}

// NewEchoClient creates a mock that repeats the latest user message back.
func NewEchoClient() *MockClient {
	return &MockClient{}
}

// Name returns the provider name.
func (m *MockClient) Name() string {
	return "mock"
}

// Models returns available models.
func (m *MockClient) Models() []string {
	return []string{"mock"}
}

// Requests returns the requests received so far.
func (m *MockClient) Requests() []*CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request or nil.
func (m *MockClient) LastRequest() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

func (m *MockClient) record(req *CompletionRequest) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
}

func (m *MockClient) fragments(req *CompletionRequest) []string {
	if len(m.Fragments) > 0 {
		return m.Fragments
	}
	var latest string
	if n := len(req.Messages); n > 0 {
		latest = req.Messages[n-1].Content
	}
	words := strings.SplitAfter("echo: "+latest, " ")
	return words
}

// Complete returns the scripted reply.
func (m *MockClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	m.record(req)

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}

	return &CompletionResponse{
		Content:    strings.Join(m.fragments(req), ""),
		Model:      "mock",
		StopReason: "stop",
	}, nil
}

// CompleteStream emits the scripted fragments.
func (m *MockClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	m.record(req)

	fragments := m.fragments(req)
	limit := len(fragments)
	if m.Err != nil && m.FailAfter < limit {
		limit = m.FailAfter
	}

	var content strings.Builder
	resp := &CompletionResponse{Model: "mock"}

	for i := 0; i < limit; i++ {
		if m.Delay > 0 {
			select {
			case <-time.After(m.Delay):
			case <-ctx.Done():
				resp.Content = content.String()
				return resp, ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			resp.Content = content.String()
			return resp, err
		}

		content.WriteString(fragments[i])
		if err := callback(fragments[i], i); err != nil {
			resp.Content = content.String()
			return resp, err
		}
	}

	resp.Content = content.String()
	if m.Err != nil {
		return resp, m.Err
	}
	resp.StopReason = "stop"
	return resp, nil
}
