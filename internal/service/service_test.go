package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/store"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(store.Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name),
	}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.ChatEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *model.ChatEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func countMessages(t *testing.T, st *store.Store, conversationID uint) []model.Message {
	t.Helper()
	msgs, err := st.Repository(context.Background()).ListMessages(conversationID, 0, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	return msgs
}

var nopLogger = logger.NewNop()

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
