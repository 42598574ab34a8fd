package service

import (
	"context"
	"testing"

	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/pkg/apperr"
)

func TestPromptCreateDuplicateName(t *testing.T) {
	st := newTestStore(t)
	svc := NewPromptService(st, nopLogger)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &model.CreatePromptRequest{Name: "Helper", Content: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Create(ctx, &model.CreatePromptRequest{Name: "Helper", Content: "b"})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Names compare case-sensitively.
	if _, err := svc.Create(ctx, &model.CreatePromptRequest{Name: "helper", Content: "c"}); err != nil {
		t.Fatalf("differently cased name should be accepted: %v", err)
	}

	prompts, _ := svc.List(ctx, 0, 0)
	if len(prompts) != 2 {
		t.Errorf("expected 2 prompts, got %d", len(prompts))
	}
}

func TestPromptCreateValidation(t *testing.T) {
	st := newTestStore(t)
	svc := NewPromptService(st, nopLogger)

	tests := []struct {
		name string
		req  model.CreatePromptRequest
	}{
		{"empty name", model.CreatePromptRequest{Name: "", Content: "x"}},
		{"blank name", model.CreatePromptRequest{Name: "   ", Content: "x"}},
		{"empty content", model.CreatePromptRequest{Name: "x", Content: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &tt.req)
			if apperr.CodeOf(err) != apperr.CodeInvalidInput {
				t.Errorf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestPromptUpdate(t *testing.T) {
	st := newTestStore(t)
	svc := NewPromptService(st, nopLogger)
	ctx := context.Background()

	a, _ := svc.Create(ctx, &model.CreatePromptRequest{Name: "a", Content: "A"})
	b, _ := svc.Create(ctx, &model.CreatePromptRequest{Name: "b", Content: "B"})

	if _, err := svc.Update(ctx, b.ID, &model.UpdatePromptRequest{Name: strPtr("a")}); !apperr.IsConflict(err) {
		t.Fatalf("rename onto an existing name should conflict, got %v", err)
	}

	// Renaming to its own name is not a conflict.
	updated, err := svc.Update(ctx, a.ID, &model.UpdatePromptRequest{Name: strPtr("a"), Content: strPtr("A2")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "A2" {
		t.Errorf("content not updated: %+v", updated)
	}

	if _, err := svc.Update(ctx, 999, &model.UpdatePromptRequest{Content: strPtr("x")}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := svc.Update(ctx, a.ID, &model.UpdatePromptRequest{Name: strPtr("")}); apperr.CodeOf(err) != apperr.CodeInvalidInput {
		t.Errorf("expected invalid input for empty name, got %v", err)
	}
}

func TestPromptRenameDoesNotTouchConversations(t *testing.T) {
	st := newTestStore(t)
	prompts := NewPromptService(st, nopLogger)
	convs := NewConversationService(st, nil, nopLogger)
	ctx := context.Background()

	p, _ := prompts.Create(ctx, &model.CreatePromptRequest{Name: "greeter", Content: "Say hi."})
	conv, err := convs.Create(ctx, &model.CreateConversationRequest{SystemPromptUsed: p.Content})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if _, err := prompts.Update(ctx, p.ID, &model.UpdatePromptRequest{Name: strPtr("welcomer"), Content: strPtr("Say welcome.")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := prompts.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	list, err := convs.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != conv.ID || list[0].SystemPromptUsed != "Say hi." {
		t.Errorf("conversation snapshot changed: %+v", list)
	}
}

func TestPromptGetAndDeleteNotFound(t *testing.T) {
	st := newTestStore(t)
	svc := NewPromptService(st, nopLogger)
	ctx := context.Background()

	if _, err := svc.Get(ctx, 42); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if err := svc.Delete(ctx, 42); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
