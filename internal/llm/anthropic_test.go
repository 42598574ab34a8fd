package llm

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestAnthropicParams(t *testing.T) {
	req := &CompletionRequest{
		SystemPrompt: "sys",
		Messages: []ChatMessage{
			{Role: RoleUser, Content: "a"},
			{Role: RoleAssistant, Content: "b"},
		},
	}

	params := (&AnthropicClient{}).params(req)

	if string(params.Model.Value) != defaultAnthropicModel {
		t.Errorf("model = %q, want %q", params.Model.Value, defaultAnthropicModel)
	}
	if params.MaxTokens.Value != defaultAnthropicMaxTokens {
		t.Errorf("max tokens = %d, want %d", params.MaxTokens.Value, defaultAnthropicMaxTokens)
	}
	if len(params.System.Value) != 1 || params.System.Value[0].Text.Value != "sys" {
		t.Errorf("system = %+v", params.System.Value)
	}

	wantRoles := []anthropic.MessageParamRole{anthropic.MessageParamRoleUser, anthropic.MessageParamRoleAssistant}
	if len(params.Messages.Value) != len(wantRoles) {
		t.Fatalf("got %d messages, want %d", len(params.Messages.Value), len(wantRoles))
	}
	for i, m := range params.Messages.Value {
		if m.Role.Value != wantRoles[i] {
			t.Errorf("message %d: role %q, want %q", i, m.Role.Value, wantRoles[i])
		}
	}
}
