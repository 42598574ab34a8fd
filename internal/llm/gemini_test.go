package llm

import (
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiPrepare(t *testing.T) {
	tests := []struct {
		name      string
		req       *CompletionRequest
		wantModel string
		wantRoles []string
		wantSys   string
		wantMax   int32
		wantTemp  bool
	}{
		{
			name: "history maps assistant to model",
			req: &CompletionRequest{
				Model:        "gemini-2.0-flash",
				SystemPrompt: "sys",
				Messages: []ChatMessage{
					{Role: RoleUser, Content: "a"},
					{Role: RoleAssistant, Content: "b"},
					{Role: RoleUser, Content: "c"},
				},
				MaxTokens:   64,
				Temperature: 0.5,
			},
			wantModel: "gemini-2.0-flash",
			wantRoles: []string{genai.RoleUser, genai.RoleModel, genai.RoleUser},
			wantSys:   "sys",
			wantMax:   64,
			wantTemp:  true,
		},
		{
			name:      "defaults",
			req:       &CompletionRequest{Messages: []ChatMessage{{Role: RoleUser, Content: "hi"}}},
			wantModel: defaultGeminiModel,
			wantRoles: []string{genai.RoleUser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, contents, cfg := (&GeminiClient{}).prepare(tt.req)

			if model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}
			if len(contents) != len(tt.wantRoles) {
				t.Fatalf("got %d contents, want %d", len(contents), len(tt.wantRoles))
			}
			for i, c := range contents {
				if c.Role != tt.wantRoles[i] {
					t.Errorf("content %d: role %q, want %q", i, c.Role, tt.wantRoles[i])
				}
				if len(c.Parts) != 1 || c.Parts[0].Text != tt.req.Messages[i].Content {
					t.Errorf("content %d: unexpected parts %+v", i, c.Parts)
				}
			}

			if tt.wantSys == "" {
				if cfg.SystemInstruction != nil {
					t.Errorf("unexpected system instruction %+v", cfg.SystemInstruction)
				}
			} else if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != tt.wantSys {
				t.Errorf("system instruction = %+v, want %q", cfg.SystemInstruction, tt.wantSys)
			}
			if cfg.MaxOutputTokens != tt.wantMax {
				t.Errorf("max output tokens = %d, want %d", cfg.MaxOutputTokens, tt.wantMax)
			}
			if (cfg.Temperature != nil) != tt.wantTemp {
				t.Errorf("temperature set = %v, want %v", cfg.Temperature != nil, tt.wantTemp)
			}
		})
	}
}

func TestGeminiEmptyReplyError(t *testing.T) {
	tests := []struct {
		name string
		res  *genai.GenerateContentResponse
		want string
	}{
		{name: "no response", res: nil, want: "no response"},
		{
			name: "blocked prompt",
			res: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			},
			want: "prompt blocked (SAFETY)",
		},
		{name: "no candidates", res: &genai.GenerateContentResponse{}, want: "no candidates"},
		{
			name: "finish reason",
			res: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			want: "finish reason SAFETY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := emptyReplyError(tt.res)
			if !errors.Is(err, ErrEmptyReply) {
				t.Fatalf("expected ErrEmptyReply, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}
