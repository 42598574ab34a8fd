package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiClient is the Google Gemini client, using the API-key backend.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Models returns available models.
func (c *GeminiClient) Models() []string {
	return []string{
		"gemini-1.5-flash",
		"gemini-1.5-pro",
		"gemini-2.0-flash",
		"gemini-2.5-flash",
	}
}

func (c *GeminiClient) prepare(req *CompletionRequest) (string, []*genai.Content, *genai.GenerateContentConfig) {
	model := req.Model
	if model == "" {
		model = defaultGeminiModel
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		cfg.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	return model, contents, cfg
}

// Complete sends a completion request.
func (c *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	model, contents, cfg := c.prepare(req)

	res, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return nil, emptyReplyError(res)
	}

	resp := &CompletionResponse{
		Content:   text,
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if res.UsageMetadata != nil {
		resp.TokensIn = int(res.UsageMetadata.PromptTokenCount)
		resp.TokensOut = int(res.UsageMetadata.CandidatesTokenCount)
	}
	if len(res.Candidates) > 0 {
		resp.StopReason = string(res.Candidates[0].FinishReason)
	}
	return resp, nil
}

// CompleteStream sends a streaming completion request.
func (c *GeminiClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	start := time.Now()
	model, contents, cfg := c.prepare(req)

	var content strings.Builder
	resp := &CompletionResponse{Model: model}
	index := 0
	var last *genai.GenerateContentResponse

	for chunk, err := range c.client.Models.GenerateContentStream(ctx, model, contents, cfg) {
		if err != nil {
			resp.Content = content.String()
			resp.LatencyMs = time.Since(start).Milliseconds()
			return resp, fmt.Errorf("gemini stream: %w", err)
		}

		last = chunk
		if chunk.UsageMetadata != nil {
			resp.TokensIn = int(chunk.UsageMetadata.PromptTokenCount)
			resp.TokensOut = int(chunk.UsageMetadata.CandidatesTokenCount)
		}
		if len(chunk.Candidates) > 0 && chunk.Candidates[0].FinishReason != "" {
			resp.StopReason = string(chunk.Candidates[0].FinishReason)
		}

		token := chunk.Text()
		if token == "" {
			continue
		}
		content.WriteString(token)
		if err := callback(token, index); err != nil {
			resp.Content = content.String()
			resp.LatencyMs = time.Since(start).Milliseconds()
			return resp, err
		}
		index++
	}

	resp.Content = content.String()
	resp.LatencyMs = time.Since(start).Milliseconds()
	if content.Len() == 0 {
		return resp, emptyReplyError(last)
	}
	return resp, nil
}

// emptyReplyError reports why a response carried no text. res may be nil
// when the stream ended without a chunk.
func emptyReplyError(res *genai.GenerateContentResponse) error {
	switch {
	case res == nil:
		return fmt.Errorf("gemini: %w: no response", ErrEmptyReply)
	case res.PromptFeedback != nil && res.PromptFeedback.BlockReason != "":
		reason := string(res.PromptFeedback.BlockReason)
		if msg := res.PromptFeedback.BlockReasonMessage; msg != "" {
			reason += ": " + msg
		}
		return fmt.Errorf("gemini: %w: prompt blocked (%s)", ErrEmptyReply, reason)
	case len(res.Candidates) == 0:
		return fmt.Errorf("gemini: %w: no candidates", ErrEmptyReply)
	case res.Candidates[0].FinishReason != "":
		return fmt.Errorf("gemini: %w: finish reason %s", ErrEmptyReply, res.Candidates[0].FinishReason)
	default:
		return fmt.Errorf("gemini: %w", ErrEmptyReply)
	}
}
