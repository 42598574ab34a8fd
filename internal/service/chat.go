package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/promptcraft/internal/llm"
	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/store"
	"github.com/capitalize-ai/promptcraft/pkg/apperr"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
	"github.com/capitalize-ai/promptcraft/pkg/metrics"
)

const (
	msgMessageNotFound = "Message not found."
	msgFeedbackAIOnly  = "Feedback can only be provided for AI messages."

	defaultGenerationTimeout = 60 * time.Second
	defaultPersistTimeout    = 10 * time.Second
)

// ChatConfig holds generation settings for the chat service.
type ChatConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64

	GenerationTimeout time.Duration
	PersistTimeout    time.Duration

	// DefaultAPIKey is scrubbed from generation errors along with the
	// per-request key.
	DefaultAPIKey string
}

// ChatService exchanges messages with the text generator and records feedback.
type ChatService struct {
	store   *store.Store
	clients llm.ClientFactory
	cfg     ChatConfig
	events  events
	logger  *logger.Logger
}

// NewChatService creates a new chat service. publisher may be nil.
func NewChatService(st *store.Store, clients llm.ClientFactory, cfg ChatConfig, publisher EventPublisher, log *logger.Logger) *ChatService {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaultGenerationTimeout
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaultPersistTimeout
	}

	return &ChatService{
		store:   st,
		clients: clients,
		cfg:     cfg,
		events:  events{publisher: publisher, logger: log},
		logger:  log,
	}
}

// Send persists the user message, asks the generator for a whole reply and
// persists it. When generation fails or the reply is blank, the user message
// stays saved and no AI message is written.
func (s *ChatService) Send(ctx context.Context, conversationID uint, req *model.SendMessageRequest) (*model.Message, error) {
	ctx, span := tracer.Start(ctx, "ChatService.Send",
		trace.WithAttributes(attribute.Int64("conversation_id", int64(conversationID))))
	defer span.End()

	request, err := s.begin(ctx, conversationID, req.MessageContent)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	client, err := s.clients.NewClient(ctx, req.APIKey)
	if err != nil {
		return nil, s.generationFailed(ctx, span, conversationID, err, req.APIKey)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Complete(genCtx, request)
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = llm.ErrEmptyReply
	}
	if err != nil {
		metrics.RecordGeneration(client.Name(), "whole", "error", time.Since(start).Seconds())
		return nil, s.generationFailed(ctx, span, conversationID, s.timeoutCause(genCtx, err), req.APIKey)
	}
	metrics.RecordGeneration(client.Name(), "whole", "ok", time.Since(start).Seconds())

	var aiMsg *model.Message
	err = s.store.WithTx(ctx, func(repo *store.Repository) error {
		var err error
		aiMsg, err = repo.CreateMessage(conversationID, model.SenderAI, resp.Content)
		return err
	})
	if err != nil {
		err = apperr.Internal("failed to save AI response", err)
		recordSpanError(span, err)
		return nil, err
	}

	metrics.MessagesTotal.WithLabelValues(string(model.SenderAI), string(model.StatusComplete)).Inc()
	s.logger.Info("ai reply saved",
		zap.Uint("conversation_id", conversationID),
		zap.Uint("message_id", aiMsg.ID),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)
	s.events.emit(ctx, conversationID, model.EventMessageCreated, aiMsg, "")

	return aiMsg, nil
}

// BeginStream runs the first phase of a streaming reply: it checks the
// conversation, persists the user message and prepares the generator call.
// Nothing has been sent to the client when it fails.
func (s *ChatService) BeginStream(ctx context.Context, conversationID uint, req *model.SendMessageRequest) (*ReplyStream, error) {
	ctx, span := tracer.Start(ctx, "ChatService.BeginStream",
		trace.WithAttributes(attribute.Int64("conversation_id", int64(conversationID))))
	defer span.End()

	request, err := s.begin(ctx, conversationID, req.MessageContent)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	client, err := s.clients.NewClient(ctx, req.APIKey)
	if err != nil {
		return nil, s.generationFailed(ctx, span, conversationID, err, req.APIKey)
	}

	return &ReplyStream{
		svc:            s,
		conversationID: conversationID,
		client:         client,
		request:        request,
		apiKey:         req.APIKey,
	}, nil
}

// ReplyStream is a streaming reply whose user message is already saved.
type ReplyStream struct {
	svc            *ChatService
	conversationID uint
	client         llm.Client
	request        *llm.CompletionRequest
	apiKey         string
}

// StreamResult describes how a streaming reply ended.
type StreamResult struct {
	// Message is the persisted AI message, nil when nothing was saved.
	Message *model.Message
	Status  model.MessageStatus
	// Err is the generation failure, if any.
	Err error
	// PersistErr is set when the reply could not be saved.
	PersistErr error
}

// Run relays fragments to onFragment as they arrive and, once the stream
// ends, persists the accumulated text in a fresh transaction that outlives
// ctx. A stream cut short is saved as incomplete. A stream that produced no
// text is a generation failure and nothing is saved.
// An error from onFragment stops generation.
func (r *ReplyStream) Run(ctx context.Context, onFragment func(fragment string) error) *StreamResult {
	s := r.svc

	ctx, span := tracer.Start(ctx, "ReplyStream.Run",
		trace.WithAttributes(attribute.Int64("conversation_id", int64(r.conversationID))))
	defer span.End()

	metrics.IncrementStreams()
	defer metrics.DecrementStreams()

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	var content strings.Builder
	fragments := 0
	start := time.Now()

	_, err := r.client.CompleteStream(genCtx, r.request, func(fragment string, _ int) error {
		content.WriteString(fragment)
		fragments++
		metrics.StreamFragmentsTotal.WithLabelValues(r.client.Name()).Inc()
		return onFragment(fragment)
	})

	empty := strings.TrimSpace(content.String()) == ""
	if err == nil && empty {
		err = llm.ErrEmptyReply
	}

	result := &StreamResult{Status: model.StatusComplete}
	genStatus := "ok"
	if err != nil {
		genStatus = "error"
		result.Status = model.StatusIncomplete
		result.Err = s.generationFailed(ctx, span, r.conversationID, s.timeoutCause(genCtx, err), r.apiKey)
	}
	metrics.RecordGeneration(r.client.Name(), "stream", genStatus, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("fragments", fragments))

	if empty {
		return result
	}

	persistCtx, cancelPersist := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
	defer cancelPersist()

	err = s.store.WithTx(persistCtx, func(repo *store.Repository) error {
		var err error
		result.Message, err = repo.CreateMessageWithStatus(r.conversationID, model.SenderAI, content.String(), result.Status)
		return err
	})
	if err != nil {
		result.Message = nil
		result.PersistErr = err
		s.logger.Error("failed to save streamed reply",
			zap.Uint("conversation_id", r.conversationID),
			zap.Int("length", content.Len()),
			zap.Error(err),
		)
		return result
	}

	metrics.MessagesTotal.WithLabelValues(string(model.SenderAI), string(result.Status)).Inc()
	s.logger.Info("streamed reply saved",
		zap.Uint("conversation_id", r.conversationID),
		zap.Uint("message_id", result.Message.ID),
		zap.String("status", string(result.Status)),
		zap.Int("fragments", fragments),
	)
	s.events.emit(ctx, r.conversationID, model.EventMessageCreated, result.Message, "")

	return result
}

// UpdateFeedback applies like/dislike flags to an AI message.
func (s *ChatService) UpdateFeedback(ctx context.Context, messageID uint, req *model.FeedbackRequest) (*model.Message, error) {
	ctx, span := tracer.Start(ctx, "ChatService.UpdateFeedback",
		trace.WithAttributes(attribute.Int64("message_id", int64(messageID))))
	defer span.End()

	var msg *model.Message
	err := s.store.WithTx(ctx, func(repo *store.Repository) error {
		current, err := repo.GetMessage(messageID)
		if err != nil {
			return err
		}
		if current.Sender != model.SenderAI {
			return apperr.InvalidOperation(msgFeedbackAIOnly)
		}

		msg, err = repo.UpdateMessageFeedback(messageID, req.Liked, req.Disliked)
		return err
	})
	if err != nil {
		err = lookupErr(err, msgMessageNotFound)
		recordSpanError(span, err)
		return nil, err
	}

	metrics.FeedbackTotal.WithLabelValues(string(msg.Feedback)).Inc()
	s.events.emit(ctx, msg.ConversationID, model.EventMessageFeedback, msg, "")
	return msg, nil
}

// begin persists the user message and builds the generator request from the
// conversation's system prompt and prior messages, all in one transaction.
func (s *ChatService) begin(ctx context.Context, conversationID uint, content string) (*llm.CompletionRequest, error) {
	var (
		userMsg *model.Message
		request *llm.CompletionRequest
	)

	err := s.store.WithTx(ctx, func(repo *store.Repository) error {
		conv, err := repo.GetConversation(conversationID)
		if err != nil {
			return err
		}

		userMsg, err = repo.CreateMessage(conversationID, model.SenderUser, content)
		if err != nil {
			return err
		}

		all, err := repo.AllMessages(conversationID)
		if err != nil {
			return err
		}
		history := all
		if n := len(all); n > 0 {
			history = all[:n-1]
		}

		request = s.buildRequest(conv.SystemPromptUsed, history, content)
		return nil
	})
	if err != nil {
		return nil, lookupErr(err, msgConversationNotFound)
	}

	metrics.MessagesTotal.WithLabelValues(string(model.SenderUser), string(model.StatusComplete)).Inc()
	s.events.emit(ctx, conversationID, model.EventMessageCreated, userMsg, "")
	return request, nil
}

func (s *ChatService) buildRequest(systemPrompt string, history []model.Message, latest string) *llm.CompletionRequest {
	messages := make([]llm.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, llm.ChatMessage{Role: roleFor(m.Sender), Content: m.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: latest})

	return &llm.CompletionRequest{
		Model:        s.cfg.Model,
		SystemPrompt: systemPrompt,
		Messages:     messages,
		MaxTokens:    s.cfg.MaxTokens,
		Temperature:  s.cfg.Temperature,
	}
}

func roleFor(sender model.Sender) string {
	if sender == model.SenderAI {
		return llm.RoleAssistant
	}
	return llm.RoleUser
}

// timeoutCause labels a generator error caused by the generation deadline.
func (s *ChatService) timeoutCause(genCtx context.Context, err error) error {
	if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("generation timed out after %s: %w", s.cfg.GenerationTimeout, err)
	}
	return err
}

func (s *ChatService) generationFailed(ctx context.Context, span trace.Span, conversationID uint, cause error, apiKey string) error {
	err := apperr.Generation(redact(cause, apiKey, s.cfg.DefaultAPIKey))
	recordSpanError(span, err)

	s.logger.Warn("generation failed",
		zap.Uint("conversation_id", conversationID),
		zap.Error(err),
	)
	s.events.emit(ctx, conversationID, model.EventGenerationFailed, nil, err.Error())
	return err
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// redactedError hides API keys that upstream SDKs echo back in errors.
type redactedError struct {
	err     error
	secrets []string
}

func (e *redactedError) Error() string {
	msg := e.err.Error()
	for _, secret := range e.secrets {
		msg = strings.ReplaceAll(msg, secret, "[REDACTED]")
	}
	return msg
}

func (e *redactedError) Unwrap() error {
	return e.err
}

func redact(err error, secrets ...string) error {
	var keep []string
	for _, secret := range secrets {
		if secret != "" {
			keep = append(keep, secret)
		}
	}
	if len(keep) == 0 {
		return err
	}
	return &redactedError{err: err, secrets: keep}
}
