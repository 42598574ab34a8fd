package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/promptcraft/internal/middleware"
	"github.com/capitalize-ai/promptcraft/internal/service"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Prompts       *service.PromptService
	Conversations *service.ConversationService
	Chat          *service.ChatService

	DB     Pinger
	NATS   ConnChecker   // nil when NATS is disabled
	Events EventReplayer // nil when NATS is disabled

	CORSAllowedOrigins []string
}

// NewRouter wires every route onto a chi router.
func NewRouter(deps Deps, log *logger.Logger) http.Handler {
	healthHandler := NewHealthHandler(deps.DB, deps.NATS)
	promptHandler := NewPromptHandler(deps.Prompts, log)
	conversationHandler := NewConversationHandler(deps.Conversations, deps.Events, log)
	messageHandler := NewMessageHandler(deps.Chat, log)
	streamHandler := NewStreamHandler(deps.Chat, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(deps.CORSAllowedOrigins))

	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", promptHandler.Create)
			r.Get("/", promptHandler.List)
			r.Get("/{id}", promptHandler.Get)
			r.Put("/{id}", promptHandler.Update)
			r.Delete("/{id}", promptHandler.Delete)
		})

		r.Get("/conversations", conversationHandler.List)
		r.Post("/conversation", conversationHandler.Create)
		r.Route("/conversation/{id}", func(r chi.Router) {
			r.Delete("/", conversationHandler.Delete)
			r.Get("/messages", conversationHandler.Messages)
			r.Get("/events", conversationHandler.Events)
			r.Post("/send_message", messageHandler.Send)
			r.Post("/send_message_stream", streamHandler.SendStream)
		})

		r.Put("/message/{id}/feedback", messageHandler.Feedback)
	})

	return r
}
