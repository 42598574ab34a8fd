package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/capitalize-ai/promptcraft/internal/llm"
	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/service"
	"github.com/capitalize-ai/promptcraft/internal/store"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
)

type testServer struct {
	handler http.Handler
	store   *store.Store
}

func newTestServer(t *testing.T, client llm.Client) *testServer {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(store.Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:http_%s?mode=memory&cache=shared", name),
	}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.NewNop()
	deps := Deps{
		Prompts:            service.NewPromptService(st, log),
		Conversations:      service.NewConversationService(st, nil, log),
		Chat:               service.NewChatService(st, llm.StaticFactory{Client: client}, service.ChatConfig{}, nil, log),
		DB:                 st,
		CORSAllowedOrigins: []string{"http://localhost:9000"},
	}

	return &testServer{handler: NewRouter(deps, log), store: st}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rec, &body)
	return body["error"]
}

func TestPromptEndpoints(t *testing.T) {
	srv := newTestServer(t, llm.NewMockClient("x"))

	rec := srv.do(t, http.MethodPost, "/api/prompts", map[string]string{"name": "helper", "content": "Be helpful."})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created model.Prompt
	decode(t, rec, &created)

	rec = srv.do(t, http.MethodPost, "/api/prompts", map[string]string{"name": "helper", "content": "Other."})
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "Prompt with this name already exists." {
		t.Errorf("duplicate: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/prompts/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get: %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPut, fmt.Sprintf("/api/prompts/%d", created.ID), map[string]string{"content": "Be brief."})
	var updated model.Prompt
	decode(t, rec, &updated)
	if rec.Code != http.StatusOK || updated.Name != "helper" || updated.Content != "Be brief." {
		t.Errorf("update: %d %+v", rec.Code, updated)
	}

	rec = srv.do(t, http.MethodGet, "/api/prompts?skip=0&limit=10", nil)
	var list []model.Prompt
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("list: %+v", list)
	}

	rec = srv.do(t, http.MethodGet, "/api/prompts?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: %d", rec.Code)
	}

	rec = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/prompts/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rec.Code)
	}
	rec = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/prompts/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, "/api/prompts/not-a-number", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id: %d", rec.Code)
	}
}

func createConversation(t *testing.T, srv *testServer, systemPrompt string) model.Conversation {
	t.Helper()
	rec := srv.do(t, http.MethodPost, "/api/conversation", map[string]string{"system_prompt_used": systemPrompt})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create conversation: %d %s", rec.Code, rec.Body.String())
	}
	var conv model.Conversation
	decode(t, rec, &conv)
	return conv
}

func TestChatFlow(t *testing.T) {
	srv := newTestServer(t, llm.NewMockClient("Hi."))
	conv := createConversation(t, srv, "You are terse.")

	rec := srv.do(t, http.MethodPost, fmt.Sprintf("/api/conversation/%d/send_message", conv.ID),
		map[string]string{"message_content": "Hello", "api_key": "k"})
	if rec.Code != http.StatusOK {
		t.Fatalf("send: %d %s", rec.Code, rec.Body.String())
	}

	var raw map[string]interface{}
	decode(t, rec, &raw)
	if raw["sender"] != "ai" || raw["content"] != "Hi." || raw["liked"] != false || raw["disliked"] != false {
		t.Errorf("unexpected reply %v", raw)
	}
	aiID := uint(raw["id"].(float64))

	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/conversation/%d/messages", conv.ID), nil)
	var msgs []model.Message
	decode(t, rec, &msgs)
	if len(msgs) != 2 || msgs[0].Sender != model.SenderUser || msgs[1].ID != aiID {
		t.Fatalf("unexpected history %+v", msgs)
	}

	rec = srv.do(t, http.MethodPut, fmt.Sprintf("/api/message/%d/feedback", aiID), map[string]bool{"liked": true})
	decode(t, rec, &raw)
	if rec.Code != http.StatusOK || raw["liked"] != true || raw["disliked"] != false {
		t.Errorf("like: %d %v", rec.Code, raw)
	}

	rec = srv.do(t, http.MethodPut, fmt.Sprintf("/api/message/%d/feedback", aiID), map[string]bool{"disliked": true})
	decode(t, rec, &raw)
	if rec.Code != http.StatusOK || raw["liked"] != false || raw["disliked"] != true {
		t.Errorf("dislike: %d %v", rec.Code, raw)
	}

	rec = srv.do(t, http.MethodPut, fmt.Sprintf("/api/message/%d/feedback", msgs[0].ID), map[string]bool{"liked": true})
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "Feedback can only be provided for AI messages." {
		t.Errorf("feedback on user message: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPut, "/api/message/9999/feedback", map[string]bool{"liked": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("feedback on missing message: %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/conversations", nil)
	var convs []model.Conversation
	decode(t, rec, &convs)
	if len(convs) != 1 || len(convs[0].Messages) != 2 || convs[0].SystemPromptUsed != "You are terse." {
		t.Errorf("unexpected conversations %+v", convs)
	}

	rec = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/conversation/%d", conv.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, fmt.Sprintf("/api/conversation/%d/messages", conv.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("messages after delete: %d", rec.Code)
	}
	rec = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/conversation/%d", conv.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: %d", rec.Code)
	}
}

func TestSendMessageErrors(t *testing.T) {
	srv := newTestServer(t, &llm.MockClient{Err: errors.New("upstream unavailable")})

	rec := srv.do(t, http.MethodPost, "/api/conversation/404/send_message", map[string]string{"message_content": "Hello"})
	if rec.Code != http.StatusNotFound || errorMessage(t, rec) != "Conversation not found." {
		t.Errorf("unknown conversation: %d %s", rec.Code, rec.Body.String())
	}

	conv := createConversation(t, srv, "sys")

	rec = srv.do(t, http.MethodPost, fmt.Sprintf("/api/conversation/%d/send_message", conv.ID), map[string]string{"message_content": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message: %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, fmt.Sprintf("/api/conversation/%d/send_message", conv.ID), map[string]string{"message_content": "Hello"})
	if rec.Code != http.StatusInternalServerError || !strings.Contains(errorMessage(t, rec), "upstream unavailable") {
		t.Errorf("generation failure: %d %s", rec.Code, rec.Body.String())
	}

	msgs, _ := srv.store.Repository(context.Background()).ListMessages(conv.ID, 0, 0)
	if len(msgs) != 1 {
		t.Errorf("user message should be kept after generation failure, got %d messages", len(msgs))
	}
}

func TestSendMessageStream(t *testing.T) {
	srv := newTestServer(t, llm.NewMockClient("Hel", "lo!"))
	conv := createConversation(t, srv, "sys")

	rec := srv.do(t, http.MethodPost, fmt.Sprintf("/api/conversation/%d/send_message_stream", conv.ID),
		map[string]string{"message_content": "Hi"})
	res := rec.Result()
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK || string(body) != "Hello!" {
		t.Fatalf("stream: %d %q", res.StatusCode, body)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}
	if got := res.Trailer.Get(StreamStatusTrailer); got != string(model.StatusComplete) {
		t.Errorf("expected complete trailer, got %q", got)
	}

	msgs, _ := srv.store.Repository(context.Background()).ListMessages(conv.ID, 0, 0)
	if len(msgs) != 2 || msgs[1].Content != "Hello!" || msgs[1].Sender != model.SenderAI {
		t.Errorf("unexpected stored messages %+v", msgs)
	}

	rec = srv.do(t, http.MethodPost, "/api/conversation/999/send_message_stream", map[string]string{"message_content": "Hi"})
	if rec.Code != http.StatusNotFound || !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Errorf("unknown conversation should fail before streaming: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestSendMessageStreamIncomplete(t *testing.T) {
	srv := newTestServer(t, &llm.MockClient{Fragments: []string{"Hel", "lo!"}, Err: errors.New("reset"), FailAfter: 1})
	conv := createConversation(t, srv, "sys")

	rec := srv.do(t, http.MethodPost, fmt.Sprintf("/api/conversation/%d/send_message_stream", conv.ID),
		map[string]string{"message_content": "Hi"})
	res := rec.Result()
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if string(body) != "Hel" {
		t.Errorf("unexpected body %q", body)
	}
	if got := res.Trailer.Get(StreamStatusTrailer); got != string(model.StatusIncomplete) {
		t.Errorf("expected incomplete trailer, got %q", got)
	}

	msgs, _ := srv.store.Repository(context.Background()).ListMessages(conv.ID, 0, 0)
	if len(msgs) != 2 || msgs[1].Status != model.StatusIncomplete || msgs[1].Content != "Hel" {
		t.Errorf("expected incomplete partial reply, got %+v", msgs)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, llm.NewMockClient("x"))

	for _, path := range []string{"/", "/health", "/ready"} {
		if rec := srv.do(t, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Errorf("%s: %d", path, rec.Code)
		}
	}

	if rec := srv.do(t, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK {
		t.Errorf("/metrics: %d", rec.Code)
	}

	if rec := srv.do(t, http.MethodGet, "/api/conversation/1/events", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("events without NATS: %d", rec.Code)
	}
}

type disconnected struct{}

func (disconnected) IsConnected() bool { return false }

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func TestReadyReportsNATS(t *testing.T) {
	h := NewHealthHandler(okPinger{}, disconnected{})
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
