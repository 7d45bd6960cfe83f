package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/campuscare/support-chat/backend/internal/middleware"
	chatservice "github.com/campuscare/support-chat/backend/internal/service/chat"
	"github.com/campuscare/support-chat/backend/internal/store"
)

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) GenerateReply(context.Context, string) (string, error) {
	g.calls++
	return g.reply, g.err
}

func setupRouter(gen *stubGenerator) (*chi.Mux, *store.MemoryStore) {
	st := store.NewMemoryStore()
	svc := chatservice.NewService(gen, st, nil, nil)
	handler := New(svc, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, st
}

func postChat(ctx context.Context, r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestPostChatReply(t *testing.T) {
	gen := &stubGenerator{reply: "That sounds lonely. Is there a club you have wanted to try?"}
	r, st := setupRouter(gen)

	resp := postChat(context.Background(), r, `{"userId":"u1","message":"I feel lonely on campus"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body["reply"] != gen.reply || body["emotion"] != "sad" || body["timestamp"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["flagged"]; ok {
		t.Fatal("response must not expose a flagged field")
	}
	if len(st.Chats()) != 1 {
		t.Fatalf("expected one chat record, got %d", len(st.Chats()))
	}
}

func TestPostChatCrisis(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	r, st := setupRouter(gen)

	resp := postChat(context.Background(), r, `{"userId":"u1","message":"I want to kill myself"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body chatservice.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body.Reply != chatservice.CrisisReply || body.Emotion != "neutral" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if gen.calls != 0 || len(st.Flagged()) != 1 || len(st.Chats()) != 0 {
		t.Fatalf("unexpected side effects: calls=%d flagged=%d chats=%d", gen.calls, len(st.Flagged()), len(st.Chats()))
	}
}

func TestPostChatBadRequests(t *testing.T) {
	cases := map[string]string{
		"invalid json":    `{"userId":`,
		"missing userId":  `{"message":"hello"}`,
		"empty message":   `{"userId":"u1","message":""}`,
		"blank message":   `{"userId":"u1","message":"   "}`,
		"missing message": `{"userId":"u1"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &stubGenerator{reply: "x"}
			r, st := setupRouter(gen)

			resp := postChat(context.Background(), r, body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			if gen.calls != 0 || len(st.Chats()) != 0 || len(st.Flagged()) != 0 {
				t.Fatal("adapters called on bad request")
			}
		})
	}
}

func TestPostChatAdapterFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	r, st := setupRouter(gen)

	resp := postChat(context.Background(), r, `{"userId":"u1","message":"hello"}`)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] != internalErrorMessage {
		t.Fatalf("expected generic error, got %q", body["error"])
	}
	if len(st.Chats()) != 0 {
		t.Fatal("expected nothing persisted")
	}
}

func TestPostChatUserMismatch(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	r, _ := setupRouter(gen)
	claims := &middleware.FirebaseClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "uid-1"}}
	ctx := middleware.WithClaims(context.Background(), claims)

	resp := postChat(ctx, r, `{"userId":"uid-2","message":"hello"}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if gen.calls != 0 {
		t.Fatal("generator called for mismatched user")
	}

	resp = postChat(ctx, r, `{"userId":"uid-1","message":"hello"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for matching user, got %d", resp.Code)
	}
}

func TestPostChatAcceptsRawBody(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{reply: "ok"})
	payload, _ := json.Marshal(map[string]string{"userId": "u1", "message": "exam week"})

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
