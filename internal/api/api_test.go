package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ChitterSync/SynisterChat/cipher"
	"github.com/ChitterSync/SynisterChat/internal/api/middleware"
	"github.com/ChitterSync/SynisterChat/internal/auth"
	"github.com/ChitterSync/SynisterChat/internal/chat"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/ChitterSync/SynisterChat/session/drivers"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCompleter struct{ err error }

func (e echoCompleter) Complete(_ context.Context, msgs []session.TranscriptEntry) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return "echo: " + msgs[len(msgs)-1].Content, nil
}

type fakeMedia struct{}

func (fakeMedia) GenerateImage(_ context.Context, prompt string) ([]byte, error) {
	return []byte("PNG:" + prompt), nil
}

func (fakeMedia) Transcribe(_ context.Context, audio []byte) (string, error) {
	return "heard " + string(audio), nil
}

type testServer struct {
	app      *fiber.App
	verifier *auth.Verifier
	medium   *drivers.InMemoryStore
}

func newTestServer(t *testing.T, autoProvision bool, completer chat.Completer) *testServer {
	t.Helper()

	keys, err := cipher.NewKeyManager()
	require.NoError(t, err)
	t.Cleanup(func() { keys.Close() })

	medium := drivers.NewInMemoryStore()
	store, err := session.NewStore(medium, medium, session.WithCipher(cipher.New(keys)))
	require.NoError(t, err)

	verifier := auth.NewVerifier("test-secret", "", "sub")
	app := NewApp(Config{
		Handlers: NewHandlers(chat.NewService(store, completer), fakeMedia{}),
		Auth: middleware.AuthConfig{
			Verifier:      verifier,
			Accounts:      medium,
			AutoProvision: autoProvision,
			CookieName:    "synister_token",
		},
	})
	return &testServer{app: app, verifier: verifier, medium: medium}
}

func (s *testServer) do(t *testing.T, owner, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		token, err := s.verifier.Issue(owner, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t, true, echoCompleter{})
	resp, _ := s.do(t, "", http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, true, echoCompleter{})

	resp, _ := s.do(t, "", http.MethodGet, "/api/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthCookie(t *testing.T) {
	s := newTestServer(t, true, echoCompleter{})
	token, err := s.verifier.Issue("alice", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.AddCookie(&http.Cookie{Name: "synister_token", Value: token})
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnprovisionedOwnerIsForbidden(t *testing.T) {
	s := newTestServer(t, false, echoCompleter{})

	resp, _ := s.do(t, "alice", http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.NoError(t, s.medium.Provision(context.Background(), "alice"))
	resp, _ = s.do(t, "alice", http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t, true, echoCompleter{})

	resp, data := s.do(t, "alice", http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Sessions []session.Record `json:"sessions"`
	}](t, data)
	require.Len(t, list.Sessions, 1)
	id := list.Sessions[0].ID

	resp, data = s.do(t, "alice", http.MethodPost, "/api/sessions/"+id+"/messages", fiber.Map{"text": "My name is Alex."})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	reply := decode[chat.Reply](t, data)
	assert.Equal(t, "echo: My name is Alex.", reply.Reply)
	assert.Equal(t, []string{"my name is Alex"}, reply.Session.Memory)
	assert.Equal(t, "My name is Alex.", reply.Session.Title)

	resp, data = s.do(t, "alice", http.MethodPatch, "/api/sessions/"+id, fiber.Map{"title": "About Alex"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "About Alex", decode[session.Record](t, data).Title)

	resp, _ = s.do(t, "alice", http.MethodPatch, "/api/sessions/"+id, fiber.Map{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = s.do(t, "alice", http.MethodDelete, "/api/sessions/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[session.Record](t, data)
	assert.Equal(t, session.DefaultDisplayMessages(), rec.DisplayMessages)
	assert.Equal(t, []string{"my name is Alex"}, rec.Memory)

	resp, data = s.do(t, "alice", http.MethodDelete, "/api/sessions/"+id+"/memory", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[session.Record](t, data).Memory)

	resp, _ = s.do(t, "bob", http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, "alice", http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(t, "alice", http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSendEmptyMessage(t *testing.T) {
	s := newTestServer(t, true, echoCompleter{})
	resp, _ := s.do(t, "alice", http.MethodPost, "/api/sessions/chat-1/messages", fiber.Map{"text": " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStorageRoutes(t *testing.T) {
	s := newTestServer(t, true, echoCompleter{})

	resp, _ := s.do(t, "alice", http.MethodPost, "/api/storage", fiber.Map{"id": "chat-1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data := s.do(t, "alice", http.MethodPost, "/api/storage", fiber.Map{
		"id":   "chat-1",
		"data": fiber.Map{"title": "Saved", "memory": []string{"I like tea"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = s.do(t, "alice", http.MethodGet, "/api/storage?id=chat-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	one := decode[struct {
		Data session.Record `json:"data"`
	}](t, data)
	assert.Equal(t, "Saved", one.Data.Title)
	assert.Equal(t, []string{"I like tea"}, one.Data.Memory)
	assert.Equal(t, session.DefaultTranscript(), one.Data.Transcript)

	resp, _ = s.do(t, "alice", http.MethodGet, "/api/storage?id=missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data = s.do(t, "alice", http.MethodGet, "/api/storage", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[struct {
		Data map[string]session.Record `json:"data"`
	}](t, data)
	assert.Contains(t, all.Data, "chat-1")

	resp, _ = s.do(t, "alice", http.MethodDelete, "/api/storage?id=chat-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, "alice", http.MethodGet, "/api/storage?id=chat-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s.do(t, "alice", http.MethodPost, "/api/sessions", nil)
	resp, _ = s.do(t, "alice", http.MethodDelete, "/api/storage", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	list, err := s.medium.List(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGPTPassthrough(t *testing.T) {
	s := newTestServer(t, true, echoCompleter{})

	resp, data := s.do(t, "alice", http.MethodPost, "/api/gpt", fiber.Map{
		"messages": []fiber.Map{{"role": "user", "content": "ping"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "echo: ping", decode[map[string]string](t, data)["reply"])

	resp, _ = s.do(t, "alice", http.MethodPost, "/api/gpt", fiber.Map{"messages": []fiber.Map{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	failing := newTestServer(t, true, echoCompleter{err: errors.New("down")})
	resp, _ = failing.do(t, "alice", http.MethodPost, "/api/gpt", fiber.Map{
		"messages": []fiber.Map{{"role": "user", "content": "ping"}},
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGenerateAndWhisper(t *testing.T) {
	s := newTestServer(t, true, echoCompleter{})

	resp, data := s.do(t, "alice", http.MethodPost, "/api/generate", fiber.Map{"prompt": "a cat"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, []byte("PNG:a cat"), data)

	resp, _ = s.do(t, "alice", http.MethodPost, "/api/generate", fiber.Map{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	audio := base64.StdEncoding.EncodeToString([]byte("hello"))
	resp, data = s.do(t, "alice", http.MethodPost, "/api/whisper", fiber.Map{"audio": audio})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "heard hello", decode[map[string]string](t, data)["text"])

	resp, _ = s.do(t, "alice", http.MethodPost, "/api/whisper", fiber.Map{"audio": "%%%"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
