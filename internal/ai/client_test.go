package ai

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ChitterSync/SynisterChat/internal/config"
	"github.com/ChitterSync/SynisterChat/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(config.AIConfig{
		BaseURL:            srv.URL + "/",
		Token:              "gh-token",
		ChatModel:          "openai/gpt-4.1-nano",
		TitleModel:         "openai/gpt-4.1-nano",
		ImageModel:         "dall-e-3",
		TranscriptionModel: "whisper-1",
		EmbeddingModel:     "text-embedding-3-small",
		Temperature:        1,
		TopP:               1,
	})
	require.NoError(t, err)
	return c
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
	}
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(config.AIConfig{})
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatReply("hi there"))
	}))

	reply, err := c.Complete(t.Context(), []session.TranscriptEntry{
		{Role: session.RoleSystem, Content: "sys"},
		{Role: session.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)

	assert.Equal(t, "openai/gpt-4.1-nano", got["model"])
	assert.EqualValues(t, 1, got["temperature"])
	assert.EqualValues(t, 1, got["top_p"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestCompleteNoChoices(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))

	_, err := c.Complete(t.Context(), nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompleteAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad token","type":"auth"}}`))
	}))

	_, err := c.Complete(t.Context(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad token")
}

func TestSummarizeTrimsQuotes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatReply(` "Pizza Preferences" `))
	}))

	title, err := c.Summarize(t.Context(), "I love pizza")
	require.NoError(t, err)
	assert.Equal(t, "Pizza Preferences", title)
}

func TestGenerateImage(t *testing.T) {
	png := []byte("\x89PNG fake")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "b64_json", req["response_format"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString(png)}},
		})
	}))

	img, err := c.GenerateImage(t.Context(), "a cat")
	require.NoError(t, err)
	assert.Equal(t, png, img)
}

func TestTranscribe(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, []byte("audio-bytes"), data)
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		_ = json.NewEncoder(w).Encode(map[string]any{"text": "hello world"})
	}))

	text, err := c.Transcribe(t.Context(), []byte("audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestEmbedOrdersByIndex(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []any{
				map[string]any{"index": 1, "embedding": []float32{0, 1}},
				map[string]any{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))

	vecs, err := c.Embed(t.Context(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)

	_, err = c.Embed(t.Context(), []string{"only one"})
	assert.Error(t, err)
}
