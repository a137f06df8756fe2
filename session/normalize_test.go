package session

import (
	"fmt"
	"testing"
	"time"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestNormalizeEmpty(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, at)

	r := Normalize(map[string]any{})

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, UntitledTitle, r.Title)
	assert.Equal(t, at.UnixMilli(), r.Created)
	assert.Equal(t, DefaultDisplayMessages(), r.DisplayMessages)
	assert.Equal(t, DefaultTranscript(), r.Transcript)
	assert.Equal(t, []string{}, r.Memory)
}

func TestNormalizeNil(t *testing.T) {
	r := Normalize(nil)
	assert.Equal(t, DefaultTranscript(), r.Transcript)
	assert.NotNil(t, r.Memory)
}

func TestNormalizeKeepsValidRecord(t *testing.T) {
	raw := map[string]any{
		"id":      "chat-1",
		"title":   "Pizza talk",
		"created": float64(1700000000000),
		"messages": []any{
			map[string]any{"sender": "ai", "text": "hi"},
			map[string]any{"sender": "user", "text": "hello"},
		},
		"chatMessages": []any{
			map[string]any{"role": "system", "content": "sys"},
			map[string]any{"role": "user", "content": "hello"},
		},
		"memory": []any{"my name is Alex"},
	}

	r := Normalize(raw)

	assert.Equal(t, "chat-1", r.ID)
	assert.Equal(t, "Pizza talk", r.Title)
	assert.Equal(t, int64(1700000000000), r.Created)
	assert.Equal(t, []DisplayMessage{
		{Speaker: SpeakerAssistant, Text: "hi"},
		{Speaker: SpeakerUser, Text: "hello"},
	}, r.DisplayMessages)
	assert.Equal(t, []TranscriptEntry{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hello"},
	}, r.Transcript)
	assert.Equal(t, []string{"my name is Alex"}, r.Memory)
}

func TestNormalizeReplacesMalformedSequences(t *testing.T) {
	tests := []struct {
		name string
		v    any
	}{
		{"missing", nil},
		{"not a list", "hello"},
		{"empty", []any{}},
		{"non-object entry", []any{"hello"}},
		{"missing field", []any{map[string]any{"sender": "user"}}},
		{"non-string field", []any{map[string]any{"sender": "user", "text": 3}}},
		{"one bad entry", []any{
			map[string]any{"sender": "user", "text": "ok"},
			map[string]any{"sender": nil, "text": "bad"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Normalize(map[string]any{"messages": tt.v, "chatMessages": tt.v})
			assert.Equal(t, DefaultDisplayMessages(), r.DisplayMessages)
			assert.Equal(t, DefaultTranscript(), r.Transcript)
		})
	}
}

func TestNormalizePrependsSystemEntry(t *testing.T) {
	r := Normalize(map[string]any{
		"chatMessages": []any{map[string]any{"role": "user", "content": "hi"}},
	})

	require.Len(t, r.Transcript, 2)
	assert.Equal(t, TranscriptEntry{Role: RoleSystem, Content: SystemPrompt}, r.Transcript[0])
	assert.Equal(t, TranscriptEntry{Role: RoleUser, Content: "hi"}, r.Transcript[1])
}

func TestNormalizeMemory(t *testing.T) {
	r := Normalize(map[string]any{"memory": "not a list"})
	assert.Equal(t, []string{}, r.Memory)

	r = Normalize(map[string]any{"memory": []any{"a", 1, "b", "a", nil}})
	assert.Equal(t, []string{"a", "b"}, r.Memory)
}

func TestNormalizeCapsSequences(t *testing.T) {
	msgs := make([]any, 0, synister.MaxHistory+5)
	chat := []any{map[string]any{"role": "system", "content": "sys"}}
	for i := range synister.MaxHistory + 5 {
		text := fmt.Sprint(i)
		msgs = append(msgs, map[string]any{"sender": "user", "text": text})
		chat = append(chat, map[string]any{"role": "user", "content": text})
	}

	r := Normalize(map[string]any{"messages": msgs, "chatMessages": chat})

	require.Len(t, r.DisplayMessages, synister.MaxHistory)
	assert.Equal(t, "5", r.DisplayMessages[0].Text)

	require.Len(t, r.Transcript, synister.MaxHistory)
	assert.Equal(t, RoleSystem, r.Transcript[0].Role)
	assert.Equal(t, "6", r.Transcript[1].Content)
}

func TestNormalizeJSON(t *testing.T) {
	r := NormalizeJSON([]byte(`{"id":"chat-9","title":"T","memory":["x"]}`))
	assert.Equal(t, "chat-9", r.ID)
	assert.Equal(t, "T", r.Title)
	assert.Equal(t, []string{"x"}, r.Memory)
	assert.Equal(t, DefaultTranscript(), r.Transcript)

	r = NormalizeJSON([]byte(`not json`))
	assert.Equal(t, UntitledTitle, r.Title)
}
