package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposePromptWithoutMemory(t *testing.T) {
	r := NewRecord("chat-1")
	ApplyTurn(r, "hello")

	msgs := ComposePrompt(r, PromptOptions{})

	assert.Equal(t, r.Transcript, msgs)
}

func TestComposePromptAddsFacts(t *testing.T) {
	r := NewRecord("chat-1")
	r.Memory = []string{"my name is Alex", "I live in Oslo"}
	before := r.Transcript[0].Content

	msgs := ComposePrompt(r, PromptOptions{})

	require.Len(t, msgs, len(r.Transcript))
	assert.Equal(t, before+"\n\n"+MemoryPreamble+"\n- my name is Alex\n- I live in Oslo", msgs[0].Content)
	assert.Equal(t, before, r.Transcript[0].Content)
}

func TestComposePromptFactsOverride(t *testing.T) {
	r := NewRecord("chat-1")
	r.Memory = []string{"a", "b", "c"}

	msgs := ComposePrompt(r, PromptOptions{Facts: []string{"b"}})

	assert.True(t, strings.HasSuffix(msgs[0].Content, MemoryPreamble+"\n- b"))
}

func TestComposePromptTokenBudget(t *testing.T) {
	r := &Record{Transcript: []TranscriptEntry{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: strings.Repeat("a", 400)},
		{Role: RoleAssistant, Content: strings.Repeat("b", 400)},
		{Role: RoleUser, Content: "latest"},
	}}

	msgs := ComposePrompt(r, PromptOptions{TokenBudget: 110})

	require.Len(t, msgs, 3)
	assert.Equal(t, "sys", msgs[0].Content)
	assert.Equal(t, "latest", msgs[2].Content)
}
