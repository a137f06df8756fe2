package session

import (
	"strings"
	"testing"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTurnFirstMessage(t *testing.T) {
	r := NewRecord("chat-1")

	turn := ApplyTurn(r, "My name is Alex.")

	assert.True(t, turn.First)
	assert.Equal(t, []string{"my name is Alex"}, turn.Delta.Add)
	assert.Equal(t, []string{"my name is Alex"}, r.Memory)
	assert.Equal(t, "My name is Alex.", r.Title)
	assert.Equal(t, DisplayMessage{Speaker: SpeakerUser, Text: "My name is Alex."}, r.DisplayMessages[len(r.DisplayMessages)-1])
	assert.Equal(t, TranscriptEntry{Role: RoleUser, Content: "My name is Alex."}, r.Transcript[len(r.Transcript)-1])
	assert.Equal(t, RoleSystem, r.Transcript[0].Role)
}

func TestApplyTurnKeepsTitleAfterFirstTurn(t *testing.T) {
	r := NewRecord("chat-1")
	ApplyTurn(r, "hello there")
	AppendReply(r, "hi")

	turn := ApplyTurn(r, "another question")

	assert.False(t, turn.First)
	assert.Equal(t, "hello there", r.Title)
}

func TestApplyTurnBlankFirstMessageKeepsTitle(t *testing.T) {
	r := NewRecord("chat-1")

	turn := ApplyTurn(r, "   \n\t")

	assert.True(t, turn.First)
	assert.Equal(t, DefaultTitle, r.Title)
}

func TestApplyTurnForgetAndUpdate(t *testing.T) {
	r := NewRecord("chat-1")
	r.Memory = []string{"my name is Alex", "my favorite color is blue"}

	ApplyTurn(r, "Forget my name.")
	assert.Equal(t, []string{"my favorite color is blue"}, r.Memory)

	ApplyTurn(r, "Update my favorite to pizza")
	assert.Equal(t, []string{"my favorite color is blue pizza"}, r.Memory)
}

func TestApplyTurnCapsHistory(t *testing.T) {
	r := NewRecord("chat-1")
	for range synister.MaxHistory {
		ApplyTurn(r, "x")
	}

	assert.Len(t, r.DisplayMessages, synister.MaxHistory)
	assert.Len(t, r.Transcript, synister.MaxHistory)
	assert.Equal(t, TranscriptEntry{Role: RoleSystem, Content: SystemPrompt}, r.Transcript[0])
	assert.Equal(t, SpeakerUser, r.DisplayMessages[0].Speaker)
}

func TestApplyTurnRestoresMissingSystemEntry(t *testing.T) {
	r := &Record{ID: "chat-1"}
	ApplyTurn(r, "hi")

	require.Len(t, r.Transcript, 2)
	assert.Equal(t, RoleSystem, r.Transcript[0].Role)
}

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "short", TitleFrom("  short "))
	assert.Equal(t, strings.Repeat("a", 32), TitleFrom(strings.Repeat("a", 32)))
	assert.Equal(t, strings.Repeat("a", 32)+"...", TitleFrom(strings.Repeat("a", 40)))
	assert.Equal(t, strings.Repeat("é", 32)+"...", TitleFrom(strings.Repeat("é", 33)))
}

func TestRenameClearReset(t *testing.T) {
	r := NewRecord("chat-1")
	ApplyTurn(r, "My name is Alex.")

	assert.False(t, Rename(r, "  "))
	assert.True(t, Rename(r, " Intro "))
	assert.Equal(t, "Intro", r.Title)

	ClearHistory(r)
	assert.Equal(t, DefaultDisplayMessages(), r.DisplayMessages)
	assert.Equal(t, DefaultTranscript(), r.Transcript)
	assert.Equal(t, []string{"my name is Alex"}, r.Memory)
	assert.Equal(t, "Intro", r.Title)

	ResetMemory(r)
	assert.Equal(t, []string{}, r.Memory)
}
