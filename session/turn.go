package session

import (
	"strings"
	"unicode/utf8"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/ChitterSync/SynisterChat/memory"
)

// TitleLimit is the number of characters of the first user message used as
// a session title.
const TitleLimit = 32

// Turn reports what ApplyTurn did to a record.
type Turn struct {
	Delta memory.Delta
	// First is set when the message was the session's first user message.
	First bool
}

// ApplyTurn folds a user message into r in place: the memory delta extracted
// from text is applied (remove, update, add), the message is appended to both
// histories under the history cap, and on the first user turn the title is
// derived from the message unless the message is blank.
func ApplyTurn(r *Record, text string) Turn {
	first := !hasUserMessage(r)
	delta := memory.Extract(text)

	r.Memory = memory.Apply(r.Memory, delta)
	r.DisplayMessages = synister.AppendCapped(r.DisplayMessages, synister.MaxHistory,
		DisplayMessage{Speaker: SpeakerUser, Text: text})
	r.Transcript = appendTranscript(r.Transcript, TranscriptEntry{Role: RoleUser, Content: text})

	if first {
		if title := TitleFrom(text); title != "" {
			r.Title = title
		}
	}
	return Turn{Delta: delta, First: first}
}

// AppendReply appends an assistant reply to both histories.
func AppendReply(r *Record, text string) {
	r.DisplayMessages = synister.AppendCapped(r.DisplayMessages, synister.MaxHistory,
		DisplayMessage{Speaker: SpeakerAssistant, Text: text})
	r.Transcript = appendTranscript(r.Transcript, TranscriptEntry{Role: RoleAssistant, Content: text})
}

// Rename sets a new title. Blank titles are ignored.
func Rename(r *Record, title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	r.Title = title
	return true
}

// ClearHistory restores the default histories and keeps memory and title.
func ClearHistory(r *Record) {
	r.DisplayMessages = DefaultDisplayMessages()
	r.Transcript = DefaultTranscript()
}

// ResetMemory drops every remembered fact.
func ResetMemory(r *Record) {
	r.Memory = []string{}
}

// TitleFrom derives a title from a message: the first TitleLimit characters,
// with "..." appended when the message was longer.
func TitleFrom(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= TitleLimit {
		return text
	}
	return string([]rune(text)[:TitleLimit]) + "..."
}

func hasUserMessage(r *Record) bool {
	for _, m := range r.DisplayMessages {
		if m.Speaker == SpeakerUser {
			return true
		}
	}
	return false
}

func appendTranscript(t []TranscriptEntry, e TranscriptEntry) []TranscriptEntry {
	if len(t) == 0 || t[0].Role != RoleSystem {
		t = append([]TranscriptEntry{{Role: RoleSystem, Content: SystemPrompt}}, t...)
	}
	return synister.AppendCappedPinned(t, synister.MaxHistory, e)
}
