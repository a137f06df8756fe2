package session

import (
	"encoding/json"
	"math"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/ChitterSync/SynisterChat/memory"
)

// NormalizeJSON decodes raw and repairs it with Normalize. Undecodable input
// yields a default record.
func NormalizeJSON(raw []byte) *Record {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Normalize(nil)
	}
	return Normalize(m)
}

// Normalize turns a loosely shaped stored record into a well-formed Record.
// It never fails: every missing or malformed part is replaced by its default.
//
//   - messages: missing, empty or holding any entry without a string sender
//     and a string text is replaced by the welcome message.
//   - chatMessages: same rule with role/content, replaced by the system prompt
//     and welcome message. A valid transcript not led by a system entry gets
//     the system prompt prepended.
//   - memory: anything but a list becomes empty; non-string items and exact
//     duplicates are dropped.
//   - id, title, created: fresh id, "Untitled Chat" and now when absent.
func Normalize(raw map[string]any) *Record {
	r := &Record{
		ID:      stringField(raw, "id"),
		Title:   stringField(raw, "title"),
		Created: millisField(raw, "created"),
	}
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.Title == "" {
		r.Title = UntitledTitle
	}
	if r.Created <= 0 {
		r.Created = now().UnixMilli()
	}

	if msgs, ok := displayMessages(raw["messages"]); ok {
		r.DisplayMessages = synister.AppendCapped(nil, synister.MaxHistory, msgs...)
	} else {
		r.DisplayMessages = DefaultDisplayMessages()
	}

	if entries, ok := transcript(raw["chatMessages"]); ok {
		if entries[0].Role != RoleSystem {
			entries = append([]TranscriptEntry{{Role: RoleSystem, Content: SystemPrompt}}, entries...)
		}
		r.Transcript = synister.AppendCappedPinned(entries[:1], synister.MaxHistory, entries[1:]...)
	} else {
		r.Transcript = DefaultTranscript()
	}

	r.Memory = memoryList(raw["memory"])
	return r
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func millisField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

// pairs reads a non-empty list of objects whose two fields are all strings.
func pairs(v any, a, b string) ([][2]string, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	out := make([][2]string, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		x, okA := obj[a].(string)
		y, okB := obj[b].(string)
		if !okA || !okB {
			return nil, false
		}
		out = append(out, [2]string{x, y})
	}
	return out, true
}

func displayMessages(v any) ([]DisplayMessage, bool) {
	ps, ok := pairs(v, "sender", "text")
	if !ok {
		return nil, false
	}
	out := make([]DisplayMessage, len(ps))
	for i, p := range ps {
		out[i] = DisplayMessage{Speaker: Speaker(p[0]), Text: p[1]}
	}
	return out, true
}

func transcript(v any) ([]TranscriptEntry, bool) {
	ps, ok := pairs(v, "role", "content")
	if !ok {
		return nil, false
	}
	out := make([]TranscriptEntry, len(ps))
	for i, p := range ps {
		out[i] = TranscriptEntry{Role: Role(p[0]), Content: p[1]}
	}
	return out, true
}

func memoryList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return memory.Dedupe(out)
}
