package session

import "time"

// Speaker identifies who wrote a display message.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "ai"
)

// Role is a transcript entry role as understood by the completion API.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayMessage is one rendered chat bubble.
type DisplayMessage struct {
	Speaker Speaker `json:"sender"`
	Text    string  `json:"text"`
}

// TranscriptEntry is one message in completion-API shape.
type TranscriptEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Record is one persisted chat conversation.
//
// The owner is not part of the record; it is the partition key under which
// the record is stored. Transcript always starts with a system entry.
// DisplayMessages and Transcript are capped independently, so their lengths
// need not line up.
type Record struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Created         int64             `json:"created"` // unix milliseconds
	DisplayMessages []DisplayMessage  `json:"messages"`
	Transcript      []TranscriptEntry `json:"chatMessages"`
	Memory          []string          `json:"memory"`
}

// CreatedAt returns Created as a time.
func (r *Record) CreatedAt() time.Time {
	return time.UnixMilli(r.Created)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.DisplayMessages = append([]DisplayMessage(nil), r.DisplayMessages...)
	c.Transcript = append([]TranscriptEntry(nil), r.Transcript...)
	c.Memory = append([]string{}, r.Memory...)
	return &c
}
