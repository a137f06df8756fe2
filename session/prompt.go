package session

import (
	"strings"

	synister "github.com/ChitterSync/SynisterChat"
)

// MemoryPreamble introduces the remembered facts in the system entry.
const MemoryPreamble = "Here are some facts or context to remember for this user (auto-logged memory):"

// PromptOptions tunes ComposePrompt.
type PromptOptions struct {
	// Facts overrides r.Memory when non-nil, e.g. with recalled facts.
	Facts []string
	// TokenBudget trims the oldest non-system entries once the estimated
	// prompt size exceeds it. Zero disables trimming.
	TokenBudget int
}

// ComposePrompt returns the transcript to send for completion. The system
// entry is extended with the session's memory, and the result is trimmed to
// the token budget. r is not modified.
func ComposePrompt(r *Record, opts PromptOptions) []TranscriptEntry {
	facts := r.Memory
	if opts.Facts != nil {
		facts = opts.Facts
	}

	msgs := make([]TranscriptEntry, 0, len(r.Transcript)+1)
	rest := r.Transcript
	system := SystemPrompt
	if len(rest) > 0 && rest[0].Role == RoleSystem {
		system = rest[0].Content
		rest = rest[1:]
	}
	msgs = append(msgs, TranscriptEntry{Role: RoleSystem, Content: withFacts(system, facts)})
	msgs = append(msgs, rest...)

	if opts.TokenBudget > 0 {
		msgs = synister.TruncateByTokens(msgs, opts.TokenBudget, func(e TranscriptEntry) int {
			return synister.EstimateTokens(e.Content)
		})
	}
	return msgs
}

func withFacts(system string, facts []string) string {
	if len(facts) == 0 {
		return system
	}
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n")
	b.WriteString(MemoryPreamble)
	for _, f := range facts {
		b.WriteString("\n- ")
		b.WriteString(f)
	}
	return b.String()
}
