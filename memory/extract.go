package memory

import "strings"

// Update rewrites every fact containing Old.
type Update struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Delta is the set of memory operations derived from one message.
type Delta struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
	Update []Update `json:"update"`
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0 && len(d.Update) == 0
}

type span struct{ start, end int }

func (s span) contains(o span) bool { return o.start >= s.start && o.end <= s.end }

// Extract maps a user message to memory operations using Catalog.
// Matching is case-insensitive and each category contributes at most one
// fact, matcher and update. Statements that are part of a forget, remove or
// update command are not also reported as new facts.
func Extract(text string) Delta {
	return ExtractWith(Catalog, text)
}

// ExtractWith is Extract over a custom rule list.
func ExtractWith(rules []Rule, text string) Delta {
	d := Delta{Add: []string{}, Remove: []string{}, Update: []Update{}}
	var commands []span

	for _, r := range rules {
		if r.Remove != nil {
			if loc := r.Remove.FindStringIndex(text); loc != nil {
				commands = append(commands, span{loc[0], loc[1]})
				d.Remove = appendUnique(d.Remove, r.Match)
			}
		}
		if r.Update != nil {
			if m := r.Update.FindStringSubmatchIndex(text); m != nil {
				commands = append(commands, span{m[0], m[1]})
				if v := strings.TrimSpace(text[m[2]:m[3]]); v != "" {
					d.Update = append(d.Update, Update{Old: r.Match, New: v})
				}
			}
		}
	}

	for _, r := range rules {
		for _, m := range r.Add.FindAllStringSubmatchIndex(text, -1) {
			if covered(commands, span{m[0], m[1]}) {
				continue
			}
			if v := strings.TrimSpace(text[m[2]:m[3]]); v != "" {
				d.Add = appendUnique(d.Add, r.Phrase+" "+v)
			}
			break
		}
	}

	return d
}

func covered(commands []span, s span) bool {
	for _, c := range commands {
		if c.contains(s) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
