package memory

import "strings"

// Apply folds d into facts and returns the new list. Remove matchers run
// first, then updates, then additions, so one message can drop a fact and
// add its replacement. facts is not modified.
//
// A remove matcher deletes every fact containing it (case-insensitive). An
// update appends New to every fact containing Old, keeping the whole entry:
// "my favorite color is blue" updated by {my favorite, pizza} becomes
// "my favorite color is blue pizza", not "my favorite pizza" as older clients
// wrote it. Additions are skipped when an identical fact already exists. The
// result never holds duplicates.
func Apply(facts []string, d Delta) []string {
	out := make([]string, 0, len(facts)+len(d.Add))
	for _, f := range facts {
		if !containsAny(f, d.Remove) {
			out = append(out, f)
		}
	}

	for _, u := range d.Update {
		old := strings.ToLower(u.Old)
		for i, f := range out {
			if strings.Contains(strings.ToLower(f), old) {
				out[i] = f + " " + u.New
			}
		}
	}

	out = Dedupe(out)
	for _, f := range d.Add {
		out = appendUnique(out, f)
	}
	return out
}

// Dedupe drops exact duplicates, keeping first occurrences in order.
func Dedupe(facts []string) []string {
	seen := make(map[string]struct{}, len(facts))
	out := facts[:0:0]
	for _, f := range facts {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func containsAny(fact string, matchers []string) bool {
	lower := strings.ToLower(fact)
	for _, m := range matchers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
