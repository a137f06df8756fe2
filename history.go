package synister

// MaxHistory is the number of entries kept per message sequence.
const MaxHistory = 2000

// AppendCapped appends items to history and evicts the oldest entries so
// that at most limit remain. A non-positive limit disables the cap.
func AppendCapped[T any](history []T, limit int, items ...T) []T {
	out := make([]T, 0, len(history)+len(items))
	out = append(out, history...)
	out = append(out, items...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// AppendCappedPinned is AppendCapped for sequences whose first entry must
// survive eviction (a transcript's system prompt). The pinned entry counts
// toward the limit.
func AppendCappedPinned[T any](history []T, limit int, items ...T) []T {
	if len(history) == 0 {
		return AppendCapped(history, limit, items...)
	}
	head := history[0]
	if limit == 1 {
		return []T{head}
	}
	rest := limit - 1
	if limit <= 0 {
		rest = 0
	}
	tail := AppendCapped(history[1:], rest, items...)
	return append([]T{head}, tail...)
}

// TruncateByTokens drops the oldest entries after the first until the summed
// cost fits within tokenLimit. The first entry is always kept. It mirrors the
// message/token truncation used for conversation history, with the message
// cap applied separately by AppendCapped.
func TruncateByTokens[T any](history []T, tokenLimit int, cost func(T) int) []T {
	if len(history) <= 1 || tokenLimit <= 0 {
		return history
	}

	total := 0
	for _, h := range history {
		total += cost(h)
	}

	head, tail := history[0], history[1:]
	for total > tokenLimit && len(tail) > 0 {
		total -= cost(tail[0])
		tail = tail[1:]
	}

	out := make([]T, 0, len(tail)+1)
	out = append(out, head)
	return append(out, tail...)
}
