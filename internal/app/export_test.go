package app

// CountedIDs exposes the size of a board's dedupe set.
func CountedIDs(b *Board) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.counted)
}
