package confidence

// Pattern is one previously seen task/solution shape with its empirical
// success rate, used for similarity scoring.
type Pattern struct {
	// TaskType is a short free-text description of the task shape,
	// e.g. "rest api crud endpoint". Its tokens are matched against a
	// unit's keywords.
	TaskType string `json:"task_type"`
	// SuccessRate in [0,1] scales the similarity contribution.
	SuccessRate float64 `json:"success_rate"`
}

// History is the accumulating, ordered record of patterns. It is the
// only mutable state the scorer consults, and it is explicitly owned:
// single writer, no internal locking, no eviction. Concurrent callers
// must either serialize access or use per-caller instances.
type History struct {
	patterns []Pattern
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// Add appends a pattern. Appends from a partially completed scoring
// call remain; callers needing atomicity snapshot/restore around it.
func (h *History) Add(p Pattern) {
	h.patterns = append(h.patterns, p)
}

// Len returns the number of recorded patterns.
func (h *History) Len() int {
	return len(h.patterns)
}

// Snapshot returns a copy of the current patterns, usable with Restore
// to make a scoring call atomic with respect to history mutation.
func (h *History) Snapshot() []Pattern {
	out := make([]Pattern, len(h.patterns))
	copy(out, h.patterns)
	return out
}

// Restore replaces the history content with a prior snapshot.
func (h *History) Restore(patterns []Pattern) {
	h.patterns = make([]Pattern, len(patterns))
	copy(h.patterns, patterns)
}
