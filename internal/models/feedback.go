package models

// Feedback holds the reaction counts collected at the end of a round plus
// the time the table took to react. It is consumed immediately by the
// learning scorer and not retained.
type Feedback struct {
	Positive  int `json:"positive"`
	Neutral   int `json:"neutral"`
	Negative  int `json:"negative"`
	LatencyMs int `json:"latency_ms"`
}

// RoundResult summarizes what a committed round did to the learning state.
type RoundResult struct {
	RoundID    string  `json:"round_id"`
	TemplateID string  `json:"template_id"`
	Reward     float64 `json:"reward"`
	Score      float64 `json:"score"` // EMA score after the update
	RoundIndex int     `json:"round_index"`
}

// RecentFamilyWindow is a bounded, ordered list of the family tags of the
// last N selections, newest first. Appending beyond the bound evicts the
// oldest entry.
type RecentFamilyWindow struct {
	families []string
	size     int
}

// NewRecentFamilyWindow returns a window holding at most size families.
// A size of zero or less disables diversity tracking.
func NewRecentFamilyWindow(size int) *RecentFamilyWindow {
	return &RecentFamilyWindow{size: size}
}

// Push records a family as the most recent selection.
func (w *RecentFamilyWindow) Push(family string) {
	if w.size <= 0 {
		return
	}
	w.families = append([]string{family}, w.families...)
	if len(w.families) > w.size {
		w.families = w.families[:w.size]
	}
}

// Families returns the tracked families, newest first.
func (w *RecentFamilyWindow) Families() []string {
	out := make([]string, len(w.families))
	copy(out, w.families)
	return out
}

// Contains reports whether family is in the window.
func (w *RecentFamilyWindow) Contains(family string) bool {
	for _, f := range w.families {
		if f == family {
			return true
		}
	}
	return false
}

// Len returns the number of tracked families.
func (w *RecentFamilyWindow) Len() int {
	return len(w.families)
}

// Restore replaces the window contents, trimming to the bound. Used when
// loading persisted learning state.
func (w *RecentFamilyWindow) Restore(families []string) {
	if w.size > 0 && len(families) > w.size {
		families = families[:w.size]
	}
	w.families = append([]string(nil), families...)
}
