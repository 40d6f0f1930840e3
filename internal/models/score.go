package models

import "time"

// TemplateScore is the learned state for one template. The score is an
// exponential moving average of round rewards; Draws counts plays.
type TemplateScore struct {
	Score        float64   `json:"score"`
	Draws        int       `json:"draws"`
	LastPlayedAt time.Time `json:"last_played_at,omitempty"`
}

// LearningState is the exportable learning snapshot for a deck: per-template
// scores plus the recent-family window and round counter.
type LearningState struct {
	Scores         map[string]*TemplateScore `json:"scores"`
	RecentFamilies []string                  `json:"recent_families"`
	RoundIndex     int                       `json:"round_index"`
	ExportedAt     time.Time                 `json:"exported_at"`
}
