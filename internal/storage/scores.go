package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dpshade/party-deck/internal/models"
)

// ScoreBook persists learned template scores as a JSON file.
type ScoreBook struct {
	dataDir   string
	scoreFile string
	state     models.LearningState
	mu        sync.RWMutex // Protects state from concurrent access
}

// NewScoreBook creates a score book rooted at dataDir.
func NewScoreBook(dataDir string) *ScoreBook {
	return &ScoreBook{
		dataDir:   dataDir,
		scoreFile: filepath.Join(dataDir, "scores.json"),
		state: models.LearningState{
			Scores: make(map[string]*models.TemplateScore),
		},
	}
}

// Load loads the score book from disk
func (b *ScoreBook) Load() error {
	if err := os.MkdirAll(b.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := os.Stat(b.scoreFile); os.IsNotExist(err) {
		return nil // No score file exists yet
	}

	data, err := os.ReadFile(b.scoreFile)
	if err != nil {
		return fmt.Errorf("failed to read score file: %w", err)
	}

	b.mu.Lock()
	if err := json.Unmarshal(data, &b.state); err != nil || b.state.Scores == nil {
		// If the file is corrupted, start fresh
		b.state = models.LearningState{Scores: make(map[string]*models.TemplateScore)}
	}
	b.mu.Unlock()

	return nil
}

// Save saves the score book to disk
func (b *ScoreBook) Save() error {
	b.mu.RLock()
	data, err := json.MarshalIndent(b.state, "", "  ")
	b.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	if err := os.WriteFile(b.scoreFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write score file: %w", err)
	}

	return nil
}

// Get returns the score record for a template id, if present.
func (b *ScoreBook) Get(templateID string) (*models.TemplateScore, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.state.Scores[templateID]
	if !ok {
		return nil, false
	}
	copied := *s
	return &copied, true
}

// Record stores the updated score for a template and bumps its draw count.
func (b *ScoreBook) Record(templateID string, score float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.state.Scores[templateID]
	if !ok {
		s = &models.TemplateScore{}
		b.state.Scores[templateID] = s
	}
	s.Score = score
	s.Draws++
	s.LastPlayedAt = time.Now()
}

// Scores returns a copy of the score map keyed by template id.
func (b *ScoreBook) Scores() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]float64, len(b.state.Scores))
	for id, s := range b.state.Scores {
		out[id] = s.Score
	}
	return out
}

// DrawCounts returns a copy of the play counts keyed by template id.
func (b *ScoreBook) DrawCounts() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]int, len(b.state.Scores))
	for id, s := range b.state.Scores {
		out[id] = s.Draws
	}
	return out
}

// Draws returns the recorded play count for a template.
func (b *ScoreBook) Draws(templateID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if s, ok := b.state.Scores[templateID]; ok {
		return s.Draws
	}
	return 0
}

// SetSession stores the session portion of the learning state: the recent
// family window (newest-first) and the round counter.
func (b *ScoreBook) SetSession(recentFamilies []string, roundIndex int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.RecentFamilies = append([]string(nil), recentFamilies...)
	b.state.RoundIndex = roundIndex
}

// Session returns the persisted recent-family window and round counter.
func (b *ScoreBook) Session() ([]string, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.state.RecentFamilies...), b.state.RoundIndex
}

// Export writes the full learning snapshot to path.
func (b *ScoreBook) Export(path string) error {
	b.mu.RLock()
	snapshot := b.state
	snapshot.ExportedAt = time.Now()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	b.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal learning state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Import replaces the learning state with a previously exported snapshot.
func (b *ScoreBook) Import(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read learning state: %w", err)
	}
	var state models.LearningState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse learning state: %w", err)
	}
	if state.Scores == nil {
		state.Scores = make(map[string]*models.TemplateScore)
	}
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
	return nil
}

// Reset clears all learned state.
func (b *ScoreBook) Reset() {
	b.mu.Lock()
	b.state = models.LearningState{Scores: make(map[string]*models.TemplateScore)}
	b.mu.Unlock()
}
