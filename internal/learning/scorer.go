// Package learning adapts card selection to player reactions over time.
//
// SYSTEM ARCHITECTURE ROLE:
// This module owns the reward function and the per-template exponential
// moving average. It is pure computation: all state (scores, recent
// families) lives with the caller, so a Scorer can be shared freely.
//
// KEY RESPONSIBILITIES:
// - Convert round feedback into a scalar reward (ScoreCard)
// - Fold rewards into per-template EMA scores (UpdateTemplateScore)
// - Produce composite selection scores with diversity and exploration terms
//
// INTEGRATION POINTS:
// - internal/selection/engine.go: SelectionScore weights the candidate draw
// - internal/service/service.go: CommitRound calls ScoreCard + UpdateTemplateScore
// - internal/config/config.go: Params mirrors the learning config block
package learning

import (
	"math"

	"github.com/dpshade/party-deck/internal/models"
)

// Params tunes the reward and selection-score functions. Zero values are
// replaced by defaults in NewScorer.
type Params struct {
	// Alpha is the EMA smoothing factor in [0,1].
	Alpha float64
	// EpsilonStart and EpsilonEnd bound the exploration term, decaying
	// linearly over DecayRounds rounds.
	EpsilonStart float64
	EpsilonEnd   float64
	DecayRounds  int
	// MinPlays is the draw count below which templates get a strong
	// exploration bonus.
	MinPlays int
	// LatencyThresholdMs is the response latency below which no penalty
	// applies. LatencyPenaltyCap bounds the penalty.
	LatencyThresholdMs int
	LatencyPenaltyCap  float64
	// DiversityWeight and SpiceWeight scale the corresponding terms of
	// SelectionScore.
	DiversityWeight float64
	SpiceWeight     float64
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		Alpha:              0.3,
		EpsilonStart:       0.25,
		EpsilonEnd:         0.05,
		DecayRounds:        50,
		MinPlays:           3,
		LatencyThresholdMs: 2000,
		LatencyPenaltyCap:  2.0,
		DiversityWeight:    1.0,
		SpiceWeight:        0.5,
	}
}

// Scorer computes rewards and selection scores. It holds no mutable state.
type Scorer struct {
	p Params
}

// NewScorer builds a Scorer, filling zero-valued params with defaults.
func NewScorer(p Params) *Scorer {
	d := DefaultParams()
	if p.Alpha == 0 && p.EpsilonStart == 0 && p.DecayRounds == 0 {
		p = d
	}
	if p.DecayRounds <= 0 {
		p.DecayRounds = d.DecayRounds
	}
	if p.MinPlays <= 0 {
		p.MinPlays = d.MinPlays
	}
	if p.LatencyThresholdMs <= 0 {
		p.LatencyThresholdMs = d.LatencyThresholdMs
	}
	if p.LatencyPenaltyCap <= 0 {
		p.LatencyPenaltyCap = d.LatencyPenaltyCap
	}
	if p.DiversityWeight == 0 {
		p.DiversityWeight = d.DiversityWeight
	}
	if p.SpiceWeight == 0 {
		p.SpiceWeight = d.SpiceWeight
	}
	return &Scorer{p: p}
}

// Params returns the effective tuning.
func (s *Scorer) Params() Params { return s.p }

// ScoreCard converts feedback into a reward. The base reward is
// positive − negative; neutral reactions do not contribute. Latencies at or
// below the threshold carry no penalty; above it the penalty grows linearly
// per second and is capped, so a faster response never scores lower than an
// otherwise identical slower one.
func (s *Scorer) ScoreCard(fb models.Feedback) float64 {
	reward := float64(fb.Positive - fb.Negative)
	return reward - s.latencyPenalty(fb.LatencyMs)
}

func (s *Scorer) latencyPenalty(latencyMs int) float64 {
	if latencyMs <= s.p.LatencyThresholdMs {
		return 0
	}
	over := float64(latencyMs-s.p.LatencyThresholdMs) / 1000.0
	return math.Min(over*0.25, s.p.LatencyPenaltyCap)
}

// UpdateTemplateScore folds a new reward into the running template score:
// alpha*reward + (1-alpha)*current. alpha=0 keeps the current score,
// alpha=1 replaces it.
func (s *Scorer) UpdateTemplateScore(current, reward, alpha float64) float64 {
	return alpha*reward + (1-alpha)*current
}

// Epsilon returns the exploration weight for a round, decaying linearly from
// EpsilonStart to EpsilonEnd over DecayRounds rounds.
func (s *Scorer) Epsilon(roundIdx int) float64 {
	if roundIdx <= 0 {
		return s.p.EpsilonStart
	}
	if roundIdx >= s.p.DecayRounds {
		return s.p.EpsilonEnd
	}
	frac := float64(roundIdx) / float64(s.p.DecayRounds)
	return s.p.EpsilonStart + frac*(s.p.EpsilonEnd-s.p.EpsilonStart)
}

// DiversityBonus rewards templates whose family has not been seen recently.
// A family absent from the window earns the full weight; present families
// earn a share that shrinks the more recently they appeared.
func (s *Scorer) DiversityBonus(family string, recentFamilies []string) float64 {
	idx := -1
	for i, f := range recentFamilies {
		if f == family {
			idx = i
			break
		}
	}
	if idx == -1 {
		return s.p.DiversityWeight
	}
	window := len(recentFamilies)
	if window == 0 {
		return s.p.DiversityWeight
	}
	// recentFamilies is newest-first, so idx 0 is the most recent use.
	recency := float64(idx) / float64(window)
	return recency * s.p.DiversityWeight * 0.5
}

// ExplorationBonus favors templates with few recorded plays.
func (s *Scorer) ExplorationBonus(draws int) float64 {
	if draws < s.p.MinPlays {
		return 2.0 * float64(s.p.MinPlays-draws) / float64(s.p.MinPlays)
	}
	return math.Max(0, 1.0-float64(draws)/100.0)
}

// SelectionScore composes the learned template score with diversity and
// spice-preference terms plus the round's exploration weight. It is linear,
// so it stays finite for all finite inputs and rises monotonically with
// templateScore.
func (s *Scorer) SelectionScore(templateScore, familyDiversity, spicePreference float64, roundIdx int) float64 {
	return templateScore +
		familyDiversity*s.p.DiversityWeight +
		spicePreference*s.p.SpiceWeight +
		s.Epsilon(roundIdx)
}
