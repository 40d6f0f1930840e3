// Package selection chooses the next template to play.
//
// Candidates whose family appeared recently are avoided when fresher
// families exist; within the eligible set the draw is stochastic, weighted
// by the learned selection score, with an epsilon-greedy uniform draw for
// exploration. The random source is injected so tests can assert
// distributional properties reproducibly.
package selection

import (
	"math"
	"math/rand"

	"github.com/dpshade/party-deck/internal/errors"
	"github.com/dpshade/party-deck/internal/learning"
	"github.com/dpshade/party-deck/internal/models"
)

// Engine performs the candidate draw. It holds no mutable state beyond the
// injected random source, which the caller owns and serializes.
type Engine struct {
	scorer *learning.Scorer
	rng    *rand.Rand
	// SpicePreference biases the draw toward a spice tier; 0 is neutral.
	SpicePreference float64
}

// New builds an Engine around a scorer and a caller-owned random source.
func New(scorer *learning.Scorer, rng *rand.Rand) *Engine {
	return &Engine{scorer: scorer, rng: rng}
}

// PickNext selects one template from candidates. scores maps template id to
// its learned EMA score and draws to its play count (missing ids score zero
// and count as unplayed). recentFamilies is newest-first. Candidates with a
// fresh family are preferred; if every family is recent the full pool is
// used, so a selection is always made. Lightly played templates get an
// exploration bonus in the draw. An empty candidate pool is a caller error.
func (e *Engine) PickNext(candidates []models.Template, scores map[string]float64, draws map[string]int, recentFamilies []string, roundIdx int) (*models.Template, error) {
	if len(candidates) == 0 {
		return nil, errors.ValidationError("pickNext requires a non-empty candidate pool")
	}
	if len(candidates) == 1 {
		return &candidates[0], nil
	}

	eligible := e.freshCandidates(candidates, recentFamilies)
	if len(eligible) == 0 {
		eligible = candidates
	}
	if len(eligible) == 1 {
		return &eligible[0], nil
	}

	if e.rng.Float64() < e.scorer.Epsilon(roundIdx) {
		return &eligible[e.rng.Intn(len(eligible))], nil
	}

	weights := make([]float64, len(eligible))
	maxScore := math.Inf(-1)
	for i, c := range eligible {
		diversity := e.scorer.DiversityBonus(c.Family, recentFamilies)
		spice := e.SpicePreference * float64(c.Spice)
		weights[i] = e.scorer.SelectionScore(scores[c.ID], diversity, spice, roundIdx) +
			e.scorer.ExplorationBonus(draws[c.ID])
		if weights[i] > maxScore {
			maxScore = weights[i]
		}
	}

	// Softmax over the shifted scores. Shifting by the max keeps exp in
	// range; every weight stays strictly positive, so every candidate has
	// non-zero probability.
	total := 0.0
	for i := range weights {
		weights[i] = math.Exp(weights[i] - maxScore)
		total += weights[i]
	}

	draw := e.rng.Float64() * total
	for i := range eligible {
		draw -= weights[i]
		if draw <= 0 {
			return &eligible[i], nil
		}
	}
	return &eligible[len(eligible)-1], nil
}

func (e *Engine) freshCandidates(candidates []models.Template, recentFamilies []string) []models.Template {
	recent := make(map[string]struct{}, len(recentFamilies))
	for _, f := range recentFamilies {
		recent[f] = struct{}{}
	}
	var fresh []models.Template
	for _, c := range candidates {
		if _, used := recent[c.Family]; !used {
			fresh = append(fresh, c)
		}
	}
	return fresh
}
