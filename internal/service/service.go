// Package service coordinates the engine packages into a playable session.
//
// SYSTEM ARCHITECTURE ROLE:
// This module is the session driver behind every interface (CLI, TUI, HTTP).
// It owns the mutable session state the engine packages refuse to hold: the
// recent-family window, the learned score book, the round counter, and the
// random source. One Service drives one session at a time; interfaces must
// serialize access themselves.
//
// KEY RESPONSIBILITIES:
// - NextCard: select a template, fill its slots, optionally rewrite it
// - CommitRound: fold feedback into the learned score and persist
// - Expose catalog search, stats, and learning-state export/import
//
// INTEGRATION POINTS:
// - internal/selection + internal/learning: candidate draw and scoring
// - internal/renderer + internal/storage: slot filling from lexicons
// - internal/augment: optional rewrite with cache + validation
package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dpshade/party-deck/internal/augment"
	"github.com/dpshade/party-deck/internal/cache"
	"github.com/dpshade/party-deck/internal/config"
	"github.com/dpshade/party-deck/internal/errors"
	"github.com/dpshade/party-deck/internal/learning"
	"github.com/dpshade/party-deck/internal/models"
	"github.com/dpshade/party-deck/internal/renderer"
	"github.com/dpshade/party-deck/internal/selection"
	"github.com/dpshade/party-deck/internal/storage"
	"github.com/dpshade/party-deck/internal/validation"
)

// Round is one dealt card awaiting feedback.
type Round struct {
	ID         string            `json:"id"`
	Card       models.FilledCard `json:"card"`
	RoundIndex int               `json:"round_index"`
}

// Service drives a play session over a loaded catalog.
type Service struct {
	cfg       *config.Config
	catalog   *storage.Catalog
	lexicons  *storage.Lexicons
	scores    *storage.ScoreBook
	renderer  *renderer.Engine
	validator *validation.Validator
	scorer    *learning.Scorer
	selector  *selection.Engine
	augmentor *augment.Augmentor
	generator augment.Generator
	store     cache.Store
	logger    *zap.Logger

	sessionID string
	players   []string
	window    *models.RecentFamilyWindow
	roundIdx  int
	rng       *rand.Rand
}

// Option customizes service construction.
type Option func(*Service)

// WithRand injects a deterministic random source for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithGenerator injects the rewrite generator. nil leaves rewriting off.
func WithGenerator(gen augment.Generator) Option {
	return func(s *Service) { s.generator = gen }
}

// WithLogger injects a logger; the default is a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New loads the catalog, lexicons and score book named by cfg and builds a
// ready session.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	catalog, err := storage.LoadCatalog(cfg.DeckDir)
	if err != nil {
		return nil, err
	}
	lexicons, err := storage.LoadLexicons(cfg.LexiconDir)
	if err != nil {
		return nil, err
	}
	scores := storage.NewScoreBook(cfg.DataDir)
	if err := scores.Load(); err != nil {
		return nil, errors.StorageError("load score book", err)
	}

	scorer := learning.NewScorer(learning.Params{
		Alpha:              cfg.Learning.Alpha,
		EpsilonStart:       cfg.Learning.EpsilonStart,
		EpsilonEnd:         cfg.Learning.EpsilonEnd,
		DecayRounds:        cfg.Learning.DecayRounds,
		MinPlays:           cfg.Learning.MinPlays,
		LatencyThresholdMs: cfg.Learning.LatencyThresholdMs,
		LatencyPenaltyCap:  cfg.Learning.LatencyPenaltyCap,
	})

	s := &Service{
		cfg:       cfg,
		catalog:   catalog,
		lexicons:  lexicons,
		scores:    scores,
		renderer:  renderer.NewEngine(),
		validator: validation.NewValidator(cfg.Denylist),
		scorer:    scorer,
		logger:    zap.NewNop(),
		sessionID: uuid.NewString(),
		window:    models.NewRecentFamilyWindow(cfg.Learning.DiversityWindow),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	families, roundIdx := scores.Session()
	s.window.Restore(families)
	s.roundIdx = roundIdx

	for _, opt := range opts {
		opt(s)
	}
	s.selector = selection.New(scorer, s.rng)
	s.store = s.augmentStore()
	s.augmentor = augment.New(s.generator, s.store, s.validator, s.logger)
	return s, nil
}

// Close releases the generation cache when it holds a database handle.
func (s *Service) Close() error {
	if sq, ok := s.store.(*cache.SQLiteStore); ok {
		return sq.Close()
	}
	return nil
}

func (s *Service) augmentStore() cache.Store {
	if s.cfg.Augment.Enabled {
		store, err := cache.OpenSQLiteStore(filepath.Join(s.cfg.DataDir, "generation.db"))
		if err == nil {
			return store
		}
		s.logger.Warn("falling back to in-memory generation cache", zap.Error(err))
	}
	return cache.NewMemoryStore()
}

// SetPlayers replaces the player roster used for name slots.
func (s *Service) SetPlayers(players []string) {
	s.players = append([]string(nil), players...)
}

// Players returns the current roster.
func (s *Service) Players() []string {
	return append([]string(nil), s.players...)
}

// Catalog exposes the loaded catalog for read-only use.
func (s *Service) Catalog() *storage.Catalog {
	return s.catalog
}

// RoundIndex returns the number of committed rounds.
func (s *Service) RoundIndex() int {
	return s.roundIdx
}

// NextCard selects, fills and optionally rewrites a card for the game. A
// template whose fill fails is treated as broken, logged and skipped; the
// draw retries over the remaining pool.
func (s *Service) NextCard(ctx context.Context, game string) (*Round, error) {
	candidates := s.catalog.ByGame(game)
	if len(candidates) == 0 {
		return nil, errors.NoCandidatesError(game)
	}

	pool := append([]models.Template(nil), candidates...)
	for len(pool) > 0 {
		tmpl, err := s.selector.PickNext(pool, s.scores.Scores(), s.scores.DrawCounts(), s.window.Families(), s.roundIdx)
		if err != nil {
			return nil, err
		}

		card, err := s.renderer.FillCard(tmpl, s.lexicons.Resolver(s.players, s.rng))
		if err != nil {
			s.logger.Warn("template failed to fill, skipping",
				zap.String("template", tmpl.ID), zap.Error(err))
			pool = removeTemplate(pool, tmpl.ID)
			continue
		}

		card = s.augmentor.MaybeRewrite(ctx, card, augment.Plan{
			AllowRewrite: s.cfg.Augment.Enabled,
			MaxWords:     tmpl.EffectiveMaxWords(),
			Spice:        tmpl.Spice,
			Tags:         tmpl.Tags,
			Game:         tmpl.Game,
			StyleGuide:   augment.StyleGuideFor(tmpl.Game),
		}, rewriteSeed(tmpl.ID, card.Text, s.sessionID), s.cfg.Augment.Model)

		return &Round{
			ID:         uuid.NewString(),
			Card:       card,
			RoundIndex: s.roundIdx,
		}, nil
	}
	return nil, errors.NoCandidatesError(game).WithDetails("every template failed to fill")
}

// CommitRound folds the round's feedback into the template's learned score,
// advances the session, and persists the learning state.
func (s *Service) CommitRound(round *Round, fb models.Feedback) (models.RoundResult, error) {
	tmpl, ok := s.catalog.ByID(round.Card.ID)
	if !ok {
		return models.RoundResult{}, errors.NotFoundError(fmt.Sprintf("template %s", round.Card.ID))
	}

	reward := s.scorer.ScoreCard(fb)
	current := 0.0
	if existing, ok := s.scores.Get(tmpl.ID); ok {
		current = existing.Score
	}
	updated := s.scorer.UpdateTemplateScore(current, reward, s.cfg.Learning.Alpha)

	s.scores.Record(tmpl.ID, updated)
	s.window.Push(tmpl.Family)
	s.roundIdx++
	s.scores.SetSession(s.window.Families(), s.roundIdx)
	if err := s.scores.Save(); err != nil {
		s.logger.Warn("failed to persist scores", zap.Error(err))
	}

	s.logger.Info("round committed",
		zap.String("template", tmpl.ID),
		zap.Float64("reward", reward),
		zap.Float64("score", updated),
		zap.Int("round", s.roundIdx))

	return models.RoundResult{
		RoundID:    round.ID,
		TemplateID: tmpl.ID,
		Reward:     reward,
		Score:      updated,
		RoundIndex: s.roundIdx,
	}, nil
}

// Search fuzzy-matches templates across the whole catalog.
func (s *Service) Search(query string) []models.Template {
	return s.catalog.Search(query)
}

// Stats summarizes the session and learned state.
type Stats struct {
	SessionID      string             `json:"session_id"`
	RoundsPlayed   int                `json:"rounds_played"`
	Templates      int                `json:"templates"`
	Games          []string           `json:"games"`
	Scores         map[string]float64 `json:"scores"`
	RecentFamilies []string           `json:"recent_families"`
}

// Stats returns the current session summary.
func (s *Service) Stats() Stats {
	return Stats{
		SessionID:      s.sessionID,
		RoundsPlayed:   s.roundIdx,
		Templates:      s.catalog.Len(),
		Games:          s.catalog.Games(),
		Scores:         s.scores.Scores(),
		RecentFamilies: s.window.Families(),
	}
}

// ExportLearning writes the learning snapshot to path.
func (s *Service) ExportLearning(path string) error {
	s.scores.SetSession(s.window.Families(), s.roundIdx)
	return s.scores.Export(path)
}

// ImportLearning replaces the learning state from a snapshot and restores
// the session window and round counter from it.
func (s *Service) ImportLearning(path string) error {
	if err := s.scores.Import(path); err != nil {
		return err
	}
	families, roundIdx := s.scores.Session()
	s.window.Restore(families)
	s.roundIdx = roundIdx
	return s.scores.Save()
}

func removeTemplate(pool []models.Template, id string) []models.Template {
	out := pool[:0]
	for _, t := range pool {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// rewriteSeed derives a stable seed for one card fill, so repeated deals of
// the same fill within a session hit the same cache entry.
func rewriteSeed(templateID, text, sessionID string) int {
	h := fnv.New32a()
	h.Write([]byte(templateID))
	h.Write([]byte(text))
	h.Write([]byte(sessionID))
	return int(h.Sum32())
}
