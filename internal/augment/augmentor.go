// Package augment optionally rewrites filled cards through an external
// generation model.
//
// SYSTEM ARCHITECTURE ROLE:
// This module sits between card filling and card display. It consults the
// generation cache, calls the model on a miss, sanitizes and validates the
// output, and falls back to the original text when anything goes wrong.
// The rewrite path never aborts a round: every failure degrades to
// returning the card unchanged.
//
// INTEGRATION POINTS:
// - internal/cache: content-addressed lookup/store of accepted rewrites
// - internal/validation: sanitize + accept gate on model output
// - internal/service/service.go: NextCard builds the Plan and calls MaybeRewrite
package augment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dpshade/party-deck/internal/cache"
	"github.com/dpshade/party-deck/internal/models"
	"github.com/dpshade/party-deck/internal/validation"
)

// GenConfig carries the generation parameters for one call.
type GenConfig struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
	Seed        int
}

// Generator is the external generation capability. Implementations should
// honor ctx cancellation; an error from Generate means the capability is
// unavailable for this call.
type Generator interface {
	Generate(ctx context.Context, system, user string, cfg GenConfig) (string, error)
}

// Plan describes what a rewrite may do to one card.
type Plan struct {
	AllowRewrite bool
	MaxWords     int
	Spice        int
	Tags         []string
	Game         string
	StyleGuide   string
}

// Augmentor rewrites cards when allowed and able. A nil generator means
// the capability is unavailable and cards pass through untouched.
type Augmentor struct {
	gen       Generator
	store     cache.Store
	validator *validation.Validator
	logger    *zap.Logger
}

// New builds an Augmentor. logger may be nil.
func New(gen Generator, store cache.Store, validator *validation.Validator, logger *zap.Logger) *Augmentor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Augmentor{gen: gen, store: store, validator: validator, logger: logger}
}

// MaybeRewrite returns card with its text rewritten, or card unchanged if
// rewriting is disabled, the generator is unavailable, or the output is
// rejected. It never returns an error to the caller.
func (a *Augmentor) MaybeRewrite(ctx context.Context, card models.FilledCard, plan Plan, seed int, modelID string) models.FilledCard {
	if a.gen == nil || !plan.AllowRewrite {
		return card
	}

	fillHash := cache.FillHash(card.Text, plan.Tags)
	key := cache.Key("rewrite", modelID, card.ID, fillHash, seed)

	if cached, ok, err := a.store.Get(ctx, key); err == nil && ok {
		return card.WithText(cached)
	} else if err != nil {
		a.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	out, err := a.gen.Generate(ctx, systemPrompt(plan), userPrompt(card.Text, plan), GenConfig{
		MaxTokens:   plan.MaxWords * 2,
		Temperature: temperatureFor(plan.Spice),
		TopP:        0.9,
		Seed:        seed,
	})
	if err != nil {
		a.logger.Warn("generation unavailable, keeping original text",
			zap.String("template", card.ID), zap.Error(err))
		return card
	}

	cleaned := a.validator.Sanitize(out)
	if cleaned == "" || strings.EqualFold(cleaned, card.Text) {
		return card
	}
	if !a.validator.Accepts(cleaned, plan.MaxWords, plan.Spice) {
		a.logger.Debug("rewrite rejected by validator", zap.String("template", card.ID))
		return card
	}

	if err := a.store.Put(ctx, key, cleaned); err != nil {
		a.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
	return card.WithText(cleaned)
}

func temperatureFor(spice int) float32 {
	if spice >= 3 {
		return 0.8
	}
	return 0.5
}

func systemPrompt(plan Plan) string {
	var b strings.Builder
	b.WriteString("You rewrite party game prompts. Keep the meaning identical. ")
	b.WriteString("Keep placeholders, quoted text, and player names exactly as written. ")
	if plan.Spice <= 1 {
		b.WriteString("Stay strictly SFW. ")
	} else if plan.Spice >= 3 {
		b.WriteString("An edgy, irreverent tone is allowed. ")
	}
	if plan.StyleGuide != "" {
		b.WriteString("Style guide: ")
		b.WriteString(plan.StyleGuide)
	}
	return strings.TrimSpace(b.String())
}

func userPrompt(text string, plan Plan) string {
	return fmt.Sprintf("Rewrite to be punchy, same meaning, at most %d words.\nText: %q\nReturn only the rewritten line.", plan.MaxWords, text)
}
