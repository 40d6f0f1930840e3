package augment

import (
	"context"
	"errors"
	"testing"

	"github.com/dpshade/party-deck/internal/cache"
	"github.com/dpshade/party-deck/internal/models"
	"github.com/dpshade/party-deck/internal/validation"
)

type fakeGenerator struct {
	output string
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string, cfg GenConfig) (string, error) {
	f.calls++
	return f.output, f.err
}

func testCard() models.FilledCard {
	return models.FilledCard{
		ID:     "nh_roast_01",
		Game:   "roast_consensus",
		Text:   "Who would nap through a fire alarm?",
		Family: "roast",
		Spice:  1,
	}
}

func testPlan() Plan {
	return Plan{
		AllowRewrite: true,
		MaxWords:     18,
		Spice:        1,
		Tags:         []string{"sleep"},
		Game:         "roast_consensus",
		StyleGuide:   StyleGuideFor("roast_consensus"),
	}
}

func TestMaybeRewriteNilGeneratorPassthrough(t *testing.T) {
	store := cache.NewMemoryStore()
	a := New(nil, store, validation.NewValidator(nil), nil)

	card := testCard()
	got := a.MaybeRewrite(context.Background(), card, testPlan(), 7, "m1")
	if got.Text != card.Text {
		t.Errorf("expected unchanged card, got %q", got.Text)
	}
	if store.Len() != 0 {
		t.Errorf("disabled rewrite must not touch the cache, %d entries", store.Len())
	}
}

func TestMaybeRewriteDisallowedByPlan(t *testing.T) {
	gen := &fakeGenerator{output: "whatever"}
	store := cache.NewMemoryStore()
	a := New(gen, store, validation.NewValidator(nil), nil)

	plan := testPlan()
	plan.AllowRewrite = false
	card := testCard()
	got := a.MaybeRewrite(context.Background(), card, plan, 7, "m1")
	if got.Text != card.Text {
		t.Errorf("expected unchanged card, got %q", got.Text)
	}
	if gen.calls != 0 {
		t.Errorf("generator must not be called when the plan forbids rewriting")
	}
	if store.Len() != 0 {
		t.Errorf("forbidden rewrite must not touch the cache")
	}
}

func TestMaybeRewriteGeneratorErrorFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("deadline exceeded")}
	a := New(gen, cache.NewMemoryStore(), validation.NewValidator(nil), nil)

	card := testCard()
	got := a.MaybeRewrite(context.Background(), card, testPlan(), 7, "m1")
	if got.Text != card.Text {
		t.Errorf("generator failure must keep original text, got %q", got.Text)
	}
}

func TestMaybeRewriteCacheHitSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{output: "should not be used"}
	store := cache.NewMemoryStore()
	a := New(gen, store, validation.NewValidator(nil), nil)

	card := testCard()
	plan := testPlan()
	key := cache.Key("rewrite", "m1", card.ID, cache.FillHash(card.Text, plan.Tags), 7)
	if err := store.Put(context.Background(), key, "Cached rewrite here"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	got := a.MaybeRewrite(context.Background(), card, plan, 7, "m1")
	if got.Text != "Cached rewrite here" {
		t.Errorf("expected cached text, got %q", got.Text)
	}
	if gen.calls != 0 {
		t.Errorf("cache hit must short-circuit the generator, %d calls", gen.calls)
	}
}

func TestMaybeRewriteRejections(t *testing.T) {
	card := testCard()

	tests := []struct {
		name   string
		output string
	}{
		{"blank output", "   "},
		{"identical ignoring case", "WHO WOULD NAP THROUGH A FIRE ALARM?"},
		{"over word budget", "this rewrite rambles on and on and on and keeps going well past the eighteen word budget that the plan allows for"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{output: tt.output}
			store := cache.NewMemoryStore()
			a := New(gen, store, validation.NewValidator(nil), nil)

			got := a.MaybeRewrite(context.Background(), card, testPlan(), 7, "m1")
			if got.Text != card.Text {
				t.Errorf("rejected output must fall back to original, got %q", got.Text)
			}
			if store.Len() != 0 {
				t.Errorf("rejected output must not be cached")
			}
		})
	}
}

func TestMaybeRewriteAcceptedOutputCachedAndReturned(t *testing.T) {
	gen := &fakeGenerator{output: "  Who snores through three fire alarms?  "}
	store := cache.NewMemoryStore()
	a := New(gen, store, validation.NewValidator(nil), nil)

	card := testCard()
	got := a.MaybeRewrite(context.Background(), card, testPlan(), 7, "m1")
	if got.Text != "Who snores through three fire alarms?" {
		t.Errorf("expected sanitized rewrite, got %q", got.Text)
	}
	if got.ID != card.ID || got.Game != card.Game {
		t.Errorf("rewrite must keep card identity")
	}

	// second call serves the accepted text from cache
	again := a.MaybeRewrite(context.Background(), card, testPlan(), 7, "m1")
	if again.Text != got.Text {
		t.Errorf("expected cached text on repeat, got %q", again.Text)
	}
	if gen.calls != 1 {
		t.Errorf("expected exactly one generator call, got %d", gen.calls)
	}
}

func TestMaybeRewriteDenylistGate(t *testing.T) {
	gen := &fakeGenerator{output: "Who would chug bleach for clout?"}
	store := cache.NewMemoryStore()
	a := New(gen, store, validation.NewValidator([]string{"bleach"}), nil)

	card := testCard()
	got := a.MaybeRewrite(context.Background(), card, testPlan(), 7, "m1")
	if got.Text != card.Text {
		t.Errorf("denylisted rewrite at low spice must fall back, got %q", got.Text)
	}
}

func TestStyleGuideFor(t *testing.T) {
	if StyleGuideFor("roast_consensus") == defaultStyleGuide {
		t.Errorf("known game should have a dedicated style guide")
	}
	if StyleGuideFor("no_such_game") != defaultStyleGuide {
		t.Errorf("unknown game should get the default style guide")
	}
}
