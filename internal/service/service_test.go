package service

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dpshade/party-deck/internal/cache"
	"github.com/dpshade/party-deck/internal/config"
	"github.com/dpshade/party-deck/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.DeckDir = filepath.Join(base, "decks")
	cfg.LexiconDir = filepath.Join(base, "lexicons")
	cfg.DataDir = filepath.Join(base, "data")

	for _, dir := range []string{cfg.DeckDir, cfg.LexiconDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	deck := `
game: roast_consensus
templates:
  - id: good_1
    text: "Who would {action} at {place}?"
    family: roast
    spice: 1
  - id: good_2
    text: "Who would challenge {target_name} to karaoke?"
    family: music
    spice: 1
`
	if err := os.WriteFile(filepath.Join(cfg.DeckDir, "roast.yaml"), []byte(deck), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}

	lexicon := `
action:
  - "fall asleep"
place:
  - "the DMV"
`
	if err := os.WriteFile(filepath.Join(cfg.LexiconDir, "words.yaml"), []byte(lexicon), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) *Service {
	t.Helper()
	svc, err := New(cfg, WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.SetPlayers([]string{"Ana", "Bo"})
	return svc
}

func TestNextCardFillsSlots(t *testing.T) {
	svc := newTestService(t, testConfig(t))

	round, err := svc.NextCard(context.Background(), "roast_consensus")
	if err != nil {
		t.Fatalf("next card: %v", err)
	}
	if round.Card.Text == "" {
		t.Fatal("expected filled card text")
	}
	if strings.ContainsAny(round.Card.Text, "{}") {
		t.Errorf("card still contains slot braces: %q", round.Card.Text)
	}
	if round.Card.Game != "roast_consensus" {
		t.Errorf("card game = %q", round.Card.Game)
	}
	if round.ID == "" {
		t.Error("round should carry an id")
	}
}

func TestNextCardUnknownGame(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	if _, err := svc.NextCard(context.Background(), "no_such_game"); err == nil {
		t.Fatal("expected error for unknown game")
	}
}

func TestNextCardSkipsBrokenTemplate(t *testing.T) {
	cfg := testConfig(t)
	broken := `
game: broken_game
templates:
  - id: bad_1
    text: "Who would {unclosed"
    family: roast
  - id: ok_1
    text: "Plain card with no slots"
    family: roast
`
	if err := os.WriteFile(filepath.Join(cfg.DeckDir, "broken.yaml"), []byte(broken), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	svc := newTestService(t, cfg)

	for i := 0; i < 20; i++ {
		round, err := svc.NextCard(context.Background(), "broken_game")
		if err != nil {
			t.Fatalf("next card: %v", err)
		}
		if round.Card.ID != "ok_1" {
			t.Fatalf("broken template should be skipped, got %s", round.Card.ID)
		}
	}
}

func TestNextCardAllTemplatesBroken(t *testing.T) {
	cfg := testConfig(t)
	broken := `
game: hopeless
templates:
  - id: bad_a
    text: "{missing_lexicon} strikes"
    family: roast
`
	if err := os.WriteFile(filepath.Join(cfg.DeckDir, "hopeless.yaml"), []byte(broken), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	svc := newTestService(t, cfg)

	if _, err := svc.NextCard(context.Background(), "hopeless"); err == nil {
		t.Fatal("expected error when every template fails to fill")
	}
}

func TestCommitRoundUpdatesScore(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService(t, cfg)

	round, err := svc.NextCard(context.Background(), "roast_consensus")
	if err != nil {
		t.Fatalf("next card: %v", err)
	}

	fb := models.Feedback{Positive: 3, Negative: 1, LatencyMs: 1000}
	result, err := svc.CommitRound(round, fb)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Reward != 2.0 {
		t.Errorf("reward = %v, want 2.0", result.Reward)
	}
	// first update starts from score 0: 0.3*2.0
	if diff := result.Score - 0.6; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("score = %v, want 0.6", result.Score)
	}
	if result.RoundIndex != 1 {
		t.Errorf("round index = %d, want 1", result.RoundIndex)
	}
	if svc.RoundIndex() != 1 {
		t.Errorf("service round index = %d", svc.RoundIndex())
	}

	stats := svc.Stats()
	if stats.RoundsPlayed != 1 {
		t.Errorf("stats rounds = %d", stats.RoundsPlayed)
	}
	if len(stats.RecentFamilies) != 1 {
		t.Errorf("recent families = %v", stats.RecentFamilies)
	}
}

func TestCommitRoundPersistsAcrossRestart(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService(t, cfg)

	round, err := svc.NextCard(context.Background(), "roast_consensus")
	if err != nil {
		t.Fatalf("next card: %v", err)
	}
	if _, err := svc.CommitRound(round, models.Feedback{Positive: 2}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reloaded := newTestService(t, cfg)
	if reloaded.RoundIndex() != 1 {
		t.Errorf("round index not restored: %d", reloaded.RoundIndex())
	}
	if len(reloaded.Stats().Scores) == 0 {
		t.Error("scores not restored after restart")
	}
}

func TestDiversityAcrossRounds(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	ctx := context.Background()

	first, err := svc.NextCard(ctx, "roast_consensus")
	if err != nil {
		t.Fatalf("next card: %v", err)
	}
	if _, err := svc.CommitRound(first, models.Feedback{Positive: 1}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// with two families and a window of 3, the next draw must avoid the
	// family just played
	second, err := svc.NextCard(ctx, "roast_consensus")
	if err != nil {
		t.Fatalf("next card: %v", err)
	}
	if second.Card.Family == first.Card.Family {
		t.Errorf("expected a fresh family, got %q twice", second.Card.Family)
	}
}

func TestExportImportLearning(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService(t, cfg)

	round, err := svc.NextCard(context.Background(), "roast_consensus")
	if err != nil {
		t.Fatalf("next card: %v", err)
	}
	if _, err := svc.CommitRound(round, models.Feedback{Positive: 4}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	path := filepath.Join(t.TempDir(), "brain.json")
	if err := svc.ExportLearning(path); err != nil {
		t.Fatalf("export: %v", err)
	}

	other := newTestService(t, testConfig(t))
	if err := other.ImportLearning(path); err != nil {
		t.Fatalf("import: %v", err)
	}
	if other.RoundIndex() != 1 {
		t.Errorf("imported round index = %d", other.RoundIndex())
	}
	if len(other.Stats().Scores) == 0 {
		t.Error("imported scores missing")
	}
}

func TestSearch(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	results := svc.Search("karaoke")
	if len(results) != 1 || results[0].ID != "good_2" {
		t.Errorf("search results = %v", results)
	}
}

func TestCloseReleasesGenerationCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Augment.Enabled = true

	svc := newTestService(t, cfg)
	if _, ok := svc.store.(*cache.SQLiteStore); !ok {
		t.Fatalf("expected sqlite-backed generation cache, got %T", svc.store)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// The handle is released, so the same file opens cleanly again.
	reopened, err := cache.OpenSQLiteStore(filepath.Join(cfg.DataDir, "generation.db"))
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	reopened.Close()
}

func TestCloseWithMemoryCache(t *testing.T) {
	svc := newTestService(t, testConfig(t))
	if err := svc.Close(); err != nil {
		t.Errorf("close with memory cache: %v", err)
	}
}
