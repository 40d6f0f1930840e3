package server

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dpshade/party-deck/internal/config"
	"github.com/dpshade/party-deck/internal/models"
	"github.com/dpshade/party-deck/internal/service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.DeckDir = filepath.Join(base, "decks")
	cfg.LexiconDir = filepath.Join(base, "lexicons")
	cfg.DataDir = filepath.Join(base, "data")
	if err := os.MkdirAll(cfg.DeckDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	deck := `
game: roast_consensus
templates:
  - id: t1
    text: "Plain card one"
    family: roast
  - id: t2
    text: "Plain card two"
    family: music
`
	if err := os.WriteFile(filepath.Join(cfg.DeckDir, "deck.yaml"), []byte(deck), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}

	svc, err := service.New(cfg, service.WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return New(svc, "localhost:0", nil)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestHandleCard(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.withMiddleware(s.handleCard)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/card?game=roast_consensus", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
}

func TestHandleCardMissingGame(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.withMiddleware(s.handleCard)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/card", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleCardUnknownGame(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.withMiddleware(s.handleCard)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/card?game=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.withMiddleware(s.handleCard)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/card?game=roast_consensus", nil))
	resp := decodeResponse(t, rec)

	data, _ := json.Marshal(resp.Data)
	var round service.Round
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("decode round: %v", err)
	}

	body, _ := json.Marshal(feedbackRequest{
		RoundID:  round.ID,
		Feedback: models.Feedback{Positive: 2, LatencyMs: 900},
	})
	rec = httptest.NewRecorder()
	s.withMiddleware(s.handleFeedback)(rec, httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("feedback status = %d, body %s", rec.Code, rec.Body.String())
	}

	// a second commit for the same round must fail
	rec = httptest.NewRecorder()
	s.withMiddleware(s.handleFeedback)(rec, httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat commit status = %d", rec.Code)
	}
}

func TestHandleFeedbackUnknownRound(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(feedbackRequest{RoundID: "ghost"})
	rec := httptest.NewRecorder()
	s.withMiddleware(s.handleFeedback)(rec, httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleStatsAndGames(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.withMiddleware(s.handleStats)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("stats status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.withMiddleware(s.handleGames)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("games status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	games, ok := resp.Data.([]interface{})
	if !ok || len(games) != 1 {
		t.Errorf("games = %v", resp.Data)
	}
}

func TestHandleStatsAndGamesRejectNonGet(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.withMiddleware(s.handleStats)(rec, httptest.NewRequest(http.MethodPost, "/api/v1/stats", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("stats POST status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = httptest.NewRecorder()
	s.withMiddleware(s.handleGames)(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/games", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("games DELETE status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.withMiddleware(s.handleHealth)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}
