// Package server exposes the party-deck engine over HTTP.
//
// SYSTEM ARCHITECTURE ROLE:
// This module is the HTTP interface layer. It deals cards and accepts
// feedback over a small JSON API, serializing all access to the single
// underlying session.
//
// ENDPOINT STRUCTURE:
// - GET  /api/v1/card?game=<id>: deal the next card for a game
// - POST /api/v1/feedback: commit reactions for a dealt round
// - GET  /api/v1/search?q=<query>: fuzzy template search
// - GET  /api/v1/stats: session and learning summary
// - GET  /api/v1/games: list playable games
// - GET  /api/v1/health: liveness probe
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dpshade/party-deck/internal/errors"
	"github.com/dpshade/party-deck/internal/models"
	"github.com/dpshade/party-deck/internal/service"
)

// Server wraps a session service behind an HTTP API.
type Server struct {
	svc    *service.Service
	logger *zap.Logger
	addr   string
	server *http.Server

	mu      sync.Mutex // serializes session access and guards pending
	pending map[string]*service.Round
}

// New creates a server for the given session.
func New(svc *service.Service, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:     svc,
		logger:  logger,
		addr:    addr,
		pending: make(map[string]*service.Round),
	}
}

// Start begins serving HTTP requests and blocks until the server stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/card", s.withMiddleware(s.handleCard))
	mux.HandleFunc("/api/v1/feedback", s.withMiddleware(s.handleFeedback))
	mux.HandleFunc("/api/v1/search", s.withMiddleware(s.handleSearch))
	mux.HandleFunc("/api/v1/stats", s.withMiddleware(s.handleStats))
	mux.HandleFunc("/api/v1/games", s.withMiddleware(s.handleGames))
	mux.HandleFunc("/api/v1/health", s.withMiddleware(s.handleHealth))

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// withMiddleware applies logging, content type and panic recovery.
func (s *Server) withMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Content-Type", "application/json")
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				s.writeError(w, errors.InternalError("Internal server error"))
			}
		}()
		handler(w, r)
		s.logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	}
}

// apiResponse is the standardized response envelope.
type apiResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (s *Server) writeResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiResponse{
		Success:   statusCode < 400,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	appErr := errors.GetAppError(err)
	status := http.StatusInternalServerError
	switch appErr.Category {
	case errors.CategoryValidation:
		status = http.StatusBadRequest
	case errors.CategoryService:
		if appErr.Code == errors.ErrCodeNotFound || appErr.Code == errors.ErrCodeNoCandidates {
			status = http.StatusNotFound
		}
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
	})
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, errors.ValidationError("method not allowed"))
		return
	}
	game := r.URL.Query().Get("game")
	if game == "" {
		s.writeError(w, errors.ValidationError("'game' parameter is required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	round, err := s.svc.NextCard(r.Context(), game)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.pending[round.ID] = round
	s.writeResponse(w, round, http.StatusOK)
}

// feedbackRequest is the body of POST /api/v1/feedback.
type feedbackRequest struct {
	RoundID  string          `json:"round_id"`
	Feedback models.Feedback `json:"feedback"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, errors.ValidationError("method not allowed"))
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.ValidationError("invalid JSON body"))
		return
	}
	if req.RoundID == "" {
		s.writeError(w, errors.ValidationError("'round_id' is required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.pending[req.RoundID]
	if !ok {
		s.writeError(w, errors.NotFoundError("round"))
		return
	}
	result, err := s.svc.CommitRound(round, req.Feedback)
	if err != nil {
		s.writeError(w, err)
		return
	}
	delete(s.pending, req.RoundID)
	s.writeResponse(w, result, http.StatusOK)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, errors.ValidationError("method not allowed"))
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, errors.ValidationError("'q' parameter is required"))
		return
	}
	s.mu.Lock()
	results := s.svc.Search(query)
	s.mu.Unlock()
	s.writeResponse(w, results, http.StatusOK)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, errors.ValidationError("method not allowed"))
		return
	}
	s.mu.Lock()
	stats := s.svc.Stats()
	s.mu.Unlock()
	s.writeResponse(w, stats, http.StatusOK)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, errors.ValidationError("method not allowed"))
		return
	}
	s.mu.Lock()
	games := s.svc.Catalog().Games()
	s.mu.Unlock()
	s.writeResponse(w, games, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}
