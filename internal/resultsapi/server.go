// Package resultsapi serves and forwards completed session results over HTTP.
package resultsapi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/epulse/internal/model"
)

// ResultsPath is the collection endpoint.
const ResultsPath = "/api/results"

const maxBodyBytes = 1 << 20

// ResultStore persists results received by the server.
type ResultStore interface {
	AppendResult(ctx context.Context, r model.Result) error
	ListResults(ctx context.Context, limit int) ([]model.Result, error)
}

// Server handles the results endpoint.
type Server struct {
	store  ResultStore
	logger *zap.Logger
	now    func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerClock overrides the clock used to stamp results without a timestamp.
func WithServerClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer returns a server backed by store.
func NewServer(store ResultStore, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+ResultsPath, s.handleCreate)
	mux.HandleFunc("GET "+ResultsPath, s.handleList)
	return mux
}

type resultPayload struct {
	ID         string         `json:"id"`
	WPM        *float64       `json:"wpm"`
	Accuracy   *float64       `json:"accuracy"`
	Timestamp  int64          `json:"timestamp"`
	TextLength int            `json:"textLength"`
	Duration   float64        `json:"duration"`
	ErrorKeys  map[string]int `json:"errorKeys,omitempty"`
}

type createResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var errInvalidResult = errors.New("invalid result data")

func (p resultPayload) toResult(now time.Time) (model.Result, error) {
	if p.ID == "" || p.WPM == nil || p.Accuracy == nil {
		return model.Result{}, errInvalidResult
	}
	r := model.Result{
		ID:         p.ID,
		WPM:        int(math.Round(*p.WPM)),
		Accuracy:   int(math.Round(*p.Accuracy)),
		Timestamp:  p.Timestamp,
		TextLength: p.TextLength,
		Duration:   p.Duration,
		ErrorKeys:  p.ErrorKeys,
	}
	if r.Timestamp == 0 {
		r.Timestamp = now.UnixMilli()
	}
	return r, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, req *http.Request) {
	var payload resultPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(&payload); err != nil {
		s.logger.Debug("rejecting malformed result", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errInvalidResult.Error()})
		return
	}
	r, err := payload.toResult(s.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.store.AppendResult(req.Context(), r); err != nil {
		s.logger.Error("saving result", zap.String("id", r.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save result"})
		return
	}
	s.logger.Info("result saved", zap.String("id", r.ID), zap.Int("wpm", r.WPM), zap.Int("accuracy", r.Accuracy))
	writeJSON(w, http.StatusOK, createResponse{Success: true, ID: r.ID})
}

func (s *Server) handleList(w http.ResponseWriter, req *http.Request) {
	results, err := s.store.ListResults(req.Context(), 0)
	if err != nil {
		s.logger.Error("listing results", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "server error"})
		return
	}
	if results == nil {
		results = []model.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already written; an encode failure only means the client went away.
	_ = json.NewEncoder(w).Encode(body)
}
