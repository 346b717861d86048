package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"dota-tracker/internal/middleware"
	"dota-tracker/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// StatusServer exposes liveness and pipeline status over HTTP. It exists
// so the hosting platform can probe the bot and operators can see when
// the last ingestion pass ran.
type StatusServer struct {
	logger    zerolog.Logger
	startedAt time.Time

	mu         sync.RWMutex
	lastPass   *service.Result
	lastPassAt time.Time
	lastError  string
}

func NewStatusServer(logger zerolog.Logger) *StatusServer {
	return &StatusServer{
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// RecordPass stores the outcome of the most recent reconciliation pass.
func (s *StatusServer) RecordPass(result *service.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPassAt = time.Now().UTC()
	s.lastPass = result
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}

type statusResponse struct {
	Status     string          `json:"status"`
	UptimeSec  int64           `json:"uptime_sec"`
	LastPassAt *time.Time      `json:"last_pass_at,omitempty"`
	LastPass   *service.Result `json:"last_pass,omitempty"`
	LastError  string          `json:"last_error,omitempty"`
}

// Handler assembles the status mux behind request-id logging and CORS.
func (s *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		resp := statusResponse{
			Status:    "running",
			UptimeSec: int64(time.Since(s.startedAt).Seconds()),
			LastPass:  s.lastPass,
			LastError: s.lastError,
		}
		if !s.lastPassAt.IsZero() {
			t := s.lastPassAt
			resp.LastPassAt = &t
		}
		s.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			s.logger.Warn().Err(err).Msg("failed to encode status response")
		}
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return middleware.RequestID(s.logger)(c.Handler(mux))
}
