// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/okian/fantasyfamily/internal/domain/model"
	"github.com/okian/fantasyfamily/pkg/logger"
)

const defaultMaxFeedLimit = 200

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	MemberDependencies
	CatalogDependencies
	LedgerDependencies
	AdminDependencies
	StatsProvider
}

// Server wires HTTP routes for the league API.
type Server struct {
	deps           Dependencies
	allowedOrigins []string
	maxFeedLimit   int
	logger         logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		maxFeedLimit:  defaultMaxFeedLimit,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Router builds the chi router with every route mounted. Callers may mount
// further routes on the returned mux.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if len(s.allowedOrigins) > 0 {
		r.Use(CORS(s.allowedOrigins))
	}
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Handle("/metrics", s.healthHandler.MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/data", s.handleData)
		r.Get("/stats", s.statsHandler.HandleStats)
		r.Get("/status", s.handleStatus)

		r.Get("/players", s.handleListPlayers)
		r.Post("/players", s.handleAddPlayer)
		r.Put("/players/{id}", s.handleRenamePlayer)
		r.Delete("/players/{id}", s.handleDeletePlayer)
		r.Post("/players/{id}/members", s.handleDraftMember)

		r.Get("/members", s.handleListMembers)
		r.Get("/members/{id}/stats", s.handleMemberStats)
		r.Put("/members/{id}/trade", s.handleTradeMember)

		r.Get("/life-events", s.handleBrowseCatalog)
		r.Post("/life-events", s.handleDefineEvent)
		r.Get("/life-events/grouped", s.handleGroupedCatalog)
		r.Get("/life-events/summary", s.handleCatalogSummary)

		r.Get("/logged-events", s.handleFeed)
		r.Post("/logged-events", s.handleLogEvent)

		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Post("/reset", s.handleReset)
		r.Post("/reload", s.handleReload)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps error kinds to status codes: validation 400,
// not found 404, anything else 500.
func (s *Server) writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		s.logger.Error(ctx, "request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return model.WrapKind("decode "+r.URL.Path, ErrBadRequest, err)
	}
	return nil
}
