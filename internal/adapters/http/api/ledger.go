package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/fantasyfamily/internal/domain/model"
)

// IdempotencyHeader lets clients retry a log submission safely.
const IdempotencyHeader = "Idempotency-Key"

// LedgerDependencies covers the activity feed and event logging.
type LedgerDependencies interface {
	Feed(ctx context.Context, limit int) []model.LoggedEvent
	LogEvent(ctx context.Context, memberID, eventID, key string) (model.LoggedEvent, bool, error)
}

type logRequest struct {
	MemberID string `json:"memberId"`
	EventID  string `json:"eventId"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// handleFeed serves GET /api/logged-events[?limit=]. The limit defaults to
// and is capped at the configured maximum.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit := s.maxFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", model.NewKind("feed", ErrBadRequest, "limit must be a positive integer"))
			return
		}
		if n < limit {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Feed(r.Context(), limit))
}

func (s *Server) handleLogEvent(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	entry, duplicate, err := s.deps.LogEvent(r.Context(), req.MemberID, req.EventID, key)
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
