package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/fantasyfamily/internal/domain/model"
	"github.com/okian/fantasyfamily/internal/domain/readmodel"
)

// MemberDependencies covers member views and trades.
type MemberDependencies interface {
	Members(ctx context.Context, playerID string) ([]readmodel.MemberOverview, error)
	MemberStats(ctx context.Context, memberID string) (readmodel.MemberStats, error)
	TradeMember(ctx context.Context, memberID, toPlayerID string) (model.LoggedEvent, bool, error)
}

type tradeRequest struct {
	ToPlayerID string `json:"toPlayerId"`
}

type tradeResponse struct {
	Traded bool               `json:"traded"`
	Entry  *model.LoggedEvent `json:"entry,omitempty"`
}

// handleListMembers serves GET /api/members[?playerId=].
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.deps.Members(r.Context(), r.URL.Query().Get("playerId"))
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleMemberStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.MemberStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleTradeMember serves PUT /api/members/{id}/trade. Trading a member to
// its current owner succeeds with traded=false.
func (s *Server) handleTradeMember(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	entry, traded, err := s.deps.TradeMember(r.Context(), chi.URLParam(r, "id"), req.ToPlayerID)
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	resp := tradeResponse{Traded: traded}
	if traded {
		resp.Entry = &entry
	}
	writeJSON(w, http.StatusOK, resp)
}
