package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/fantasyfamily/internal/domain/model"
)

// PlayerDependencies covers roster reads and writes.
type PlayerDependencies interface {
	Leaderboard(ctx context.Context) []model.Player
	AddPlayer(ctx context.Context, name string) (model.Player, error)
	RenamePlayer(ctx context.Context, playerID, name string) (model.Player, bool, error)
	DeletePlayer(ctx context.Context, playerID string) (model.Player, int, error)
	DraftMember(ctx context.Context, playerID, name string) (model.FamilyMember, error)
}

type nameRequest struct {
	Name string `json:"name"`
}

type renameResponse struct {
	Player  model.Player `json:"player"`
	Renamed bool         `json:"renamed"`
}

type deleteResponse struct {
	Success       bool `json:"success"`
	PurgedEntries int  `json:"purgedEntries"`
}

// handleListPlayers serves GET /api/players as the leaderboard.
func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Leaderboard(r.Context()))
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	p, err := s.deps.AddPlayer(r.Context(), req.Name)
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleRenamePlayer(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	p, renamed, err := s.deps.RenamePlayer(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, renameResponse{Player: p, Renamed: renamed})
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	_, purged, err := s.deps.DeletePlayer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, PurgedEntries: purged})
}

func (s *Server) handleDraftMember(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	m, err := s.deps.DraftMember(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
