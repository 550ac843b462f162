package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/fantasyfamily/internal/adapters/mq/worker"
	"github.com/okian/fantasyfamily/internal/domain/model"
)

const maxImportBytes = 32 << 20

// AdminDependencies covers whole-state operations.
type AdminDependencies interface {
	Data() model.Snapshot
	SaveStatus() worker.Status
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, data []byte) error
	Reset(ctx context.Context) error
	Reload(ctx context.Context) error
}

type successResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleData(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Data())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.SaveStatus())
}

// handleExport serves the backup as a JSON attachment named after today's date.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.deps.Export(r.Context())
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	name := fmt.Sprintf("fantasy-family-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", model.WrapKind("import", ErrBadRequest, err))
		return
	}
	if err := s.deps.Import(r.Context(), data); err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Reset(r.Context()); err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Reload(r.Context()); err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
