package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/fantasyfamily/internal/domain/catalog"
	"github.com/okian/fantasyfamily/internal/domain/model"
	"github.com/okian/fantasyfamily/internal/domain/readmodel"
)

// CatalogDependencies covers life event definitions.
type CatalogDependencies interface {
	Catalog(ctx context.Context, q readmodel.CatalogQuery) []model.EventDefinition
	CatalogGrouped(ctx context.Context) readmodel.Grouped
	CatalogSummary(ctx context.Context) readmodel.CatalogSummary
	DefineEvent(ctx context.Context, name string, points int, category model.Category) (model.EventDefinition, error)
}

// defineRequest accepts points as a JSON number or a numeric string, the way
// form inputs submit them.
type defineRequest struct {
	Name     string          `json:"name"`
	Points   json.RawMessage `json:"points"`
	Category string          `json:"category"`
}

func (d defineRequest) points() (int, error) {
	raw := strings.TrimSpace(string(d.Points))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	return catalog.ParsePoints(raw)
}

// handleBrowseCatalog serves GET /api/life-events[?category=&search=&sort=].
func (s *Server) handleBrowseCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := readmodel.CatalogQuery{Search: q.Get("search")}
	if raw := q.Get("category"); raw != "" && raw != "all" {
		cat, err := model.ParseCategory(raw)
		if err != nil {
			s.writeDomainError(r.Context(), w, err)
			return
		}
		query.Category = cat
	}
	if raw := q.Get("sort"); raw != "" {
		sortBy, err := readmodel.ParseSort(raw)
		if err != nil {
			s.writeDomainError(r.Context(), w, err)
			return
		}
		query.Sort = sortBy
	}
	writeJSON(w, http.StatusOK, s.deps.Catalog(r.Context(), query))
}

func (s *Server) handleDefineEvent(w http.ResponseWriter, r *http.Request) {
	var req defineRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	points, err := req.points()
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	cat, err := model.ParseCategory(req.Category)
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	def, err := s.deps.DefineEvent(r.Context(), req.Name, points, cat)
	if err != nil {
		s.writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (s *Server) handleGroupedCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.CatalogGrouped(r.Context()))
}

func (s *Server) handleCatalogSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.CatalogSummary(r.Context()))
}
