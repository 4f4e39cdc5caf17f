package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/query"
	"github.com/rubiojr/hayao/pkg/search"
	"github.com/rubiojr/hayao/pkg/version"
	"github.com/rubiojr/hayao/pkg/warehouse"
)

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := search.ParseSearchParams(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}

	results, err := s.searchService.Search(r.Context(), params)
	if err != nil {
		s.writeSearchError(w, err)
		return
	}

	response := SearchResponse{
		Query:      results.Query,
		Tokens:     results.Tokens,
		Results:    make([]ResultResponse, len(results.Results)),
		TotalCount: results.TotalCount,
		Limit:      results.Limit,
	}
	for i, res := range results.Results {
		response.Results[i] = ResultResponse{
			SheetName:    res.SheetName,
			OriginalData: res.Row,
			Fields:       res.Fields,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) writeSearchError(w http.ResponseWriter, err error) {
	var (
		parseErr    *query.ParseError
		unavailable *core.SourceUnavailableError
	)
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'q' is required")
	case errors.As(err, &parseErr):
		pos := parseErr.Pos
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:    "Invalid query",
			Message:  parseErr.Error(),
			Token:    parseErr.Token,
			Position: &pos,
		})
	case errors.As(err, &unavailable), errors.Is(err, warehouse.ErrNotReady):
		s.writeError(w, http.StatusServiceUnavailable, "Index unavailable", err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "Search failed", err.Error())
	}
}

// HandleRefresh rebuilds the index from the source and answers once the new
// index is live.
func (s *Server) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.warehouse.Refresh(r.Context(), warehouse.ReasonRefresh); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "Refresh failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) status() StatusResponse {
	return StatusResponse{
		Status:  s.warehouse.Status(),
		Version: version.APIVersion(),
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
