package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/metaquery"
	"github.com/custodia-labs/resultq/internal/logger"
)

// errorBody is the JSON error envelope. Fragment is set for query syntax
// errors.
type errorBody struct {
	Error    string `json:"error"`
	Fragment string `json:"fragment,omitempty"`
}

// handleSearch runs a search from query parameters.
// GET /api/results
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptions(r.URL.Query(), s.perPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	page, err := s.search.Search(r.Context(), opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPageView(page))
}

// handleGetResult returns one result.
// GET /api/results/{id}
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusNotImplemented, domain.ErrNotImplemented)
		return
	}
	id, err := resultID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.results.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultView(res))
}

// handleMetadata traverses a result's metadata.
// GET /api/results/{id}/metadata?path=a:b
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusNotImplemented, domain.ErrNotImplemented)
		return
	}
	id, err := resultID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	path, err := metaquery.ParsePath(r.URL.Query().Get("path"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	found, err := s.results.TraverseMetadata(r.Context(), id, path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func resultID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: result id %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
}

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	if se, ok := metaquery.AsSyntaxError(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Fragment: se.Fragment})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, metaquery.ErrMalformedDocument):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domain.ErrNotImplemented):
		writeError(w, http.StatusNotImplemented, err)
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		logger.Warn("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// writeJSON encodes v before touching the response so an encoding failure
// can still be reported as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Warn("Encoding response: %v", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: "internal error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Warn("Writing response: %v", err)
	}
}
