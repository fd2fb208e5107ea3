package api

import (
	"net/http"
	"strconv"
	"strings"
)

// ResultsHandler serves committed result records.
type ResultsHandler struct {
	deps ResultReader
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultReader) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

type listResponse struct {
	Total   int `json:"total"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Results any `json:"results"`
}

// HandleList handles GET /results?limit=N&offset=M.
func (h *ResultsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_results"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	results, err := h.deps.List(r.Context(), limit, offset)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Total:   h.deps.Count(r.Context()),
		Limit:   limit,
		Offset:  offset,
		Results: results,
	})
}

// HandleLatest handles GET /results/latest.
func (h *ResultsHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.Latest(r.Context())
	if err != nil {
		writeStoreError(w, "api.latest_result", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGet handles GET /results/{id}.
func (h *ResultsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_result"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/results/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest))
		return
	}
	res, err := h.deps.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return v, nil
}
