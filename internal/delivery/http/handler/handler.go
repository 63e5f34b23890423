package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/sitesearch/internal/delivery/http/request"
	"github.com/user/sitesearch/internal/delivery/http/response"
	"github.com/user/sitesearch/internal/usecase"
)

type Handler struct {
	indexer  usecase.Indexer
	searcher usecase.Searcher
	stats    usecase.StatisticsReporter
}

func NewHandler(indexer usecase.Indexer, searcher usecase.Searcher, stats usecase.StatisticsReporter) *Handler {
	return &Handler{
		indexer:  indexer,
		searcher: searcher,
		stats:    stats,
	}
}

func (h *Handler) HandleStartIndexing(w http.ResponseWriter, r *http.Request) {
	if err := h.indexer.StartIndexing(r.Context()); err != nil {
		h.writeUseCaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.ActionResponse{Result: true})
}

func (h *Handler) HandleStopIndexing(w http.ResponseWriter, r *http.Request) {
	if err := h.indexer.StopIndexing(r.Context()); err != nil {
		h.writeUseCaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.ActionResponse{Result: true})
}

func (h *Handler) HandleIndexPage(w http.ResponseWriter, r *http.Request) {
	var req request.IndexPageRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		req.URL = r.FormValue("url")
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		h.writeJSONError(w, "url is required", http.StatusBadRequest)
		return
	}
	if _, err := url.ParseRequestURI(req.URL); err != nil {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	if err := h.indexer.IndexPage(r.Context(), req.URL); err != nil {
		h.writeUseCaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, response.ActionResponse{Result: true})
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := request.SearchParams{Query: q.Get("query"), Site: q.Get("site")}

	var ok bool
	if params.Offset, ok = request.ParseInt(q.Get("offset"), 0); !ok {
		h.writeJSONError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}
	if params.Limit, ok = request.ParseInt(q.Get("limit"), usecase.DefaultSearchLimit); !ok {
		h.writeJSONError(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return
	}

	result, err := h.searcher.Search(r.Context(), usecase.SearchQuery{
		Query:  params.Query,
		Site:   params.Site,
		Offset: params.Offset,
		Limit:  params.Limit,
	})
	if err != nil {
		h.writeUseCaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.SearchResponse{Result: true, Count: result.Count, Data: result.Data})
}

func (h *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Statistics(r.Context())
	if err != nil {
		h.writeUseCaseError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.StatisticsResponse{Result: true, Statistics: stats})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeUseCaseError maps use case errors to HTTP statuses. Unknown errors
// are logged and hidden behind a generic message.
func (h *Handler) writeUseCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrAlreadyRunning):
		h.writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, usecase.ErrNotRunning), errors.Is(err, usecase.ErrEmptyQuery):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrOutOfScope), errors.Is(err, usecase.ErrNotAPage), errors.Is(err, usecase.ErrNotReady):
		h.writeJSONError(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("Request failed", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Result: false, Error: message})
}
