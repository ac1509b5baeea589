package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"doc-registry/internal/metrics"
	"doc-registry/internal/repository"
	"doc-registry/internal/service"

	"github.com/rs/zerolog/log"
)

const (
	createPath = "/api/v3/lk/documents/create"
	docsPrefix = "/api/v3/lk/documents/"
)

// DocumentsHandler exposes the registration API: one admission-controlled
// write and one read by identity.
type DocumentsHandler struct {
	svc        *service.DocumentService
	metrics    *metrics.Registry
	retryAfter string // seconds hint sent with 429 responses
}

// NewDocumentsHandler builds the handler. interval is the gate's refill
// window; it sizes the Retry-After hint on rejections. m may be nil.
func NewDocumentsHandler(svc *service.DocumentService, m *metrics.Registry, interval time.Duration) *DocumentsHandler {
	secs := int64(math.Ceil(interval.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return &DocumentsHandler{
		svc:        svc,
		metrics:    m,
		retryAfter: strconv.FormatInt(secs, 10),
	}
}

func (h *DocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == createPath:
		if r.Method != http.MethodPost {
			writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
			return
		}
		h.create(w, r)
	case strings.HasPrefix(r.URL.Path, docsPrefix):
		if r.Method != http.MethodGet {
			writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
			return
		}
		h.get(w, r)
	default:
		writeError(w, r, http.StatusNotFound, "not_found", "unknown path")
	}
}

func (h *DocumentsHandler) create(w http.ResponseWriter, r *http.Request) {
	if h.metrics != nil {
		h.metrics.Submissions.Inc()
	}

	var doc repository.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed_payload", err.Error())
		return
	}
	if doc.Type != repository.TypeIntroduceGoods {
		writeError(w, r, http.StatusBadRequest, "unknown_doc_type", "unsupported doc_type: "+string(doc.Type))
		return
	}

	created, err := h.svc.Create(r.Context(), doc)
	if err != nil {
		if service.IsRateLimited(err) {
			if h.metrics != nil {
				h.metrics.RateLimited.Inc()
			}
			w.Header().Set("Retry-After", h.retryAfter)
			writeError(w, r, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}
		if h.metrics != nil {
			h.metrics.StoreErrors.Inc()
		}
		log.Error().Err(err).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Msg("document registration failed")
		writeError(w, r, http.StatusInternalServerError, "internal", "failed to register document")
		return
	}

	if h.metrics != nil {
		h.metrics.Created.Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *DocumentsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, docsPrefix), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id", "document id must be an integer")
		return
	}

	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "no document with that id")
			return
		}
		if h.metrics != nil {
			h.metrics.StoreErrors.Inc()
		}
		log.Error().Err(err).Int64("doc_id", id).Msg("document fetch failed")
		writeError(w, r, http.StatusInternalServerError, "internal", "failed to fetch document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":      code,
		"message":    msg,
		"request_id": r.Header.Get("X-Request-ID"),
	})
}
