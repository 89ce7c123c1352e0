// Package server exposes the document search service over HTTP: the
// embedded upload/search page, the upload, search, stats, and reset
// endpoints, and the archive listing.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudsearch-labs/docsearch/internal/analytics"
	"github.com/cloudsearch-labs/docsearch/internal/archive"
	"github.com/cloudsearch-labs/docsearch/internal/indexer"
	"github.com/cloudsearch-labs/docsearch/internal/searcher"
	"github.com/cloudsearch-labs/docsearch/internal/searcher/cache"
	apperrors "github.com/cloudsearch-labs/docsearch/pkg/errors"
	"github.com/cloudsearch-labs/docsearch/pkg/logger"
	"github.com/cloudsearch-labs/docsearch/pkg/metrics"
	"github.com/cloudsearch-labs/docsearch/pkg/middleware"
)

// Handler carries the wired collaborators for every endpoint. The cache,
// collector, archive, and metrics may each be nil; endpoints degrade
// gracefully without them.
type Handler struct {
	engine       *indexer.Engine
	search       *searcher.Engine
	cache        *cache.QueryCache
	collector    *analytics.Collector
	archive      *archive.Archive
	metrics      *metrics.Metrics
	maxFileBytes int64
	logger       *slog.Logger
}

// New creates a Handler.
func New(engine *indexer.Engine, search *searcher.Engine, queryCache *cache.QueryCache, collector *analytics.Collector, arch *archive.Archive, m *metrics.Metrics, maxFileBytes int64) *Handler {
	if maxFileBytes <= 0 {
		maxFileBytes = 10 << 20
	}
	return &Handler{
		engine:       engine,
		search:       search,
		cache:        queryCache,
		collector:    collector,
		archive:      arch,
		metrics:      m,
		maxFileBytes: maxFileBytes,
		logger:       slog.Default().With("component", "http-handler"),
	}
}

type uploadResponse struct {
	Message string `json:"message"`
	DocID   string `json:"doc_id"`
	Size    int    `json:"size"`
	Lines   int    `json:"lines"`
}

// Upload accepts one multipart text file, indexes it under a fresh
// time-based doc ID, and invalidates the search cache. Content is coerced
// to valid UTF-8 by dropping invalid bytes; richer decoding is the
// uploader's problem, the index core only ever sees clean text.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		// MaxBytesReader trips inside the multipart parser for oversized
		// bodies, so the size error surfaces here rather than at read time
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeAppError(w, apperrors.Newf(apperrors.ErrFileTooLarge, http.StatusRequestEntityTooLarge,
				"file exceeds %d bytes", h.maxFileBytes))
			return
		}
		h.writeAppError(w, apperrors.New(apperrors.ErrNoFileProvided, http.StatusBadRequest, "no file provided"))
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." {
		h.writeAppError(w, apperrors.New(apperrors.ErrNoFileProvided, http.StatusBadRequest, "no file selected"))
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".txt") {
		h.writeAppError(w, apperrors.New(apperrors.ErrUnsupportedFileType, http.StatusBadRequest, "only .txt files are supported"))
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		log.Error("reading upload failed", "file", name, "error", err)
		h.writeAppError(w, apperrors.New(apperrors.ErrFileTooLarge, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds %d bytes", h.maxFileBytes)))
		return
	}
	content := strings.ToValidUTF8(string(raw), "")

	docID := fmt.Sprintf("%d_%s", time.Now().Unix(), name)
	h.engine.IndexDocument(ctx, docID, name, content)
	h.invalidateCache(ctx)

	log.Info("document uploaded",
		"doc_id", docID,
		"name", name,
		"size_bytes", len(content),
	)
	h.writeJSON(w, http.StatusOK, uploadResponse{
		Message: fmt.Sprintf("successfully uploaded and indexed %s", name),
		DocID:   docID,
		Size:    len(content),
		Lines:   strings.Count(content, "\n") + 1,
	})
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search answers a keyword query. The engine itself never fails; the only
// error surface here is request validation.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeAppError(w, apperrors.New(apperrors.ErrEmptyQuery, http.StatusBadRequest, "no query provided"))
		return
	}

	var result *searcher.Result
	cacheHit := false
	if h.cache != nil {
		var err error
		result, cacheHit, err = h.cache.GetOrCompute(ctx, req.Query, func() (*searcher.Result, error) {
			return h.search.Search(req.Query), nil
		})
		if err != nil {
			log.Error("search failed", "query", req.Query, "error", err)
			h.writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
	} else {
		result = h.search.Search(req.Query)
	}

	latency := time.Since(start)
	result.Query = req.Query
	result.SearchTimeMs = latency.Milliseconds()

	totalMatches := 0
	for _, doc := range result.Results {
		totalMatches += doc.Matches
	}

	h.recordSearchMetrics(result, cacheHit, latency)
	if h.collector != nil {
		h.collector.Track(analytics.SearchEvent{
			Type:      analytics.EventSearch,
			Query:     req.Query,
			Terms:     searcher.DistinctTerms(req.Query),
			Results:   len(result.Results),
			Matches:   totalMatches,
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	log.Info("search completed",
		"query", req.Query,
		"results", len(result.Results),
		"matches", totalMatches,
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

// Stats reports index statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Stats())
}

// Reset clears the index and the search cache. The archive is durable
// storage and is deliberately left untouched.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.engine.Reset()
	h.invalidateCache(r.Context())
	logger.FromContext(r.Context()).Info("index reset requested")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Documents lists the archived raw uploads.
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.writeAppError(w, apperrors.New(apperrors.ErrArchiveUnavailable, http.StatusServiceUnavailable, "archiving is disabled"))
		return
	}
	docs, err := h.archive.List(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("archive listing failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "archive listing failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// DocumentContent returns the raw archived content of one document.
func (h *Handler) DocumentContent(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.writeAppError(w, apperrors.New(apperrors.ErrArchiveUnavailable, http.StatusServiceUnavailable, "archiving is disabled"))
		return
	}
	docID := r.PathValue("id")
	content, err := h.archive.Content(r.Context(), docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeAppError(w, apperrors.Newf(apperrors.ErrDocumentNotFound, http.StatusNotFound, "no archived document %s", docID))
			return
		}
		logger.FromContext(r.Context()).Error("archive fetch failed", "doc_id", docID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "archive fetch failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"doc_id": docID, "content": content})
}

// CacheStats reports hit/miss counters for the search cache.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) invalidateCache(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
	}
}

func (h *Handler) recordSearchMetrics(result *searcher.Result, cacheHit bool, latency time.Duration) {
	if h.metrics == nil {
		return
	}
	resultType := "hit"
	if len(result.Results) == 0 {
		resultType = "zero_result"
	}
	cacheStatus := "miss"
	if h.cache == nil {
		cacheStatus = "disabled"
	} else if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	}
	if h.cache != nil && !cacheHit {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(len(result.Results)))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeAppError(w http.ResponseWriter, err *apperrors.AppError) {
	h.writeJSON(w, err.StatusCode, map[string]string{"error": err.Message})
}
