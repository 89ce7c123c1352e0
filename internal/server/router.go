package server

import (
	"net/http"
	"time"

	"github.com/cloudsearch-labs/docsearch/internal/analytics"
	"github.com/cloudsearch-labs/docsearch/pkg/health"
	"github.com/cloudsearch-labs/docsearch/pkg/metrics"
	"github.com/cloudsearch-labs/docsearch/pkg/middleware"
)

// NewRouter builds the full HTTP handler with all routes and middleware.
//
// Route table:
//
//	GET    /                → upload/search page
//	POST   /upload          → index one text file
//	POST   /search          → keyword query
//	GET    /stats           → index statistics
//	POST   /reset           → clear the index
//	GET    /documents       → archived raw uploads
//	GET    /documents/{id}  → one archived document's content
//	GET    /cache/stats     → search cache hit/miss counters
//	GET    /analytics       → aggregated search analytics
//	GET    /health/live     → liveness probe
//	GET    /health/ready    → readiness probe
//
// Middleware chain (outermost first): RequestID → Metrics → Timeout.
func NewRouter(h *Handler, analyticsH *analytics.Handler, checker *health.Checker, m *metrics.Metrics, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("POST /upload", h.Upload)
	mux.HandleFunc("POST /search", h.Search)
	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("POST /reset", h.Reset)
	mux.HandleFunc("GET /documents", h.Documents)
	mux.HandleFunc("GET /documents/{id}", h.DocumentContent)
	mux.HandleFunc("GET /cache/stats", h.CacheStats)
	if analyticsH != nil {
		mux.HandleFunc("GET /analytics", analyticsH.Stats)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if requestTimeout > 0 {
		chain = middleware.Timeout(requestTimeout)(chain)
	}
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)
	return chain
}
