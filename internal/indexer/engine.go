// Package indexer wires the indexing pipeline together: raw document text
// flows through the tokenizer into the index store, metrics and analytics
// events are recorded, and the original upload is archived best-effort.
package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloudsearch-labs/docsearch/internal/analytics"
	"github.com/cloudsearch-labs/docsearch/internal/archive"
	"github.com/cloudsearch-labs/docsearch/internal/indexer/index"
	"github.com/cloudsearch-labs/docsearch/pkg/metrics"
)

// Engine coordinates one shared index store with the optional collaborators
// around it. The archive, collector, and metrics may each be nil; indexing
// itself never depends on them.
type Engine struct {
	store     *index.Store
	archive   *archive.Archive
	collector *analytics.Collector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewEngine creates an Engine over the given store.
func NewEngine(store *index.Store, arch *archive.Archive, collector *analytics.Collector, m *metrics.Metrics) *Engine {
	return &Engine{
		store:     store,
		archive:   arch,
		collector: collector,
		metrics:   m,
		logger:    slog.Default().With("component", "indexer"),
	}
}

// Store exposes the underlying index store for the query side.
func (e *Engine) Store() *index.Store {
	return e.store
}

// IndexDocument indexes content under docID and archives the raw upload.
// Content must already be valid text; the HTTP layer owns decoding and
// validation. Archive failures are logged and swallowed, matching the
// best-effort durability posture: the document is searchable either way.
func (e *Engine) IndexDocument(ctx context.Context, docID string, name string, content string) {
	start := time.Now()
	tokens := e.store.AddDocument(docID, name, content)

	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Inc()
		e.metrics.UploadBytesTotal.Add(float64(len(content)))
		e.metrics.IndexDocuments.Set(float64(e.store.DocCount()))
		e.metrics.IndexUniqueTerms.Set(float64(e.store.TermCount()))
	}

	if e.archive != nil {
		if err := e.archive.Save(ctx, docID, name, content); err != nil {
			e.logger.Warn("could not archive document",
				"doc_id", docID,
				"error", err,
			)
		}
	}

	latency := time.Since(start)
	if e.collector != nil {
		e.collector.Track(analytics.IndexEvent{
			Type:       analytics.EventIndexDoc,
			DocumentID: docID,
			Name:       name,
			TokenCount: tokens,
			SizeBytes:  len(content),
			LatencyMs:  latency.Milliseconds(),
			Timestamp:  time.Now().UTC(),
		})
	}

	e.logger.Info("document indexed",
		"doc_id", docID,
		"name", name,
		"tokens", tokens,
		"size_bytes", len(content),
		"latency_ms", latency.Milliseconds(),
	)
}

// Reset clears the index and metadata table.
func (e *Engine) Reset() {
	e.store.Reset()
	if e.metrics != nil {
		e.metrics.IndexDocuments.Set(0)
		e.metrics.IndexUniqueTerms.Set(0)
	}
	e.logger.Info("index reset")
}

// Stats reports index-wide statistics.
func (e *Engine) Stats() index.Stats {
	return e.store.Stats()
}
