// Package archive persists raw uploaded documents to PostgreSQL. The index
// is authoritative and purely in memory; the archive is a best-effort
// durable copy of what was uploaded, so a failed write degrades durability
// but never blocks indexing. A circuit breaker keeps a down database from
// being hammered on every upload.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudsearch-labs/docsearch/pkg/metrics"
	"github.com/cloudsearch-labs/docsearch/pkg/postgres"
	"github.com/cloudsearch-labs/docsearch/pkg/resilience"
)

// ArchivedDocument is one row of the archive listing.
type ArchivedDocument struct {
	DocID      string    `json:"doc_id"`
	Name       string    `json:"name"`
	SizeBytes  int       `json:"size_bytes"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Archive stores raw document uploads in PostgreSQL.
type Archive struct {
	db      *postgres.Client
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Archive over the given database client. The metrics may be
// nil.
func New(db *postgres.Client, m *metrics.Metrics) *Archive {
	return &Archive{
		db:      db,
		breaker: resilience.NewCircuitBreaker("archive", resilience.CircuitBreakerConfig{}),
		metrics: m,
		logger:  slog.Default().With("component", "archive"),
	}
}

// EnsureSchema creates the archive table if it does not exist yet.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	_, err := a.db.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS archived_documents (
			doc_id      TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			content     TEXT NOT NULL,
			size_bytes  INTEGER NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("creating archive schema: %w", err)
	}
	return nil
}

// Save writes one uploaded document. Doc IDs are unique per upload, but the
// write is an upsert so a retried upload never fails on conflict.
func (a *Archive) Save(ctx context.Context, docID string, name string, content string) error {
	err := a.breaker.Execute(func() error {
		return a.db.InTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO archived_documents (doc_id, name, content, size_bytes)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (doc_id) DO UPDATE
				SET name = EXCLUDED.name, content = EXCLUDED.content, size_bytes = EXCLUDED.size_bytes`,
				docID, name, content, len(content))
			return err
		})
	})
	if a.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		a.metrics.ArchiveWritesTotal.WithLabelValues(status).Inc()
	}
	if err != nil {
		return fmt.Errorf("archiving document %s: %w", docID, err)
	}
	a.logger.Debug("document archived", "doc_id", docID, "size_bytes", len(content))
	return nil
}

// List returns the archived documents, newest first.
func (a *Archive) List(ctx context.Context) ([]ArchivedDocument, error) {
	rows, err := a.db.DB.QueryContext(ctx, `
		SELECT doc_id, name, size_bytes, archived_at
		FROM archived_documents
		ORDER BY archived_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing archived documents: %w", err)
	}
	defer rows.Close()

	docs := make([]ArchivedDocument, 0)
	for rows.Next() {
		var d ArchivedDocument
		if err := rows.Scan(&d.DocID, &d.Name, &d.SizeBytes, &d.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scanning archived document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Content returns the raw content of one archived document.
func (a *Archive) Content(ctx context.Context, docID string) (string, error) {
	var content string
	err := a.db.DB.QueryRowContext(ctx,
		`SELECT content FROM archived_documents WHERE doc_id = $1`, docID).Scan(&content)
	if err != nil {
		return "", fmt.Errorf("fetching archived document %s: %w", docID, err)
	}
	return content, nil
}

// Ping reports whether the archive database is reachable.
func (a *Archive) Ping(ctx context.Context) error {
	return a.db.Ping(ctx)
}

// BreakerState exposes the circuit breaker state for health reporting.
func (a *Archive) BreakerState() resilience.State {
	return a.breaker.GetState()
}
