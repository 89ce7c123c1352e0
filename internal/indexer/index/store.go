// Package index holds the in-memory inverted index: a term-to-occurrence
// mapping plus a document metadata table, guarded as a unit by a single
// reader-writer lock. Every public operation is exactly one lock
// acquisition, so readers never observe a partially indexed document.
package index

import (
	"strings"
	"sync"
	"time"

	"github.com/cloudsearch-labs/docsearch/internal/indexer/tokenizer"
)

// maxLineText caps the stored copy of a source line at 200 characters.
const maxLineText = 200

// Store is the shared index instance. Occurrences are append-only; the only
// way to remove anything is a full Reset.
type Store struct {
	mu       sync.RWMutex
	postings map[string][]Occurrence
	docs     map[string]DocumentMeta
	docOrder []string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		postings: make(map[string][]Occurrence),
		docs:     make(map[string]DocumentMeta),
	}
}

// AddDocument splits content into lines, records the document's metadata,
// and appends one Occurrence per normalized, stemmed token. Blank lines are
// skipped entirely; non-blank lines keep their original line numbers.
// Calling AddDocument twice with the same docID appends duplicate
// occurrences, so callers must mint a fresh docID per upload. The returned
// count is the number of tokens indexed.
func (s *Store) AddDocument(docID string, name string, content string) int {
	lines := strings.Split(content, "\n")
	meta := DocumentMeta{
		Name:      name,
		Size:      len(content),
		Lines:     len(lines),
		IndexedAt: time.Now().UTC(),
	}

	// Tokenize outside the lock; only the appends need exclusion.
	type entry struct {
		term string
		occ  Occurrence
	}
	entries := make([]entry, 0, 64)
	for lineNum, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > maxLineText {
			// cap is in characters, not bytes; never split a rune
			if runes := []rune(trimmed); len(runes) > maxLineText {
				trimmed = string(runes[:maxLineText])
			}
		}
		for position, term := range tokenizer.Terms(line) {
			entries = append(entries, entry{
				term: term,
				occ: Occurrence{
					DocID:    docID,
					Line:     lineNum + 1,
					Position: position,
					LineText: trimmed,
				},
			})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[docID]; !exists {
		s.docOrder = append(s.docOrder, docID)
	}
	s.docs[docID] = meta
	for _, e := range entries {
		s.postings[e.term] = append(s.postings[e.term], e.occ)
	}
	return len(entries)
}

// Query returns, under one read-lock acquisition, copies of the posting
// lists for every requested term present in the index, together with the
// metadata of every document those postings reference. Collecting all terms
// atomically means a multi-term search never sees half of a concurrent
// upload.
func (s *Store) Query(terms []string) (map[string][]Occurrence, map[string]DocumentMeta) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	postings := make(map[string][]Occurrence, len(terms))
	docs := make(map[string]DocumentMeta)
	for _, term := range terms {
		occs, ok := s.postings[term]
		if !ok {
			continue
		}
		cp := make([]Occurrence, len(occs))
		copy(cp, occs)
		postings[term] = cp
		for _, occ := range occs {
			if _, seen := docs[occ.DocID]; !seen {
				docs[occ.DocID] = s.docs[occ.DocID]
			}
		}
	}
	return postings, docs
}

// Stats reports document and distinct-term counts plus per-document
// summaries in first-indexed order.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		TotalDocuments:   len(s.docs),
		TotalUniqueTerms: len(s.postings),
		Documents:        make([]DocumentSummary, 0, len(s.docs)),
	}
	for _, docID := range s.docOrder {
		meta := s.docs[docID]
		st.Documents = append(st.Documents, DocumentSummary{
			Name:  meta.Name,
			Size:  meta.Size,
			Lines: meta.Lines,
		})
	}
	return st
}

// TermCount returns the number of distinct terms in the index.
func (s *Store) TermCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.postings)
}

// DocCount returns the number of indexed documents.
func (s *Store) DocCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Reset discards the index and the metadata table together. It takes the
// write lock, so it is mutually exclusive with every other operation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postings = make(map[string][]Occurrence)
	s.docs = make(map[string]DocumentMeta)
	s.docOrder = nil
}
