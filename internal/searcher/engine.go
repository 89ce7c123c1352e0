// Package searcher resolves keyword queries against the shared index store.
// Queries are normalized and stemmed with the same tokenizer the indexing
// pipeline uses, multi-term queries take AND semantics, and results are
// ranked by raw match count.
package searcher

import (
	"log/slog"
	"sort"
	"time"

	"github.com/cloudsearch-labs/docsearch/internal/indexer/index"
	"github.com/cloudsearch-labs/docsearch/internal/indexer/tokenizer"
)

// maxResultLines caps the matching lines returned per document.
const maxResultLines = 20

// LineMatch is one matching source line.
type LineMatch struct {
	LineNum int    `json:"line_num"`
	Content string `json:"content"`
}

// DocumentResult is one qualifying document with its match details. Matches
// is the raw occurrence count; Lines holds at most maxResultLines distinct
// lines in ascending line order.
type DocumentResult struct {
	Document   string      `json:"document"`
	DocID      string      `json:"doc_id"`
	Matches    int         `json:"matches"`
	TotalLines int         `json:"total_lines"`
	Lines      []LineMatch `json:"lines"`
}

// Result is a complete search response.
type Result struct {
	Query        string           `json:"query"`
	Results      []DocumentResult `json:"results"`
	SearchTimeMs int64            `json:"search_time"`
}

// Engine answers queries against a store. It holds no state of its own.
type Engine struct {
	store  *index.Store
	logger *slog.Logger
}

// New creates an Engine over the given store.
func New(store *index.Store) *Engine {
	return &Engine{
		store:  store,
		logger: slog.Default().With("component", "searcher"),
	}
}

// Search resolves query against the index and returns qualifying documents
// ordered by match count, ties broken by document encounter order. It never
// fails: an empty query, an unknown term, or a multi-term query no document
// satisfies all yield an empty result list.
func (e *Engine) Search(query string) *Result {
	start := time.Now()
	result := &Result{
		Query:   query,
		Results: []DocumentResult{},
	}

	terms := DistinctTerms(query)
	if len(terms) == 0 {
		result.SearchTimeMs = time.Since(start).Milliseconds()
		return result
	}

	// One lock acquisition covers every term of the query.
	postings, docs := e.store.Query(terms)

	type docGroup struct {
		occs    []index.Occurrence
		matched map[string]struct{}
	}
	byDoc := make(map[string]*docGroup)
	order := make([]string, 0)
	for _, term := range terms {
		for _, occ := range postings[term] {
			g, ok := byDoc[occ.DocID]
			if !ok {
				g = &docGroup{matched: make(map[string]struct{}, len(terms))}
				byDoc[occ.DocID] = g
				order = append(order, occ.DocID)
			}
			g.occs = append(g.occs, occ)
			g.matched[term] = struct{}{}
		}
	}

	for _, docID := range order {
		g := byDoc[docID]
		// AND semantics: the document must contain every distinct query
		// term at least once, anywhere in the document.
		if len(g.matched) != len(terms) {
			continue
		}
		meta := docs[docID]
		name := meta.Name
		if name == "" {
			name = docID
		}
		result.Results = append(result.Results, DocumentResult{
			Document:   name,
			DocID:      docID,
			Matches:    len(g.occs),
			TotalLines: meta.Lines,
			Lines:      collectLines(g.occs),
		})
	}

	// Stable sort keeps encounter order for equal match counts.
	sort.SliceStable(result.Results, func(i, j int) bool {
		return result.Results[i].Matches > result.Results[j].Matches
	})

	result.SearchTimeMs = time.Since(start).Milliseconds()
	e.logger.Debug("query resolved",
		"query", query,
		"terms", terms,
		"results", len(result.Results),
	)
	return result
}

// DistinctTerms normalizes and stems a query, dropping duplicate terms
// while keeping first-appearance order.
func DistinctTerms(query string) []string {
	seen := make(map[string]struct{})
	terms := make([]string, 0, 4)
	for _, term := range tokenizer.Terms(query) {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// collectLines deduplicates occurrences by line number, keeping the
// first-seen text per line, and returns up to maxResultLines entries in
// ascending line order.
func collectLines(occs []index.Occurrence) []LineMatch {
	texts := make(map[int]string)
	lineNums := make([]int, 0, len(occs))
	for _, occ := range occs {
		if _, seen := texts[occ.Line]; seen {
			continue
		}
		texts[occ.Line] = occ.LineText
		lineNums = append(lineNums, occ.Line)
	}
	sort.Ints(lineNums)
	if len(lineNums) > maxResultLines {
		lineNums = lineNums[:maxResultLines]
	}
	lines := make([]LineMatch, 0, len(lineNums))
	for _, n := range lineNums {
		lines = append(lines, LineMatch{LineNum: n, Content: texts[n]})
	}
	return lines
}
