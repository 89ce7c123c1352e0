package index

import "time"

// Occurrence is one recorded appearance of a term: which document it came
// from, the 1-based line number, the 0-based word position within that
// line's normalized token stream, and a display copy of the source line.
type Occurrence struct {
	DocID    string `json:"doc_id"`
	Line     int    `json:"line"`
	Position int    `json:"position"`
	LineText string `json:"original_line"`
}

// DocumentMeta describes one indexed document. A record is written when the
// document is indexed and never mutated afterwards.
type DocumentMeta struct {
	Name      string    `json:"name"`
	Size      int       `json:"size"`
	Lines     int       `json:"lines"`
	IndexedAt time.Time `json:"indexed_at"`
}

// DocumentSummary is the per-document slice of a Stats report.
type DocumentSummary struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Lines int    `json:"lines"`
}

// Stats summarises the whole index.
type Stats struct {
	TotalDocuments   int               `json:"total_documents"`
	TotalUniqueTerms int               `json:"total_unique_terms"`
	Documents        []DocumentSummary `json:"documents"`
}
