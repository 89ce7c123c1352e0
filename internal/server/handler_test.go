package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudsearch-labs/docsearch/internal/indexer"
	"github.com/cloudsearch-labs/docsearch/internal/indexer/index"
	"github.com/cloudsearch-labs/docsearch/internal/searcher"
)

// newTestHandler wires a Handler against an in-memory store with all
// optional collaborators (cache, collector, archive, metrics) disabled.
func newTestHandler() *Handler {
	store := index.NewStore()
	engine := indexer.NewEngine(store, nil, nil, nil)
	return New(engine, searcher.New(store), nil, nil, nil, nil, 0)
}

func multipartUpload(t *testing.T, filename string, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func TestUpload(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "notes.txt", "cloud storage basics\nsecond line"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	decodeJSON(t, rec, &resp)
	if !strings.HasSuffix(resp.DocID, "_notes.txt") {
		t.Errorf("DocID = %q, want timestamp_notes.txt shape", resp.DocID)
	}
	if resp.Lines != 2 {
		t.Errorf("Lines = %d, want 2", resp.Lines)
	}
	if resp.Size != len("cloud storage basics\nsecond line") {
		t.Errorf("Size = %d, want full content length", resp.Size)
	}

	// the document must be searchable immediately
	rec = httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	var stats index.Stats
	decodeJSON(t, rec, &stats)
	if stats.TotalDocuments != 1 {
		t.Errorf("TotalDocuments after upload = %d, want 1", stats.TotalDocuments)
	}
}

func TestUploadNoFile(t *testing.T) {
	h := newTestHandler()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadOversizedReturns413(t *testing.T) {
	store := index.NewStore()
	engine := indexer.NewEngine(store, nil, nil, nil)
	h := New(engine, searcher.New(store), nil, nil, nil, nil, 64)

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "big.txt", strings.Repeat("x", 1024)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413; body: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	decodeJSON(t, rec, &resp)
	if !strings.Contains(resp["error"], "64") {
		t.Errorf("error = %q, want mention of the byte limit", resp["error"])
	}
}

func TestUploadRejectsNonTxt(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "report.pdf", "binary-ish content"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var resp map[string]string
	decodeJSON(t, rec, &resp)
	if !strings.Contains(resp["error"], ".txt") {
		t.Errorf("error = %q, want mention of .txt", resp["error"])
	}
}

func TestUploadStripsInvalidUTF8(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "binary.txt", "cloud\xff\xfe storage"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp uploadResponse
	decodeJSON(t, rec, &resp)
	// the two invalid bytes are dropped, not replaced
	if resp.Size != len("cloud storage") {
		t.Errorf("Size = %d, want %d", resp.Size, len("cloud storage"))
	}
}

func searchJSON(t *testing.T, h *Handler, query string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "alpha.txt", "cloud storage\ncloud computing"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}

	rec = searchJSON(t, h, "cloud")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var result searcher.Result
	decodeJSON(t, rec, &result)
	if result.Query != "cloud" {
		t.Errorf("Query = %q, want %q", result.Query, "cloud")
	}
	if len(result.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(result.Results))
	}
	if result.Results[0].Matches != 2 {
		t.Errorf("Matches = %d, want 2", result.Results[0].Matches)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	h := newTestHandler()

	for _, query := range []string{"", "   "} {
		rec := searchJSON(t, h, query)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Search(%q) status = %d, want 400", query, rec.Code)
		}
	}
}

func TestSearchInvalidJSON(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReset(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.Upload(rec, multipartUpload(t, "alpha.txt", "cloud storage"))

	rec = httptest.NewRecorder()
	h.Reset(rec, httptest.NewRequest(http.MethodPost, "/reset", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	var stats index.Stats
	decodeJSON(t, rec, &stats)
	if stats.TotalDocuments != 0 || stats.TotalUniqueTerms != 0 {
		t.Errorf("after reset, stats = %+v, want empty", stats)
	}
}

func TestDocumentsWithoutArchive(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.Documents(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestDocumentContentWithoutArchive(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.DocumentContent(rec, httptest.NewRequest(http.MethodGet, "/documents/123_notes.txt", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCacheStatsDisabled(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/cache/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	decodeJSON(t, rec, &resp)
	if resp["status"] != "disabled" {
		t.Errorf("status field = %q, want disabled", resp["status"])
	}
}
