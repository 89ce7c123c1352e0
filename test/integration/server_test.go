// Package integration exercises the full HTTP surface of the search service
// through a real router with middleware, using an httptest server. External
// dependencies (PostgreSQL, Redis, Kafka) are disabled; those paths degrade
// gracefully and are asserted as such.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudsearch-labs/docsearch/internal/indexer"
	"github.com/cloudsearch-labs/docsearch/internal/indexer/index"
	"github.com/cloudsearch-labs/docsearch/internal/searcher"
	"github.com/cloudsearch-labs/docsearch/internal/server"
	"github.com/cloudsearch-labs/docsearch/pkg/health"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := index.NewStore()
	engine := indexer.NewEngine(store, nil, nil, nil)
	h := server.New(engine, searcher.New(store), nil, nil, nil, nil, 1<<20)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp}
	})

	srv := httptest.NewServer(server.NewRouter(h, nil, checker, nil, 10*time.Second))
	t.Cleanup(srv.Close)
	return srv
}

func uploadFile(t *testing.T, baseURL string, filename string, content string) *http.Response {
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
		t.Fatalf("closing writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/upload", &body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	return resp
}

func searchFor(t *testing.T, baseURL string, query string) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	resp, err := http.Post(baseURL+"/search", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("search request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestUploadSearchRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp := uploadFile(t, srv.URL, "cloud.txt",
		"Cloud storage is a model of computer data storage\nObject storage pools hold the data")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = searchFor(t, srv.URL, "storage")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status = %d", resp.StatusCode)
	}

	var result searcher.Result
	decodeBody(t, resp, &result)
	if len(result.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(result.Results))
	}
	doc := result.Results[0]
	if doc.Document != "cloud.txt" {
		t.Errorf("Document = %q, want cloud.txt", doc.Document)
	}
	// "storage" appears twice on line 1 and once on line 2
	if doc.Matches != 3 {
		t.Errorf("Matches = %d, want 3", doc.Matches)
	}
	if len(doc.Lines) != 2 {
		t.Errorf("Lines = %d entries, want 2", len(doc.Lines))
	}
}

func TestStatsAndResetFlow(t *testing.T) {
	srv := newTestServer(t)

	uploadFile(t, srv.URL, "a.txt", "cloud storage").Body.Close()
	uploadFile(t, srv.URL, "b.txt", "cloud computing").Body.Close()

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	var stats index.Stats
	decodeBody(t, resp, &stats)
	if stats.TotalDocuments != 2 {
		t.Errorf("TotalDocuments = %d, want 2", stats.TotalDocuments)
	}

	resp, err = http.Post(srv.URL+"/reset", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	decodeBody(t, resp, &stats)
	if stats.TotalDocuments != 0 {
		t.Errorf("TotalDocuments after reset = %d, want 0", stats.TotalDocuments)
	}
}

func TestHomePageServed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("home status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("<html")) && !bytes.Contains(body, []byte("<!DOCTYPE")) {
		t.Error("home page should serve HTML")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/upload")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /upload status = %d, want 405", resp.StatusCode)
	}
}

func TestArchiveDisabledReturns503(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/documents", "/documents/123_notes.txt"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want 503", path, resp.StatusCode)
		}
	}
}

func TestAnalyticsDisabledIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/analytics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /analytics status = %d, want 404 when analytics is off", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("responses should carry an X-Request-Id header")
	}
}
