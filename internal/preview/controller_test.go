package preview

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"fleetdocs-backend/internal/aggregate"
)

type fakeFetcher struct {
	contentType string
	body        string
	err         error

	mu      sync.Mutex
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, numericID string, _ bool) (io.ReadCloser, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	f.mu.Lock()
	f.fetched = append(f.fetched, numericID)
	f.mu.Unlock()
	return io.NopCloser(strings.NewReader(f.body)), f.contentType, nil
}

func TestPreviewReplaceReleasesOldExactlyOnce(t *testing.T) {
	f := &fakeFetcher{contentType: "application/pdf", body: "%PDF-1.4"}
	c := &Controller{Fetcher: f, TempDir: t.TempDir()}

	first, err := c.Preview(context.Background(), aggregate.Document{ID: "1", Name: "a.pdf"})
	if err != nil {
		t.Fatalf("preview a: %v", err)
	}
	if _, err := os.Stat(first.Path); err != nil {
		t.Fatalf("first temp file should exist: %v", err)
	}

	second, err := c.Preview(context.Background(), aggregate.Document{ID: "2", Name: "b.pdf"})
	if err != nil {
		t.Fatalf("preview b: %v", err)
	}

	if _, err := os.Stat(first.Path); !os.IsNotExist(err) {
		t.Fatal("first temp file should be released on replacement")
	}
	if _, err := os.Stat(second.Path); err != nil {
		t.Fatalf("second temp file must stay live: %v", err)
	}

	// Releasing the old session again must not touch anything else.
	first.Release()
	if _, err := os.Stat(second.Path); err != nil {
		t.Fatalf("second temp file must survive a repeat release: %v", err)
	}

	c.Close()
	if _, err := os.Stat(second.Path); !os.IsNotExist(err) {
		t.Fatal("close should release the active session")
	}
	if c.Active() != nil {
		t.Fatal("no session should be active after close")
	}
}

func TestPreviewUnknownContentType(t *testing.T) {
	f := &fakeFetcher{contentType: "application/zip", body: "PK"}
	c := &Controller{Fetcher: f, TempDir: t.TempDir()}

	_, err := c.Preview(context.Background(), aggregate.Document{ID: "3", Name: "archive.zip"})
	if err == nil || !strings.Contains(err.Error(), "preview unavailable") {
		t.Fatalf("expected ErrPreviewUnavailable, got %v", err)
	}

	entries, _ := os.ReadDir(c.TempDir)
	if len(entries) != 0 {
		t.Fatalf("temp file must be cleaned up, found %d entries", len(entries))
	}
}

func TestPreviewUsesNumericID(t *testing.T) {
	f := &fakeFetcher{contentType: "application/pdf", body: "%PDF-1.4"}
	c := &Controller{Fetcher: f, TempDir: t.TempDir()}

	if _, err := c.Preview(context.Background(), aggregate.Document{ID: "agr_42", Name: "deal.pdf"}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(f.fetched) != 1 || f.fetched[0] != "42" {
		t.Fatalf("expected numeric id 42, got %v", f.fetched)
	}
}

func TestDownloadWritesFileAndCleansTemp(t *testing.T) {
	tempDir := t.TempDir()
	destDir := t.TempDir()
	f := &fakeFetcher{contentType: "image/png", body: "pngbytes"}
	c := &Controller{Fetcher: f, TempDir: tempDir}

	dest, err := c.Download(context.Background(), aggregate.Document{ID: "7", Name: "truck photo"}, destDir)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Base(dest) != "truck photo.png" {
		t.Fatalf("expected extension from content type, got %q", filepath.Base(dest))
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "pngbytes" {
		t.Fatalf("downloaded bytes wrong: %q %v", data, err)
	}

	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Fatalf("temp file must be released after download, found %d", len(entries))
	}
}

func TestDownloadFallsBackToNameInference(t *testing.T) {
	f := &fakeFetcher{contentType: "application/octet-stream", body: "bytes"}
	c := &Controller{Fetcher: f, TempDir: t.TempDir()}

	dest, err := c.Download(context.Background(), aggregate.Document{ID: "9", Name: "scan.jpg"}, t.TempDir())
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Base(dest) != "scan.jpg" {
		t.Fatalf("expected name inference to keep scan.jpg, got %q", filepath.Base(dest))
	}
}

func TestConcurrentPreviewNeverDoubleReleases(t *testing.T) {
	f := &fakeFetcher{contentType: "application/pdf", body: "%PDF-1.4"}
	c := &Controller{Fetcher: f, TempDir: t.TempDir()}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = c.Preview(context.Background(), aggregate.Document{ID: "1", Name: "a.pdf"})
		}(i)
	}
	wg.Wait()

	entries, _ := os.ReadDir(c.TempDir)
	if len(entries) != 1 {
		t.Fatalf("exactly one live temp file expected, found %d", len(entries))
	}
	c.Close()
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/documents/12/file" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	f := &HTTPFetcher{BaseURL: srv.URL}
	body, ctype, err := f.Fetch(context.Background(), "12", false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer body.Close()
	if ctype != "application/pdf" {
		t.Fatalf("content type: %q", ctype)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "%PDF-1.4" {
		t.Fatalf("body: %q", data)
	}

	if _, _, err := f.Fetch(context.Background(), "99", false); err == nil {
		t.Fatal("expected error for missing document")
	}
}
