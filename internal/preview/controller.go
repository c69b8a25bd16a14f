// Package preview drives the document binary endpoint for client tooling.
// Fetched bytes land in temporary files whose lifetime the controller owns,
// so callers never leak a temp file no matter how previews are replaced.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"fleetdocs-backend/internal/aggregate"
	"fleetdocs-backend/internal/docmime"
	"fleetdocs-backend/internal/shared/util"
)

// ErrPreviewUnavailable marks documents whose content type has no inline
// renderer. Callers fall back to a plain download.
var ErrPreviewUnavailable = errors.New("preview unavailable for content type")

// Fetcher retrieves a document's raw bytes by its numeric id.
type Fetcher interface {
	Fetch(ctx context.Context, numericID string, download bool) (io.ReadCloser, string, error)
}

// HTTPFetcher fetches document bytes from the API's binary endpoint.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// Fetch returns the response body and the Content-Type the server sent.
func (f *HTTPFetcher) Fetch(ctx context.Context, numericID string, download bool) (io.ReadCloser, string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	endpoint := fmt.Sprintf("%s/api/v1/documents/%s/file", f.BaseURL, url.PathEscape(numericID))
	if download {
		endpoint += "?download=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build file request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch document file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("fetch document file: status %d", resp.StatusCode)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Session is one live preview. It owns a temporary file and releases it
// exactly once, no matter how many times Release is called.
type Session struct {
	DocumentName string
	Path         string
	MimeType     string

	release sync.Once
}

// Release deletes the session's temporary file. Safe to call repeatedly;
// only the first call does anything.
func (s *Session) Release() {
	s.release.Do(func() {
		if s.Path != "" {
			os.Remove(s.Path)
		}
	})
}

// Controller previews and downloads documents from the aggregated view.
// At most one preview session is live at a time; starting a new one
// releases the old one.
type Controller struct {
	Fetcher Fetcher
	TempDir string // defaults to the OS temp dir

	mu     sync.Mutex
	active *Session
}

// Preview fetches the document and opens a preview session for it. The
// previous session, if any, is released as part of the swap. Documents
// whose content type cannot be rendered inline return
// ErrPreviewUnavailable without disturbing the current session.
func (c *Controller) Preview(ctx context.Context, doc aggregate.Document) (*Session, error) {
	path, mimeType, err := c.fetchToTemp(ctx, doc)
	if err != nil {
		return nil, err
	}
	if !docmime.Known(mimeType) {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %s", ErrPreviewUnavailable, mimeType)
	}

	next := &Session{
		DocumentName: doc.Name,
		Path:         path,
		MimeType:     mimeType,
	}

	c.mu.Lock()
	prev := c.active
	c.active = next
	c.mu.Unlock()

	if prev != nil {
		prev.Release()
	}
	return next, nil
}

// Download fetches the document into destDir under a filename derived from
// the document name, with an extension matching the resolved content type.
// The intermediate temp file is released before Download returns.
func (c *Controller) Download(ctx context.Context, doc aggregate.Document, destDir string) (string, error) {
	path, mimeType, err := c.fetchToTemp(ctx, doc)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	safe, err := util.SanitizeFileName(doc.Name)
	if err != nil {
		return "", fmt.Errorf("derive download name: %w", err)
	}
	dest := filepath.Join(destDir, docmime.EnsureExtension(safe, mimeType))

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open fetched file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("close %s: %w", dest, err)
	}
	return dest, nil
}

// Active returns the current preview session, or nil.
func (c *Controller) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Close releases the current preview session, if any.
func (c *Controller) Close() {
	c.mu.Lock()
	prev := c.active
	c.active = nil
	c.mu.Unlock()

	if prev != nil {
		prev.Release()
	}
}

// fetchToTemp streams the document into a temp file and resolves its MIME
// type, preferring what the server reported over the filename heuristic.
func (c *Controller) fetchToTemp(ctx context.Context, doc aggregate.Document) (string, string, error) {
	body, contentType, err := c.Fetcher.Fetch(ctx, aggregate.NumericID(doc.ID), false)
	if err != nil {
		return "", "", err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(c.TempDir, "fleetdocs-preview-*")
	if err != nil {
		return "", "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("buffer document bytes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("close temp file: %w", err)
	}

	mimeType := contentType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = docmime.Infer("", doc.Name)
	}
	return tmp.Name(), mimeType, nil
}
