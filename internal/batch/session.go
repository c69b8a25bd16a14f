// Package batch coordinates multi-file uploads. A session accumulates
// pending files, lets each be edited in place, and submits them either as
// plain uploads or through OCR digitization.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fleetdocs-backend/internal/category"
	"fleetdocs-backend/internal/classify"
	"fleetdocs-backend/internal/docmime"
	"fleetdocs-backend/internal/documents"
)

// Uploader persists a single pending file as a document.
type Uploader interface {
	Upload(ctx context.Context, req documents.UploadRequest) (documents.Document, error)
}

// Digitizer classifies a single pending file through OCR.
type Digitizer interface {
	Digitize(ctx context.Context, data []byte, filename string, autoSave bool) (classify.Result, error)
}

// PendingUpload is one file staged in a session. The edited flags record
// which fields the user set by hand; digitization never overwrites those.
type PendingUpload struct {
	Data       []byte `json:"-"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	ExpiryDate string `json:"expiryDate,omitempty"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`

	NameEdited     bool `json:"-"`
	CategoryEdited bool `json:"-"`
	ExpiryEdited   bool `json:"-"`
}

// FilePatch is a partial update to a pending file. Nil fields are untouched.
type FilePatch struct {
	Name       *string `json:"name"`
	Category   *string `json:"category"`
	ExpiryDate *string `json:"expiryDate"`
}

// BatchError reports which file in a submission failed. Files before the
// index are already committed; files after it were never attempted.
type BatchError struct {
	Index    int
	FileName string
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch item %d (%s): %v", e.Index, e.FileName, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Session holds an ordered list of pending files and, after digitization,
// a result slice correlated with the files by position. All methods are
// safe for concurrent use.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	files   []*PendingUpload
	results []*classify.Result
}

// AddFiles appends files to the session. Empty categories are filled from
// the filename rule table. Any results from a previous digitization are
// discarded, since the file list they correlated with has changed.
func (s *Session) AddFiles(files ...*PendingUpload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range files {
		if f.Category == "" {
			f.Category = string(category.Detect(f.Name))
		}
		if f.MimeType == "" {
			f.MimeType = docmime.Infer("", f.Name)
		}
		if f.SizeBytes == 0 {
			f.SizeBytes = int64(len(f.Data))
		}
		s.files = append(s.files, f)
	}
	s.results = make([]*classify.Result, len(s.files))
}

// RemoveFile drops the file at index along with its correlated result, so
// later entries keep lining up with their own results.
func (s *Session) RemoveFile(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.files) {
		return fmt.Errorf("file index %d out of range", index)
	}
	s.files = append(s.files[:index], s.files[index+1:]...)
	if index < len(s.results) {
		s.results = append(s.results[:index], s.results[index+1:]...)
	}
	return nil
}

// UpdateFile merges a patch into the file at index and marks the touched
// fields as user-edited.
func (s *Session) UpdateFile(index int, patch FilePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.files) {
		return fmt.Errorf("file index %d out of range", index)
	}
	f := s.files[index]
	if patch.Name != nil {
		f.Name = *patch.Name
		f.NameEdited = true
	}
	if patch.Category != nil {
		f.Category = *patch.Category
		f.CategoryEdited = true
	}
	if patch.ExpiryDate != nil {
		f.ExpiryDate = *patch.ExpiryDate
		f.ExpiryEdited = true
	}
	return nil
}

// Files returns a snapshot of the pending files.
func (s *Session) Files() []PendingUpload {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingUpload, len(s.files))
	for i, f := range s.files {
		out[i] = *f
	}
	return out
}

// Results returns a snapshot of the digitization results, positionally
// correlated with Files. Entries are nil for files never digitized.
func (s *Session) Results() []*classify.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*classify.Result, len(s.results))
	copy(out, s.results)
	return out
}

// SubmitPlain uploads the pending files one at a time, in order. The first
// failure stops the batch; documents saved before it stay saved. Returns
// the documents committed so far and, on failure, a *BatchError. When every
// file commits the batch is cleared, so resubmitting the same session never
// duplicates documents.
func (s *Session) SubmitPlain(ctx context.Context, up Uploader) ([]documents.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]documents.Document, 0, len(s.files))
	for i, f := range s.files {
		doc, err := up.Upload(ctx, documents.UploadRequest{
			Name:       f.Name,
			Category:   f.Category,
			Data:       f.Data,
			MimeHint:   f.MimeType,
			ExpiryDate: f.ExpiryDate,
		})
		if err != nil {
			return saved, &BatchError{Index: i, FileName: f.Name, Err: err}
		}
		saved = append(saved, doc)
	}

	s.files = nil
	s.results = nil
	return saved, nil
}

// SubmitDigitize classifies the pending files one at a time, in order, with
// auto-save enabled so the sidecar persists each document as it goes. Each
// successful result is stored at the file's position, and its suggested
// category and expiry are copied onto the entry unless the user already
// edited that field. The first failure stops the batch; earlier files keep
// their results and mutations. When every file succeeds the batch is
// cleared, so resubmitting the same session never duplicates documents;
// the returned results are the caller's copy.
func (s *Session) SubmitDigitize(ctx context.Context, dig Digitizer) ([]*classify.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.results) != len(s.files) {
		s.results = make([]*classify.Result, len(s.files))
	}

	for i, f := range s.files {
		result, err := dig.Digitize(ctx, f.Data, f.Name, true)
		if err != nil {
			return s.resultsLocked(), &BatchError{Index: i, FileName: f.Name, Err: err}
		}
		res := result
		s.results[i] = &res

		if result.Category != "" && !f.CategoryEdited {
			f.Category = result.Category
		}
		if result.SuggestedExpiry != "" && !f.ExpiryEdited {
			f.ExpiryDate = result.SuggestedExpiry
		}
	}

	out := s.resultsLocked()
	s.files = nil
	s.results = nil
	return out, nil
}

// SavedDocumentIDs lists ids the sidecar assigned during digitization.
func (s *Session) SavedDocumentIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for _, r := range s.results {
		if r != nil && r.SavedDocumentID != 0 {
			ids = append(ids, r.SavedDocumentID)
		}
	}
	return ids
}

func (s *Session) resultsLocked() []*classify.Result {
	out := make([]*classify.Result, len(s.results))
	copy(out, s.results)
	return out
}
