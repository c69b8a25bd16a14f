package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"fleetdocs-backend/internal/category"
	"fleetdocs-backend/internal/classify"
	"fleetdocs-backend/internal/docmime"
	"fleetdocs-backend/internal/extract"
	"fleetdocs-backend/internal/shared/metrics"
	"fleetdocs-backend/internal/shared/storage/object"
	"fleetdocs-backend/internal/shared/telemetry"
)

// Service contains business logic for documents.
type Service struct {
	Store      object.ObjectStore
	Repo       Repo
	Classifier classify.Classifier
	Metrics    *metrics.Metrics
}

// UploadRequest carries a decoded upload payload.
type UploadRequest struct {
	Name       string
	Category   string
	Data       []byte
	MimeHint   string
	ExpiryDate string
}

// Upload persists the payload bytes and records the document. An empty or
// unknown category falls back to the filename rule table.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (Document, error) {
	if strings.TrimSpace(req.Name) == "" {
		return Document{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(req.Data) == 0 {
		return Document{}, fmt.Errorf("%w: file data is required", ErrInvalidInput)
	}

	cat := req.Category
	if cat == "" || !category.Known(cat) {
		cat = string(category.Detect(req.Name))
	}

	storageKey, size, _, err := s.Store.Save(ctx, req.Name, bytes.NewReader(req.Data))
	if err != nil {
		return Document{}, fmt.Errorf("save document bytes: %w", err)
	}

	doc := Document{
		Name:       req.Name,
		Category:   cat,
		MimeType:   docmime.Infer(req.MimeHint, req.Name),
		SizeBytes:  size,
		StorageKey: storageKey,
		ExpiryDate: req.ExpiryDate,
		UploadedAt: time.Now().UTC(),
	}

	id, err := s.Repo.Create(ctx, doc)
	if err != nil {
		// The stored object is orphaned if the insert fails; reclaim it.
		if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Warn("documents.orphan_cleanup_failed", map[string]any{
				"storage_key": storageKey,
				"err":         delErr.Error(),
			})
		}
		return Document{}, err
	}
	doc.ID = id

	if s.Metrics != nil {
		s.Metrics.IncDocumentUploaded()
	}

	return doc, nil
}

// Digitize sends the payload through OCR classification. With autoSave the
// classified document is persisted immediately and the result carries the
// new id. Confidence is reported as-is; a low-confidence result still saves.
func (s *Service) Digitize(ctx context.Context, data []byte, filename string, autoSave bool) (classify.Result, error) {
	if len(data) == 0 || strings.TrimSpace(filename) == "" {
		return classify.Result{}, fmt.Errorf("%w: file data and filename are required", ErrInvalidInput)
	}
	if s.Classifier == nil {
		return classify.Result{}, fmt.Errorf("%w: no classifier configured", classify.ErrUnavailable)
	}

	start := time.Now()
	result, err := s.Classifier.Classify(ctx, data, filename, autoSave)
	if s.Metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.Metrics.ObserveClassify(status, time.Since(start))
	}
	if err != nil {
		return classify.Result{}, err
	}

	// Scanned images have no local text layer; for digital-native files the
	// locally extracted count stands in when the sidecar omits one.
	if result.LineCount == 0 {
		result.LineCount = extract.LineCount(ctx, data, "", filename)
	}

	if autoSave {
		doc, err := s.Upload(ctx, UploadRequest{
			Name:       filename,
			Category:   result.Category,
			Data:       data,
			ExpiryDate: result.SuggestedExpiry,
		})
		if err != nil {
			return classify.Result{}, fmt.Errorf("auto-save classified document: %w", err)
		}
		result.SavedDocumentID = doc.ID
	}

	return result, nil
}

// List returns documents with optional search and category filters.
func (s *Service) List(ctx context.Context, search, category string) ([]Document, error) {
	return s.Repo.List(ctx, search, category)
}

// Get returns one document by id.
func (s *Service) Get(ctx context.Context, id int64) (Document, error) {
	return s.Repo.GetByID(ctx, id)
}

// Delete removes the document record and its stored bytes.
func (s *Service) Delete(ctx context.Context, id int64) error {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if doc.StorageKey != "" {
		if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
			telemetry.Warn("documents.delete_bytes_failed", map[string]any{
				"document_id": id,
				"err":         err.Error(),
			})
		}
	}
	if s.Metrics != nil {
		s.Metrics.IncDocumentDeleted()
	}
	return nil
}

// OpenFile returns the stored bytes for a document along with its record.
func (s *Service) OpenFile(ctx context.Context, id int64) (io.ReadCloser, Document, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, Document{}, err
	}
	if doc.StorageKey == "" {
		return nil, Document{}, ErrNotFound
	}
	reader, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, Document{}, fmt.Errorf("open document bytes: %w", err)
	}
	return reader, doc, nil
}
