package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo, used when no database
// is configured and in tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID: 1,
		data:   make(map[int64]Document),
	}
}

// Create stores a document and assigns it the next numeric id.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.ID = r.nextID
	r.nextID++
	r.data[doc.ID] = doc
	return doc.ID, nil
}

// GetByID returns a document by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns documents newest first, filtered by a case-insensitive name
// substring and an exact category when given.
func (r *MemoryRepo) List(ctx context.Context, search, category string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))

	r.mu.RLock()
	docs := make([]Document, 0, len(r.data))
	for _, doc := range r.data {
		if category != "" && category != "all" && doc.Category != category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(doc.Name), needle) {
			continue
		}
		docs = append(docs, doc)
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})

	return docs, nil
}

// Delete removes a document by id.
func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}
