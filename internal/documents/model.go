package documents

import "time"

// Document is a persisted upload. IDs live in a plain numeric space; the
// aggregated dashboard view namespaces agreement ids to avoid colliding
// with these.
type Document struct {
	ID         int64
	Name       string
	Category   string
	MimeType   string
	SizeBytes  int64
	StorageKey string
	ExpiryDate string // ISO date (2006-01-02), empty when the document does not expire
	UploadedAt time.Time
}
