// Package aggregate merges uploaded documents and agreement records into the
// single normalized view the dashboard renders. Nothing here is persisted;
// the projection is recomputed on every read.
package aggregate

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"fleetdocs-backend/internal/agreements"
	"fleetdocs-backend/internal/documents"
)

// Document statuses.
const (
	StatusActive       = "active"
	StatusExpiringSoon = "expiring_soon"
	StatusExpired      = "expired"
	StatusPending      = "pending"
)

// Source kinds.
const (
	SourceUpload    = "upload"
	SourceAgreement = "agreement"
)

// expiringWindow is how far ahead an expiry date counts as expiring soon.
const expiringWindow = 30 * 24 * time.Hour

// Document is the unified read-time projection of an upload or agreement.
// Timestamps are ISO-8601 strings; their lexical order equals their
// chronological order, which the sort below relies on.
type Document struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Status     string `json:"status"`
	UploadedAt string `json:"uploadedAt"`
	ExpiryDate string `json:"expiryDate,omitempty"`
	SizeBytes  int64  `json:"sizeBytes"`
	SourceKind string `json:"sourceKind"`
}

// Query filters and orders an aggregated list.
type Query struct {
	Category string // exact category or "all"/""
	Status   string // exact status or "all"/""
	Search   string // case-insensitive substring over name and category
	Sort     string // newest (default), oldest, name
}

// Aggregate merges uploads and agreements into one projection. Agreement
// ids are namespaced with "agr_" so they cannot collide with upload ids,
// which share a plain numeric space.
func Aggregate(uploads []documents.Document, agrs []agreements.Agreement, now time.Time) []Document {
	out := make([]Document, 0, len(uploads)+len(agrs))

	for _, u := range uploads {
		out = append(out, Document{
			ID:         strconv.FormatInt(u.ID, 10),
			Name:       u.Name,
			Category:   u.Category,
			Status:     UploadStatus(u.ExpiryDate, now),
			UploadedAt: u.UploadedAt.UTC().Format(time.RFC3339),
			ExpiryDate: u.ExpiryDate,
			SizeBytes:  u.SizeBytes,
			SourceKind: SourceUpload,
		})
	}

	for _, a := range agrs {
		out = append(out, Document{
			ID:         "agr_" + strconv.FormatInt(a.ID, 10),
			Name:       a.Title,
			Category:   "contract",
			Status:     AgreementStatus(a.Status),
			UploadedAt: a.CreatedAt.UTC().Format(time.RFC3339),
			ExpiryDate: a.ExpiresAt,
			SizeBytes:  a.SizeBytes,
			SourceKind: SourceAgreement,
		})
	}

	return out
}

// AgreementStatus maps agreement workflow states onto document statuses.
// Unknown states pass through unchanged rather than being coerced.
func AgreementStatus(status string) string {
	switch status {
	case "signed", "active":
		return StatusActive
	case "expired":
		return StatusExpired
	case "draft":
		return StatusPending
	default:
		return status
	}
}

// UploadStatus derives a status from an ISO expiry date. Documents without
// an expiry never expire.
func UploadStatus(expiryDate string, now time.Time) string {
	if expiryDate == "" {
		return StatusActive
	}
	expiry, err := time.Parse("2006-01-02", expiryDate)
	if err != nil {
		return StatusActive
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if expiry.Before(today) {
		return StatusExpired
	}
	if expiry.Sub(today) <= expiringWindow {
		return StatusExpiringSoon
	}
	return StatusActive
}

// Apply filters and sorts the projection per the query.
func Apply(docs []Document, q Query) []Document {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if q.Category != "" && q.Category != "all" && d.Category != q.Category {
			continue
		}
		if q.Status != "" && q.Status != "all" && d.Status != q.Status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(d.Name), needle) &&
			!strings.Contains(strings.ToLower(d.Category), needle) {
			continue
		}
		out = append(out, d)
	}

	switch q.Sort {
	case "oldest":
		sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt < out[j].UploadedAt })
	case "name":
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	default: // newest
		sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt > out[j].UploadedAt })
	}

	return out
}

// NumericID strips non-digit characters from a namespaced id, yielding the
// numeric id the binary endpoint expects. "agr_7" and "7" both map to "7".
// The namespacing scheme and this derivation must change together.
func NumericID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Stats summarizes a projection for the dashboard header.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
}

// Summarize counts documents per status bucket.
func Summarize(docs []Document) Stats {
	s := Stats{Total: len(docs)}
	for _, d := range docs {
		switch d.Status {
		case StatusActive:
			s.Active++
		case StatusExpiringSoon:
			s.Expiring++
		case StatusExpired:
			s.Expired++
		}
	}
	return s
}
