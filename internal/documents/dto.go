package documents

import "time"

// DocumentResponse is the JSON projection of a stored document.
type DocumentResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
	ExpiryDate string `json:"expirationDate,omitempty"`
	UploadedAt string `json:"uploadedAt"`
}

// ToResponse converts a document to its JSON projection.
func ToResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		Category:   doc.Category,
		MimeType:   doc.MimeType,
		SizeBytes:  doc.SizeBytes,
		ExpiryDate: doc.ExpiryDate,
		UploadedAt: doc.UploadedAt.UTC().Format(time.RFC3339),
	}
}
