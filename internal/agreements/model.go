package agreements

import "time"

// Agreement is a contract record kept by the broker/carrier workflow. The
// document dashboard reads these alongside uploads; it never writes them.
type Agreement struct {
	ID           int64
	Title        string
	Counterparty string
	Status       string // signed, active, expired, draft, or workflow-specific values passed through
	SizeBytes    int64
	ExpiresAt    string // ISO date, empty when open-ended
	CreatedAt    time.Time
}
