package agreements

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an agreement does not exist.
var ErrNotFound = errors.New("not found")

// Repo defines read operations for agreements.
type Repo interface {
	List(ctx context.Context, limit int) ([]Agreement, error)
}
