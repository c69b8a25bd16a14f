package queue

import "context"

// Client publishes refresh events to a queue backend.
type Client interface {
	Send(ctx context.Context, ev RefreshEvent) error
}
