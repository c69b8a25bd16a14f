package queue

import "encoding/json"

// RefreshEvent tells listeners that a batch of documents landed and cached
// document lists should be reloaded.
type RefreshEvent struct {
	SessionID   string  `json:"sessionId"`
	DocumentIDs []int64 `json:"documentIds"`
	EnqueuedAt  string  `json:"enqueuedAt"`
	Version     int     `json:"version"`
}

// EncodeRefreshEvent returns the JSON representation of an event.
func EncodeRefreshEvent(ev RefreshEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeRefreshEvent parses a JSON payload into a RefreshEvent.
func DecodeRefreshEvent(payload []byte) (RefreshEvent, error) {
	var ev RefreshEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return RefreshEvent{}, err
	}
	return ev, nil
}
