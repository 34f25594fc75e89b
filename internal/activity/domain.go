package activity

import "time"

// Entry is one row of the activity log.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Filters narrows the activity listing.
type Filters struct {
	ActorID *int64
	Entity  string
	Action  string
	From    time.Time
	To      time.Time
}
