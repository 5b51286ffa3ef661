package notifyprotocol

import (
	"fmt"
	"time"
)

const (
	EventWithdrawalCreated = "withdrawal_created"
	EventWithdrawalDecided = "withdrawal_decided"
	EventWorkStatusChanged = "work_status_changed"
)

// Event is the wire shape posted to the notification sink.
type Event struct {
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"`
	EntityType string    `json:"entity_type"`
	Family     string    `json:"family,omitempty"`
	OldStatus  string    `json:"old_status,omitempty"`
	NewStatus  string    `json:"new_status,omitempty"`
	EntityID   int       `json:"entity_id"`
	ActorID    int       `json:"actor_id"`
}

// Key identifies an event for in-flight deduplication.
func (e Event) Key() string {
	return fmt.Sprintf("%s:%s:%d:%s", e.Type, e.EntityType, e.EntityID, e.NewStatus)
}
