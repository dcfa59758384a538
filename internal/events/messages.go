package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

type (
	// Op is the mutation kind carried by an entity event.
	Op string

	// EntityEvent is a lightweight notification that an entity changed.
	// Consumers fetch full state through the backend if they need it; the
	// event only carries identity and operation.
	EntityEvent struct {
		Entity     string    `json:"entity"`
		ID         string    `json:"id"`
		Op         Op        `json:"op"`
		OwnerID    string    `json:"owner_id"`
		OccurredAt time.Time `json:"occurred_at"`
	}
)

// NewEntityEvent creates an entity event stamped with the current time.
func NewEntityEvent(entity, id string, op Op, ownerID string) EntityEvent {
	return EntityEvent{
		Entity:     entity,
		ID:         id,
		Op:         op,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON serializes the event for publishing.
func (e EntityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntityEventFromJSON deserializes an event from a message body.
func EntityEventFromJSON(data []byte) (*EntityEvent, error) {
	var e EntityEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal entity event: %w", err)
	}
	if e.Entity == "" || e.ID == "" || e.Op == "" {
		return nil, fmt.Errorf("incomplete entity event: %+v", e)
	}
	return &e, nil
}
