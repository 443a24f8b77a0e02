package events

import "time"

const TypeSiteReassigned = "SITE_REASSIGNED"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SITE_REASSIGNED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewSiteReassigned(nodeId, fromSiteId, toSiteId int64, descendantIds []int64, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeSiteReassigned,
		Data: map[string]interface{}{
			"node_id":        nodeId,
			"from_site_id":   fromSiteId,
			"to_site_id":     toSiteId,
			"descendant_ids": descendantIds,
		},
		OccurredAt: at,
	}
}

