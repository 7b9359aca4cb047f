// Package queue defines message payloads exchanged over the message
// broker, plus the publisher and background consumer for the
// equipment.activity queue.
package queue

import "time"

// activityQueueName is the durable queue carrying audit activity.
const activityQueueName = "equipment.activity"

// ActivityEvent is published whenever an audit event is appended to an
// equipment. It carries enough information for downstream consumers to
// log, notify, or feed analytics without querying the primary
// database. Because the terminal delete event is cascaded away with
// its equipment, this stream is the only place it outlives the row.
type ActivityEvent struct {
	EquipmentID   uint64    `json:"equipment_id"`
	EquipmentName string    `json:"equipment_name"`
	Type          string    `json:"type"`
	Action        string    `json:"action"`
	Description   string    `json:"description,omitempty"`
	ActorID       uint64    `json:"actor_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}
