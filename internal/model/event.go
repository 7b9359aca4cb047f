package model

import "time"

// Event type values stored in equipment_events.type. STATUS_CHANGE is
// the generic type used for creation, status updates, location updates
// and deletion; the metadata "action" field distinguishes them.
const (
	EventLoan             = "LOAN"
	EventReturn           = "RETURN"
	EventMaintenanceStart = "MAINTENANCE_START"
	EventMaintenanceEnd   = "MAINTENANCE_END"
	EventStatusChange     = "STATUS_CHANGE"
	EventTagAssigned      = "TAG_ASSIGNED"
	EventTagRemoved       = "TAG_REMOVED"
)

// Metadata values recorded under the "action" key to tell the
// STATUS_CHANGE variants apart.
const (
	ActionCreate         = "create"
	ActionStatusUpdate   = "status_update"
	ActionLocationUpdate = "location_update"
	ActionDelete         = "delete"
	ActionTagAssign      = "tag_assign"
	ActionTagRemove      = "tag_remove"
)

// Metadata is the free-form key/value payload of an audit event. It is
// stored as a JSON column; semantics vary by event type.
type Metadata map[string]any

// EquipmentEvent mirrors the `equipment_events` table. Events are
// append-only: rows are never updated and are deleted only through the
// equipment_id cascade when their equipment is removed.
type EquipmentEvent struct {
	ID          uint64    `json:"id"`
	EquipmentID uint64    `json:"equipmentId"`
	Type        string    `json:"type"`
	Description *string   `json:"description"`
	UserID      uint64    `json:"userId"`
	Metadata    Metadata  `json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`

	// User is populated by joined queries (detail view, recent
	// activity); zero value otherwise.
	User UserSummary `json:"user,omitzero"`
}

// ActivityEntry is an event joined with its equipment name, used by the
// statistics endpoint's recent-activity feed.
type ActivityEntry struct {
	EquipmentEvent
	EquipmentName string `json:"equipmentName"`
}
