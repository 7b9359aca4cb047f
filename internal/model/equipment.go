package model

import "time"

// Equipment status values stored in equipments.status. Any status may
// move to any other status; transitions are logged, never rejected.
const (
	StatusInService    = "IN_SERVICE"
	StatusOutOfService = "OUT_OF_SERVICE"
	StatusMaintenance  = "MAINTENANCE"
	StatusLoaned       = "LOANED"
)

// DefaultStatus is applied when a create request omits the status.
const DefaultStatus = StatusInService

// ValidStatus reports whether s is one of the four known statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusInService, StatusOutOfService, StatusMaintenance, StatusLoaned:
		return true
	}
	return false
}

// Equipment mirrors the `equipments` table. Description, Location and
// Notes are nullable columns, hence pointers. CreatedBy references the
// creating user and is set once at insert time, never reassigned.
type Equipment struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Location    *string   `json:"location"`
	Notes       *string   `json:"notes"`
	CreatedBy   uint64    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EquipmentView is an Equipment joined with its creator summary, its
// tag when one is bound, and the total number of audit events. It is
// the shape returned by create/update/list/tag operations.
type EquipmentView struct {
	Equipment
	Creator    UserSummary `json:"creator"`
	Tag        *NfcTag     `json:"tag"`
	EventCount int64       `json:"eventCount"`
}

// EquipmentDetail adds the most recent audit events (newest first,
// capped at 50) to an EquipmentView. Returned by the detail endpoint.
type EquipmentDetail struct {
	EquipmentView
	Events []EquipmentEvent `json:"events"`
}
