package model

import "time"

// NfcTag mirrors the `nfc_tags` table. A tag is a physical chip from a
// pre-provisioned inventory: the row is created the first time the tag
// identifier is assigned and is kept (deactivated, unbound) when the
// assignment is removed, so the chip can be reused later.
//
// EquipmentID is nil while the tag is unassigned. Both tag_id and
// equipment_id carry UNIQUE constraints, so a tag identifier maps to at
// most one row and an equipment holds at most one tag.
type NfcTag struct {
	ID          uint64    `json:"id"`
	TagID       string    `json:"tagId"`
	EquipmentID *uint64   `json:"equipmentId"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
