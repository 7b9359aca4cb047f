// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers to
// distinguish between failure scenarios without inspecting message
// text. For example, ErrNotFound indicates that a requested row does
// not exist, while ErrTagConflict signals that an NFC tag is already
// bound to a different equipment.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested row does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update would violate
// the unique constraint on users.email. Handlers translate this into
// an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNoTagAssigned is returned when a tag removal targets an equipment
// that has no bound tag.
var ErrNoTagAssigned = errors.New("no nfc tag assigned")

// ErrTagConflict is returned when an NFC tag identifier is already
// bound to a different equipment. EquipmentName carries the name of
// the holding equipment so operators can locate it.
type ErrTagConflict struct {
	EquipmentName string
}

func (e *ErrTagConflict) Error() string {
	return fmt.Sprintf("tag already assigned to equipment: %s", e.EquipmentName)
}
