package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/equipnfc/equipment-manager/internal/model"
)

// TagRepo handles NFC tag bindings. Assignment is a check-then-upsert
// executed inside a single transaction, with the schema's UNIQUE
// constraints on tag_id and equipment_id as the backstop, so two
// concurrent assignments of the same tag cannot both succeed.
type TagRepo struct{ DB *sql.DB }

func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{DB: db} }

// Assign binds the tag identifier to the equipment and appends the
// TAG_ASSIGNED event atomically. If the identifier is already bound to
// a different equipment the transaction aborts with *ErrTagConflict
// carrying that equipment's name, and the existing binding is left
// untouched. A fresh identifier gets a new row; a released one is
// rebound and reactivated.
func (r *TagRepo) Assign(ctx context.Context, equipmentID uint64, tagID string, ev model.EquipmentEvent) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	// Equipment must exist before anything is written.
	var exists int
	if err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM equipments WHERE id=? LIMIT 1", equipmentID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}

	// Look up any existing row for this identifier, locking it for the
	// duration of the transaction.
	var (
		rowID   uint64
		boundTo sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, equipment_id FROM nfc_tags WHERE tag_id=? LIMIT 1 FOR UPDATE", tagID).
		Scan(&rowID, &boundTo)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO nfc_tags (tag_id, equipment_id, is_active) VALUES (?,?,1)",
			tagID, equipmentID); err != nil {
			return err
		}
	case err != nil:
		return err
	case boundTo.Valid && uint64(boundTo.Int64) != equipmentID:
		var name string
		if nameErr := tx.QueryRowContext(ctx,
			"SELECT name FROM equipments WHERE id=?", boundTo.Int64).Scan(&name); nameErr != nil {
			name = "unknown"
		}
		err = &ErrTagConflict{EquipmentName: name}
		return err
	default:
		if _, err = tx.ExecContext(ctx,
			"UPDATE nfc_tags SET equipment_id=?, is_active=1, updated_at=CURRENT_TIMESTAMP WHERE id=?",
			equipmentID, rowID); err != nil {
			return err
		}
	}

	ev.EquipmentID = equipmentID
	err = insertEventTx(ctx, tx, ev)
	return err
}

// Release clears the equipment's tag binding and appends the
// TAG_REMOVED event atomically. The tag row is kept — deactivated and
// unbound — because tags are reusable physical inventory. Returns the
// released tag identifier so callers can log it.
func (r *TagRepo) Release(ctx context.Context, equipmentID uint64, ev model.EquipmentEvent) (string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM equipments WHERE id=? LIMIT 1", equipmentID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return "", err
	}

	var (
		rowID    uint64
		tagIdent string
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, tag_id FROM nfc_tags WHERE equipment_id=? LIMIT 1 FOR UPDATE", equipmentID).
		Scan(&rowID, &tagIdent)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNoTagAssigned
		return "", err
	}
	if err != nil {
		return "", err
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE nfc_tags SET equipment_id=NULL, is_active=0, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		rowID); err != nil {
		return "", err
	}

	ev.EquipmentID = equipmentID
	if err = insertEventTx(ctx, tx, ev); err != nil {
		return "", err
	}
	return tagIdent, nil
}

// FindByEquipment returns the tag currently bound to the equipment, or
// ErrNoTagAssigned.
func (r *TagRepo) FindByEquipment(ctx context.Context, equipmentID uint64) (model.NfcTag, error) {
	var (
		t   model.NfcTag
		eid sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, tag_id, equipment_id, is_active, created_at, updated_at
		 FROM nfc_tags WHERE equipment_id=? LIMIT 1`, equipmentID).
		Scan(&t.ID, &t.TagID, &eid, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNoTagAssigned
	}
	if err != nil {
		return t, err
	}
	if eid.Valid {
		v := uint64(eid.Int64)
		t.EquipmentID = &v
	}
	return t, nil
}
