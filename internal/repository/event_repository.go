package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/equipnfc/equipment-manager/internal/model"
)

// EventRepo reads the append-only audit trail. Writes happen inside
// the equipment and tag repositories' transactions (insertEventTx);
// events are never updated and are removed only via the equipment
// delete cascade.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventCols = `ev.id, ev.equipment_id, ev.type, ev.description, ev.user_id, ev.metadata, ev.created_at,
		u.id, u.first_name, u.last_name, u.email`

func scanEvent(s scanner, ev *model.EquipmentEvent) error {
	var (
		desc sql.NullString
		meta []byte
	)
	if err := s.Scan(&ev.ID, &ev.EquipmentID, &ev.Type, &desc, &ev.UserID, &meta, &ev.CreatedAt,
		&ev.User.ID, &ev.User.FirstName, &ev.User.LastName, &ev.User.Email); err != nil {
		return err
	}
	ev.Description = nullStr(desc)
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &ev.Metadata)
	}
	return nil
}

// RecentByEquipment returns the newest events of one equipment, each
// joined with its acting user, newest first, capped at limit.
func (r *EventRepo) RecentByEquipment(ctx context.Context, equipmentID uint64, limit int) ([]model.EquipmentEvent, error) {
	q := `SELECT ` + eventCols + `
		FROM equipment_events ev
		JOIN users u ON u.id = ev.user_id
		WHERE ev.equipment_id = ?
		ORDER BY ev.created_at DESC, ev.id DESC
		LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, q, equipmentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.EquipmentEvent, 0, limit)
	for rows.Next() {
		var ev model.EquipmentEvent
		if err := scanEvent(rows, &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// RecentActivity returns the newest events across all equipments,
// joined with equipment name and actor, for the statistics feed.
func (r *EventRepo) RecentActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	q := `SELECT ` + eventCols + `, e.name
		FROM equipment_events ev
		JOIN users u ON u.id = ev.user_id
		JOIN equipments e ON e.id = ev.equipment_id
		ORDER BY ev.created_at DESC, ev.id DESC
		LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ActivityEntry, 0, limit)
	for rows.Next() {
		var (
			ev   model.EquipmentEvent
			desc sql.NullString
			meta []byte
			name string
		)
		if err := rows.Scan(&ev.ID, &ev.EquipmentID, &ev.Type, &desc, &ev.UserID, &meta, &ev.CreatedAt,
			&ev.User.ID, &ev.User.FirstName, &ev.User.LastName, &ev.User.Email, &name); err != nil {
			return nil, err
		}
		ev.Description = nullStr(desc)
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &ev.Metadata)
		}
		out = append(out, model.ActivityEntry{EquipmentEvent: ev, EquipmentName: name})
	}
	return out, rows.Err()
}
