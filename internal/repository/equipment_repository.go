// Package repository contains data access logic separated from HTTP
// handlers. This file defines the equipment repository: CRUD over the
// equipments table plus the transactional "mutate row + append audit
// events" sequences. Every mutation that derives events runs inside a
// single transaction so a crash can never leave an equipment row
// updated without its audit trail, or vice versa.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/equipnfc/equipment-manager/internal/model"
)

// EquipmentListQuery defines filters & pagination for listing
// equipments. Category and Status filter by exact match; Location and
// Search are case-insensitive substring matches (Search spans name and
// description). Page is 1-indexed.
type EquipmentListQuery struct {
	Category  string
	Status    string
	Search    string
	Location  string
	Page      int
	PageSize  int
	SortBy    string // name | createdAt | updatedAt | category
	SortOrder string // asc | desc
}

// EquipmentUpdate carries a partial update; nil pointers leave the
// column untouched.
type EquipmentUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Status      *string
	Location    *string
	Notes       *string
}

// sortColumns maps API sort keys onto real columns. Anything not in
// the map falls back to created_at.
var sortColumns = map[string]string{
	"name":      "e.name",
	"createdAt": "e.created_at",
	"updatedAt": "e.updated_at",
	"category":  "e.category",
}

type EquipmentRepo struct{ DB *sql.DB }

func NewEquipmentRepo(db *sql.DB) *EquipmentRepo { return &EquipmentRepo{DB: db} }

// viewSelect joins each equipment with its creator, its tag (when
// bound) and the total event count.
const viewSelect = `SELECT
		e.id, e.name, e.description, e.category, e.status, e.location, e.notes,
		e.created_by, e.created_at, e.updated_at,
		u.id, u.first_name, u.last_name, u.email,
		t.id, t.tag_id, t.equipment_id, t.is_active, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM equipment_events ev WHERE ev.equipment_id = e.id)
	FROM equipments e
	JOIN users u ON u.id = e.created_by
	LEFT JOIN nfc_tags t ON t.equipment_id = e.id`

type scanner interface{ Scan(dest ...any) error }

func scanView(s scanner) (model.EquipmentView, error) {
	var (
		v          model.EquipmentView
		desc       sql.NullString
		loc        sql.NullString
		notes      sql.NullString
		tagID      sql.NullInt64
		tagIdent   sql.NullString
		tagEquipID sql.NullInt64
		tagActive  sql.NullBool
		tagCreated sql.NullTime
		tagUpdated sql.NullTime
	)
	err := s.Scan(
		&v.ID, &v.Name, &desc, &v.Category, &v.Status, &loc, &notes,
		&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
		&v.Creator.ID, &v.Creator.FirstName, &v.Creator.LastName, &v.Creator.Email,
		&tagID, &tagIdent, &tagEquipID, &tagActive, &tagCreated, &tagUpdated,
		&v.EventCount,
	)
	if err != nil {
		return v, err
	}
	v.Description = nullStr(desc)
	v.Location = nullStr(loc)
	v.Notes = nullStr(notes)
	if tagID.Valid {
		tag := model.NfcTag{
			ID:        uint64(tagID.Int64),
			TagID:     tagIdent.String,
			IsActive:  tagActive.Bool,
			CreatedAt: tagCreated.Time,
			UpdatedAt: tagUpdated.Time,
		}
		if tagEquipID.Valid {
			eid := uint64(tagEquipID.Int64)
			tag.EquipmentID = &eid
		}
		v.Tag = &tag
	}
	return v, nil
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// CreateWithEvent inserts the equipment row and its creation audit
// event in one transaction. The equipment's ID is populated on
// success.
func (r *EquipmentRepo) CreateWithEvent(ctx context.Context, e *model.Equipment, ev model.EquipmentEvent) error {
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

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO equipments (name, description, category, status, location, notes, created_by)
		 VALUES (?,?,?,?,?,?,?)`,
		e.Name, e.Description, e.Category, e.Status, e.Location, e.Notes, e.CreatedBy)
	if err != nil {
		return err
	}
	var id int64
	if id, err = res.LastInsertId(); err != nil {
		return err
	}
	e.ID = uint64(id)

	ev.EquipmentID = e.ID
	err = insertEventTx(ctx, tx, ev)
	return err
}

// Get fetches the bare equipment row, without joins. Used before
// updates to compute field diffs.
func (r *EquipmentRepo) Get(ctx context.Context, id uint64) (model.Equipment, error) {
	var (
		e     model.Equipment
		desc  sql.NullString
		loc   sql.NullString
		notes sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, description, category, status, location, notes, created_by, created_at, updated_at
		 FROM equipments WHERE id=? LIMIT 1`, id).
		Scan(&e.ID, &e.Name, &desc, &e.Category, &e.Status, &loc, &notes,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	e.Description = nullStr(desc)
	e.Location = nullStr(loc)
	e.Notes = nullStr(notes)
	return e, nil
}

// View fetches one equipment joined with creator, tag and event count.
func (r *EquipmentRepo) View(ctx context.Context, id uint64) (model.EquipmentView, error) {
	row := r.DB.QueryRowContext(ctx, viewSelect+" WHERE e.id=? LIMIT 1", id)
	v, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return v, ErrNotFound
	}
	return v, err
}

// List returns a page of equipment views plus the total row count for
// the same filters.
func (r *EquipmentRepo) List(ctx context.Context, q EquipmentListQuery) ([]model.EquipmentView, int64, error) {
	where := []string{}
	args := []any{}

	if q.Category != "" {
		where = append(where, "e.category = ?")
		args = append(args, q.Category)
	}
	if q.Status != "" {
		where = append(where, "e.status = ?")
		args = append(args, q.Status)
	}
	if q.Location != "" {
		where = append(where, "LOWER(e.location) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Location)+"%")
	}
	if q.Search != "" {
		where = append(where, "(LOWER(e.name) LIKE ? OR LOWER(e.description) LIKE ?)")
		needle := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, needle, needle)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := "SELECT COUNT(*) FROM equipments e WHERE " + cond
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "e.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(q.SortOrder, "asc") {
		dir = "ASC"
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := viewSelect + " WHERE " + cond +
		" ORDER BY " + col + " " + dir + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.EquipmentView, 0, limit)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateWithEvents applies a partial update and appends the derived
// audit events, all in one transaction. Returns ErrNotFound when the
// row does not exist.
func (r *EquipmentRepo) UpdateWithEvents(ctx context.Context, id uint64, upd EquipmentUpdate, evs []model.EquipmentEvent) error {
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

	set := []string{}
	args := []any{}
	add := func(col string, v *string) {
		if v != nil {
			set = append(set, col+"=?")
			args = append(args, *v)
		}
	}
	add("name", upd.Name)
	add("description", upd.Description)
	add("category", upd.Category)
	add("status", upd.Status)
	add("location", upd.Location)
	add("notes", upd.Notes)

	if len(set) > 0 {
		args = append(args, id)
		q := "UPDATE equipments SET " + strings.Join(set, ", ") + ", updated_at=CURRENT_TIMESTAMP WHERE id=?"
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}

	for _, ev := range evs {
		ev.EquipmentID = id
		if err = insertEventTx(ctx, tx, ev); err != nil {
			return err
		}
	}
	return nil
}

// DeleteWithEvent records the terminal audit event, releases the bound
// tag (nulled out and deactivated, mirroring explicit tag removal) and
// deletes the equipment row, cascading its events — all in one
// transaction.
func (r *EquipmentRepo) DeleteWithEvent(ctx context.Context, id uint64, ev model.EquipmentEvent) error {
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

	ev.EquipmentID = id
	if err = insertEventTx(ctx, tx, ev); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE nfc_tags SET equipment_id=NULL, is_active=0, updated_at=CURRENT_TIMESTAMP
		 WHERE equipment_id=?`, id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, "DELETE FROM equipments WHERE id=?", id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// Stats aggregates the dashboard numbers: total equipment count plus
// per-status and per-category breakdowns. Only statuses with at least
// one row appear in ByStatus.
func (r *EquipmentRepo) Stats(ctx context.Context) (total int64, byStatus map[string]int64, byCategory []model.CategoryCount, err error) {
	if err = r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM equipments").Scan(&total); err != nil {
		return 0, nil, nil, err
	}

	byStatus = map[string]int64{}
	rows, err := r.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM equipments GROUP BY status")
	if err != nil {
		return 0, nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		var n int64
		if err = rows.Scan(&s, &n); err != nil {
			return 0, nil, nil, err
		}
		byStatus[s] = n
	}
	if err = rows.Err(); err != nil {
		return 0, nil, nil, err
	}

	catRows, err := r.DB.QueryContext(ctx,
		"SELECT category, COUNT(*) FROM equipments GROUP BY category ORDER BY COUNT(*) DESC, category")
	if err != nil {
		return 0, nil, nil, err
	}
	defer catRows.Close()
	for catRows.Next() {
		var c model.CategoryCount
		if err = catRows.Scan(&c.Category, &c.Count); err != nil {
			return 0, nil, nil, err
		}
		byCategory = append(byCategory, c)
	}
	if err = catRows.Err(); err != nil {
		return 0, nil, nil, err
	}
	return total, byStatus, byCategory, nil
}

// insertEventTx appends one audit event inside an open transaction.
// Metadata is serialized to the JSON column; an empty map is stored as
// NULL.
func insertEventTx(ctx context.Context, tx *sql.Tx, ev model.EquipmentEvent) error {
	var meta any
	if len(ev.Metadata) > 0 {
		b, err := json.Marshal(ev.Metadata)
		if err != nil {
			return err
		}
		meta = b
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO equipment_events (equipment_id, type, description, user_id, metadata)
		 VALUES (?,?,?,?,?)`,
		ev.EquipmentID, ev.Type, ev.Description, ev.UserID, meta)
	return err
}
