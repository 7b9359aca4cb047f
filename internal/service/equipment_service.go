package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/equipnfc/equipment-manager/internal/model"
	"github.com/equipnfc/equipment-manager/internal/queue"
	"github.com/equipnfc/equipment-manager/internal/repository"
)

// detailEventLimit caps how many events the detail endpoint embeds.
const detailEventLimit = 50

// recentActivityLimit caps the statistics activity feed.
const recentActivityLimit = 10

// EquipmentStore is the persistence surface for equipment rows and
// their transactional audit-event sequences.
type EquipmentStore interface {
	CreateWithEvent(ctx context.Context, e *model.Equipment, ev model.EquipmentEvent) error
	Get(ctx context.Context, id uint64) (model.Equipment, error)
	View(ctx context.Context, id uint64) (model.EquipmentView, error)
	List(ctx context.Context, q repository.EquipmentListQuery) ([]model.EquipmentView, int64, error)
	UpdateWithEvents(ctx context.Context, id uint64, upd repository.EquipmentUpdate, evs []model.EquipmentEvent) error
	DeleteWithEvent(ctx context.Context, id uint64, ev model.EquipmentEvent) error
	Stats(ctx context.Context) (total int64, byStatus map[string]int64, byCategory []model.CategoryCount, err error)
}

// TagStore is the persistence surface for NFC tag bindings.
type TagStore interface {
	Assign(ctx context.Context, equipmentID uint64, tagID string, ev model.EquipmentEvent) error
	Release(ctx context.Context, equipmentID uint64, ev model.EquipmentEvent) (string, error)
	FindByEquipment(ctx context.Context, equipmentID uint64) (model.NfcTag, error)
}

// EventStore reads the audit trail.
type EventStore interface {
	RecentByEquipment(ctx context.Context, equipmentID uint64, limit int) ([]model.EquipmentEvent, error)
	RecentActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error)
}

// ActivityPublisher forwards audit events to the message broker.
// Publishing is best-effort: implementations log failures and the
// service never propagates them.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, ev queue.ActivityEvent) error
}

// CreateEquipmentInput carries the fields of a create request. Status
// defaults to model.DefaultStatus when empty.
type CreateEquipmentInput struct {
	Name        string
	Description *string
	Category    string
	Status      string
	Location    *string
	Notes       *string
}

// ListOptions carries list filters and pagination before clamping.
type ListOptions struct {
	Category  string
	Status    string
	Search    string
	Location  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// EquipmentPage is one page of equipments plus its pagination
// descriptor.
type EquipmentPage struct {
	Equipments []model.EquipmentView `json:"equipments"`
	Pagination model.Pagination      `json:"pagination"`
}

// DeleteResult confirms a deletion and echoes the removed row for UI
// messaging.
type DeleteResult struct {
	Success bool            `json:"success"`
	Deleted model.Equipment `json:"deletedEquipment"`
}

// EquipmentService owns the inventory: CRUD, derived audit trail, tag
// binding and aggregates.
type EquipmentService struct {
	equipments EquipmentStore
	tags       TagStore
	events     EventStore
	pub        ActivityPublisher // may be nil when no broker is configured
}

func NewEquipmentService(equipments EquipmentStore, tags TagStore, events EventStore, pub ActivityPublisher) *EquipmentService {
	return &EquipmentService{equipments: equipments, tags: tags, events: events, pub: pub}
}

func (s *EquipmentService) publish(ctx context.Context, equipmentID uint64, equipmentName string, ev model.EquipmentEvent) {
	if s.pub == nil {
		return
	}
	action, _ := ev.Metadata["action"].(string)
	desc := ""
	if ev.Description != nil {
		desc = *ev.Description
	}
	_ = s.pub.PublishActivity(ctx, queue.ActivityEvent{
		EquipmentID:   equipmentID,
		EquipmentName: equipmentName,
		Type:          ev.Type,
		Action:        action,
		Description:   desc,
		ActorID:       ev.UserID,
	})
}

func strPtr(s string) *string { return &s }

// CreateEquipment inserts the row and its creation audit event, then
// returns the created equipment with all joins.
func (s *EquipmentService) CreateEquipment(ctx context.Context, in CreateEquipmentInput, creatorID uint64) (model.EquipmentView, error) {
	if in.Name == "" || in.Category == "" {
		return model.EquipmentView{}, invalid("name and category are required")
	}
	status := in.Status
	if status == "" {
		status = model.DefaultStatus
	}
	if !model.ValidStatus(status) {
		return model.EquipmentView{}, invalid("unknown equipment status")
	}

	e := model.Equipment{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Status:      status,
		Location:    in.Location,
		Notes:       in.Notes,
		CreatedBy:   creatorID,
	}
	ev := model.EquipmentEvent{
		Type:        model.EventStatusChange,
		Description: strPtr(fmt.Sprintf("Equipment created with status: %s", status)),
		UserID:      creatorID,
		Metadata: model.Metadata{
			"previousStatus": nil,
			"newStatus":      status,
			"action":         model.ActionCreate,
		},
	}
	if err := s.equipments.CreateWithEvent(ctx, &e, ev); err != nil {
		return model.EquipmentView{}, internal(err)
	}

	log.Printf("equipment created: %s (id=%d)", e.Name, e.ID)
	s.publish(ctx, e.ID, e.Name, ev)

	view, err := s.equipments.View(ctx, e.ID)
	if err != nil {
		return model.EquipmentView{}, internal(err)
	}
	return view, nil
}

// clampList normalizes pagination inputs: page floors at 1, page size
// clamps to [1,100] with a default of 20, unknown sort keys fall back
// to createdAt descending.
func clampList(opt ListOptions) repository.EquipmentListQuery {
	q := repository.EquipmentListQuery{
		Category:  opt.Category,
		Status:    opt.Status,
		Search:    opt.Search,
		Location:  opt.Location,
		Page:      opt.Page,
		PageSize:  opt.PageSize,
		SortBy:    opt.SortBy,
		SortOrder: opt.SortOrder,
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	return q
}

func paginate(page, size int, total int64) model.Pagination {
	totalPages := int((total + int64(size) - 1) / int64(size))
	return model.Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: size,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}

// ListEquipment returns a filtered, sorted page of equipments.
func (s *EquipmentService) ListEquipment(ctx context.Context, opt ListOptions) (EquipmentPage, error) {
	q := clampList(opt)
	views, total, err := s.equipments.List(ctx, q)
	if err != nil {
		return EquipmentPage{}, internal(err)
	}
	return EquipmentPage{
		Equipments: views,
		Pagination: paginate(q.Page, q.PageSize, total),
	}, nil
}

// GetEquipmentByID returns the joined row plus its newest events.
func (s *EquipmentService) GetEquipmentByID(ctx context.Context, id uint64) (model.EquipmentDetail, error) {
	view, err := s.equipments.View(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.EquipmentDetail{}, notFound("equipment not found")
		}
		return model.EquipmentDetail{}, internal(err)
	}
	events, err := s.events.RecentByEquipment(ctx, id, detailEventLimit)
	if err != nil {
		return model.EquipmentDetail{}, internal(err)
	}
	return model.EquipmentDetail{EquipmentView: view, Events: events}, nil
}

// UpdateEquipment applies a partial update. Status and location
// changes each derive one audit event; updating a field to the value
// it already holds derives none. Row update and events commit in one
// transaction.
func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, upd repository.EquipmentUpdate, actorID uint64) (model.EquipmentView, error) {
	if upd.Status != nil && !model.ValidStatus(*upd.Status) {
		return model.EquipmentView{}, invalid("unknown equipment status")
	}

	current, err := s.equipments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.EquipmentView{}, notFound("equipment not found")
		}
		return model.EquipmentView{}, internal(err)
	}

	var evs []model.EquipmentEvent

	if upd.Status != nil && *upd.Status != current.Status {
		evs = append(evs, model.EquipmentEvent{
			Type:        model.EventStatusChange,
			Description: strPtr(fmt.Sprintf("Status changed from %s to %s", current.Status, *upd.Status)),
			UserID:      actorID,
			Metadata: model.Metadata{
				"previousStatus": current.Status,
				"newStatus":      *upd.Status,
				"action":         model.ActionStatusUpdate,
			},
		})
	}

	if upd.Location != nil && *upd.Location != "" &&
		(current.Location == nil || *upd.Location != *current.Location) {
		prev := "not set"
		var prevMeta any
		if current.Location != nil {
			prev = *current.Location
			prevMeta = *current.Location
		}
		evs = append(evs, model.EquipmentEvent{
			Type:        model.EventStatusChange,
			Description: strPtr(fmt.Sprintf("Location changed: %s → %s", prev, *upd.Location)),
			UserID:      actorID,
			Metadata: model.Metadata{
				"previousLocation": prevMeta,
				"newLocation":      *upd.Location,
				"action":           model.ActionLocationUpdate,
			},
		})
	}

	if err := s.equipments.UpdateWithEvents(ctx, id, upd, evs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.EquipmentView{}, notFound("equipment not found")
		}
		return model.EquipmentView{}, internal(err)
	}

	log.Printf("equipment updated: id=%d by user=%d", id, actorID)
	for _, ev := range evs {
		s.publish(ctx, id, current.Name, ev)
	}

	view, err := s.equipments.View(ctx, id)
	if err != nil {
		return model.EquipmentView{}, internal(err)
	}
	return view, nil
}

// DeleteEquipment records a terminal audit event, releases the bound
// tag and removes the row, cascading its events. The last-known row is
// echoed back for confirmation messaging.
func (s *EquipmentService) DeleteEquipment(ctx context.Context, id uint64, actorID uint64) (DeleteResult, error) {
	current, err := s.equipments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return DeleteResult{}, notFound("equipment not found")
		}
		return DeleteResult{}, internal(err)
	}

	hadTag := true
	if _, err := s.tags.FindByEquipment(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrNoTagAssigned) {
			return DeleteResult{}, internal(err)
		}
		hadTag = false
	}

	ev := model.EquipmentEvent{
		Type:        model.EventStatusChange,
		Description: strPtr("Equipment deleted"),
		UserID:      actorID,
		Metadata: model.Metadata{
			"action":        model.ActionDelete,
			"equipmentName": current.Name,
			"hadTag":        hadTag,
		},
	}
	if err := s.equipments.DeleteWithEvent(ctx, id, ev); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return DeleteResult{}, notFound("equipment not found")
		}
		return DeleteResult{}, internal(err)
	}

	log.Printf("equipment deleted: %s (id=%d) by user=%d", current.Name, id, actorID)
	s.publish(ctx, id, current.Name, ev)

	return DeleteResult{Success: true, Deleted: current}, nil
}

// AssignNfcTag binds the tag identifier to the equipment. Binding an
// identifier already held by a different equipment fails with a
// conflict naming the holder, and leaves the existing binding
// untouched.
func (s *EquipmentService) AssignNfcTag(ctx context.Context, equipmentID uint64, tagID string, actorID uint64) (model.EquipmentView, error) {
	if tagID == "" {
		return model.EquipmentView{}, invalid("tagId is required")
	}

	ev := model.EquipmentEvent{
		Type:        model.EventTagAssigned,
		Description: strPtr(fmt.Sprintf("NFC tag assigned: %s", tagID)),
		UserID:      actorID,
		Metadata: model.Metadata{
			"tagId":  tagID,
			"action": model.ActionTagAssign,
		},
	}
	if err := s.tags.Assign(ctx, equipmentID, tagID, ev); err != nil {
		var tc *repository.ErrTagConflict
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.EquipmentView{}, notFound("equipment not found")
		case errors.As(err, &tc):
			return model.EquipmentView{}, conflict(fmt.Sprintf("this tag is already assigned to equipment: %s", tc.EquipmentName))
		}
		return model.EquipmentView{}, internal(err)
	}

	log.Printf("nfc tag %s assigned to equipment id=%d", tagID, equipmentID)

	view, err := s.equipments.View(ctx, equipmentID)
	if err != nil {
		return model.EquipmentView{}, internal(err)
	}
	s.publish(ctx, equipmentID, view.Name, ev)
	return view, nil
}

// RemoveNfcTag releases the equipment's tag binding. The tag row is
// kept, deactivated, for reuse. A missing equipment is a not-found
// failure; an existing equipment with no binding is a client error.
func (s *EquipmentService) RemoveNfcTag(ctx context.Context, equipmentID uint64, actorID uint64) (model.EquipmentView, error) {
	if _, err := s.equipments.Get(ctx, equipmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.EquipmentView{}, notFound("equipment not found")
		}
		return model.EquipmentView{}, internal(err)
	}

	tag, err := s.tags.FindByEquipment(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNoTagAssigned) {
			return model.EquipmentView{}, invalid("no nfc tag assigned to this equipment")
		}
		return model.EquipmentView{}, internal(err)
	}

	ev := model.EquipmentEvent{
		Type:        model.EventTagRemoved,
		Description: strPtr(fmt.Sprintf("NFC tag removed: %s", tag.TagID)),
		UserID:      actorID,
		Metadata: model.Metadata{
			"tagId":  tag.TagID,
			"action": model.ActionTagRemove,
		},
	}
	tagIdent, err := s.tags.Release(ctx, equipmentID, ev)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.EquipmentView{}, notFound("equipment not found")
		case errors.Is(err, repository.ErrNoTagAssigned):
			return model.EquipmentView{}, invalid("no nfc tag assigned to this equipment")
		}
		return model.EquipmentView{}, internal(err)
	}

	log.Printf("nfc tag %s removed from equipment id=%d", tagIdent, equipmentID)

	view, err := s.equipments.View(ctx, equipmentID)
	if err != nil {
		return model.EquipmentView{}, internal(err)
	}
	s.publish(ctx, equipmentID, view.Name, ev)
	return view, nil
}

// GetStatistics aggregates totals, per-status and per-category counts
// and the newest activity across all equipments.
func (s *EquipmentService) GetStatistics(ctx context.Context) (model.Statistics, error) {
	total, byStatus, byCategory, err := s.equipments.Stats(ctx)
	if err != nil {
		return model.Statistics{}, internal(err)
	}
	activity, err := s.events.RecentActivity(ctx, recentActivityLimit)
	if err != nil {
		return model.Statistics{}, internal(err)
	}
	return model.Statistics{
		TotalEquipments: total,
		ByStatus:        byStatus,
		ByCategory:      byCategory,
		RecentActivity:  activity,
	}, nil
}
