package service

// Hand-written fakes for the persistence interfaces. They keep state
// in maps and record every audit event they are handed so tests can
// assert on the derived trail.

import (
	"context"

	"github.com/equipnfc/equipment-manager/internal/model"
	"github.com/equipnfc/equipment-manager/internal/queue"
	"github.com/equipnfc/equipment-manager/internal/repository"
)

type fakeEquipmentStore struct {
	nextID     uint64
	equipments map[uint64]model.Equipment
	events     []model.EquipmentEvent
	deleted    []uint64

	lastQuery repository.EquipmentListQuery
	listRows  []model.EquipmentView
	listTotal int64
}

func newFakeEquipmentStore() *fakeEquipmentStore {
	return &fakeEquipmentStore{equipments: map[uint64]model.Equipment{}}
}

func (f *fakeEquipmentStore) CreateWithEvent(_ context.Context, e *model.Equipment, ev model.EquipmentEvent) error {
	f.nextID++
	e.ID = f.nextID
	f.equipments[e.ID] = *e
	ev.EquipmentID = e.ID
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEquipmentStore) Get(_ context.Context, id uint64) (model.Equipment, error) {
	e, ok := f.equipments[id]
	if !ok {
		return model.Equipment{}, repository.ErrNotFound
	}
	return e, nil
}

func (f *fakeEquipmentStore) View(_ context.Context, id uint64) (model.EquipmentView, error) {
	e, ok := f.equipments[id]
	if !ok {
		return model.EquipmentView{}, repository.ErrNotFound
	}
	return model.EquipmentView{Equipment: e}, nil
}

func (f *fakeEquipmentStore) List(_ context.Context, q repository.EquipmentListQuery) ([]model.EquipmentView, int64, error) {
	f.lastQuery = q
	if f.listRows == nil {
		return nil, f.listTotal, nil
	}
	start := (q.Page - 1) * q.PageSize
	if start >= len(f.listRows) {
		return nil, int64(len(f.listRows)), nil
	}
	end := start + q.PageSize
	if end > len(f.listRows) {
		end = len(f.listRows)
	}
	return f.listRows[start:end], int64(len(f.listRows)), nil
}

func (f *fakeEquipmentStore) UpdateWithEvents(_ context.Context, id uint64, upd repository.EquipmentUpdate, evs []model.EquipmentEvent) error {
	e, ok := f.equipments[id]
	if !ok {
		return repository.ErrNotFound
	}
	apply := func(dst *string, src *string) string {
		if src != nil {
			return *src
		}
		return *dst
	}
	e.Name = apply(&e.Name, upd.Name)
	e.Category = apply(&e.Category, upd.Category)
	e.Status = apply(&e.Status, upd.Status)
	if upd.Description != nil {
		e.Description = upd.Description
	}
	if upd.Location != nil {
		e.Location = upd.Location
	}
	if upd.Notes != nil {
		e.Notes = upd.Notes
	}
	f.equipments[id] = e
	for _, ev := range evs {
		ev.EquipmentID = id
		f.events = append(f.events, ev)
	}
	return nil
}

func (f *fakeEquipmentStore) DeleteWithEvent(_ context.Context, id uint64, ev model.EquipmentEvent) error {
	if _, ok := f.equipments[id]; !ok {
		return repository.ErrNotFound
	}
	ev.EquipmentID = id
	f.events = append(f.events, ev)
	delete(f.equipments, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEquipmentStore) Stats(_ context.Context) (int64, map[string]int64, []model.CategoryCount, error) {
	byStatus := map[string]int64{}
	byCategory := map[string]int64{}
	for _, e := range f.equipments {
		byStatus[e.Status]++
		byCategory[e.Category]++
	}
	var cats []model.CategoryCount
	for c, n := range byCategory {
		cats = append(cats, model.CategoryCount{Category: c, Count: n})
	}
	return int64(len(f.equipments)), byStatus, cats, nil
}

// eventsWithAction filters the recorded trail by metadata action.
func (f *fakeEquipmentStore) eventsWithAction(action string) []model.EquipmentEvent {
	var out []model.EquipmentEvent
	for _, ev := range f.events {
		if a, _ := ev.Metadata["action"].(string); a == action {
			out = append(out, ev)
		}
	}
	return out
}

type fakeTagStore struct {
	byEquipment map[uint64]model.NfcTag
	byTagID     map[string]uint64
	names       map[uint64]string // equipment id -> name, for conflict messages
	events      []model.EquipmentEvent
}

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{
		byEquipment: map[uint64]model.NfcTag{},
		byTagID:     map[string]uint64{},
		names:       map[uint64]string{},
	}
}

func (f *fakeTagStore) Assign(_ context.Context, equipmentID uint64, tagID string, ev model.EquipmentEvent) error {
	if holder, ok := f.byTagID[tagID]; ok && holder != equipmentID {
		return &repository.ErrTagConflict{EquipmentName: f.names[holder]}
	}
	if old, ok := f.byEquipment[equipmentID]; ok {
		delete(f.byTagID, old.TagID)
	}
	f.byEquipment[equipmentID] = model.NfcTag{TagID: tagID, EquipmentID: &equipmentID, IsActive: true}
	f.byTagID[tagID] = equipmentID
	ev.EquipmentID = equipmentID
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeTagStore) Release(_ context.Context, equipmentID uint64, ev model.EquipmentEvent) (string, error) {
	tag, ok := f.byEquipment[equipmentID]
	if !ok {
		return "", repository.ErrNoTagAssigned
	}
	delete(f.byEquipment, equipmentID)
	delete(f.byTagID, tag.TagID)
	ev.EquipmentID = equipmentID
	f.events = append(f.events, ev)
	return tag.TagID, nil
}

func (f *fakeTagStore) FindByEquipment(_ context.Context, equipmentID uint64) (model.NfcTag, error) {
	tag, ok := f.byEquipment[equipmentID]
	if !ok {
		return model.NfcTag{}, repository.ErrNoTagAssigned
	}
	return tag, nil
}

type fakeEventStore struct {
	recent   []model.EquipmentEvent
	activity []model.ActivityEntry
}

func (f *fakeEventStore) RecentByEquipment(_ context.Context, _ uint64, limit int) ([]model.EquipmentEvent, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeEventStore) RecentActivity(_ context.Context, limit int) ([]model.ActivityEntry, error) {
	if len(f.activity) > limit {
		return f.activity[:limit], nil
	}
	return f.activity, nil
}

type fakePublisher struct {
	published []queue.ActivityEvent
}

func (f *fakePublisher) PublishActivity(_ context.Context, ev queue.ActivityEvent) error {
	f.published = append(f.published, ev)
	return nil
}

type fakeUserStore struct {
	nextID uint64
	byID   map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[uint64]model.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) EmailTaken(_ context.Context, email string, excludeID uint64) (bool, error) {
	for _, u := range f.byID {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id uint64, firstName, lastName, email *string) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if firstName != nil {
		u.FirstName = *firstName
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	if email != nil {
		u.Email = *email
	}
	f.byID[id] = u
	return u, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, id uint64, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	f.byID[id] = u
	return nil
}

func (f *fakeUserStore) ProfileCounts(_ context.Context, _ uint64) (int64, int64, error) {
	return 3, 7, nil
}
