package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equipnfc/equipment-manager/internal/model"
	"github.com/equipnfc/equipment-manager/internal/repository"
)

type equipmentFixture struct {
	equipments *fakeEquipmentStore
	tags       *fakeTagStore
	events     *fakeEventStore
	pub        *fakePublisher
	svc        *EquipmentService
}

func newEquipmentFixture() *equipmentFixture {
	f := &equipmentFixture{
		equipments: newFakeEquipmentStore(),
		tags:       newFakeTagStore(),
		events:     &fakeEventStore{},
		pub:        &fakePublisher{},
	}
	f.svc = NewEquipmentService(f.equipments, f.tags, f.events, f.pub)
	return f
}

func (f *equipmentFixture) create(t *testing.T, name, category string) model.EquipmentView {
	t.Helper()
	view, err := f.svc.CreateEquipment(context.Background(), CreateEquipmentInput{
		Name:     name,
		Category: category,
	}, 1)
	require.NoError(t, err)
	f.tags.names[view.ID] = view.Name
	return view
}

func TestCreateEquipmentDefaultsAndCreationEvent(t *testing.T) {
	f := newEquipmentFixture()

	view, err := f.svc.CreateEquipment(context.Background(), CreateEquipmentInput{
		Name:     "Perceuse",
		Category: "Outillage",
	}, 7)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInService, view.Status)
	assert.Equal(t, uint64(7), view.CreatedBy)

	evs := f.equipments.eventsWithAction(model.ActionCreate)
	require.Len(t, evs, 1)
	assert.Equal(t, model.EventStatusChange, evs[0].Type)
	assert.Equal(t, uint64(7), evs[0].UserID)
	assert.Nil(t, evs[0].Metadata["previousStatus"])
	assert.Equal(t, model.StatusInService, evs[0].Metadata["newStatus"])

	require.Len(t, f.pub.published, 1)
	assert.Equal(t, "Perceuse", f.pub.published[0].EquipmentName)
	assert.Equal(t, model.ActionCreate, f.pub.published[0].Action)
}

func TestCreateEquipmentValidation(t *testing.T) {
	f := newEquipmentFixture()
	ctx := context.Background()

	_, err := f.svc.CreateEquipment(ctx, CreateEquipmentInput{Category: "Outillage"}, 1)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.CreateEquipment(ctx, CreateEquipmentInput{Name: "Perceuse"}, 1)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.CreateEquipment(ctx, CreateEquipmentInput{
		Name: "Perceuse", Category: "Outillage", Status: "FLYING",
	}, 1)
	assert.Equal(t, KindValidation, KindOf(err))

	assert.Empty(t, f.equipments.events, "no event may be recorded for a rejected create")
}

func TestUpdateEquipmentStatusChangeEvent(t *testing.T) {
	f := newEquipmentFixture()
	view := f.create(t, "Scanner", "Informatique")

	status := model.StatusMaintenance
	_, err := f.svc.UpdateEquipment(context.Background(), view.ID, repository.EquipmentUpdate{Status: &status}, 2)
	require.NoError(t, err)

	evs := f.equipments.eventsWithAction(model.ActionStatusUpdate)
	require.Len(t, evs, 1)
	assert.Equal(t, model.StatusInService, evs[0].Metadata["previousStatus"])
	assert.Equal(t, model.StatusMaintenance, evs[0].Metadata["newStatus"])
	assert.Equal(t, uint64(2), evs[0].UserID)
}

func TestUpdateEquipmentSameStatusNoEvent(t *testing.T) {
	f := newEquipmentFixture()
	view := f.create(t, "Scanner", "Informatique")

	status := model.StatusInService // unchanged
	_, err := f.svc.UpdateEquipment(context.Background(), view.ID, repository.EquipmentUpdate{Status: &status}, 2)
	require.NoError(t, err)

	assert.Empty(t, f.equipments.eventsWithAction(model.ActionStatusUpdate))
}

func TestUpdateEquipmentLocationEvents(t *testing.T) {
	f := newEquipmentFixture()
	view := f.create(t, "Scanner", "Informatique")
	ctx := context.Background()

	// empty location never derives an event
	empty := ""
	_, err := f.svc.UpdateEquipment(ctx, view.ID, repository.EquipmentUpdate{Location: &empty}, 2)
	require.NoError(t, err)
	assert.Empty(t, f.equipments.eventsWithAction(model.ActionLocationUpdate))

	// first real location: previous is recorded as null
	loc := "Atelier B"
	_, err = f.svc.UpdateEquipment(ctx, view.ID, repository.EquipmentUpdate{Location: &loc}, 2)
	require.NoError(t, err)
	evs := f.equipments.eventsWithAction(model.ActionLocationUpdate)
	require.Len(t, evs, 1)
	assert.Nil(t, evs[0].Metadata["previousLocation"])
	assert.Equal(t, "Atelier B", evs[0].Metadata["newLocation"])

	// same location again: no new event
	_, err = f.svc.UpdateEquipment(ctx, view.ID, repository.EquipmentUpdate{Location: &loc}, 2)
	require.NoError(t, err)
	assert.Len(t, f.equipments.eventsWithAction(model.ActionLocationUpdate), 1)
}

func TestUpdateEquipmentNotFound(t *testing.T) {
	f := newEquipmentFixture()
	name := "x"
	_, err := f.svc.UpdateEquipment(context.Background(), 999, repository.EquipmentUpdate{Name: &name}, 1)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDeleteEquipmentRecordsTerminalEvent(t *testing.T) {
	f := newEquipmentFixture()
	view := f.create(t, "Projecteur", "Audiovisuel")
	_, err := f.svc.AssignNfcTag(context.Background(), view.ID, "04:A2:B3", 1)
	require.NoError(t, err)

	res, err := f.svc.DeleteEquipment(context.Background(), view.ID, 3)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Projecteur", res.Deleted.Name)

	evs := f.equipments.eventsWithAction(model.ActionDelete)
	require.Len(t, evs, 1)
	assert.Equal(t, "Projecteur", evs[0].Metadata["equipmentName"])
	assert.Equal(t, true, evs[0].Metadata["hadTag"])

	_, err = f.svc.GetEquipmentByID(context.Background(), view.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestAssignNfcTag(t *testing.T) {
	f := newEquipmentFixture()
	a := f.create(t, "Perceuse", "Outillage")
	b := f.create(t, "Visseuse", "Outillage")
	ctx := context.Background()

	_, err := f.svc.AssignNfcTag(ctx, a.ID, "", 1)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.AssignNfcTag(ctx, a.ID, "04:A2:B3", 1)
	require.NoError(t, err)

	// same tag on another equipment: conflict naming the holder
	_, err = f.svc.AssignNfcTag(ctx, b.ID, "04:A2:B3", 1)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "Perceuse")

	// rebinding the holder's own tag is idempotent, not a conflict
	_, err = f.svc.AssignNfcTag(ctx, a.ID, "04:A2:B3", 1)
	require.NoError(t, err)

	evs := f.tags.events
	require.NotEmpty(t, evs)
	assert.Equal(t, model.EventTagAssigned, evs[0].Type)
	assert.Equal(t, "04:A2:B3", evs[0].Metadata["tagId"])
}

func TestRemoveNfcTagMissingEquipment(t *testing.T) {
	f := newEquipmentFixture()

	// nonexistent equipment answers 404, never the missing-binding 400
	_, err := f.svc.RemoveNfcTag(context.Background(), 999, 1)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRemoveNfcTag(t *testing.T) {
	f := newEquipmentFixture()
	view := f.create(t, "Perceuse", "Outillage")
	ctx := context.Background()

	// no tag bound: client error, not a 404
	_, err := f.svc.RemoveNfcTag(ctx, view.ID, 1)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.AssignNfcTag(ctx, view.ID, "04:A2:B3", 1)
	require.NoError(t, err)

	_, err = f.svc.RemoveNfcTag(ctx, view.ID, 2)
	require.NoError(t, err)

	last := f.tags.events[len(f.tags.events)-1]
	assert.Equal(t, model.EventTagRemoved, last.Type)
	assert.Equal(t, "04:A2:B3", last.Metadata["tagId"])
	assert.Equal(t, uint64(2), last.UserID)

	// tag is free again for any equipment
	other := f.create(t, "Visseuse", "Outillage")
	_, err = f.svc.AssignNfcTag(ctx, other.ID, "04:A2:B3", 1)
	require.NoError(t, err)
}

func TestListEquipmentClampsPagination(t *testing.T) {
	f := newEquipmentFixture()
	f.equipments.listTotal = 45
	ctx := context.Background()

	page, err := f.svc.ListEquipment(ctx, ListOptions{Page: -3, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, f.equipments.lastQuery.Page)
	assert.Equal(t, 20, f.equipments.lastQuery.PageSize)
	assert.Equal(t, "createdAt", f.equipments.lastQuery.SortBy)
	assert.Equal(t, "desc", f.equipments.lastQuery.SortOrder)

	assert.Equal(t, 3, page.Pagination.TotalPages) // ceil(45/20)
	assert.Equal(t, int64(45), page.Pagination.TotalItems)
	assert.True(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPrevPage)

	page, err = f.svc.ListEquipment(ctx, ListOptions{Page: 3, PageSize: 20})
	require.NoError(t, err)
	assert.False(t, page.Pagination.HasNextPage)
	assert.True(t, page.Pagination.HasPrevPage)
}

func TestGetStatisticsSparseStatuses(t *testing.T) {
	f := newEquipmentFixture()
	f.create(t, "Perceuse", "Outillage")
	f.create(t, "Visseuse", "Outillage")
	f.create(t, "Scanner", "Informatique")

	stats, err := f.svc.GetStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalEquipments)
	assert.Equal(t, int64(3), stats.ByStatus[model.StatusInService])
	_, present := stats.ByStatus[model.StatusOutOfService]
	assert.False(t, present, "empty statuses must be absent, not zero")
	assert.Len(t, stats.ByCategory, 2)
}

func TestPublisherOptional(t *testing.T) {
	f := newEquipmentFixture()
	f.svc = NewEquipmentService(f.equipments, f.tags, f.events, nil)

	// every mutation must succeed without a broker
	view := f.create(t, "Perceuse", "Outillage")
	_, err := f.svc.AssignNfcTag(context.Background(), view.ID, "04:A2:B3", 1)
	require.NoError(t, err)
	_, err = f.svc.DeleteEquipment(context.Background(), view.ID, 1)
	require.NoError(t, err)
}
