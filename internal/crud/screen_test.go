package crud_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
)

func activityResolver(t *testing.T) resolver {
	return resolver{
		"activities": {records: activityFixtures(t)},
		"activity-categories": {records: []domain.Record{
			rec(t, `{"id":10,"name":"Adventure","slug":"adventure"}`),
			rec(t, `{"id":11,"name":"Culture","slug":"culture"}`),
		}},
		"locations": {records: []domain.Record{
			rec(t, `{"id":20,"name":"Central Province","slug":"central"}`),
		}},
	}
}

func TestScreen_Mount_loadsSiblingLookups(t *testing.T) {
	s := crud.NewScreen(mustCatalog(t), mustKind(t, "activities"))

	require.NoError(t, s.Mount(context.Background(), activityResolver(t)))

	assert.Equal(t, 3, s.View.Len())
	r1, _ := s.View.Find("1")
	r2, _ := s.View.Find("2")
	r3, _ := s.View.Find("3")
	assert.Equal(t, "Adventure", s.Label(r1, "activity_category_id"))
	assert.Equal(t, "Culture", s.Label(r2, "activity_category_id"))
	assert.Equal(t, "Central Province", s.Label(r2, "location_id"))
	// location 21 was never loaded
	assert.Equal(t, crud.Unknown, s.Label(r3, "location_id"))
	assert.NoError(t, s.LookupErr())

	assert.Equal(t, []crud.Option{{Value: "10", Label: "Adventure"}, {Value: "11", Label: "Culture"}},
		s.Lookup("activity_category_id").Options())
}

func TestScreen_Mount_siblingFailureDegradesToUnknown(t *testing.T) {
	res := activityResolver(t)
	res["locations"].listErr = errors.New("timeout")
	s := crud.NewScreen(mustCatalog(t), mustKind(t, "activities"))

	require.NoError(t, s.Mount(context.Background(), res))

	r1, _ := s.View.Find("1")
	assert.Equal(t, crud.Unknown, s.Label(r1, "location_id"))
	assert.Equal(t, "Adventure", s.Label(r1, "activity_category_id"))
	require.Error(t, s.LookupErr())
	assert.Contains(t, s.LookupErr().Error(), "locations")
}

func TestScreen_Mount_closesOpenModals(t *testing.T) {
	s := crud.NewScreen(mustCatalog(t), mustKind(t, "activities"))
	require.NoError(t, s.Mount(context.Background(), activityResolver(t)))
	s.Form.OpenCreate()
	r, _ := s.View.Find("1")
	s.Confirm.Open(r)

	require.NoError(t, s.Mount(context.Background(), activityResolver(t)))

	assert.Equal(t, crud.FormClosed, s.Form.Snapshot().State)
	state, _, _ := s.Confirm.Snapshot()
	assert.Equal(t, crud.ConfirmClosed, state)
}

func TestScreen_Unmount(t *testing.T) {
	s := crud.NewScreen(mustCatalog(t), mustKind(t, "activities"))
	require.NoError(t, s.Mount(context.Background(), activityResolver(t)))

	s.Unmount()

	assert.Zero(t, s.View.Len())
	assert.Nil(t, s.Lookup("location_id"))
}

func TestScreen_kindWithoutRefs(t *testing.T) {
	s := crud.NewScreen(mustCatalog(t), mustKind(t, "countries"))
	res := resolver{"countries": {records: []domain.Record{rec(t, `{"id":1,"name":"Sri Lanka"}`)}}}

	require.NoError(t, s.Mount(context.Background(), res))

	assert.Equal(t, 1, s.View.Len())
	assert.Equal(t, []string{"list"}, res["countries"].Calls())
}

func TestDeleteConfirm_cancelKeepsRecord(t *testing.T) {
	res := &fakeResource{}
	v := mountedView(t, "activities", activityFixtures(t))
	target, _ := v.Find("2")
	c := &crud.DeleteConfirm{}

	c.Open(target)
	state, got, _ := c.Snapshot()
	assert.Equal(t, crud.ConfirmOpen, state)
	assert.Equal(t, domain.ID("2"), got.ID)

	c.Close()

	state, _, _ = c.Snapshot()
	assert.Equal(t, crud.ConfirmClosed, state)
	_, ok := v.Find("2")
	assert.True(t, ok)
	assert.Empty(t, res.Calls())
}

func TestDeleteConfirm_Confirm_removesAfterSuccess(t *testing.T) {
	res := &fakeResource{}
	v := mountedView(t, "activities", activityFixtures(t))
	target, _ := v.Find("2")
	c := &crud.DeleteConfirm{}
	c.Open(target)

	require.NoError(t, c.Confirm(context.Background(), res, v.Hooks()))

	assert.Equal(t, []string{"delete:2"}, res.Calls())
	assert.Equal(t, []string{"1", "3"}, ids(v.Records()))
	state, _, _ := c.Snapshot()
	assert.Equal(t, crud.ConfirmClosed, state)
}

func TestDeleteConfirm_Confirm_failureKeepsRecordAndStaysOpen(t *testing.T) {
	boom := errors.New("409 conflict")
	res := &fakeResource{deleteErr: boom}
	v := mountedView(t, "activities", activityFixtures(t))
	target, _ := v.Find("3")
	c := &crud.DeleteConfirm{}
	c.Open(target)

	err := c.Confirm(context.Background(), res, v.Hooks())

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, v.Len())
	state, got, lastErr := c.Snapshot()
	assert.Equal(t, crud.ConfirmOpen, state)
	assert.Equal(t, domain.ID("3"), got.ID)
	assert.ErrorIs(t, lastErr, boom)
}

func TestDeleteConfirm_Confirm_notOpen(t *testing.T) {
	c := &crud.DeleteConfirm{}

	assert.ErrorIs(t, c.Confirm(context.Background(), &fakeResource{}, nil), crud.ErrConfirmNotOpen)
}

func TestIndex_nilAndMissing(t *testing.T) {
	var nilIdx *crud.Index
	assert.Equal(t, crud.Unknown, nilIdx.Label("1"))
	assert.Nil(t, nilIdx.Options())

	idx := crud.NewIndex(mustKind(t, "locations"), []domain.Record{rec(t, `{"id":"a","name":"Ella"}`)})
	assert.Equal(t, "Ella", idx.Label("a"))
	assert.Equal(t, crud.Unknown, idx.Label("b"))
}

func TestApply_doesNotMutateInput(t *testing.T) {
	k := mustKind(t, "activities")
	in := activityFixtures(t)

	out := crud.Apply(k, in, crud.Query{Search: "whale"})

	require.Len(t, out, 1)
	assert.Len(t, in, 3)
	assert.NotNil(t, crud.Apply(k, nil, crud.Query{}))
}
