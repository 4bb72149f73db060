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

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Nine Arch Bridge!":      "nine-arch-bridge",
		"  City Tours  ":         "city-tours",
		"Tea & Spice -- Gardens": "tea-spice-gardens",
		"already-a-slug":         "already-a-slug",
		"!!!":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, crud.Slugify(in), in)
	}
}

func TestValidSlug(t *testing.T) {
	assert.True(t, crud.ValidSlug("city-tours-2"))
	assert.False(t, crud.ValidSlug("City Tours"))
	assert.False(t, crud.ValidSlug(""))
}

func TestForm_OpenCreate_defaults(t *testing.T) {
	f := crud.NewForm(mustKind(t, "gallery-cities"))
	f.OpenCreate()

	s := f.Snapshot()
	assert.Equal(t, crud.FormOpen, s.State)
	assert.Equal(t, crud.ModeCreate, s.Mode)
	assert.Equal(t, "default", s.Draft.Values["type"])
	assert.Equal(t, "", s.Draft.Values["city"])
}

func TestForm_SlugFollowsNameUntilEditedDirectly(t *testing.T) {
	f := crud.NewForm(mustKind(t, "activity-categories"))
	f.OpenCreate()

	require.NoError(t, f.Set("name", "Nine Arch Bridge!"))
	assert.Equal(t, "nine-arch-bridge", f.Snapshot().Draft.Values["slug"])

	require.NoError(t, f.Set("slug", "bridge"))
	require.NoError(t, f.Set("name", "Nine Arches"))

	assert.Equal(t, "bridge", f.Snapshot().Draft.Values["slug"])
}

func TestForm_SlugEditMatchingDerivationKeepsTracking(t *testing.T) {
	f := crud.NewForm(mustKind(t, "countries"))
	f.OpenCreate()

	require.NoError(t, f.Set("name", "Sri Lanka"))
	require.NoError(t, f.Set("slug", "sri-lanka"))
	require.NoError(t, f.Set("name", "Sri Lanka Island"))

	assert.Equal(t, "sri-lanka-island", f.Snapshot().Draft.Values["slug"])
}

func TestForm_Apply_untouchedSlugFollowsChangedName(t *testing.T) {
	f := crud.NewForm(mustKind(t, "locations"))
	f.OpenCreate()
	require.NoError(t, f.Set("name", "Ella"))

	// Full submission: name changed, slug posted back as it was rendered.
	require.NoError(t, f.Apply(map[string]string{"name": "Ella Rock", "slug": "ella"}))

	assert.Equal(t, "ella-rock", f.Snapshot().Draft.Values["slug"])
}

func TestForm_Apply_manualSlugWins(t *testing.T) {
	f := crud.NewForm(mustKind(t, "locations"))
	f.OpenCreate()

	require.NoError(t, f.Apply(map[string]string{"name": "Ella Rock", "slug": "ella-peak"}))
	require.NoError(t, f.Apply(map[string]string{"name": "Ella Rock Trail", "slug": "ella-peak"}))

	assert.Equal(t, "ella-peak", f.Snapshot().Draft.Values["slug"])
}

func TestForm_OpenEdit_isDefensiveCopy(t *testing.T) {
	source := rec(t, `{"id":5,"title":"Whale Watching","slug":"whales","price":25,"location":{"id":3}}`)
	f := crud.NewForm(mustKind(t, "activities"))
	f.OpenEdit(source)

	require.NoError(t, f.Set("title", "Dolphin Watching"))

	assert.Equal(t, "Whale Watching", source.Text("title"))
	s := f.Snapshot()
	assert.Equal(t, crud.ModeEdit, s.Mode)
	assert.Equal(t, domain.ID("5"), s.Target)
	assert.Equal(t, "3", s.Draft.Values["location_id"])
	// "whales" was not derived from the title, so it does not follow it.
	assert.Equal(t, "whales", s.Draft.Values["slug"])
}

func TestForm_Set_requiresOpenForm(t *testing.T) {
	f := crud.NewForm(mustKind(t, "countries"))

	assert.ErrorIs(t, f.Set("name", "x"), crud.ErrFormNotOpen)
	f.OpenCreate()
	assert.Error(t, f.Set("nope", "x"))
}

func TestForm_Submit_validationBlocksNetwork(t *testing.T) {
	res := &fakeResource{}
	f := crud.NewForm(mustKind(t, "activity-categories"))
	f.OpenCreate()
	require.NoError(t, f.Set("slug", "Not A Slug"))

	_, err := f.Submit(context.Background(), res, nil)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Name is required", verr.Fields["name"])
	assert.Equal(t, "Slug can only contain lowercase letters, numbers, and hyphens", verr.Fields["slug"])
	assert.Empty(t, res.Calls())

	s := f.Snapshot()
	assert.Equal(t, crud.FormOpen, s.State)
	assert.Equal(t, "Not A Slug", s.Draft.Values["slug"])
	assert.Len(t, s.FieldErrors, 2)
}

func TestForm_Submit_negativePriceOnEditIsRejectedBeforeNetwork(t *testing.T) {
	res := &fakeResource{}
	v := mountedView(t, "activities", []domain.Record{
		rec(t, `{"id":5,"title":"Surf","description":"Arugam Bay","price":30,"activity_category_id":1,"location_id":2}`),
	})
	target, ok := v.Find("5")
	require.True(t, ok)

	f := crud.NewForm(mustKind(t, "activities"))
	f.OpenEdit(target)
	require.NoError(t, f.Set("price", "-10"))

	_, err := f.Submit(context.Background(), res, v.Hooks())

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, crud.FormOpen, f.Snapshot().State)
	assert.Equal(t, "Price must be a non-negative number", f.Snapshot().FieldErrors["price"])
	assert.Empty(t, res.Calls())
	got, _ := v.Find("5")
	assert.Equal(t, "30", got.Text("price"))
}

func TestForm_Submit_createNotifiesWithServerRecord(t *testing.T) {
	res := &fakeResource{}
	v := mountedView(t, "activity-categories", nil)
	f := crud.NewForm(mustKind(t, "activity-categories"))
	f.OpenCreate()
	require.NoError(t, f.Apply(map[string]string{"name": "City Tours", "slug": "city-tours"}))

	created, err := f.Submit(context.Background(), res, v.Hooks())

	require.NoError(t, err)
	assert.Equal(t, domain.ID("101"), created.ID)
	assert.Equal(t, crud.FormClosed, f.Snapshot().State)
	assert.Equal(t, []string{"101"}, ids(v.Records()))

	assert.Equal(t, []string{"101"}, ids(v.Visible(crud.Query{Search: "city"})))
	assert.Empty(t, v.Visible(crud.Query{Search: "beach"}))
}

func TestForm_Submit_roundTripThroughList(t *testing.T) {
	res := &fakeResource{}
	f := crud.NewForm(mustKind(t, "countries"))
	f.OpenCreate()
	draft := map[string]string{"name": "Sri Lanka", "slug": "sri-lanka", "currency": "LKR", "timezone": "Asia/Colombo"}
	require.NoError(t, f.Apply(draft))

	_, err := f.Submit(context.Background(), res, nil)
	require.NoError(t, err)

	listed, err := res.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	for k, want := range draft {
		assert.Equal(t, want, listed[0].Text(k), k)
	}
}

func TestForm_Submit_backendFailureKeepsDraft(t *testing.T) {
	boom := errors.New("500 internal")
	res := &fakeResource{createErr: boom}
	v := mountedView(t, "locations", nil)
	f := crud.NewForm(mustKind(t, "locations"))
	f.OpenCreate()
	require.NoError(t, f.Apply(map[string]string{"name": "Galle Fort", "image": "galle.jpg", "description": "Dutch fort"}))

	_, err := f.Submit(context.Background(), res, v.Hooks())

	require.ErrorIs(t, err, boom)
	s := f.Snapshot()
	assert.Equal(t, crud.FormOpen, s.State)
	assert.ErrorIs(t, s.Err, boom)
	assert.Equal(t, "Galle Fort", s.Draft.Values["name"])
	assert.Equal(t, "galle-fort", s.Draft.Values["slug"])
	assert.Zero(t, v.Len())
}

func TestForm_Submit_updateSendsAllFieldsAndReplaces(t *testing.T) {
	res := &fakeResource{}
	v := mountedView(t, "gallery-cities", []domain.Record{
		rec(t, `{"id":1,"city":"Kandy","image":"k.jpg","alt":"Temple","type":"default"}`),
		rec(t, `{"id":2,"city":"Galle","image":"g.jpg","alt":"Fort","type":"default"}`),
	})
	target, _ := v.Find("2")
	f := crud.NewForm(mustKind(t, "gallery-cities"))
	f.OpenEdit(target)
	require.NoError(t, f.Set("type", "alternative"))

	_, err := f.Submit(context.Background(), res, v.Hooks())

	require.NoError(t, err)
	assert.Equal(t, []string{"update"}, res.Calls())
	assert.Equal(t, map[string]any{"city": "Galle", "image": "g.jpg", "alt": "Fort", "type": "alternative"}, res.lastFields)
	got, _ := v.Find("2")
	assert.Equal(t, "alternative", got.Text("type"))
	assert.Equal(t, 2, v.Len())
}

func TestForm_Submit_selectMustBeAnOption(t *testing.T) {
	f := crud.NewForm(mustKind(t, "gallery-cities"))
	f.OpenCreate()
	require.NoError(t, f.Apply(map[string]string{"city": "Jaffna", "image": "j.jpg", "alt": "Fort", "type": "fancy"}))

	_, err := f.Submit(context.Background(), &fakeResource{}, nil)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Type must be one of: default, alternative", verr.Fields["type"])
}

func TestForm_Submit_blankOptionalSlugIsDerived(t *testing.T) {
	res := &fakeResource{}
	f := crud.NewForm(mustKind(t, "activities"))
	f.OpenCreate()
	require.NoError(t, f.Apply(map[string]string{
		"title": "Surf Lessons", "slug": "", "description": "Beginner waves",
		"price": "45.5", "activity_category_id": "3", "location_id": "x7",
	}))
	require.NoError(t, f.Set("slug", ""))
	require.NoError(t, f.Attach("image", domain.Attachment{Filename: "surf.png", ContentType: "image/png", Data: []byte{1, 2}}))

	_, err := f.Submit(context.Background(), res, nil)

	require.NoError(t, err)
	p := res.lastPayload
	assert.Equal(t, "surf-lessons", p.Fields["slug"])
	assert.Equal(t, 45.5, p.Fields["price"])
	assert.Equal(t, int64(3), p.Fields["activity_category_id"])
	assert.Equal(t, "x7", p.Fields["location_id"])
	assert.Contains(t, p.Files, "image")
	assert.NotContains(t, p.Fields, "image")
}

func TestForm_Attach_rejectsNonImageField(t *testing.T) {
	f := crud.NewForm(mustKind(t, "activities"))
	f.OpenCreate()

	assert.Error(t, f.Attach("title", domain.Attachment{}))
}

func TestForm_Submit_closedForm(t *testing.T) {
	f := crud.NewForm(mustKind(t, "countries"))

	_, err := f.Submit(context.Background(), &fakeResource{}, nil)

	assert.ErrorIs(t, err, crud.ErrFormNotOpen)
}

func TestForm_Close_discardsDraft(t *testing.T) {
	f := crud.NewForm(mustKind(t, "countries"))
	f.OpenCreate()
	require.NoError(t, f.Set("name", "Maldives"))

	f.Close()

	s := f.Snapshot()
	assert.Equal(t, crud.FormClosed, s.State)
	assert.Nil(t, s.Draft.Values)
}

func TestForm_Attach_editRejectsUploadAndKeepsImage(t *testing.T) {
	res := &fakeResource{}
	v := mountedView(t, "activities", []domain.Record{
		rec(t, `{"id":5,"title":"Surf Lesson","slug":"surf-lesson","description":"Waves","image":"old.jpg","activity_category_id":3,"location_id":7}`),
	})
	target, _ := v.Find("5")
	f := crud.NewForm(mustKind(t, "activities"))
	f.OpenEdit(target)

	err := f.Attach("image", domain.Attachment{Filename: "new.jpg", ContentType: "image/jpeg", Data: []byte{1}})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "image")
	s := f.Snapshot()
	assert.Equal(t, crud.FormOpen, s.State)
	assert.Contains(t, s.FieldErrors, "image")
	assert.Empty(t, s.Draft.Files)
	assert.Empty(t, res.Calls())

	require.NoError(t, f.Set("image", "https://cdn.example.com/new.jpg"))
	_, err = f.Submit(context.Background(), res, v.Hooks())

	require.NoError(t, err)
	assert.Equal(t, []string{"update"}, res.Calls())
	assert.Equal(t, "https://cdn.example.com/new.jpg", res.lastFields["image"])
}
