package customer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salon/internal/apperr"
	"salon/internal/model"
	"salon/internal/store"
)

// countingDocs records every call that reaches the store.
type countingDocs struct {
	store.Documents
	calls int
}

func (c *countingDocs) FetchAll(ctx context.Context, col string) ([]store.Document, error) {
	c.calls++
	return c.Documents.FetchAll(ctx, col)
}

func (c *countingDocs) FetchOne(ctx context.Context, col, id string) (store.Document, error) {
	c.calls++
	return c.Documents.FetchOne(ctx, col, id)
}

func (c *countingDocs) Create(ctx context.Context, col string, f store.Fields) (string, error) {
	c.calls++
	return c.Documents.Create(ctx, col, f)
}

func (c *countingDocs) Update(ctx context.Context, col, id string, f store.Fields, v int64) error {
	c.calls++
	return c.Documents.Update(ctx, col, id, f, v)
}

func (c *countingDocs) Delete(ctx context.Context, col, id string) error {
	c.calls++
	return c.Documents.Delete(ctx, col, id)
}

func newTestService() (*Service, *countingDocs) {
	docs := &countingDocs{Documents: store.NewMemory()}
	svc := NewService(NewRepository(docs), NewCollator("en"), time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC) }
	return svc, docs
}

func TestCreateRejectsInvalidInputWithoutStoreCall(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		msg  string
	}{
		{"negative age", Input{CustomerName: "Alice", Age: -1}, "Field 'age' must be greater than 0"},
		{"zero age", Input{CustomerName: "Alice"}, "Field 'age' must be greater than 0"},
		{"blank name", Input{CustomerName: "   ", Age: 30}, "Field 'customerName' is required"},
		{"bad email", Input{CustomerName: "Alice", Age: 30, Email: "nope"}, "Field 'email' must be a valid email"},
		{"bad gender", Input{CustomerName: "Alice", Age: 30, Gender: "robot"}, "Field 'gender' must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, docs := newTestService()
			_, err := svc.Create(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Contains(t, apperr.Message(err), tt.msg)
			assert.Zero(t, docs.calls)
		})
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{CustomerName: " Alice ", Age: 28, Gender: "Female", Mobile: "555-0101", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Alice", c.CustomerName)
	assert.Equal(t, model.GenderFemale, c.Gender)
	assert.Equal(t, "2024-03-09", c.JoiningDate.String())
	assert.False(t, c.HasProfileImage())

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestEdit(t *testing.T) {
	svc, docs := newTestService()
	ctx := context.Background()
	c, err := svc.Create(ctx, Input{CustomerName: "Bob", Age: 40})
	require.NoError(t, err)

	name := "Robert"
	age := 41
	got, err := svc.Edit(ctx, c.ID, Patch{CustomerName: &name, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Robert", got.CustomerName)
	assert.Equal(t, 41, got.Age)
	assert.Equal(t, c.Mobile, got.Mobile)

	t.Run("stale version conflicts", func(t *testing.T) {
		other := "Rob"
		_, err := svc.Edit(ctx, c.ID, Patch{CustomerName: &other, Version: c.Version})
		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("version-only patch checks version", func(t *testing.T) {
		_, err := svc.Edit(ctx, c.ID, Patch{Version: c.Version})
		assert.True(t, apperr.Is(err, apperr.KindConflict))

		same, err := svc.Edit(ctx, c.ID, Patch{Version: got.Version})
		require.NoError(t, err)
		assert.Equal(t, "Robert", same.CustomerName)
	})

	t.Run("invalid patch never reaches store", func(t *testing.T) {
		before := docs.calls
		blank := ""
		_, err := svc.Edit(ctx, c.ID, Patch{CustomerName: &blank})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		bad := -3
		_, err = svc.Edit(ctx, c.ID, Patch{Age: &bad})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.Equal(t, before, docs.calls)
	})

	t.Run("missing customer", func(t *testing.T) {
		_, err := svc.Edit(ctx, "nope", Patch{CustomerName: &name})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestSetProfileImage(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c, err := svc.Create(ctx, Input{CustomerName: "Cara", Age: 22})
	require.NoError(t, err)

	got, err := svc.SetProfileImage(ctx, c.ID, "https://img.example.com/cara.jpg")
	require.NoError(t, err)
	assert.True(t, got.HasProfileImage())
	assert.Equal(t, "https://img.example.com/cara.jpg", got.ProfileImage)
}

func TestListAndDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, n := range []string{"Khalid", "Bob", "Alice"} {
		_, err := svc.Create(ctx, Input{CustomerName: n, Age: 30})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Khalid", "Bob", "Alice"}, names(all))

	asc := Ascending
	matched, err := svc.List(ctx, Query{Search: "ali", Sort: &asc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Khalid"}, names(matched))

	require.NoError(t, svc.Delete(ctx, matched[0].ID))
	all, err = svc.List(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Khalid", "Bob"}, names(all))

	assert.True(t, apperr.Is(svc.Delete(ctx, matched[0].ID), apperr.KindNotFound))
}
