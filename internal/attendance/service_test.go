package attendance

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salon/internal/apperr"
	"salon/internal/config"
	"salon/internal/insights"
	"salon/internal/model"
	"salon/internal/queue"
	"salon/internal/store"
)

type fakeCustomers map[string]model.Customer

func (f fakeCustomers) Get(_ context.Context, id string) (model.Customer, error) {
	c, ok := f[id]
	if !ok {
		return model.Customer{}, apperr.Newf(apperr.KindNotFound, "customer record %s not found", id)
	}
	return c, nil
}

type recordingPublisher struct {
	msgs []queue.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg queue.Message) error {
	p.msgs = append(p.msgs, msg)
	return nil
}

type fixture struct {
	svc    *Service
	events *recordingPublisher
	cache  *insights.MemoryCache
	clock  time.Time
}

func newFixture() *fixture {
	f := &fixture{
		events: &recordingPublisher{},
		cache:  insights.NewMemoryCache(),
		clock:  time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC),
	}
	customers := fakeCustomers{"c1": {ID: "c1", CustomerName: "Alice"}}
	f.svc = NewService(NewRepository(store.NewMemory()), customers, model.NewCatalog(config.DefaultServices), f.events, f.cache, time.UTC)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func TestMark(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.svc.Mark(ctx, MarkInput{CustomerID: "c1", Service: "Hair Cut", Amount: "150.50"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Alice", rec.Customer)
	assert.Equal(t, "150.5", rec.Amount.String())
	assert.True(t, f.clock.Equal(rec.Date))

	require.Len(t, f.events.msgs, 1)
	assert.Equal(t, queue.AttendanceChanged, f.events.msgs[0].Type)
	var evt queue.AttendanceEvent
	require.NoError(t, f.events.msgs[0].Decode(&evt))
	assert.Equal(t, rec.ID, evt.ID)
	assert.Equal(t, "create", evt.Op)
}

func TestMarkValidation(t *testing.T) {
	tests := []struct {
		name string
		in   MarkInput
		kind apperr.Kind
		msg  string
	}{
		{"no customer", MarkInput{Service: "Hair Cut", Amount: "10"}, apperr.KindValidation, "Field 'customer' is required"},
		{"unknown service", MarkInput{Customer: "Bob", Service: "Massage", Amount: "10"}, apperr.KindValidation, "Field 'service' must be one of"},
		{"non-numeric amount", MarkInput{Customer: "Bob", Service: "Hair Cut", Amount: "ten"}, apperr.KindValidation, "Field 'amount' must be numeric"},
		{"negative amount", MarkInput{Customer: "Bob", Service: "Hair Cut", Amount: "-5"}, apperr.KindValidation, "Field 'amount' must be at least 0"},
		{"missing amount", MarkInput{Customer: "Bob", Service: "Hair Cut"}, apperr.KindValidation, "Field 'amount' is required"},
		{"unknown customer id", MarkInput{CustomerID: "nope", Service: "Hair Cut", Amount: "10"}, apperr.KindNotFound, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Mark(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Contains(t, apperr.Message(err), tt.msg)
			assert.Empty(t, f.events.msgs)

			all, err := f.svc.Records(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestUpdateKeepsDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Mark(ctx, MarkInput{Customer: "Bob", Service: "Hair Cut", Amount: "100"})
	require.NoError(t, err)

	f.clock = f.clock.Add(48 * time.Hour)
	amount := json.Number("120")
	status := "paid"
	got, err := f.svc.Update(ctx, rec.ID, UpdateInput{Amount: &amount, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "120", got.Amount.String())
	assert.Equal(t, "paid", got.Status)
	assert.Equal(t, "Bob", got.Customer)
	assert.True(t, rec.Date.Equal(got.Date))
	assert.Len(t, f.events.msgs, 2)

	bad := "Massage"
	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{Service: &bad})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{Status: &status, Version: rec.Version})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{Version: rec.Version})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	same, err := f.svc.Update(ctx, rec.ID, UpdateInput{Version: got.Version})
	require.NoError(t, err)
	assert.Equal(t, got.Version, same.Version)
	assert.Len(t, f.events.msgs, 2)
}

func TestWritesDropCachedSummary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	month := insights.MonthKey(f.clock, time.UTC)
	stale := insights.Summary{TotalAttendance: 7}
	cached := func() bool {
		_, ok, err := f.cache.Get(ctx, month)
		require.NoError(t, err)
		return ok
	}

	require.NoError(t, f.cache.Set(ctx, month, stale))
	rec, err := f.svc.Mark(ctx, MarkInput{Customer: "Bob", Service: "Hair Cut", Amount: "100"})
	require.NoError(t, err)
	assert.False(t, cached())

	require.NoError(t, f.cache.Set(ctx, month, stale))
	amount := json.Number("90")
	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{Amount: &amount})
	require.NoError(t, err)
	assert.False(t, cached())

	require.NoError(t, f.cache.Set(ctx, month, stale))
	_, err = f.svc.Update(ctx, rec.ID, UpdateInput{Amount: &amount, Version: 1})
	require.Error(t, err)
	assert.True(t, cached(), "a failed write keeps the cache")

	require.NoError(t, f.svc.Delete(ctx, rec.ID))
	assert.False(t, cached())
}

func TestCustomerRenameKeepsSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Mark(ctx, MarkInput{CustomerID: "c1", Service: "Hair Spa", Amount: "80"})
	require.NoError(t, err)

	f.svc.customers = fakeCustomers{"c1": {ID: "c1", CustomerName: "Alicia"}}
	got, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Customer)
}

func TestDeleteRemovesFromFetchAll(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	keep, err := f.svc.Mark(ctx, MarkInput{Customer: "Bob", Service: "Hair Cut", Amount: "100"})
	require.NoError(t, err)
	gone, err := f.svc.Mark(ctx, MarkInput{Customer: "Cara", Service: "Facial Treatment", Amount: "200"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, gone.ID))

	all, err := f.svc.Records(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)

	_, err = f.svc.Get(ctx, gone.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(f.svc.Delete(ctx, gone.ID), apperr.KindNotFound))

	var evt queue.AttendanceEvent
	last := f.events.msgs[len(f.events.msgs)-1]
	require.NoError(t, last.Decode(&evt))
	assert.Equal(t, "delete", evt.Op)
	assert.Equal(t, gone.ID, evt.ID)
}

func TestHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	mark := func(day int, customer, amount string) {
		f.clock = time.Date(2024, 11, day, 12, 0, 0, 0, time.UTC)
		_, err := f.svc.Mark(ctx, MarkInput{Customer: customer, Service: "Hair Cut", Amount: json.Number(amount)})
		require.NoError(t, err)
	}
	mark(1, "Alice", "100")
	mark(15, "Bob", "250")
	mark(20, "Alicia", "50")

	t.Run("default is month to date", func(t *testing.T) {
		f.clock = time.Date(2024, 11, 16, 9, 0, 0, 0, time.UTC)
		got, r, err := f.svc.History(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), r.Start)
		require.Len(t, got, 2)
		assert.Equal(t, "Bob", got[0].Customer)
		assert.Equal(t, "Alice", got[1].Customer)
		assert.Equal(t, "350", insights.Aggregate(got, &r).TotalEarnings.String())
	})

	t.Run("explicit range and search", func(t *testing.T) {
		r := insights.DayRange(mustDate("2024-11-01"), mustDate("2024-11-30"), time.UTC)
		got, _, err := f.svc.History(ctx, Query{Range: &r, Search: "ali"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Alicia", got[0].Customer)
		assert.Equal(t, "Alice", got[1].Customer)
	})
}

func mustDate(s string) model.DateOnly {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
