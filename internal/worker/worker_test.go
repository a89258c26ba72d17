package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salon/internal/insights"
	"salon/internal/model"
	"salon/internal/queue"
)

type staticRecords struct {
	recs []model.AttendanceRecord
	err  error
}

func (s staticRecords) Records(context.Context) ([]model.AttendanceRecord, error) {
	return s.recs, s.err
}

func visit(amount string, at time.Time) model.AttendanceRecord {
	return model.AttendanceRecord{Customer: "Alice", Service: "Hair Cut", Amount: decimal.RequireFromString(amount), Date: at}
}

func newHandler(recs staticRecords) (*Handler, *insights.MemoryCache) {
	cache := insights.NewMemoryCache()
	h := New(recs, cache, time.UTC)
	h.now = func() time.Time { return time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC) }
	return h, cache
}

func TestAttendanceChangedRefreshesCache(t *testing.T) {
	ctx := context.Background()
	h, cache := newHandler(staticRecords{recs: []model.AttendanceRecord{
		visit("100", time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC)),
		visit("250", time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)),
		visit("50", time.Date(2024, 10, 31, 10, 0, 0, 0, time.UTC)),
	}})

	msg, err := queue.NewMessage(queue.AttendanceChanged, queue.AttendanceEvent{ID: "a1", Op: "create"})
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, msg))

	got, ok, err := cache.Get(ctx, "2024-11")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "350", got.TotalEarnings.String())
	assert.Equal(t, 2, got.TotalAttendance)
}

func TestHandleOtherMessages(t *testing.T) {
	ctx := context.Background()
	h, cache := newHandler(staticRecords{err: errors.New("store down")})

	session, err := queue.NewMessage(queue.SessionChanged, queue.SessionEvent{UserID: "u1", State: "signed_in"})
	require.NoError(t, err)
	assert.NoError(t, h.Handle(ctx, session))
	assert.NoError(t, h.Handle(ctx, queue.Message{Type: "unknown"}))

	changed, err := queue.NewMessage(queue.AttendanceChanged, queue.AttendanceEvent{ID: "a1"})
	require.NoError(t, err)
	assert.Error(t, h.Handle(ctx, changed))
	_, ok, _ := cache.Get(ctx, "2024-11")
	assert.False(t, ok)

	assert.Error(t, h.Handle(ctx, queue.Message{Type: queue.AttendanceChanged, Body: []byte("[]")}))
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := queue.NewInMemory(4)
	h, cache := newHandler(staticRecords{recs: []model.AttendanceRecord{
		visit("40", time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC)),
	}})
	msg, err := queue.NewMessage(queue.AttendanceChanged, queue.AttendanceEvent{ID: "a1", Op: "create"})
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, msg))

	done := make(chan error, 1)
	go func() { done <- Run(ctx, q, h) }()

	require.Eventually(t, func() bool {
		_, ok, _ := cache.Get(context.Background(), "2024-11")
		return ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
