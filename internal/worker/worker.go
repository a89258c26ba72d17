// Package worker keeps the cached month-to-date insights in step with
// attendance changes.
package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"salon/internal/insights"
	"salon/internal/model"
	"salon/internal/queue"
)

// Records loads every stored attendance record.
type Records interface {
	Records(ctx context.Context) ([]model.AttendanceRecord, error)
}

// Handler processes one queue message at a time.
type Handler struct {
	records Records
	cache   insights.Cache
	loc     *time.Location
	now     func() time.Time
}

// New creates a handler.
func New(records Records, cache insights.Cache, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{records: records, cache: cache, loc: loc, now: time.Now}
}

// Handle dispatches msg by type. Unknown types are ignored.
func (h *Handler) Handle(ctx context.Context, msg queue.Message) error {
	switch msg.Type {
	case queue.AttendanceChanged:
		var evt queue.AttendanceEvent
		if err := msg.Decode(&evt); err != nil {
			return err
		}
		log.Printf("attendance %s %s", evt.Op, evt.ID)
		_, err := h.Refresh(ctx)
		return err
	case queue.SessionChanged:
		var evt queue.SessionEvent
		if err := msg.Decode(&evt); err != nil {
			return err
		}
		log.Printf("session %s for %s", evt.State, evt.Email)
		return nil
	default:
		log.Printf("worker: ignoring message type %q", msg.Type)
		return nil
	}
}

// Refresh recomputes the current month's summary and caches it.
func (h *Handler) Refresh(ctx context.Context) (insights.Summary, error) {
	now := h.now()
	all, err := h.records.Records(ctx)
	if err != nil {
		return insights.Summary{}, fmt.Errorf("load attendance: %w", err)
	}
	r := insights.MonthToDate(now, h.loc)
	sum := insights.Aggregate(all, &r)
	if err := h.cache.Set(ctx, insights.MonthKey(now, h.loc), sum); err != nil {
		return sum, fmt.Errorf("cache summary: %w", err)
	}
	return sum, nil
}

// Run consumes q until ctx is done or the queue closes.
func Run(ctx context.Context, q queue.Queue, h *Handler) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume init failed: %w", err)
	}
	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if err := h.Handle(ctx, msg); err != nil {
			log.Printf("handle %s failed: %v", msg.Type, err)
		}
	}
	log.Println("worker stopped")
	return nil
}
