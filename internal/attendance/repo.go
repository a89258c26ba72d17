package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"salon/internal/apperr"
	"salon/internal/metrics"
	"salon/internal/model"
	"salon/internal/store"
)

// Repository persists attendance records in the record store.
type Repository struct {
	docs store.Documents
}

// NewRepository creates a repo.
func NewRepository(docs store.Documents) *Repository {
	return &Repository{docs: docs}
}

// Insert writes a new record and returns it as stored.
func (r *Repository) Insert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	fields := store.Fields{
		"customer": rec.Customer,
		"service":  rec.Service,
		"amount":   rec.Amount.String(),
		"date":     rec.Date.UTC().Format(time.RFC3339Nano),
	}
	if rec.Status != "" {
		fields["status"] = rec.Status
	}
	id, err := r.docs.Create(ctx, store.Attendance, fields)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	metrics.RecordWrites.WithLabelValues(store.Attendance, "create").Inc()
	return r.Get(ctx, id)
}

// Get returns a single record by id.
func (r *Repository) Get(ctx context.Context, id string) (model.AttendanceRecord, error) {
	doc, err := r.docs.FetchOne(ctx, store.Attendance, id)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	return fromDocument(doc)
}

// All returns every record in insertion order.
func (r *Repository) All(ctx context.Context) ([]model.AttendanceRecord, error) {
	docs, err := r.docs.FetchAll(ctx, store.Attendance)
	if err != nil {
		return nil, err
	}
	out := make([]model.AttendanceRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := fromDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Update merges fields into the record; version 0 skips the optimistic check.
func (r *Repository) Update(ctx context.Context, id string, fields store.Fields, version int64) error {
	if err := r.docs.Update(ctx, store.Attendance, id, fields, version); err != nil {
		return err
	}
	metrics.RecordWrites.WithLabelValues(store.Attendance, "update").Inc()
	return nil
}

// Delete removes a record permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.docs.Delete(ctx, store.Attendance, id); err != nil {
		return err
	}
	metrics.RecordWrites.WithLabelValues(store.Attendance, "delete").Inc()
	return nil
}

func fromDocument(d store.Document) (model.AttendanceRecord, error) {
	amount, err := decimal.NewFromString(d.Fields.String("amount"))
	if err != nil {
		return model.AttendanceRecord{}, corrupt(d.ID, err)
	}
	when, err := d.Fields.Time("date")
	if err != nil {
		return model.AttendanceRecord{}, corrupt(d.ID, err)
	}
	return model.AttendanceRecord{
		ID:       d.ID,
		Customer: d.Fields.String("customer"),
		Service:  d.Fields.String("service"),
		Amount:   amount,
		Date:     when,
		Status:   d.Fields.String("status"),
		Version:  d.Version,
	}, nil
}

func corrupt(id string, err error) error {
	return apperr.Wrap(apperr.KindInternal, fmt.Errorf("attendance %s: %w", id, err), "stored attendance record is unreadable")
}
