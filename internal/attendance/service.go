package attendance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salon/internal/apperr"
	"salon/internal/flow"
	"salon/internal/insights"
	"salon/internal/model"
	"salon/internal/queue"
	"salon/internal/store"
	"salon/internal/validate"
)

// CustomerLookup resolves a customer id to the customer it names.
type CustomerLookup interface {
	Get(ctx context.Context, id string) (model.Customer, error)
}

// MarkInput is the mark-attendance form. Either CustomerID or Customer
// must be set; the id wins when both are.
type MarkInput struct {
	CustomerID string      `json:"customerId"`
	Customer   string      `json:"customer"`
	Service    string      `json:"service" validate:"notblank"`
	Amount     json.Number `json:"amount"`
}

// UpdateInput is the update-attendance form. The visit date never changes.
type UpdateInput struct {
	Customer *string      `json:"customer" validate:"omitnil,notblank"`
	Service  *string      `json:"service" validate:"omitnil,notblank"`
	Amount   *json.Number `json:"amount"`
	Status   *string      `json:"status"`
	Version  int64        `json:"version"`
}

// Query selects history records. A nil Range means month to date.
type Query struct {
	Range  *insights.Range
	Search string
}

// Service handles marking, editing and listing visits.
type Service struct {
	repo      *Repository
	customers CustomerLookup
	catalog   model.Catalog
	events    queue.Publisher
	summaries insights.Cache
	loc       *time.Location
	now       func() time.Time
}

// NewService creates a service. events and summaries may be nil.
// Every successful write drops the cached summary for the record's month.
func NewService(repo *Repository, customers CustomerLookup, catalog model.Catalog, events queue.Publisher, summaries insights.Cache, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if summaries == nil {
		summaries = insights.NoCache{}
	}
	return &Service{repo: repo, customers: customers, catalog: catalog, events: events, summaries: summaries, loc: loc, now: time.Now}
}

// Mark records a visit dated now. The customer name is copied into the
// record and is not updated if the customer is renamed later.
func (s *Service) Mark(ctx context.Context, in MarkInput) (model.AttendanceRecord, error) {
	var (
		amount decimal.Decimal
		out    model.AttendanceRecord
	)
	err := flow.New("mark_attendance").Run(ctx, func() error {
		if strings.TrimSpace(in.CustomerID) == "" && strings.TrimSpace(in.Customer) == "" {
			return apperr.New(apperr.KindValidation, "Field 'customer' is required")
		}
		if err := validate.Struct(in); err != nil {
			return err
		}
		if err := s.checkService(in.Service); err != nil {
			return err
		}
		var err error
		amount, err = ParseAmount(in.Amount)
		return err
	}, func(ctx context.Context) error {
		name := strings.TrimSpace(in.Customer)
		if id := strings.TrimSpace(in.CustomerID); id != "" {
			c, err := s.customers.Get(ctx, id)
			if err != nil {
				return err
			}
			name = c.CustomerName
		}
		rec, err := s.repo.Insert(ctx, model.AttendanceRecord{
			Customer: name,
			Service:  in.Service,
			Amount:   amount,
			Date:     s.now().UTC(),
		})
		if err != nil {
			return err
		}
		out = rec
		s.publish(ctx, "create", rec)
		return nil
	})
	return out, err
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id string) (model.AttendanceRecord, error) {
	return s.repo.Get(ctx, id)
}

// Update replaces customer, service, amount or status.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (model.AttendanceRecord, error) {
	fields := store.Fields{}
	err := flow.New("update_attendance").Run(ctx, func() error {
		if err := validate.Struct(in); err != nil {
			return err
		}
		if in.Customer != nil {
			fields["customer"] = strings.TrimSpace(*in.Customer)
		}
		if in.Service != nil {
			if err := s.checkService(*in.Service); err != nil {
				return err
			}
			fields["service"] = *in.Service
		}
		if in.Amount != nil {
			amount, err := ParseAmount(*in.Amount)
			if err != nil {
				return err
			}
			fields["amount"] = amount.String()
		}
		if in.Status != nil {
			fields["status"] = strings.TrimSpace(*in.Status)
		}
		return nil
	}, func(ctx context.Context) error {
		if len(fields) == 0 {
			rec, err := s.repo.Get(ctx, id)
			if err != nil {
				return err
			}
			return store.CheckVersion(store.Attendance, id, rec.Version, in.Version)
		}
		return s.repo.Update(ctx, id, fields, in.Version)
	})
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if len(fields) > 0 {
		s.publish(ctx, "update", rec)
	}
	return rec, nil
}

// Delete removes a record permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	var rec model.AttendanceRecord
	err := flow.New("delete_attendance").Run(ctx, nil, func(ctx context.Context) error {
		var err error
		if rec, err = s.repo.Get(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, "delete", rec)
	return nil
}

// Records returns every stored visit.
func (s *Service) Records(ctx context.Context) ([]model.AttendanceRecord, error) {
	return s.repo.All(ctx)
}

// History returns the visits matching q, newest first.
func (s *Service) History(ctx context.Context, q Query) ([]model.AttendanceRecord, insights.Range, error) {
	r := insights.MonthToDate(s.now(), s.loc)
	if q.Range != nil {
		r = *q.Range
	}
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, r, err
	}
	out := insights.Filter(all, &r, q.Search)
	slices.SortStableFunc(out, func(a, b model.AttendanceRecord) int {
		return b.Date.Compare(a.Date)
	})
	return out, r, nil
}

// Services lists the catalog.
func (s *Service) Services() []string {
	return s.catalog.Names()
}

func (s *Service) checkService(name string) error {
	if !s.catalog.Contains(name) {
		return apperr.Newf(apperr.KindValidation, "Field 'service' must be one of [%s]", strings.Join(s.catalog.Names(), ", "))
	}
	return nil
}

func (s *Service) publish(ctx context.Context, op string, rec model.AttendanceRecord) {
	month := insights.MonthKey(rec.Date, s.loc)
	if err := s.summaries.Invalidate(ctx, month); err != nil {
		log.Printf("attendance %s %s: invalidate summary %s: %v", op, rec.ID, month, err)
	}
	if s.events == nil {
		return
	}
	msg, err := queue.NewMessage(queue.AttendanceChanged, queue.AttendanceEvent{ID: rec.ID, Op: op, Date: rec.Date})
	if err == nil {
		err = s.events.Publish(ctx, msg)
	}
	if err != nil {
		log.Printf("attendance %s %s: publish failed: %v", op, rec.ID, err)
	}
}

// ParseAmount reads a non-negative decimal amount.
func ParseAmount(n json.Number) (decimal.Decimal, error) {
	raw := strings.TrimSpace(string(n))
	if raw == "" {
		return decimal.Decimal{}, apperr.New(apperr.KindValidation, "Field 'amount' is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, apperr.Wrap(apperr.KindValidation, fmt.Errorf("amount %q: %w", raw, err), "Field 'amount' must be numeric")
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, apperr.New(apperr.KindValidation, "Field 'amount' must be at least 0")
	}
	return amount, nil
}
