package customer

import (
	"context"
	"fmt"

	"salon/internal/apperr"
	"salon/internal/metrics"
	"salon/internal/model"
	"salon/internal/store"
)

// Repository persists customers in the record store.
type Repository struct {
	docs store.Documents
}

// NewRepository creates a repo.
func NewRepository(docs store.Documents) *Repository {
	return &Repository{docs: docs}
}

// Insert stores a new customer and returns it with its assigned id.
func (r *Repository) Insert(ctx context.Context, c model.Customer) (model.Customer, error) {
	id, err := r.docs.Create(ctx, store.Customers, toFields(c))
	if err != nil {
		return model.Customer{}, err
	}
	metrics.RecordWrites.WithLabelValues(store.Customers, "create").Inc()
	return r.Get(ctx, id)
}

// Get returns a single customer by id.
func (r *Repository) Get(ctx context.Context, id string) (model.Customer, error) {
	doc, err := r.docs.FetchOne(ctx, store.Customers, id)
	if err != nil {
		return model.Customer{}, err
	}
	return fromDocument(doc)
}

// All returns every customer in insertion order.
func (r *Repository) All(ctx context.Context) ([]model.Customer, error) {
	docs, err := r.docs.FetchAll(ctx, store.Customers)
	if err != nil {
		return nil, err
	}
	out := make([]model.Customer, 0, len(docs))
	for _, d := range docs {
		c, err := fromDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Update writes the given fields; version 0 skips the optimistic check.
func (r *Repository) Update(ctx context.Context, id string, fields store.Fields, version int64) error {
	if err := r.docs.Update(ctx, store.Customers, id, fields, version); err != nil {
		return err
	}
	metrics.RecordWrites.WithLabelValues(store.Customers, "update").Inc()
	return nil
}

// Delete removes a customer permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.docs.Delete(ctx, store.Customers, id); err != nil {
		return err
	}
	metrics.RecordWrites.WithLabelValues(store.Customers, "delete").Inc()
	return nil
}

func toFields(c model.Customer) store.Fields {
	f := store.Fields{
		"customerName": c.CustomerName,
		"age":          c.Age,
		"gender":       string(c.Gender),
		"mobile":       c.Mobile,
		"email":        c.Email,
		"address":      c.Address,
		"joiningDate":  c.JoiningDate.String(),
	}
	if c.ProfileImage != "" {
		f["profileImage"] = c.ProfileImage
	}
	return f
}

func fromDocument(d store.Document) (model.Customer, error) {
	age, err := d.Fields.Int("age")
	if err != nil {
		return model.Customer{}, corrupt(d.ID, err)
	}
	gender, ok := model.ParseGender(d.Fields.String("gender"))
	if !ok {
		gender = model.GenderUnspecified
	}
	var joined model.DateOnly
	if s := d.Fields.String("joiningDate"); s != "" {
		if joined, err = model.ParseDate(s); err != nil {
			return model.Customer{}, corrupt(d.ID, err)
		}
	}
	return model.Customer{
		ID:           d.ID,
		CustomerName: d.Fields.String("customerName"),
		Age:          int(age),
		Gender:       gender,
		Mobile:       d.Fields.String("mobile"),
		Email:        d.Fields.String("email"),
		Address:      d.Fields.String("address"),
		JoiningDate:  joined,
		ProfileImage: d.Fields.String("profileImage"),
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
	}, nil
}

func corrupt(id string, err error) error {
	return apperr.Wrap(apperr.KindInternal, fmt.Errorf("customer %s: %w", id, err), "stored customer is unreadable")
}
