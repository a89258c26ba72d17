package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salon/internal/apperr"
)

// Collections used by the salon.
const (
	Customers  = "customers"
	Attendance = "attendance"
)

// Document is one stored record: an opaque id plus its fields.
type Document struct {
	ID        string
	Fields    Fields
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Documents is the record store contract. Implementations must be safe for
// concurrent use.
type Documents interface {
	// FetchAll returns every document of a collection in creation order.
	FetchAll(ctx context.Context, collection string) ([]Document, error)
	// FetchOne returns a not_found error when the id does not exist.
	FetchOne(ctx context.Context, collection, id string) (Document, error)
	// Create stores fields under a new id and returns it.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// Update merges fields into the stored document. expectedVersion 0
	// means last write wins; any other value must match the stored version.
	Update(ctx context.Context, collection, id string, fields Fields, expectedVersion int64) error
	// Delete removes the document permanently.
	Delete(ctx context.Context, collection, id string) error
}

func notFound(collection, id string) error {
	return apperr.Newf(apperr.KindNotFound, "%s record %s not found", singular(collection), id)
}

func conflict(collection, id string) error {
	return apperr.Newf(apperr.KindConflict, "%s record %s was changed by someone else", singular(collection), id)
}

// CheckVersion reports a conflict when expected is set and differs from the
// stored version.
func CheckVersion(collection, id string, stored, expected int64) error {
	if expected != 0 && stored != expected {
		return conflict(collection, id)
	}
	return nil
}

func singular(collection string) string {
	if collection == Customers {
		return "customer"
	}
	return collection
}

// normalize deep-copies fields through JSON so every backend hands back the
// same shapes: numbers as json.Number, times as strings.
func normalize(fields Fields) (Fields, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return decodeFields(raw)
}

func decodeFields(raw []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	out := Fields{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}

func merge(dst, patch Fields) Fields {
	out := make(Fields, len(dst)+len(patch))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
