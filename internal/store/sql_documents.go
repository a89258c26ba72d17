package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"salon/internal/apperr"
)

const maxUpdateAttempts = 3

// SQLDocuments persists documents in a single SQL table, one JSON blob per row.
type SQLDocuments struct {
	db  *DB
	now func() time.Time
}

// NewSQLDocuments creates a document store on an already-migrated DB.
func NewSQLDocuments(db *DB) *SQLDocuments {
	return &SQLDocuments{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func unavailable(err error) error {
	return apperr.Wrap(apperr.KindUnavailable, err, "record store unavailable")
}

// FetchAll returns every document of the collection, oldest first.
func (s *SQLDocuments) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.Client.QueryContext(ctx, s.db.Rebind(`
		SELECT id, fields, version, created_at, updated_at
		FROM documents
		WHERE collection = ?
		ORDER BY created_at, id
	`), collection)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return docs, nil
}

// FetchOne returns a single document by id.
func (s *SQLDocuments) FetchOne(ctx context.Context, collection, id string) (Document, error) {
	row := s.db.Client.QueryRowContext(ctx, s.db.Rebind(`
		SELECT id, fields, version, created_at, updated_at
		FROM documents WHERE collection = ? AND id = ?
	`), collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, notFound(collection, id)
	}
	return doc, err
}

// Create writes a new document.
func (s *SQLDocuments) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "fields cannot be stored")
	}
	id := uuid.NewString()
	now := s.now()
	_, err = s.db.Client.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO documents (collection, id, fields, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
	`), collection, id, string(raw), now, now)
	if err != nil {
		return "", unavailable(err)
	}
	return id, nil
}

// Update merges fields into the stored document. The write is guarded by
// the version read just before it, so a concurrent writer is never lost
// silently: with expectedVersion 0 the merge is retried, otherwise the
// caller gets a conflict.
func (s *SQLDocuments) Update(ctx context.Context, collection, id string, fields Fields, expectedVersion int64) error {
	patch, err := normalize(fields)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "fields cannot be stored")
	}
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := s.FetchOne(ctx, collection, id)
		if err != nil {
			return err
		}
		if err := CheckVersion(collection, id, current.Version, expectedVersion); err != nil {
			return err
		}
		raw, err := json.Marshal(merge(current.Fields, patch))
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "fields cannot be stored")
		}
		res, err := s.db.Client.ExecContext(ctx, s.db.Rebind(`
			UPDATE documents
			SET fields = ?, version = version + 1, updated_at = ?
			WHERE collection = ? AND id = ? AND version = ?
		`), string(raw), s.now(), collection, id, current.Version)
		if err != nil {
			return unavailable(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			return nil
		}
		if expectedVersion != 0 {
			return conflict(collection, id)
		}
	}
	return conflict(collection, id)
}

// Delete removes a document.
func (s *SQLDocuments) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Client.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM documents WHERE collection = ? AND id = ?
	`), collection, id)
	if err != nil {
		return unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return notFound(collection, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var (
		doc Document
		raw string
	)
	if err := row.Scan(&doc.ID, &raw, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, err
		}
		return Document{}, unavailable(err)
	}
	fields, err := decodeFields([]byte(raw))
	if err != nil {
		return Document{}, apperr.Wrap(apperr.KindInternal, err, "stored record is corrupt")
	}
	doc.Fields = fields
	return doc, nil
}
