package store

import (
	"context"
	"fmt"
)

// Open selects the record store for STORE_BACKEND. The returned DB is nil
// for the memory backend.
func Open(ctx context.Context, backend, databaseURL, sqlitePath string) (Documents, *DB, error) {
	var (
		db  *DB
		err error
	)
	switch backend {
	case "memory":
		return NewMemory(), nil, nil
	case "sqlite":
		db, err = NewSQLite(sqlitePath)
	case "postgres", "":
		db, err = NewDB(databaseURL)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connect %s: %w", backend, err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", backend, err)
	}
	return NewSQLDocuments(db), db, nil
}
