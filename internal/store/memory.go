package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"salon/internal/apperr"
)

// Memory is an in-process document store for development and tests.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]*Document
	now         func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string][]*Document),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) FetchAll(_ context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.collections[collection]
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, copyDocument(d))
	}
	return out, nil
}

func (m *Memory) FetchOne(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, _ := m.find(collection, id)
	if d == nil {
		return Document{}, notFound(collection, id)
	}
	return copyDocument(d), nil
}

func (m *Memory) Create(_ context.Context, collection string, fields Fields) (string, error) {
	normalized, err := normalize(fields)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "fields cannot be stored")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	doc := &Document{ID: uuid.NewString(), Fields: normalized, Version: 1, CreatedAt: now, UpdatedAt: now}
	m.collections[collection] = append(m.collections[collection], doc)
	return doc.ID, nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields Fields, expectedVersion int64) error {
	patch, err := normalize(fields)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "fields cannot be stored")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, _ := m.find(collection, id)
	if d == nil {
		return notFound(collection, id)
	}
	if err := CheckVersion(collection, id, d.Version, expectedVersion); err != nil {
		return err
	}
	d.Fields = merge(d.Fields, patch)
	d.Version++
	d.UpdatedAt = m.now()
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, i := m.find(collection, id)
	if d == nil {
		return notFound(collection, id)
	}
	docs := m.collections[collection]
	m.collections[collection] = append(docs[:i:i], docs[i+1:]...)
	return nil
}

func (m *Memory) find(collection, id string) (*Document, int) {
	for i, d := range m.collections[collection] {
		if d.ID == id {
			return d, i
		}
	}
	return nil, -1
}

func copyDocument(d *Document) Document {
	out := *d
	out.Fields = merge(d.Fields, nil)
	return out
}
