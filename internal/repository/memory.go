package repository

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu     sync.Mutex
	nextID int64
	docs   map[int64]Document
}

// NewMemoryStore returns an in-memory DocumentStore for local development/testing.
func NewMemoryStore() DocumentStore {
	return &memoryStore{docs: make(map[int64]Document)}
}

func (m *memoryStore) Create(ctx context.Context, doc Document) (Document, error) {
	stamped := cloneDocument(doc)
	stampRegistration(&stamped, time.Now())

	m.mu.Lock()
	m.nextID++
	stamped.ID = m.nextID
	m.docs[stamped.ID] = stamped
	m.mu.Unlock()

	return cloneDocument(stamped), nil
}

func (m *memoryStore) GetByID(ctx context.Context, id int64) (Document, error) {
	m.mu.Lock()
	doc, ok := m.docs[id]
	m.mu.Unlock()
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *memoryStore) Ping(ctx context.Context) error { return nil }

func (m *memoryStore) Close() error { return nil }
