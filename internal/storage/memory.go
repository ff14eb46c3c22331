package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/starford/lendscan/internal/models"
)

// Memory is a process-local Provider, used by tests and the memory driver.
type Memory struct {
	mu      sync.RWMutex
	books   []models.Book
	users   []models.User
	records []models.BorrowRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ListBooks(_ context.Context) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneOrEmpty(m.books), nil
}

func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneOrEmpty(m.users), nil
}

func (m *Memory) ListRecords(_ context.Context) ([]models.BorrowRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneOrEmpty(m.records), nil
}

func (m *Memory) ReplaceBooks(_ context.Context, books []models.Book) error {
	m.mu.Lock()
	m.books = slices.Clone(books)
	m.mu.Unlock()
	return nil
}

func (m *Memory) ReplaceUsers(_ context.Context, users []models.User) error {
	m.mu.Lock()
	m.users = slices.Clone(users)
	m.mu.Unlock()
	return nil
}

func (m *Memory) ReplaceRecords(_ context.Context, records []models.BorrowRecord) error {
	m.mu.Lock()
	m.records = slices.Clone(records)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

func cloneOrEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return []T{}
	}
	return slices.Clone(s)
}
