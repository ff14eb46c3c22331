// Package storage defines the Entity Store: whole-collection persistence of
// books, users and borrow records.
package storage

import (
	"context"

	"github.com/starford/lendscan/internal/models"
)

// Collection names one of the persisted collections.
type Collection string

const (
	CollectionBooks   Collection = "books"
	CollectionUsers   Collection = "users"
	CollectionRecords Collection = "records"
)

// Collections lists every persisted collection.
var Collections = []Collection{CollectionBooks, CollectionUsers, CollectionRecords}

// Provider is the interface for entity persistence.
//
// List methods return collections in insertion order. Replace methods
// overwrite a whole collection and are durable once they return. There is no
// row-level update: callers read, modify and write back full collections.
type Provider interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListRecords(ctx context.Context) ([]models.BorrowRecord, error)
	ReplaceBooks(ctx context.Context, books []models.Book) error
	ReplaceUsers(ctx context.Context, users []models.User) error
	ReplaceRecords(ctx context.Context, records []models.BorrowRecord) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)
