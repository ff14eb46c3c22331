package lending

import (
	"context"
	"slices"

	"github.com/starford/lendscan/internal/apperr"
	"github.com/starford/lendscan/internal/models"
	"github.com/starford/lendscan/internal/normalize"
)

// Stats summarises the store for the dashboard.
type Stats struct {
	TotalBooks    int `json:"totalBooks"`
	BorrowedBooks int `json:"borrowedBooks"`
	Users         int `json:"users"`
	Records       int `json:"records"`
}

// Inconsistency describes a book whose status, borrower and open records
// disagree.
type Inconsistency struct {
	BookID      string `json:"bookId"`
	Status      string `json:"status"`
	HasBorrower bool   `json:"hasBorrower"`
	OpenRecords int    `json:"openRecords"`
}

// Books returns every book in insertion order.
func (e *Engine) Books(ctx context.Context) ([]models.Book, error) {
	return e.store.ListBooks(ctx)
}

// Users returns every user in insertion order.
func (e *Engine) Users(ctx context.Context) ([]models.User, error) {
	return e.store.ListUsers(ctx)
}

// Records returns the ledger in insertion order.
func (e *Engine) Records(ctx context.Context) ([]models.BorrowRecord, error) {
	return e.store.ListRecords(ctx)
}

// FindBook looks a book up by identifier.
func (e *Engine) FindBook(ctx context.Context, id string) (*models.Book, error) {
	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOfBook(books, id); i >= 0 {
		return &books[i], nil
	}
	return nil, apperr.New(apperr.KindBookNotFound, MsgBookNotFound)
}

// FindUser looks a user up by identifier.
func (e *Engine) FindUser(ctx context.Context, id string) (*models.User, error) {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if u := findUser(users, id); u != nil {
		return u, nil
	}
	return nil, apperr.New(apperr.KindUserNotFound, MsgUserNotFound)
}

// History returns the ledger newest first.
func (e *Engine) History(ctx context.Context) ([]models.BorrowRecord, error) {
	records, err := e.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	slices.Reverse(records)
	return records, nil
}

// RecentActivity returns the last n ledger entries, newest first.
func (e *Engine) RecentActivity(ctx context.Context, n int) ([]models.BorrowRecord, error) {
	records, err := e.History(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// Stats counts books, loans, users and ledger entries.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return Stats{}, err
	}
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	records, err := e.store.ListRecords(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalBooks: len(books), Users: len(users), Records: len(records)}
	for i := range books {
		if books[i].Borrowed() {
			st.BorrowedBooks++
		}
	}
	return st, nil
}

// SearchBooks matches q against title, author and category.
// An empty query returns every book.
func (e *Engine) SearchBooks(ctx context.Context, q string) ([]models.Book, error) {
	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	if normalize.Key(q) == "" {
		return books, nil
	}
	out := []models.Book{}
	for _, b := range books {
		if normalize.Contains(b.Title, q) ||
			(b.Author != nil && normalize.Contains(*b.Author, q)) ||
			(b.Category != nil && normalize.Contains(*b.Category, q)) {
			out = append(out, b)
		}
	}
	return out, nil
}

// BorrowedBy returns the books currently lent to userID.
func (e *Engine) BorrowedBy(ctx context.Context, userID string) ([]models.Book, error) {
	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Book{}
	for _, b := range books {
		if b.Borrowed() && b.CurrentBorrowerID != nil && *b.CurrentBorrowerID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// CheckConsistency lists books for which status = borrowed, a set borrower
// and exactly one open record do not all agree.
func (e *Engine) CheckConsistency(ctx context.Context) ([]Inconsistency, error) {
	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	records, err := e.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	open := make(map[string]int)
	for i := range records {
		if records[i].Open() {
			open[records[i].BookID]++
		}
	}
	out := []Inconsistency{}
	for _, b := range books {
		borrowed := b.Borrowed()
		hasBorrower := b.CurrentBorrowerID != nil
		n := open[b.ID]
		ok := borrowed == hasBorrower && ((borrowed && n == 1) || (!borrowed && n == 0))
		if !ok {
			out = append(out, Inconsistency{
				BookID:      b.ID,
				Status:      string(b.Status),
				HasBorrower: hasBorrower,
				OpenRecords: n,
			})
		}
	}
	return out, nil
}
