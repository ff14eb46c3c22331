// Package models defines the domain types for lendscan.
package models

import "time"

// BookStatus is the lending state of a book.
type BookStatus string

const (
	StatusAvailable BookStatus = "available"
	StatusBorrowed  BookStatus = "borrowed"
)

// Book is a single lendable item identified by a scannable code.
type Book struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Author            *string    `json:"author,omitempty"`
	Category          *string    `json:"category,omitempty"`
	Status            BookStatus `json:"status"`
	CurrentBorrowerID *string    `json:"currentBorrowerId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Borrowed reports whether the book is currently out.
func (b *Book) Borrowed() bool {
	return b.Status == StatusBorrowed
}

// User is a registered borrower.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// BorrowRecord is one entry of the lending ledger. UserName and BookTitle are
// snapshots taken at borrow time.
type BorrowRecord struct {
	ID         string     `json:"id"`
	BookID     string     `json:"bookId"`
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName"`
	BookTitle  string     `json:"bookTitle"`
	BorrowDate time.Time  `json:"borrowDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
}

// Open reports whether the loan is still active.
func (r *BorrowRecord) Open() bool {
	return r.ReturnDate == nil
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
