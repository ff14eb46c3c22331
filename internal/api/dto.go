package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lendscan/internal/lending"
	"github.com/starford/lendscan/internal/models"
	"github.com/starford/lendscan/internal/scan"
)

// CreateBookRequest is the request body for registering a book.
type CreateBookRequest struct {
	Title    string `json:"title" example:"Dune" validate:"required"`
	Author   string `json:"author" example:"Frank Herbert"`
	Category string `json:"category" example:"Science Fiction"`
}

// Validate validates the request.
func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Author, validation.Length(0, 200)),
		validation.Field(&r.Category, validation.Length(0, 100)),
	)
}

// CreateUserRequest is the request body for registering a borrower.
type CreateUserRequest struct {
	Name string `json:"name" example:"Alice" validate:"required"`
}

// Validate validates the request.
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

// BorrowRequest is the request body for checking a book out.
type BorrowRequest struct {
	BookID string `json:"bookId" example:"BK-1718000000000-7Q2M4K9Z" validate:"required"`
	UserID string `json:"userId" example:"USR-1718000000000-A1B2C3D4" validate:"required"`
}

// Validate validates the request.
func (r BorrowRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookID, validation.Required),
		validation.Field(&r.UserID, validation.Required),
	)
}

// ReturnRequest is the request body for checking a book in.
type ReturnRequest struct {
	BookID string `json:"bookId" example:"BK-1718000000000-7Q2M4K9Z" validate:"required"`
}

// Validate validates the request.
func (r ReturnRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookID, validation.Required),
	)
}

// ScanRequest carries one decoded code.
type ScanRequest struct {
	Code string `json:"code" example:"BK-1718000000000-7Q2M4K9Z" validate:"required"`
}

// BookListResponse wraps book listings.
type BookListResponse struct {
	Books []models.Book `json:"books" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// UserListResponse wraps user listings.
type UserListResponse struct {
	Users []models.User `json:"users" validate:"required"`
	Total int           `json:"total" example:"7" validate:"required"`
}

// RecordListResponse wraps borrow record listings.
type RecordListResponse struct {
	Records []models.BorrowRecord `json:"records" validate:"required"`
}

// LabelResponse is the payload an external renderer turns into a printable
// code label.
type LabelResponse struct {
	Code  string `json:"code" example:"BK-1718000000000-7Q2M4K9Z" validate:"required"`
	Label string `json:"label" example:"Dune" validate:"required"`
	Hint  string `json:"hint" validate:"required"`
}

// ConsistencyResponse lists books whose status disagrees with the ledger.
type ConsistencyResponse struct {
	Consistent bool                    `json:"consistent"`
	Issues     []lending.Inconsistency `json:"issues" validate:"required"`
}

// SessionResponse describes a scan session.
type SessionResponse struct {
	ID      string        `json:"id" validate:"required"`
	Session scan.Snapshot `json:"session"`
}

// ScanResponse is returned after a code is submitted to a session. Result is
// set only by the scan that settled the session.
type ScanResponse struct {
	Settled bool            `json:"settled"`
	Result  *lending.Result `json:"result,omitempty"`
	Session scan.Snapshot   `json:"session"`
}
