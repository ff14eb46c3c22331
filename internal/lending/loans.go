package lending

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/lendscan/internal/apperr"
	"github.com/starford/lendscan/internal/ident"
	"github.com/starford/lendscan/internal/models"
)

// Borrow lends an available book to a registered user and opens a borrow
// record. The returned message names the borrower and the title.
func (e *Engine) Borrow(ctx context.Context, bookID, userID string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return "", fmt.Errorf("borrow: %w", err)
	}
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("borrow: %w", err)
	}
	records, err := e.store.ListRecords(ctx)
	if err != nil {
		return "", fmt.Errorf("borrow: %w", err)
	}

	idx := indexOfBook(books, bookID)
	if idx < 0 {
		return "", apperr.New(apperr.KindBookNotFound, MsgBookNotFound)
	}
	user := findUser(users, userID)
	if user == nil {
		return "", apperr.New(apperr.KindUserNotFound, MsgUserNotFound)
	}
	if books[idx].Borrowed() {
		return "", apperr.New(apperr.KindAlreadyBorrowed, MsgAlreadyBorrowed)
	}

	taken := make(map[string]struct{}, len(records))
	for _, r := range records {
		taken[r.ID] = struct{}{}
	}
	recID, err := e.newID(ident.KindRecord, taken)
	if err != nil {
		return "", fmt.Errorf("borrow: %w", err)
	}

	before := books[idx]
	borrower := user.ID
	books[idx].Status = models.StatusBorrowed
	books[idx].CurrentBorrowerID = &borrower

	record := models.BorrowRecord{
		ID:         recID,
		BookID:     before.ID,
		UserID:     user.ID,
		UserName:   user.Name,
		BookTitle:  before.Title,
		BorrowDate: e.timestamp(),
	}

	if err := e.store.ReplaceBooks(ctx, books); err != nil {
		return "", fmt.Errorf("borrow: %w", err)
	}
	if err := e.store.ReplaceRecords(ctx, append(records, record)); err != nil {
		books[idx] = before
		if rbErr := e.store.ReplaceBooks(ctx, books); rbErr != nil {
			e.logger.Error("borrow: restore book state failed",
				slog.String("book_id", bookID), slog.String("error", rbErr.Error()))
		}
		return "", fmt.Errorf("borrow: %w", err)
	}

	e.logger.Info("book borrowed",
		slog.String("book_id", bookID), slog.String("user_id", userID), slog.String("record_id", recID))
	e.publish(EventBookBorrowed, bookID)
	return fmt.Sprintf("Borrowed: %s checked out %s", user.Name, before.Title), nil
}

// Return brings a borrowed book back and closes its open borrow record.
//
// If no open record exists the book is still marked available; the ledger is
// left as is and the inconsistency is logged. A failed ledger write restores
// the book so the borrow stays intact.
func (e *Engine) Return(ctx context.Context, bookID string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return "", fmt.Errorf("return: %w", err)
	}
	idx := indexOfBook(books, bookID)
	if idx < 0 {
		return "", apperr.New(apperr.KindBookNotFound, MsgBookNotFound)
	}
	if !books[idx].Borrowed() {
		return "", apperr.New(apperr.KindNotCurrentlyBorrowed, MsgNotCurrentlyBorrowed)
	}
	records, err := e.store.ListRecords(ctx)
	if err != nil {
		return "", fmt.Errorf("return: %w", err)
	}

	before := books[idx]
	books[idx].Status = models.StatusAvailable
	books[idx].CurrentBorrowerID = nil

	recIdx := -1
	for i := range records {
		if records[i].BookID == bookID && records[i].Open() {
			recIdx = i
			break
		}
	}
	if recIdx >= 0 {
		now := e.timestamp()
		records[recIdx].ReturnDate = &now
	}

	if err := e.store.ReplaceBooks(ctx, books); err != nil {
		return "", fmt.Errorf("return: %w", err)
	}
	if recIdx >= 0 {
		if err := e.store.ReplaceRecords(ctx, records); err != nil {
			books[idx] = before
			if rbErr := e.store.ReplaceBooks(ctx, books); rbErr != nil {
				e.logger.Error("return: restore book state failed",
					slog.String("book_id", bookID), slog.String("error", rbErr.Error()))
			}
			return "", fmt.Errorf("return: %w", err)
		}
	} else {
		e.logger.Warn("return: no open borrow record for book", slog.String("book_id", bookID))
	}

	e.logger.Info("book returned", slog.String("book_id", bookID))
	e.publish(EventBookReturned, bookID)
	return fmt.Sprintf("Returned: %s is back in the library", books[idx].Title), nil
}

func indexOfBook(books []models.Book, id string) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}

func findUser(users []models.User, id string) *models.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}
