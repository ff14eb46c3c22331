package lending

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/lendscan/internal/apperr"
	"github.com/starford/lendscan/internal/ident"
	"github.com/starford/lendscan/internal/models"
	"github.com/starford/lendscan/internal/normalize"
)

// Failure messages shown to the operator.
const (
	MsgDuplicateTitle       = "a book with the same title already exists"
	MsgDuplicateName        = "this name is already registered"
	MsgBookNotFound         = "book not found"
	MsgUserNotFound         = "user not found"
	MsgAlreadyBorrowed      = "book is already borrowed"
	MsgNotCurrentlyBorrowed = "book is currently in the library"
	MsgTitleRequired        = "title is required"
	MsgNameRequired         = "name is required"
)

// AddBook registers a new available book. Titles are unique after
// normalization.
func (e *Engine) AddBook(ctx context.Context, title, author, category string) (*models.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.New(apperr.KindInvalidInput, MsgTitleRequired)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	books, err := e.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}
	key := normalize.Key(title)
	taken := make(map[string]struct{}, len(books))
	for _, b := range books {
		if normalize.Key(b.Title) == key {
			return nil, apperr.New(apperr.KindDuplicateTitle, MsgDuplicateTitle)
		}
		taken[b.ID] = struct{}{}
	}

	id, err := e.newID(ident.KindBook, taken)
	if err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}
	book := models.Book{
		ID:        id,
		Title:     title,
		Author:    models.StringPtr(strings.TrimSpace(author)),
		Category:  models.StringPtr(strings.TrimSpace(category)),
		Status:    models.StatusAvailable,
		CreatedAt: e.timestamp(),
	}
	if err := e.store.ReplaceBooks(ctx, append(books, book)); err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}

	e.logger.Info("book added", slog.String("book_id", book.ID), slog.String("title", book.Title))
	e.publish(EventBookCreated, book.ID)
	return &book, nil
}

// AddUser registers a new borrower. Names are unique after normalization.
func (e *Engine) AddUser(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindInvalidInput, MsgNameRequired)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	key := normalize.Key(name)
	taken := make(map[string]struct{}, len(users))
	for _, u := range users {
		if normalize.Key(u.Name) == key {
			return nil, apperr.New(apperr.KindDuplicateName, MsgDuplicateName)
		}
		taken[u.ID] = struct{}{}
	}

	id, err := e.newID(ident.KindUser, taken)
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	user := models.User{ID: id, Name: name, CreatedAt: e.timestamp()}
	if err := e.store.ReplaceUsers(ctx, append(users, user)); err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}

	e.logger.Info("user added", slog.String("user_id", user.ID))
	e.publish(EventUserCreated, user.ID)
	return &user, nil
}
