// Package catalog bulk-loads books and users from a YAML document.
//
//	users:
//	  - name: Alice
//	books:
//	  - title: Dune
//	    author: Frank Herbert
//	    category: Science Fiction
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/lendscan/internal/apperr"
	"github.com/starford/lendscan/internal/models"
)

// BookEntry is one book in a catalog file.
type BookEntry struct {
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Category string `yaml:"category"`
}

// Validate validates the entry.
func (b *BookEntry) Validate() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&b.Author, validation.Length(0, 200)),
		validation.Field(&b.Category, validation.Length(0, 100)),
	)
}

// UserEntry is one borrower in a catalog file.
type UserEntry struct {
	Name string `yaml:"name"`
}

// Validate validates the entry.
func (u *UserEntry) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Name, validation.Required, validation.Length(1, 200)),
	)
}

// Catalog is the parsed document.
type Catalog struct {
	Users []UserEntry `yaml:"users"`
	Books []BookEntry `yaml:"books"`
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return &c, nil
}

// Adder creates books and users.
type Adder interface {
	AddBook(ctx context.Context, title, author, category string) (*models.Book, error)
	AddUser(ctx context.Context, name string) (*models.User, error)
}

// Skip records an entry that was not imported.
type Skip struct {
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Report summarises an import.
type Report struct {
	Users   []models.User `json:"users"`
	Books   []models.Book `json:"books"`
	Skipped []Skip        `json:"skipped"`
}

// Import adds every valid entry of c. Invalid entries and duplicates are
// skipped and reported; a storage failure aborts the import.
func Import(ctx context.Context, a Adder, c *Catalog, logger *slog.Logger) (*Report, error) {
	rep := &Report{Users: []models.User{}, Books: []models.Book{}, Skipped: []Skip{}}

	for i := range c.Users {
		entry := &c.Users[i]
		if err := entry.Validate(); err != nil {
			rep.Skipped = append(rep.Skipped, Skip{Kind: "user", Value: entry.Name, Reason: err.Error()})
			continue
		}
		u, err := a.AddUser(ctx, entry.Name)
		if err != nil {
			if apperr.KindOf(err) == "" {
				return rep, err
			}
			rep.Skipped = append(rep.Skipped, Skip{Kind: "user", Value: entry.Name, Reason: err.Error()})
			continue
		}
		rep.Users = append(rep.Users, *u)
	}

	for i := range c.Books {
		entry := &c.Books[i]
		if err := entry.Validate(); err != nil {
			rep.Skipped = append(rep.Skipped, Skip{Kind: "book", Value: entry.Title, Reason: err.Error()})
			continue
		}
		b, err := a.AddBook(ctx, entry.Title, entry.Author, entry.Category)
		if err != nil {
			if apperr.KindOf(err) == "" {
				return rep, err
			}
			rep.Skipped = append(rep.Skipped, Skip{Kind: "book", Value: entry.Title, Reason: err.Error()})
			continue
		}
		rep.Books = append(rep.Books, *b)
	}

	logger.Info("catalog imported",
		slog.Int("users", len(rep.Users)),
		slog.Int("books", len(rep.Books)),
		slog.Int("skipped", len(rep.Skipped)))
	return rep, nil
}
