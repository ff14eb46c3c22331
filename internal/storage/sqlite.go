package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/lendscan/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS books (
	seq                 INTEGER NOT NULL,
	id                  TEXT PRIMARY KEY,
	title               TEXT NOT NULL,
	author              TEXT,
	category            TEXT,
	status              TEXT NOT NULL,
	current_borrower_id TEXT,
	created_at          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	seq        INTEGER NOT NULL,
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	seq         INTEGER NOT NULL,
	id          TEXT PRIMARY KEY,
	book_id     TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	user_name   TEXT NOT NULL,
	book_title  TEXT NOT NULL,
	borrow_date INTEGER NOT NULL,
	return_date INTEGER
);

CREATE INDEX IF NOT EXISTS idx_books_seq ON books(seq);
CREATE INDEX IF NOT EXISTS idx_users_seq ON users(seq);
CREATE INDEX IF NOT EXISTS idx_records_seq ON records(seq);
`

// SQLite implements Provider on a SQLite database. Timestamps are stored as
// unix nanoseconds and absent optional fields as NULL.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create db dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) ListBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, title, author, category, status, current_borrower_id, created_at
		FROM books ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("storage: list books: %w", err)
	}
	defer rows.Close()

	out := []models.Book{}
	for rows.Next() {
		var (
			b                          models.Book
			author, category, borrower sql.NullString
			created                    int64
		)
		if err := rows.Scan(&b.ID, &b.Title, &author, &category, &b.Status, &borrower, &created); err != nil {
			return nil, err
		}
		b.Author = fromNullString(author)
		b.Category = fromNullString(category)
		b.CurrentBorrowerID = fromNullString(borrower)
		b.CreatedAt = fromNanos(created)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLite) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, name, created_at FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("storage: list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		var (
			u       models.User
			created int64
		)
		if err := rows.Scan(&u.ID, &u.Name, &created); err != nil {
			return nil, err
		}
		u.CreatedAt = fromNanos(created)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLite) ListRecords(ctx context.Context) ([]models.BorrowRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, book_id, user_id, user_name, book_title, borrow_date, return_date
		FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("storage: list records: %w", err)
	}
	defer rows.Close()

	out := []models.BorrowRecord{}
	for rows.Next() {
		var (
			r          models.BorrowRecord
			borrowed   int64
			returnDate sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.BookID, &r.UserID, &r.UserName, &r.BookTitle, &borrowed, &returnDate); err != nil {
			return nil, err
		}
		r.BorrowDate = fromNanos(borrowed)
		if returnDate.Valid {
			t := fromNanos(returnDate.Int64)
			r.ReturnDate = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) ReplaceBooks(ctx context.Context, books []models.Book) error {
	return s.replace(ctx, "books", `
		INSERT INTO books (seq, id, title, author, category, status, current_borrower_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(books), func(i int) []any {
		b := books[i]
		return []any{i, b.ID, b.Title, toNullString(b.Author), toNullString(b.Category),
			string(b.Status), toNullString(b.CurrentBorrowerID), b.CreatedAt.UnixNano()}
	})
}

func (s *SQLite) ReplaceUsers(ctx context.Context, users []models.User) error {
	return s.replace(ctx, "users", `
		INSERT INTO users (seq, id, name, created_at) VALUES (?, ?, ?, ?)`, len(users), func(i int) []any {
		u := users[i]
		return []any{i, u.ID, u.Name, u.CreatedAt.UnixNano()}
	})
}

func (s *SQLite) ReplaceRecords(ctx context.Context, records []models.BorrowRecord) error {
	return s.replace(ctx, "records", `
		INSERT INTO records (seq, id, book_id, user_id, user_name, book_title, borrow_date, return_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, len(records), func(i int) []any {
		r := records[i]
		var returned sql.NullInt64
		if r.ReturnDate != nil {
			returned = sql.NullInt64{Int64: r.ReturnDate.UnixNano(), Valid: true}
		}
		return []any{i, r.ID, r.BookID, r.UserID, r.UserName, r.BookTitle, r.BorrowDate.UnixNano(), returned}
	})
}

// replace swaps the whole table content within a transaction.
func (s *SQLite) replace(ctx context.Context, table, insertSQL string, n int, args func(i int) []any) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("storage: clear %s: %w", table, err)
	}
	if n > 0 {
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return fmt.Errorf("storage: prepare %s insert: %w", table, err)
		}
		defer stmt.Close()
		for i := 0; i < n; i++ {
			if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
				return fmt.Errorf("storage: insert into %s: %w", table, err)
			}
		}
	}
	return tx.Commit()
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
