package lending

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lendscan/internal/models"
	"github.com/starford/lendscan/internal/normalize"
)

// checkInvariants asserts uniqueness of normalized titles and names, and that
// status, borrower and open records agree for every book.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()

	books, err := e.Books(ctx)
	require.NoError(t, err)
	titles := make(map[string]bool)
	for _, b := range books {
		k := normalize.Key(b.Title)
		assert.False(t, titles[k], "duplicate title %q", b.Title)
		titles[k] = true
	}

	users, err := e.Users(ctx)
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, u := range users {
		k := normalize.Key(u.Name)
		assert.False(t, names[k], "duplicate name %q", u.Name)
		names[k] = true
	}

	bad, err := e.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.Empty(t, bad)
}

func TestRandomOperationSequences(t *testing.T) {
	titles := []string{"Dune", "dune", " DUNE ", "1984", "Emma", "emma ", "Ulysses"}
	names := []string{"Alice", "alice", "Bob", " BOB", "Carol"}

	for n := int64(1); n <= 20; n++ {
		t.Run(fmt.Sprintf("seed-%d", n), func(t *testing.T) {
			rng := rand.New(rand.NewSource(n))
			e, _ := newTestEngine(t)
			ctx := context.Background()

			for step := 0; step < 60; step++ {
				books, _ := e.Books(ctx)
				users, _ := e.Users(ctx)

				switch op := rng.Intn(4); {
				case op == 0:
					before := len(books)
					_, err := e.AddBook(ctx, titles[rng.Intn(len(titles))], "", "")
					after, _ := e.Books(ctx)
					if err != nil {
						assert.Len(t, after, before)
					} else {
						assert.Len(t, after, before+1)
					}
				case op == 1:
					_, _ = e.AddUser(ctx, names[rng.Intn(len(names))])
				case op == 2 && len(books) > 0 && len(users) > 0:
					b := books[rng.Intn(len(books))]
					u := users[rng.Intn(len(users))]
					_, err := e.Borrow(ctx, b.ID, u.ID)
					assert.Equal(t, b.Status == models.StatusAvailable, err == nil)
				case op == 3 && len(books) > 0:
					b := books[rng.Intn(len(books))]
					_, err := e.Return(ctx, b.ID)
					assert.Equal(t, b.Status == models.StatusBorrowed, err == nil)
				}
				checkInvariants(t, e)
			}
		})
	}
}
