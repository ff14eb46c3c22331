// Package lending implements the book lending state machine on top of the
// Entity Store.
//
// Every operation reads the current collections from the store, validates,
// and writes whole collections back. Mutations are serialized through a
// single mutex so one Engine is safe for concurrent callers; two Engines
// sharing one store are not.
package lending

import (
	"log/slog"
	"sync"
	"time"

	"github.com/starford/lendscan/internal/ident"
	"github.com/starford/lendscan/internal/storage"
)

// Event kinds passed to a Notifier.
const (
	EventBookCreated  = "book.created"
	EventUserCreated  = "user.created"
	EventBookBorrowed = "book.borrowed"
	EventBookReturned = "book.returned"
)

// Notifier receives a notification after every committed mutation.
type Notifier interface {
	Notify(kind, id string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind, id string)

// Notify calls fn.
func (fn NotifierFunc) Notify(kind, id string) { fn(kind, id) }

// Engine enforces borrow/return legality and maintains the borrow ledger.
type Engine struct {
	store  storage.Provider
	now    func() time.Time
	logger *slog.Logger
	notify Notifier

	mu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithNotifier registers n for mutation notifications.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notify = n }
}

// New creates an Engine backed by store.
func New(store storage.Provider, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) timestamp() time.Time {
	return e.now().UTC()
}

// newID allocates an identifier that is not in taken, stamped with the
// engine clock.
func (e *Engine) newID(kind ident.Kind, taken map[string]struct{}) (string, error) {
	g := ident.Generator{
		Now: e.now,
		Exists: func(id string) bool {
			_, ok := taken[id]
			return ok
		},
	}
	return g.Generate(kind)
}

func (e *Engine) publish(kind, id string) {
	if e.notify != nil {
		e.notify.Notify(kind, id)
	}
}
