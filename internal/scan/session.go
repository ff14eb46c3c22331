// Package scan turns decoded code strings into lending operations through a
// two-step session: identify the user, then the book.
package scan

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/starford/lendscan/internal/apperr"
	"github.com/starford/lendscan/internal/lending"
	"github.com/starford/lendscan/internal/models"
)

// State is the position of a session in the scan flow.
type State string

const (
	StateAwaitingUser State = "AWAITING_USER"
	StateAwaitingBook State = "AWAITING_BOOK"
	StateSettled      State = "SETTLED"
)

// Intent is what a settling scan was interpreted as.
type Intent string

const (
	IntentNone   Intent = ""
	IntentBorrow Intent = "borrow"
	IntentReturn Intent = "return"
)

const (
	// MsgInvalidCode is shown when the first scan matches neither a user nor a book.
	MsgInvalidCode = "invalid code or user not found"
	// MsgInternal replaces the text of errors that carry no domain kind.
	MsgInternal = "internal error"
)

// Lender is the part of the lending engine a session drives.
type Lender interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindBook(ctx context.Context, id string) (*models.Book, error)
	Borrow(ctx context.Context, bookID, userID string) (string, error)
	Return(ctx context.Context, bookID string) (string, error)
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	State  State           `json:"state"`
	User   *models.User    `json:"user,omitempty"`
	Intent Intent          `json:"intent,omitempty"`
	Result *lending.Result `json:"result,omitempty"`
}

// Session interprets scans for one terminal. It is safe for concurrent use;
// scans arriving while another is processed or after settlement are dropped.
type Session struct {
	lender Lender
	logger *slog.Logger
	busy   atomic.Bool

	mu     sync.Mutex
	state  State
	user   *models.User
	intent Intent
	result *lending.Result
}

// NewSession returns a session awaiting a user scan. A nil logger falls back
// to slog.Default.
func NewSession(l Lender, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{lender: l, logger: logger, state: StateAwaitingUser}
}

// Scan feeds one decoded code into the session. It returns the settled
// result and true when this scan settled the session, or a zero Result and
// false when the session advanced or ignored the scan.
func (s *Session) Scan(ctx context.Context, code string) (lending.Result, bool) {
	if !s.busy.CompareAndSwap(false, true) {
		return lending.Result{}, false
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	code = strings.TrimSpace(code)

	switch s.state {
	case StateAwaitingUser:
		user, err := s.lender.FindUser(ctx, code)
		if err == nil {
			s.user = user
			s.state = StateAwaitingBook
			return lending.Result{}, false
		}
		if apperr.KindOf(err) == "" {
			return s.settle(IntentNone, s.resultOf("", err)), true
		}
		book, err := s.lender.FindBook(ctx, code)
		if err != nil {
			if apperr.KindOf(err) == "" {
				return s.settle(IntentNone, s.resultOf("", err)), true
			}
			return s.settle(IntentNone, lending.Failed(apperr.KindInvalidScanCode, MsgInvalidCode)), true
		}
		// A bare book scan without a user is taken as a return.
		return s.settle(IntentReturn, s.resultOf(s.lender.Return(ctx, book.ID))), true

	case StateAwaitingBook:
		book, err := s.lender.FindBook(ctx, code)
		if err != nil {
			if apperr.KindOf(err) == "" {
				return s.settle(IntentNone, s.resultOf("", err)), true
			}
			return s.settle(IntentNone, lending.Failed(apperr.KindBookNotFound, lending.MsgBookNotFound)), true
		}
		if book.Borrowed() {
			return s.settle(IntentReturn, s.resultOf(s.lender.Return(ctx, book.ID))), true
		}
		return s.settle(IntentBorrow, s.resultOf(s.lender.Borrow(ctx, book.ID, s.user.ID))), true

	default:
		return lending.Result{}, false
	}
}

// resultOf is lending.ResultOf with storage failures logged and their text
// withheld from the terminal.
func (s *Session) resultOf(msg string, err error) lending.Result {
	if err != nil && apperr.KindOf(err) == "" {
		s.logger.Error("scan: lending operation failed", slog.String("error", err.Error()))
		return lending.Result{Message: MsgInternal}
	}
	return lending.ResultOf(msg, err)
}

func (s *Session) settle(intent Intent, r lending.Result) lending.Result {
	s.state = StateSettled
	s.intent = intent
	s.result = &r
	return r
}

// Reset discards the active user and any result and waits for a user scan.
// Nothing is committed by an unsettled session, so resetting has no other
// effect.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAwaitingUser
	s.user = nil
	s.intent = IntentNone
	s.result = nil
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, Intent: s.intent}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}
