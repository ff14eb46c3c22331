// Package ident generates the scannable identifiers of books, users and records.
package ident

import (
	"fmt"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Kind is the entity an identifier belongs to.
type Kind string

const (
	KindBook   Kind = "BK"
	KindUser   Kind = "USR"
	KindRecord Kind = "REC"
)

const (
	alphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffixLen   = 8
	maxAttempts = 5
)

// Generator produces identifiers of the form TAG-<unix millis>-<random>.
//
// Exists, when set, is consulted for every candidate and a new one is drawn on
// collision. Uniqueness stays probabilistic when Exists is nil.
type Generator struct {
	Now    func() time.Time
	Exists func(id string) bool
}

// Generate creates an identifier for kind.
func (g *Generator) Generate(kind Kind) (string, error) {
	now := time.Now
	if g != nil && g.Now != nil {
		now = g.Now
	}
	for range maxAttempts {
		suffix, err := gonanoid.Generate(alphabet, suffixLen)
		if err != nil {
			return "", fmt.Errorf("ident: generate suffix: %w", err)
		}
		id := string(kind) + "-" + strconv.FormatInt(now().UnixMilli(), 10) + "-" + suffix
		if g == nil || g.Exists == nil || !g.Exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("ident: no free %s identifier after %d attempts", kind, maxAttempts)
}
