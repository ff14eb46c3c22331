package ident

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	g := &Generator{Now: func() time.Time { return fixed }}

	tests := []struct {
		kind   Kind
		prefix string
	}{
		{KindBook, "BK-1700000000123-"},
		{KindUser, "USR-1700000000123-"},
		{KindRecord, "REC-1700000000123-"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			id, err := g.Generate(tt.kind)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(id, tt.prefix), "id %q", id)

			suffix := strings.TrimPrefix(id, tt.prefix)
			assert.Len(t, suffix, suffixLen)
			for _, r := range suffix {
				assert.Contains(t, alphabet, string(r))
			}
		})
	}
}

func TestGenerate_UniqueWithinSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := &Generator{Now: func() time.Time { return fixed }}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := g.Generate(KindBook)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	calls := 0
	g := &Generator{Exists: func(string) bool {
		calls++
		return calls < 3
	}}

	id, err := g.Generate(KindUser)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "USR-"))
	assert.Equal(t, 3, calls)
}

func TestGenerate_GivesUpAfterMaxAttempts(t *testing.T) {
	g := &Generator{Exists: func(string) bool { return true }}

	_, err := g.Generate(KindRecord)
	require.Error(t, err)
}

func TestGenerate_NilGenerator(t *testing.T) {
	var g *Generator
	id, err := g.Generate(KindBook)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "BK-"))
}
