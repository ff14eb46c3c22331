package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateGetDelete(t *testing.T) {
	r := NewRegistry(&stubLender{}, time.Minute, nil)

	id, s := r.Create()
	require.NotEmpty(t, id)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, s, got)

	other, _ := r.Create()
	assert.NotEqual(t, id, other)

	assert.True(t, r.Delete(id))
	assert.False(t, r.Delete(id))
	_, ok = r.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SweepExpiresIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(&stubLender{}, 10*time.Minute, nil)
	r.now = func() time.Time { return now }

	idle, _ := r.Create()
	active, _ := r.Create()

	now = now.Add(8 * time.Minute)
	_, ok := r.Get(active)
	require.True(t, ok)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Sweep())

	_, ok = r.Get(idle)
	assert.False(t, ok)
	_, ok = r.Get(active)
	assert.True(t, ok)
}

func TestRegistry_NoTTLNeverExpires(t *testing.T) {
	r := NewRegistry(&stubLender{}, 0, nil)
	r.Create()
	assert.Equal(t, 0, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r := NewRegistry(&stubLender{}, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	r.Create()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
