package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProviderDetectsOverlap(t *testing.T) {
	ctx := context.Background()
	p := NewMemory()
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	id, err := p.CreateEvent(ctx, "cal-1", Job{Reference: "A", Start: start, End: start.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	ok, err := p.CheckAvailability(ctx, "cal-1", start.Add(time.Hour), start.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.CheckAvailability(ctx, "cal-1", start.Add(2*time.Hour), start.Add(4*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.CheckAvailability(ctx, "cal-2", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, p.DeleteEvent(ctx, "cal-1", id))
	ok, err = p.CheckAvailability(ctx, "cal-1", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryProviderRejectsEmptyWindow(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	_, err := NewMemory().CheckAvailability(context.Background(), "cal", start, start)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
