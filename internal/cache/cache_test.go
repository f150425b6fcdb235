package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftledger/backend/internal/domain"
)

func TestMemorySummaryCacheInvalidateIsPerTenant(t *testing.T) {
	ctx := context.Background()
	c := NewMemorySummaryCache()
	require.NoError(t, c.Set(ctx, "a", "shift-1", &domain.ShiftSummary{ExpectedCashCents: 100}, time.Minute))
	require.NoError(t, c.Set(ctx, "b", "shift-1", &domain.ShiftSummary{ExpectedCashCents: 200}, time.Minute))

	require.NoError(t, c.Invalidate(ctx, "a"))

	_, ok, err := c.Get(ctx, "a", "shift-1")
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := c.Get(ctx, "b", "shift-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(200), got.ExpectedCashCents)
}

func TestMemorySummaryCacheExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemorySummaryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a", "s", &domain.ShiftSummary{}, time.Second))
	_, ok, _ := c.Get(ctx, "a", "s")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = c.Get(ctx, "a", "s")
	assert.False(t, ok)
}

func TestNoopSummaryCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	var c SummaryCache = NoopSummaryCache{}
	require.NoError(t, c.Set(ctx, "a", "s", &domain.ShiftSummary{}, time.Minute))
	_, ok, err := c.Get(ctx, "a", "s")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisKeysAreGenerationScoped(t *testing.T) {
	assert.Equal(t, "shiftledger:gen:tenant-a", generationKey("tenant-a"))
	assert.Equal(t, "shiftledger:summary:tenant-a:3:shift-9", summaryKey("tenant-a", 3, "shift-9"))
}
