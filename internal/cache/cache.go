package cache

import (
	"context"
	"sync"
	"time"

	"shiftledger/backend/internal/domain"
)

// SummaryCache holds computed shift summaries. Invalidate drops everything
// cached for a tenant and is called after every committed mutation.
type SummaryCache interface {
	Get(ctx context.Context, tenantID, shiftID string) (*domain.ShiftSummary, bool, error)
	Set(ctx context.Context, tenantID, shiftID string, value *domain.ShiftSummary, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID string) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context, _, _ string) (*domain.ShiftSummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _, _ string, _ *domain.ShiftSummary, _ time.Duration) error {
	return nil
}

func (NoopSummaryCache) Invalidate(_ context.Context, _ string) error {
	return nil
}

// MemorySummaryCache is an in-process cache. Entries expire after their ttl.
type MemorySummaryCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]map[string]memoryEntry
}

type memoryEntry struct {
	value     domain.ShiftSummary
	expiresAt time.Time
}

func NewMemorySummaryCache() *MemorySummaryCache {
	return &MemorySummaryCache{
		now:     time.Now,
		entries: make(map[string]map[string]memoryEntry),
	}
}

func (c *MemorySummaryCache) Get(_ context.Context, tenantID, shiftID string) (*domain.ShiftSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[tenantID][shiftID]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		delete(c.entries[tenantID], shiftID)
		return nil, false, nil
	}
	value := entry.value
	return &value, true, nil
}

func (c *MemorySummaryCache) Set(_ context.Context, tenantID, shiftID string, value *domain.ShiftSummary, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tenant, ok := c.entries[tenantID]
	if !ok {
		tenant = make(map[string]memoryEntry)
		c.entries[tenantID] = tenant
	}
	entry := memoryEntry{value: *value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	tenant[shiftID] = entry
	return nil
}

func (c *MemorySummaryCache) Invalidate(_ context.Context, tenantID string) error {
	c.mu.Lock()
	delete(c.entries, tenantID)
	c.mu.Unlock()
	return nil
}
