package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Marrmee/spark-gate/core"
	"github.com/Marrmee/spark-gate/ports"
)

// MemoryCache is an in-memory ports.Cache for tests, mirroring the key scheme
// of the Redis adapter. Per-key error injection exercises the refresher's
// fail-continue paths.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]string

	// FailKeys makes reads of the listed keys fail with the given error.
	FailKeys map[string]error
}

var _ ports.Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data:     make(map[string]string),
		FailKeys: make(map[string]error),
	}
}

// SetIndexList stores a category's index list.
func (c *MemoryCache) SetIndexList(category core.ProposalCategory, indices []int) {
	raw, _ := json.Marshal(indices)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[IndexListKey(category)] = string(raw)
}

// SetSnapshot stores a proposal snapshot with the given status.
func (c *MemoryCache) SetSnapshot(category core.ProposalCategory, index int, status core.ProposalStatus) {
	c.SetSnapshotRaw(category, index, fmt.Sprintf(`{"status":%q,"index":%d}`, status, index))
}

// SetSnapshotRaw stores an arbitrary serialized snapshot.
func (c *MemoryCache) SetSnapshotRaw(category core.ProposalCategory, index int, raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[SnapshotKey(category, index)] = raw
}

// HasSnapshot reports whether a proposal's cache entry exists.
func (c *MemoryCache) HasSnapshot(category core.ProposalCategory, index int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[SnapshotKey(category, index)]
	return ok
}

func (c *MemoryCache) get(key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err, ok := c.FailKeys[key]; ok {
		return "", false, err
	}
	raw, ok := c.data[key]
	return raw, ok, nil
}

// IndexList reads a category's index list.
func (c *MemoryCache) IndexList(ctx context.Context, category core.ProposalCategory) ([]int, error) {
	raw, ok, err := c.get(IndexListKey(category))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var indices []int
	if err := json.Unmarshal([]byte(raw), &indices); err != nil {
		return nil, err
	}
	return indices, nil
}

// Snapshot reads a proposal's cached snapshot.
func (c *MemoryCache) Snapshot(ctx context.Context, category core.ProposalCategory, index int) (*core.ProposalSnapshot, error) {
	raw, ok, err := c.get(SnapshotKey(category, index))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	snapshot := &core.ProposalSnapshot{}
	if err := json.Unmarshal([]byte(raw), snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// DeleteSnapshot evicts a proposal's cache entry.
func (c *MemoryCache) DeleteSnapshot(ctx context.Context, category core.ProposalCategory, index int) error {
	key := SnapshotKey(category, index)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.FailKeys[key]; ok {
		return err
	}
	delete(c.data, key)
	return nil
}

// Ping always succeeds.
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}
