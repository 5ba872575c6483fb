package ports

import (
	"context"

	"github.com/Marrmee/spark-gate/core"
)

// Cache is the external key-value store holding proposal snapshots and the
// per-category index lists the refresher scans.
type Cache interface {
	// IndexList returns the known proposal indices for a category. A missing
	// list yields an empty slice, not an error.
	IndexList(ctx context.Context, category core.ProposalCategory) ([]int, error)

	// Snapshot returns the cached snapshot for a proposal, or (nil, nil) when
	// the entry is absent.
	Snapshot(ctx context.Context, category core.ProposalCategory, index int) (*core.ProposalSnapshot, error)

	// DeleteSnapshot evicts a proposal's cache entry. Deleting an absent key
	// is not an error.
	DeleteSnapshot(ctx context.Context, category core.ProposalCategory, index int) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
