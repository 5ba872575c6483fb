// Package cache provides Cache Store implementations over the shared
// proposal key scheme.
package cache

import (
	"fmt"

	"github.com/Marrmee/spark-gate/core"
)

// SnapshotKey returns the cache key for a proposal snapshot:
// proposal_ops_<index> or proposal_res_<index>.
func SnapshotKey(category core.ProposalCategory, index int) string {
	if category == core.CategoryResearch {
		return fmt.Sprintf("proposal_res_%d", index)
	}
	return fmt.Sprintf("proposal_ops_%d", index)
}

// IndexListKey returns the cache key holding a category's known proposal
// indices: operations_sc_indices or research_sc_indices.
func IndexListKey(category core.ProposalCategory) string {
	if category == core.CategoryResearch {
		return "research_sc_indices"
	}
	return "operations_sc_indices"
}
