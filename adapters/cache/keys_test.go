package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Marrmee/spark-gate/core"
)

func TestSnapshotKeyScheme(t *testing.T) {
	assert.Equal(t, "proposal_ops_7", SnapshotKey(core.CategoryOperations, 7))
	assert.Equal(t, "proposal_res_0", SnapshotKey(core.CategoryResearch, 0))
}

func TestIndexListKeyScheme(t *testing.T) {
	assert.Equal(t, "operations_sc_indices", IndexListKey(core.CategoryOperations))
	assert.Equal(t, "research_sc_indices", IndexListKey(core.CategoryResearch))
}
