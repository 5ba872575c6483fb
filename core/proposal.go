package core

// ProposalCategory identifies one of the two governance tracks.
type ProposalCategory string

const (
	CategoryOperations ProposalCategory = "operations"
	CategoryResearch   ProposalCategory = "research"
)

// Categories lists every proposal category the refresher sweeps.
var Categories = []ProposalCategory{CategoryOperations, CategoryResearch}

// ProposalStatus is the lifecycle state carried in a cached snapshot.
type ProposalStatus string

const (
	StatusCompleted ProposalStatus = "completed"
	StatusExecuted  ProposalStatus = "executed"
	StatusCanceled  ProposalStatus = "canceled"
)

// Terminal reports whether the status admits no further transitions.
// Terminal snapshots are immutable and may live in cache indefinitely.
func (s ProposalStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusExecuted, StatusCanceled:
		return true
	}
	return false
}

// ProposalSnapshot is the slice of a cached proposal the refresher inspects.
// The cached payload carries more fields; only the status drives eviction.
type ProposalSnapshot struct {
	Status ProposalStatus `json:"status"`
}
