package ports

import (
	"context"

	"github.com/Marrmee/spark-gate/core"
)

// EventPublisher notifies other services about domain events. Publishing is
// best-effort everywhere it is used; a lost event never fails the operation
// that produced it.
type EventPublisher interface {
	// PublishSignIn announces a successful sign-in verification.
	PublishSignIn(ctx context.Context, address, chainID string) error

	// PublishEviction announces how many entries a sweep evicted for a category.
	PublishEviction(ctx context.Context, category core.ProposalCategory, evicted int) error
}
