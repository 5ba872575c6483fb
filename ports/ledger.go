package ports

import (
	"context"
	"time"

	"github.com/Marrmee/spark-gate/core"
)

// Ledger is the durable, append-only record of verified signatures. It is the
// single source of truth for "has this address proven ownership recently";
// there is no session state anywhere else.
type Ledger interface {
	// Insert appends one signature record. Rows are never updated or deleted
	// by the write path.
	Insert(ctx context.Context, rec *core.SignatureRecord) error

	// LatestValid returns the most recent record for the lowercase address
	// with IsValid true and CreatedAt at or after since, or (nil, nil) when
	// no such record exists.
	LatestValid(ctx context.Context, address string, since time.Time) (*core.SignatureRecord, error)

	// InvalidateAddress marks every valid record for the address invalid and
	// returns the number of rows affected. This is the out-of-band revocation
	// hatch; no request path calls it.
	InvalidateAddress(ctx context.Context, address string) (int64, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
