package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/Marrmee/spark-gate/core"
	"github.com/Marrmee/spark-gate/ports"
)

// MemoryLedger is an in-memory ports.Ledger for tests. It counts lookups so
// tests can assert that denied requests never reached storage, and supports
// error injection for the fail-closed and best-effort write paths.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []*core.SignatureRecord
	nextID  int64

	queries int64

	// FailInsert / FailQuery make the corresponding operation return this
	// error when set.
	FailInsert error
	FailQuery  error
}

var _ ports.Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{nextID: 1}
}

// Insert appends a record. A preset CreatedAt is respected so tests can place
// records anywhere in the session window.
func (l *MemoryLedger) Insert(ctx context.Context, rec *core.SignatureRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.FailInsert != nil {
		return l.FailInsert
	}

	stored := *rec
	stored.ID = l.nextID
	l.nextID++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	l.records = append(l.records, &stored)

	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	return nil
}

// LatestValid mirrors the SQL lookup: newest valid record for the address
// with CreatedAt at or after since.
func (l *MemoryLedger) LatestValid(ctx context.Context, address string, since time.Time) (*core.SignatureRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.queries++
	if l.FailQuery != nil {
		return nil, l.FailQuery
	}

	var newest *core.SignatureRecord
	for _, rec := range l.records {
		if rec.Address != address || !rec.IsValid || rec.CreatedAt.Before(since) {
			continue
		}
		if newest == nil || rec.CreatedAt.After(newest.CreatedAt) {
			newest = rec
		}
	}
	if newest == nil {
		return nil, nil
	}
	found := *newest
	return &found, nil
}

// InvalidateAddress marks every valid record for address invalid.
func (l *MemoryLedger) InvalidateAddress(ctx context.Context, address string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for _, rec := range l.records {
		if rec.Address == address && rec.IsValid {
			rec.IsValid = false
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (l *MemoryLedger) Ping(ctx context.Context) error {
	return nil
}

// QueryCount returns how many lookups have been issued.
func (l *MemoryLedger) QueryCount() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.queries
}

// Records returns a snapshot of the stored rows.
func (l *MemoryLedger) Records() []core.SignatureRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.SignatureRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, *rec)
	}
	return out
}
