// Package ledger provides Signature Ledger implementations.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Marrmee/spark-gate/core"
	"github.com/Marrmee/spark-gate/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS signatures (
	id         BIGSERIAL PRIMARY KEY,
	address    TEXT        NOT NULL,
	chain_id   TEXT        NOT NULL,
	nonce      TEXT        NOT NULL,
	issued_at  TEXT        NOT NULL,
	message    TEXT        NOT NULL,
	signature  TEXT        NOT NULL,
	is_valid   BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS signatures_address_created_at_idx
	ON signatures (address, created_at DESC) WHERE is_valid;
`

// PostgresLedger implements ports.Ledger on a PostgreSQL connection pool.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

var _ ports.Ledger = (*PostgresLedger)(nil)

// NewPostgresLedger creates a ledger backed by the database at databaseURL.
func NewPostgresLedger(ctx context.Context, databaseURL string) (*PostgresLedger, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresLedger{pool: pool}, nil
}

// EnsureSchema creates the signatures table and its lookup index.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, schema)
	return err
}

// Insert appends one signature record and fills in the server-assigned
// id and created_at.
func (l *PostgresLedger) Insert(ctx context.Context, rec *core.SignatureRecord) error {
	err := l.pool.QueryRow(ctx, `
		INSERT INTO signatures (address, chain_id, nonce, issued_at, message, signature, is_valid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, rec.Address, rec.ChainID, rec.Nonce, rec.IssuedAt, rec.Message, rec.Signature, rec.IsValid).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert signature: %w", err)
	}
	return nil
}

// LatestValid returns the newest valid record for address created at or after
// since, or (nil, nil) when none exists.
func (l *PostgresLedger) LatestValid(ctx context.Context, address string, since time.Time) (*core.SignatureRecord, error) {
	rec := &core.SignatureRecord{}
	err := l.pool.QueryRow(ctx, `
		SELECT id, address, chain_id, nonce, issued_at, message, signature, is_valid, created_at
		FROM signatures
		WHERE address = $1 AND is_valid = TRUE AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, address, since).Scan(
		&rec.ID,
		&rec.Address,
		&rec.ChainID,
		&rec.Nonce,
		&rec.IssuedAt,
		&rec.Message,
		&rec.Signature,
		&rec.IsValid,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query signature: %w", err)
	}
	return rec, nil
}

// InvalidateAddress marks every valid record for address invalid. Out-of-band
// revocation only; the request path never calls this.
func (l *PostgresLedger) InvalidateAddress(ctx context.Context, address string) (int64, error) {
	tag, err := l.pool.Exec(ctx, `
		UPDATE signatures SET is_valid = FALSE WHERE address = $1 AND is_valid = TRUE
	`, address)
	if err != nil {
		return 0, fmt.Errorf("invalidate address: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks the database connection.
func (l *PostgresLedger) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

// Close closes the connection pool.
func (l *PostgresLedger) Close() {
	l.pool.Close()
}
