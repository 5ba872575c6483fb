package core

import "time"

// SignatureRecord is the append-only ledger row proving a wallet signed in.
// Rows are never mutated or deleted; a session expires logically once
// CreatedAt falls outside the rolling session window.
type SignatureRecord struct {
	ID        int64     // Ledger row identifier
	Address   string    // Signer address, always lowercase 0x-prefixed hex
	ChainID   string    // Chain identifier as a decimal string
	Nonce     string    // Opaque nonce from the signed message
	IssuedAt  string    // Issued timestamp as presented in the signed message
	Message   string    // Serialized typed-data message as persisted
	Signature string    // Hex-encoded signature bytes
	IsValid   bool      // Whether verification succeeded for this row
	CreatedAt time.Time // Server-assigned insertion time
}

// Identity is an authenticated caller, re-derived from the ledger on every
// request. It lives for the duration of a single request and carries the
// address in the ledger's canonical casing.
type Identity struct {
	Address string
}
