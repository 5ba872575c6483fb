package core

import "errors"

var (
	// ErrMalformedRequest marks a structurally invalid verification request,
	// rejected before any cryptography or I/O.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrInvalidSignature marks a signature that does not recover to the
	// claimed address.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidAddress marks an address that is not 0x plus 40 hex digits.
	ErrInvalidAddress = errors.New("invalid ethereum address")

	// ErrStoreUnavailable marks an infrastructure failure talking to the
	// ledger or the cache.
	ErrStoreUnavailable = errors.New("store operation failed")
)
