// Package service holds the business logic for sign-in verification,
// ledger-derived authentication, and cache refreshing.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/rs/zerolog"

	"github.com/Marrmee/spark-gate/core"
	"github.com/Marrmee/spark-gate/internal/eth"
	"github.com/Marrmee/spark-gate/internal/metrics"
	"github.com/Marrmee/spark-gate/ports"
)

const (
	// DefaultSessionDuration is the rolling window during which a persisted
	// valid signature authenticates its address.
	DefaultSessionDuration = 24 * time.Hour

	// DefaultPrimaryType is the conventional primary type of the sign-in
	// payload.
	DefaultPrimaryType = "SignIn"
)

// addressPattern is the literal header contract: 0x plus exactly 40 hex
// digits. Anything else is denied before any storage access.
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// requiredMessageFields must be present in every sign-in message.
var requiredMessageFields = []string{"chainId", "nonce", "issued"}

// AuthService verifies sign-in signatures, persists them to the ledger, and
// re-derives authentication from the ledger on every request. It holds no
// session state of its own.
type AuthService struct {
	ledger ports.Ledger
	events ports.EventPublisher
	window time.Duration
	log    zerolog.Logger
}

// NewAuthService creates a new authentication service. A non-positive window
// falls back to DefaultSessionDuration.
func NewAuthService(ledger ports.Ledger, events ports.EventPublisher, window time.Duration, log zerolog.Logger) *AuthService {
	if window <= 0 {
		window = DefaultSessionDuration
	}
	return &AuthService{
		ledger: ledger,
		events: events,
		window: window,
		log:    log,
	}
}

// SignInDomain is the EIP-712 domain as received on the wire. ChainID is
// left untyped because clients send it as a string or a number
// interchangeably; it is normalized before hashing.
type SignInDomain struct {
	Name              string
	Version           string
	ChainID           any
	VerifyingContract string
}

// SignInRequest is a complete sign-in verification request.
type SignInRequest struct {
	Domain      SignInDomain
	Types       apitypes.Types
	PrimaryType string
	Message     map[string]any
	Signature   string
	Address     string
}

// VerifySignIn checks the typed-data signature against the claimed address.
// On success it appends a SignatureRecord to the ledger and publishes a
// sign-in event; both are best-effort and never change the returned result.
// Structural problems return core.ErrMalformedRequest; a signature that
// simply does not verify returns (false, nil).
func (s *AuthService) VerifySignIn(ctx context.Context, req SignInRequest) (bool, error) {
	if err := validateSignIn(req); err != nil {
		metrics.VerificationsTotal.WithLabelValues("malformed").Inc()
		return false, err
	}

	chainID, err := eth.NormalizeChainID(req.Domain.ChainID)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("malformed").Inc()
		return false, fmt.Errorf("%w: %v", core.ErrMalformedRequest, err)
	}

	primaryType := req.PrimaryType
	if primaryType == "" {
		primaryType = DefaultPrimaryType
	}
	if _, ok := req.Types[primaryType]; !ok {
		metrics.VerificationsTotal.WithLabelValues("malformed").Inc()
		return false, fmt.Errorf("%w: type schema does not declare %q", core.ErrMalformedRequest, primaryType)
	}

	signature, err := hexutil.Decode(req.Signature)
	if err != nil {
		// Malformed signature bytes are a negative result, not a fault, so
		// the caller cannot distinguish them from a wrong signer.
		metrics.VerificationsTotal.WithLabelValues("invalid").Inc()
		return false, nil
	}

	domain := eth.Domain{
		Name:              req.Domain.Name,
		Version:           req.Domain.Version,
		ChainID:           chainID,
		VerifyingContract: req.Domain.VerifyingContract,
	}
	claimed := common.HexToAddress(req.Address)

	valid := eth.Verify(domain, req.Types, primaryType, req.Message, signature, claimed)
	if !valid {
		metrics.VerificationsTotal.WithLabelValues("invalid").Inc()
		return false, nil
	}
	metrics.VerificationsTotal.WithLabelValues("valid").Inc()

	rec := s.buildRecord(req, chainID.String())
	if err := s.ledger.Insert(ctx, rec); err != nil {
		// The insert backs the session read path, it is not a precondition of
		// the verification result already established in memory.
		metrics.LedgerWriteFailures.Inc()
		s.log.Warn().Err(err).Str("address", rec.Address).Msg("signature ledger insert failed")
	}

	if s.events != nil {
		if err := s.events.PublishSignIn(ctx, rec.Address, rec.ChainID); err != nil {
			s.log.Warn().Err(err).Str("address", rec.Address).Msg("failed to publish sign-in event")
		}
	}

	return true, nil
}

// Authenticate re-derives an authenticated identity from the ledger for the
// claimed address presented in a request header. Every failure path returns
// nil uniformly; the caller cannot tell a malformed header, an absent
// session, an expired session, or a storage outage apart.
func (s *AuthService) Authenticate(ctx context.Context, claimedAddress string) *core.Identity {
	if !addressPattern.MatchString(claimedAddress) {
		metrics.AuthDenials.WithLabelValues("shape").Inc()
		return nil
	}

	since := time.Now().Add(-s.window)
	rec, err := s.ledger.LatestValid(ctx, strings.ToLower(claimedAddress), since)
	if err != nil {
		// Fail closed: an unreachable ledger denies, it never grants.
		metrics.AuthDenials.WithLabelValues("storage").Inc()
		s.log.Error().Err(err).Msg("signature ledger lookup failed")
		return nil
	}
	if rec == nil {
		metrics.AuthDenials.WithLabelValues("no_session").Inc()
		return nil
	}

	metrics.AuthSuccesses.Inc()
	return &core.Identity{Address: rec.Address}
}

func (s *AuthService) buildRecord(req SignInRequest, chainID string) *core.SignatureRecord {
	// Storage wants a lossless text form; the message is re-serialized with
	// its chain id as a decimal string.
	stored := make(map[string]any, len(req.Message))
	for k, v := range req.Message {
		stored[k] = v
	}
	if n, err := eth.NormalizeChainID(stored["chainId"]); err == nil {
		stored["chainId"] = n.String()
	}
	serialized, err := json.Marshal(stored)
	if err != nil {
		serialized = []byte("{}")
	}

	return &core.SignatureRecord{
		Address:   strings.ToLower(req.Address),
		ChainID:   chainID,
		Nonce:     stringField(req.Message, "nonce"),
		IssuedAt:  stringField(req.Message, "issued"),
		Message:   string(serialized),
		Signature: req.Signature,
		IsValid:   true,
	}
}

func validateSignIn(req SignInRequest) error {
	if req.Domain.Name == "" || req.Domain.Version == "" || req.Domain.ChainID == nil {
		return fmt.Errorf("%w: domain requires name, version and chainId", core.ErrMalformedRequest)
	}
	if len(req.Types) == 0 {
		return fmt.Errorf("%w: missing type schema", core.ErrMalformedRequest)
	}
	if req.Message == nil {
		return fmt.Errorf("%w: missing message", core.ErrMalformedRequest)
	}
	for _, field := range requiredMessageFields {
		if _, ok := req.Message[field]; !ok {
			return fmt.Errorf("%w: message requires %s", core.ErrMalformedRequest, field)
		}
	}
	if req.Signature == "" {
		return fmt.Errorf("%w: missing signature", core.ErrMalformedRequest)
	}
	if !addressPattern.MatchString(req.Address) {
		return fmt.Errorf("%w: %v", core.ErrMalformedRequest, core.ErrInvalidAddress)
	}
	return nil
}

func stringField(message map[string]any, key string) string {
	if s, ok := message[key].(string); ok {
		return s
	}
	return fmt.Sprint(message[key])
}
