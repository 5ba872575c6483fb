// Package eth implements EIP-712 typed-data signature verification for the
// sign-in flow. Verification is a pure in-memory check with no I/O.
package eth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
)

const (
	domainTypeName  = "EIP712Domain"
	signatureLength = 65
)

// Domain is the EIP-712 domain separator context bound into the signed hash.
// Name, Version and ChainID are mandatory; VerifyingContract is optional.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract string
}

// NormalizeChainID converts a chain identifier in any of the wire forms a
// client may send (decimal string, hex string, JSON number, raw JSON token,
// native integer) into an arbitrary-precision integer. Typed-data hashing
// needs the exact-width integer form; a float sneaking through here would
// silently produce the wrong hash.
func NormalizeChainID(v any) (*big.Int, error) {
	switch id := v.(type) {
	case nil:
		return nil, errors.New("missing chain id")
	case *big.Int:
		if id == nil {
			return nil, errors.New("missing chain id")
		}
		return new(big.Int).Set(id), nil
	case *math.HexOrDecimal256:
		if id == nil {
			return nil, errors.New("missing chain id")
		}
		return new(big.Int).Set((*big.Int)(id)), nil
	case int:
		return big.NewInt(int64(id)), nil
	case int64:
		return big.NewInt(id), nil
	case uint64:
		return new(big.Int).SetUint64(id), nil
	case float64:
		d := decimal.NewFromFloat(id)
		if !d.IsInteger() {
			return nil, fmt.Errorf("chain id %v is not an integer", id)
		}
		return d.BigInt(), nil
	case json.Number:
		return chainIDFromString(id.String())
	case json.RawMessage:
		return chainIDFromString(strings.Trim(strings.TrimSpace(string(id)), `"`))
	case string:
		return chainIDFromString(id)
	default:
		return nil, fmt.Errorf("unsupported chain id type %T", v)
	}
}

func chainIDFromString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("missing chain id")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex chain id %q", s)
		}
		return n, nil
	}
	// decimal keeps large identifiers lossless where float64 would not
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid chain id %q: %w", s, err)
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("chain id %q is not an integer", s)
	}
	return d.BigInt(), nil
}

// HashTypedData computes the EIP-712 digest for domain + types + primaryType
// + message. The type schema must declare primaryType, and the domain must
// carry name, version and chain id.
func HashTypedData(domain Domain, types apitypes.Types, primaryType string, message map[string]any) ([]byte, error) {
	if domain.Name == "" || domain.Version == "" || domain.ChainID == nil {
		return nil, errors.New("domain requires name, version and chainId")
	}
	if primaryType == "" || primaryType == domainTypeName {
		return nil, errors.New("missing primary type")
	}
	if _, ok := types[primaryType]; !ok {
		return nil, fmt.Errorf("type schema does not declare %q", primaryType)
	}

	typedData := apitypes.TypedData{
		Types:       withDomainType(types, domain),
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           (*math.HexOrDecimal256)(domain.ChainID),
			VerifyingContract: domain.VerifyingContract,
		},
		Message: normalizeMessage(message),
	}

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("typed data hashing failed: %w", err)
	}
	return digest, nil
}

// RecoverSigner recovers the address that produced sig over digest. Both the
// wallet convention (V = 27/28) and the raw convention (V = 0/1) are accepted.
func RecoverSigner(digest, sig []byte) (common.Address, error) {
	if len(sig) != signatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", signatureLength, len(sig))
	}
	normalized := make([]byte, signatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", sig[64])
	}
	pub, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("signature recovery failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether sig over the typed-data payload was produced by
// claimed. Failure is always the value false, never a fault: any error or
// panic in hashing or recovery collapses to false so callers cannot
// distinguish malformed input from a wrong signer.
func Verify(domain Domain, types apitypes.Types, primaryType string, message map[string]any, sig []byte, claimed common.Address) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	digest, err := HashTypedData(domain, types, primaryType, message)
	if err != nil {
		return false
	}
	signer, err := RecoverSigner(digest, sig)
	if err != nil {
		return false
	}
	return signer == claimed
}

// withDomainType returns a copy of types carrying an EIP712Domain entry. A
// caller-supplied entry wins; otherwise one is synthesized from the fields
// the domain actually carries.
func withDomainType(types apitypes.Types, domain Domain) apitypes.Types {
	out := make(apitypes.Types, len(types)+1)
	for name, fields := range types {
		out[name] = fields
	}
	if _, ok := out[domainTypeName]; ok {
		return out
	}
	fields := []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	}
	if domain.VerifyingContract != "" {
		fields = append(fields, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}
	out[domainTypeName] = fields
	return out
}

// normalizeMessage copies the message, rewriting a chainId field into the
// exact-width integer form the hashing layer expects.
func normalizeMessage(message map[string]any) apitypes.TypedDataMessage {
	out := make(apitypes.TypedDataMessage, len(message))
	for k, v := range message {
		out[k] = v
	}
	if raw, ok := out["chainId"]; ok {
		if n, err := NormalizeChainID(raw); err == nil {
			out["chainId"] = (*math.HexOrDecimal256)(n)
		}
	}
	return out
}
