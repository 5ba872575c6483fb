package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marrmee/spark-gate/adapters/cache"
	"github.com/Marrmee/spark-gate/adapters/ledger"
	"github.com/Marrmee/spark-gate/core"
	"github.com/Marrmee/spark-gate/internal/eth"
	"github.com/Marrmee/spark-gate/service"
)

type fixture struct {
	router *gin.Engine
	ledger *ledger.MemoryLedger
	cache  *cache.MemoryCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := ledger.NewMemoryLedger()
	cacheStore := cache.NewMemoryCache()
	auth := service.NewAuthService(store, nil, 0, zerolog.Nop())
	refresher := service.NewRefreshService(cacheStore, nil, zerolog.Nop())
	handlers := NewHandlers(auth, refresher, store, cacheStore)

	return &fixture{
		router: SetupRouter(handlers, auth),
		ledger: store,
		cache:  cacheStore,
	}
}

func signedVerifyBody(t *testing.T, key *ecdsa.PrivateKey) map[string]any {
	t.Helper()

	domain := eth.Domain{Name: "Spark Governance", Version: "1", ChainID: big.NewInt(8453)}
	types := apitypes.Types{
		"SignIn": []apitypes.Type{
			{Name: "chainId", Type: "uint256"},
			{Name: "nonce", Type: "string"},
			{Name: "issued", Type: "string"},
		},
	}
	message := map[string]any{
		"chainId": "8453",
		"nonce":   "b3d91f04aa52",
		"issued":  "2026-08-28T10:00:00Z",
	}

	digest, err := eth.HashTypedData(domain, types, "SignIn", message)
	require.NoError(t, err)
	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)
	sig[64] += 27

	return map[string]any{
		"domain": map[string]any{
			"name":    "Spark Governance",
			"version": "1",
			"chainId": 8453,
		},
		"types":     types,
		"message":   message,
		"signature": hexutil.Encode(sig),
		"address":   crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}
}

func (f *fixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestVerifyEndpointAcceptsValidSignature(t *testing.T) {
	f := newFixture(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	rec := f.post(t, "/auth/verify", signedVerifyBody(t, key))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		IsValid bool `json:"isValid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.IsValid)

	records := f.ledger.Records()
	require.Len(t, records, 1)
	assert.True(t, records[0].IsValid)
}

func TestVerifyEndpointRejectsWrongSigner(t *testing.T) {
	f := newFixture(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	body := signedVerifyBody(t, key)
	body["address"] = crypto.PubkeyToAddress(other.PublicKey).Hex()

	rec := f.post(t, "/auth/verify", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		IsValid bool `json:"isValid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.IsValid)
	assert.Empty(t, f.ledger.Records())
}

func TestVerifyEndpointBadRequests(t *testing.T) {
	f := newFixture(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	t.Run("missing fields", func(t *testing.T) {
		rec := f.post(t, "/auth/verify", map[string]any{"address": "0x1234"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/verify", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("domain without chain id", func(t *testing.T) {
		body := signedVerifyBody(t, key)
		body["domain"] = map[string]any{"name": "Spark Governance", "version": "1"}
		rec := f.post(t, "/auth/verify", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProtectedRoutesRequireLedgerSession(t *testing.T) {
	f := newFixture(t)
	address := "0x52908400098527886e0f7030069857d2e4169ee7"

	t.Run("no header", func(t *testing.T) {
		rec := f.get("/api/me", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		rec := f.get("/api/me", map[string]string{AddressHeader: "0xINVALIDADDR"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.EqualValues(t, 0, f.ledger.QueryCount())
	})

	t.Run("no session", func(t *testing.T) {
		rec := f.get("/api/me", map[string]string{AddressHeader: address})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid session", func(t *testing.T) {
		require.NoError(t, f.ledger.Insert(context.Background(), &core.SignatureRecord{
			Address: address,
			IsValid: true,
		}))

		rec := f.get("/api/me", map[string]string{AddressHeader: strings.ToUpper(address[:2]) + address[2:]})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "0X prefix is not the literal header shape")

		rec = f.get("/api/me", map[string]string{AddressHeader: address})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Address string `json:"address"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, address, resp.Address)

		rec = f.get("/api/authorize", map[string]string{AddressHeader: address})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestAdminRefreshSweepsCache(t *testing.T) {
	f := newFixture(t)
	address := "0x52908400098527886e0f7030069857d2e4169ee7"
	require.NoError(t, f.ledger.Insert(context.Background(), &core.SignatureRecord{
		Address: address,
		IsValid: true,
	}))

	f.cache.SetIndexList(core.CategoryResearch, []int{1, 2})
	f.cache.SetSnapshot(core.CategoryResearch, 1, core.StatusCompleted)
	f.cache.SetSnapshot(core.CategoryResearch, 2, "active")

	t.Run("unauthenticated", func(t *testing.T) {
		rec := f.post(t, "/admin/refresh", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.True(t, f.cache.HasSnapshot(core.CategoryResearch, 2))
	})

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/refresh", nil)
		req.Header.Set(AddressHeader, address)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, f.cache.HasSnapshot(core.CategoryResearch, 1))
		assert.False(t, f.cache.HasSnapshot(core.CategoryResearch, 2))
	})
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.get("/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
