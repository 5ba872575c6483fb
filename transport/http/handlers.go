// Package http exposes the service over gin.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gin-gonic/gin"

	"github.com/Marrmee/spark-gate/core"
	"github.com/Marrmee/spark-gate/ports"
	"github.com/Marrmee/spark-gate/service"
)

// Handlers contains the HTTP handlers.
type Handlers struct {
	auth      *service.AuthService
	refresher *service.RefreshService
	ledger    ports.Ledger
	cache     ports.Cache
}

// NewHandlers creates the handler set.
func NewHandlers(auth *service.AuthService, refresher *service.RefreshService, ledger ports.Ledger, cache ports.Cache) *Handlers {
	return &Handlers{
		auth:      auth,
		refresher: refresher,
		ledger:    ledger,
		cache:     cache,
	}
}

type verifyDomain struct {
	Name              string          `json:"name"`
	Version           string          `json:"version"`
	ChainID           json.RawMessage `json:"chainId"`
	VerifyingContract string          `json:"verifyingContract"`
}

type verifyRequest struct {
	Domain      verifyDomain               `json:"domain" binding:"required"`
	Types       map[string][]apitypes.Type `json:"types" binding:"required"`
	PrimaryType string                     `json:"primaryType"`
	Message     map[string]any             `json:"message" binding:"required"`
	Signature   string                     `json:"signature" binding:"required"`
	Address     string                     `json:"address" binding:"required"`
}

// Verify handles the sign-in verification endpoint. The response carries only
// {success, isValid}; a signature that fails to verify is a 200 with
// isValid=false, never an error.
func (h *Handlers) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var chainID any
	if len(req.Domain.ChainID) > 0 {
		// kept raw so large identifiers survive JSON numbers losslessly
		chainID = json.RawMessage(req.Domain.ChainID)
	}

	valid, err := h.auth.VerifySignIn(c.Request.Context(), service.SignInRequest{
		Domain: service.SignInDomain{
			Name:              req.Domain.Name,
			Version:           req.Domain.Version,
			ChainID:           chainID,
			VerifyingContract: req.Domain.VerifyingContract,
		},
		Types:       apitypes.Types(req.Types),
		PrimaryType: req.PrimaryType,
		Message:     req.Message,
		Signature:   req.Signature,
		Address:     req.Address,
	})
	if err != nil {
		if errors.Is(err, core.ErrMalformedRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		// no internal detail crosses the boundary
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "isValid": valid})
}

// Me returns the authenticated caller's canonical address.
func (h *Handlers) Me(c *gin.Context) {
	identity, exists := c.Get(identityKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": identity.(*core.Identity).Address})
}

// Authorize confirms the caller is authenticated; the middleware has already
// done the work.
func (h *Handlers) Authorize(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Refresh triggers a cache sweep. The sweep is idempotent, so exposing it to
// any authenticated caller is safe.
func (h *Handlers) Refresh(c *gin.Context) {
	h.refresher.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "refresh completed"})
}

// Health pings the ledger and the cache.
func (h *Handlers) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{"ledger": "ok", "cache": "ok"}
	healthy := true

	if err := h.ledger.Ping(ctx); err != nil {
		status["ledger"] = "unavailable"
		healthy = false
	}
	if err := h.cache.Ping(ctx); err != nil {
		status["cache"] = "unavailable"
		healthy = false
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
