// Package api exposes the read-only lock views over HTTP. It serves
// frontends that browse locks without holding a key: lookups by ID,
// pending sets per recipient, and the bridge registry.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lovebridge/lovelock/internal/lock"
	"github.com/lovebridge/lovelock/internal/view"
)

// LockService is the slice of the SDK the handlers need.
type LockService interface {
	FetchLockByID(ctx context.Context, id string) (*lock.Lock, error)
	FetchPendingForRecipient(ctx context.Context, address string) ([]lock.Lock, error)
	FetchRegistryLocks(ctx context.Context) ([]lock.Lock, error)
	FetchLocksByOwner(ctx context.Context, owner string) ([]lock.Lock, error)
}

// LockHandler serves the lock endpoints.
type LockHandler struct {
	svc    LockService
	logger *zap.Logger
}

// NewLockHandler creates a new LockHandler.
func NewLockHandler(svc LockService, logger *zap.Logger) *LockHandler {
	return &LockHandler{svc: svc, logger: logger}
}

// Register mounts the lock routes on the given router group.
func (h *LockHandler) Register(rg *gin.RouterGroup) {
	l := rg.Group("/locks")
	{
		l.GET("/:id", h.GetLock)
	}
	rg.GET("/recipients/:address/pending", h.GetPending)
	rg.GET("/owners/:address/locks", h.GetByOwner)
	rg.GET("/bridge/locks", h.GetRegistry)
}

// GetLock handles GET /locks/:id — one lock by object ID. The optional
// ?viewer= address drives the can_act capability in the response.
func (h *LockHandler) GetLock(c *gin.Context) {
	id := c.Param("id")
	if !strings.HasPrefix(id, "0x") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a 0x-prefixed object address"})
		return
	}

	l, err := h.svc.FetchLockByID(c.Request.Context(), id)
	v := view.SearchResult(l, err, c.Query("viewer"))

	switch v.State {
	case view.StateNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "lock not found", "state": v.State})
	case view.StateFailed:
		h.renderFailure(c, id, v.Err)
	default:
		c.JSON(http.StatusOK, gin.H{"state": v.State, "lock": v.Locks[0]})
	}
}

// GetPending handles GET /recipients/:address/pending — the locks
// awaiting the address's decision.
func (h *LockHandler) GetPending(c *gin.Context) {
	address, ok := h.addressParam(c)
	if !ok {
		return
	}

	locks, err := h.svc.FetchPendingForRecipient(c.Request.Context(), address)
	h.renderListing(c, view.PendingForMe(locks, err, address))
}

// GetByOwner handles GET /owners/:address/locks — every lock an address
// holds, regardless of role.
func (h *LockHandler) GetByOwner(c *gin.Context) {
	address, ok := h.addressParam(c)
	if !ok {
		return
	}

	locks, err := h.svc.FetchLocksByOwner(c.Request.Context(), address)
	h.renderListing(c, view.OwnedLocks(locks, err, address))
}

// GetRegistry handles GET /bridge/locks — the sealed locks held by the
// bridge registry. Sealed locks admit no further action, so can_act is
// false throughout.
func (h *LockHandler) GetRegistry(c *gin.Context) {
	locks, err := h.svc.FetchRegistryLocks(c.Request.Context())
	h.renderListing(c, view.RegistryLocks(locks, err, ""))
}

func (h *LockHandler) addressParam(c *gin.Context) (string, bool) {
	address := c.Param("address")
	if !strings.HasPrefix(address, "0x") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address must be a 0x-prefixed account address"})
		return "", false
	}
	return address, true
}

// renderListing maps a derived listing view to a response. Empty is a
// valid outcome and renders an empty array, not an error.
func (h *LockHandler) renderListing(c *gin.Context, v view.View) {
	if v.State == view.StateFailed {
		h.logger.Error("lock listing failed", zap.Error(v.Err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream node unavailable", "state": v.State})
		return
	}

	entries := v.Locks
	if entries == nil {
		entries = []view.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"state": v.State, "locks": entries})
}

// renderFailure maps a by-ID failure to a response. An object that
// exists but is not a lock is unprocessable rather than missing.
func (h *LockHandler) renderFailure(c *gin.Context, id string, err error) {
	if errors.Is(err, lock.ErrNotLock) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "object is not a lock", "state": view.StateFailed})
		return
	}
	h.logger.Error("lock lookup failed", zap.String("id", id), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "upstream node unavailable", "state": view.StateFailed})
}
