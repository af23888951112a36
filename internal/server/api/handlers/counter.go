package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tallyhq/tally/internal/server/database"
	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

// Broadcaster pushes events to connected bridge clients. The websocket
// server satisfies it; handlers tolerate nil.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

type CounterHandler struct {
	db      *database.DB
	updates Broadcaster
}

func NewCounterHandler(db *database.DB, updates Broadcaster) *CounterHandler {
	return &CounterHandler{
		db:      db,
		updates: updates,
	}
}

// GetInit handles GET /api/init. The body is the bare counter value with no
// envelope, so any JSON-speaking client can bootstrap from it.
func (h *CounterHandler) GetInit(c *gin.Context) {
	counter, err := h.db.GetCounter(c.Request.Context())
	if err != nil {
		logger.Errorf("GetInit: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read counter"})
		return
	}
	c.JSON(http.StatusOK, counter.Value)
}

// GetCounter handles GET /v1/counter
func (h *CounterHandler) GetCounter(c *gin.Context) {
	counter, err := h.db.GetCounter(c.Request.Context())
	if err != nil {
		logger.Errorf("GetCounter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read counter"})
		return
	}
	c.JSON(http.StatusOK, wire.CounterResponse{
		Value:   counter.Value,
		Version: counter.Version,
	})
}

// PutCounter handles PUT /v1/counter. Writes are guarded by the expected
// version; a stale writer gets 409 with the current value so it can rebase.
func (h *CounterHandler) PutCounter(c *gin.Context) {
	var req wire.SetCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wire.ErrorResponse{Error: err.Error()})
		return
	}

	updated, err := h.db.SetCounter(c.Request.Context(), req.Value, req.ExpectedVersion)
	if errors.Is(err, database.ErrVersionMismatch) {
		current, cerr := h.db.GetCounter(c.Request.Context())
		if cerr != nil {
			logger.Errorf("PutCounter: %v", cerr)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read counter"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "version-mismatch",
			"value":   current.Value,
			"version": current.Version,
		})
		return
	}
	if err != nil {
		logger.Errorf("PutCounter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update counter"})
		return
	}

	if h.updates != nil {
		h.updates.Broadcast("counter-update", wire.CounterResponse{
			Value:   updated.Value,
			Version: updated.Version,
		})
	}

	c.JSON(http.StatusOK, wire.CounterResponse{
		Value:   updated.Value,
		Version: updated.Version,
	})
}
