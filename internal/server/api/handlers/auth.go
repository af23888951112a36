// Package handlers implements tallyd's HTTP API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/server/crypto"
	"github.com/tallyhq/tally/internal/server/database"
	"github.com/tallyhq/tally/internal/wire"
	"github.com/tallyhq/tally/pkg/logger"
)

type AuthHandler struct {
	db         *database.DB
	jwtManager *crypto.JWTManager
}

func NewAuthHandler(db *database.DB, jwtManager *crypto.JWTManager) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwtManager: jwtManager,
	}
}

// PostAuth creates an anonymous account and issues an access token.
// POST /v1/auth
func (h *AuthHandler) PostAuth(c *gin.Context) {
	var req wire.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wire.ErrorResponse{Error: err.Error()})
		return
	}

	name := req.Name
	if name == "" {
		name = "anonymous"
	}

	account, err := h.db.CreateAccount(c.Request.Context(), uuid.New().String(), name)
	if err != nil {
		logger.Errorf("PostAuth: CreateAccount failed: %v", err)
		c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: "failed to create account"})
		return
	}

	token, err := h.jwtManager.CreateToken(account.ID)
	if err != nil {
		logger.Errorf("PostAuth: CreateToken failed: %v", err)
		c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: "failed to create token"})
		return
	}

	logger.Debugf("Issued token for account %s (%s)", account.ID, account.Name)
	c.JSON(http.StatusOK, wire.AuthResponse{
		Success:   true,
		AccountID: account.ID,
		Token:     token,
	})
}
