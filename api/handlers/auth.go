package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qnetlabs/qnet-fleet/internal/auth"
	"github.com/qnetlabs/qnet-fleet/pkg/config"
	"github.com/qnetlabs/qnet-fleet/pkg/validation"
)

// AuthHandler authenticates the statically-configured operator account
type AuthHandler struct {
	cfg         config.APIConfig
	authService *auth.Service
}

func NewAuthHandler(cfg config.APIConfig, authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		cfg:         cfg,
		authService: authService,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	Username  string `json:"username"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username := validation.SanitizeString(req.Username)
	if username != h.cfg.OperatorUsername || !auth.CheckPassword(req.Password, h.cfg.OperatorPasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.authService.GenerateToken(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	expiresIn := int(h.authService.TokenDuration().Seconds())

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		"auth_token",
		token,
		expiresIn,
		"/",
		"",
		true,
		true,
	)

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresIn: expiresIn,
		Username:  username,
	})
}
