package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/services"
	"github.com/temcen/smartdiet/pkg/models"
)

// TokenIssuer exchanges an API key for a bearer token.
type TokenIssuer interface {
	IssueToken(ctx context.Context, apiKey string) (string, *models.JWTClaims, error)
}

type tokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

type AuthHandler struct {
	issuer    TokenIssuer
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewAuthHandler(issuer TokenIssuer, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		issuer:    issuer,
		validator: validator.New(),
		logger:    logger,
	}
}

// Token handles POST /api/v1/auth/token.
func (h *AuthHandler) Token(c *gin.Context) {
	var request tokenRequest
	if !bindAndValidate(c, h.validator, h.logger, &request) {
		return
	}

	token, claims, err := h.issuer.IssueToken(c.Request.Context(), request.APIKey)
	if err != nil {
		respondServiceError(c, h.logger, "issue_token", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"client_id": claims.ClientID,
		"tier":      claims.Tier,
	}).Info("Token issued")

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": claims.ExpiresAt.Time,
		"tier":       claims.Tier,
	})
}

var _ TokenIssuer = (*services.AuthService)(nil)
