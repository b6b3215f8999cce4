package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/pkg/models"
)

var (
	ErrInvalidAPIKey = errors.New("invalid API key")
	ErrInvalidToken  = errors.New("invalid token")
)

const tokenIssuer = "smartdiet"

// AuthService issues and validates client tokens. Sessions are tracked in
// Redis when a client is configured so tokens can be revoked.
type AuthService struct {
	config      *config.AuthConfig
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtSecret   []byte
	apiKeys     map[string]string
}

func NewAuthService(cfg *config.AuthConfig, logger *logrus.Logger, redisClient *redis.Client) *AuthService {
	return &AuthService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.JWTSecret),
		apiKeys:     parseAPIKeys(cfg.APIKeys, logger),
	}
}

// parseAPIKeys reads "key:tier" pairs. A pair without a tier is a free key.
func parseAPIKeys(pairs []string, logger *logrus.Logger) map[string]string {
	keys := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, tier, found := strings.Cut(strings.TrimSpace(pair), ":")
		if key == "" {
			continue
		}
		if !found || tier == "" {
			tier = "free"
		}
		keys[key] = tier
	}
	logger.WithField("api_keys", len(keys)).Debug("API keys loaded")
	return keys
}

// ClientID derives a stable, non-reversible client identifier from an API
// key.
func ClientID(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return fmt.Sprintf("client-%x", sum[:6])
}

// ValidateAPIKey returns the client id and tier for a configured key.
func (s *AuthService) ValidateAPIKey(apiKey string) (string, string, error) {
	tier, ok := s.apiKeys[apiKey]
	if !ok || apiKey == "" {
		return "", "", ErrInvalidAPIKey
	}
	return ClientID(apiKey), tier, nil
}

// IssueToken exchanges an API key for a signed JWT.
func (s *AuthService) IssueToken(ctx context.Context, apiKey string) (string, *models.JWTClaims, error) {
	clientID, tier, err := s.ValidateAPIKey(apiKey)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	claims := &models.JWTClaims{
		ClientID: clientID,
		Tier:     tier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   clientID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if s.redisClient != nil {
		if err := s.redisClient.Set(ctx, sessionKey(clientID), tokenString, s.config.TokenTTL).Err(); err != nil {
			// Token issuance does not depend on Redis being up.
			s.logger.WithError(err).Warn("Failed to store session in Redis")
		}
	}

	return tokenString, claims, nil
}

func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if s.redisClient != nil {
		exists, err := s.redisClient.Exists(ctx, sessionKey(claims.ClientID)).Result()
		if err != nil {
			s.logger.WithError(err).Warn("Failed to check session in Redis")
		} else if exists == 0 {
			return nil, fmt.Errorf("%w: session not found or expired", ErrInvalidToken)
		}
	}

	return claims, nil
}

// RevokeToken drops the client's session. Without Redis tokens stay valid
// until they expire.
func (s *AuthService) RevokeToken(ctx context.Context, clientID string) error {
	if s.redisClient == nil {
		return nil
	}
	if err := s.redisClient.Del(ctx, sessionKey(clientID)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func sessionKey(clientID string) string {
	return "smartdiet:session:" + clientID
}
