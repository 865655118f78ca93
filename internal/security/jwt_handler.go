package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/webbertakken/camera-core/internal/logging"
)

// Claims is the payload of a camera-core IPC access token.
type Claims struct {
	Subject string `json:"sub"`
	IAT     int64  `json:"iat"`
	EXP     int64  `json:"exp"`
}

// TokenValidator issues and validates HS256 JWTs used to gate the IPC
// WebSocket upgrade when security.require_auth is enabled.
type TokenValidator struct {
	secretKey string
	logger    *logging.Logger
}

// NewTokenValidator constructs a validator bound to secretKey, as loaded
// from config.SecurityConfig.JWTSecretKey.
func NewTokenValidator(secretKey string) (*TokenValidator, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, fmt.Errorf("jwt secret key must be provided")
	}
	return &TokenValidator{secretKey: secretKey, logger: logging.NewLogger("jwt")}, nil
}

// GenerateToken issues a token for subject valid for expiryHours (used by
// cmd/camctl to mint a token for manual testing against an auth-gated
// server).
func (v *TokenValidator) GenerateToken(subject string, expiryHours int) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("subject cannot be empty")
	}
	if expiryHours <= 0 {
		expiryHours = 24
	}

	now := time.Now().Unix()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now,
		"exp": now + int64(expiryHours)*3600,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(v.secretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, algorithm, and expiry, returning the
// decoded claims on success.
func (v *TokenValidator) ValidateToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unsupported signing method: %v", t.Method.Alg())
		}
		return []byte(v.secretKey), nil
	})
	if err != nil {
		v.logger.WithError(err).Warn("token validation failed")
		return nil, fmt.Errorf("validate token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("token missing expiration")
	}
	if time.Now().Unix() > int64(exp) {
		return nil, fmt.Errorf("token has expired")
	}
	iat, _ := claims["iat"].(float64)

	return &Claims{Subject: sub, IAT: int64(iat), EXP: int64(exp)}, nil
}
