package auth

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	secretMu  sync.RWMutex
	jwtSecret []byte
)

// Claims carried by the access token (simple RBAC: IsAdmin).
type Claims struct {
	UserID  uint `json:"userId"`
	IsAdmin bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenTTL is the access token lifetime.
const TokenTTL = 24 * time.Hour

// InitFromEnv loads the signing secret from JWT_SECRET. Call once at startup.
func InitFromEnv() error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	SetSecret([]byte(secret))
	return nil
}

// SetSecret overrides the signing secret; tests use this directly.
func SetSecret(secret []byte) {
	secretMu.Lock()
	jwtSecret = secret
	secretMu.Unlock()
}

func signingSecret() ([]byte, error) {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if len(jwtSecret) == 0 {
		return nil, errors.New("jwt secret not initialized")
	}
	return jwtSecret, nil
}

// GenerateToken issues an HS256 JWT valid for TokenTTL.
func GenerateToken(userID uint, isAdmin bool) (string, error) {
	secret, err := signingSecret()
	if err != nil {
		return "", err
	}
	claims := &Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAndValidate checks the signature and expiry and returns the claims.
func ParseAndValidate(tokenStr string) (*Claims, error) {
	secret, err := signingSecret()
	if err != nil {
		return nil, err
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("could not extract claims")
	}
	return claims, nil
}
