package jwtutil

import (
	"time"

	"tenant-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	secret          = []byte("tenant-service-secret")
	expirationHours = 24
)

// Initialize configures the signing key and token lifetime
func Initialize(cfg *config.JWTConfig) {
	secret = []byte(cfg.SigningKey)
	if cfg.ExpirationHours > 0 {
		expirationHours = cfg.ExpirationHours
	}
}

// AdminClaims represents the JWT claims for administrative access
type AdminClaims struct {
	Email   string    `json:"email"`
	UserID  uuid.UUID `json:"user_id"`
	IsSuper bool      `json:"is_super"`
	jwt.RegisteredClaims
}

// GenerateToken creates a JWT token for an administrative user
func GenerateToken(email string, userID uuid.UUID, isSuper bool) (string, error) {
	claims := AdminClaims{
		Email:   email,
		UserID:  userID,
		IsSuper: isSuper,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AdminClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
