package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles a conversation token can carry.
const (
	RoleHost   = "host"
	RoleViewer = "viewer"
)

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"` // "host" or "viewer"
	jwt.RegisteredClaims
}

var jwtSecret = []byte("development-secret")

// SetSecret installs the signing secret. Call once at startup.
func SetSecret(secret string) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
}

// GenerateHostToken generates a token that allows controlling a conversation.
func GenerateHostToken(conversationID string) (string, error) {
	return generate(conversationID, RoleHost)
}

// GenerateViewerToken generates a token that allows watching a conversation.
func GenerateViewerToken(conversationID string) (string, error) {
	return generate(conversationID, RoleViewer)
}

func generate(conversationID, role string) (string, error) {
	claims := &JWTClaims{
		ConversationID: conversationID,
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}

// ValidateTokenFor validates a token and checks it belongs to the conversation.
func ValidateTokenFor(tokenString, conversationID string) (*JWTClaims, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ConversationID != conversationID {
		return nil, fmt.Errorf("token issued for another conversation")
	}
	return claims, nil
}
