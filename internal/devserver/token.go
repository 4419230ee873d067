package devserver

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// tokenClaims distinguishes access tokens from refresh tokens so a refresh
// token cannot be replayed as a bearer credential.
type tokenClaims struct {
	TokenType string `json:"token_type"` // "access", "refresh"
	jwt.RegisteredClaims
}

func (s *Server) issueToken(accountID, tokenType string, ttl time.Duration) (string, error) {
	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// issueTokenPair returns a fresh (access, refresh) pair for an account.
func (s *Server) issueTokenPair(accountID string) (string, string, error) {
	access, err := s.issueToken(accountID, "access", accessTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.issueToken(accountID, "refresh", refreshTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return access, refresh, nil
}

// validateToken parses a token and checks it carries the expected type.
func (s *Server) validateToken(tokenString, expectedType string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.TokenType != expectedType {
		return "", fmt.Errorf("wrong token type %q", claims.TokenType)
	}
	return claims.Subject, nil
}
