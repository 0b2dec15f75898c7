package tokenstore

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is the displayable subset of the access token's claims.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Inspect decodes the access token's registered claims without verifying the
// signature. The client never validates tokens itself (the backend is the
// only judge of a bearer credential); this exists purely so `whoami` can show
// when the stored token runs out.
func Inspect(access string) (TokenInfo, error) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(access, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to decode access token: %w", err)
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, nil
}
