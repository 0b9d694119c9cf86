package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ghaggin/fypportal/internal/model"
)

var unverified = jwt.NewParser()

// expiryOf reads the exp claim without checking the signature. The backend
// verifies tokens; the portal only needs to know how long to keep them.
func expiryOf(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := unverified.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func withExpiries(t model.TokenPair) model.TokenPair {
	t.AccessExpiresAt = expiryOf(t.Access)
	t.RefreshExpiresAt = expiryOf(t.Refresh)
	return t
}
