package authclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the oracle's view of an authenticated user. The coordinator
// only ever reads it; mutations go through sign-in, sign-out, and the
// recovery exchange.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	Email        string
	Role         string
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type accessClaims struct {
	Email       string `json:"email"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

// sessionFromTokens rebuilds a Session from raw tokens by decoding the
// access token's claims. The decode is unverified on purpose: this is the
// front-end side of the boundary, the same position a browser client is in.
// Signature verification happens server-side (see package adminapi).
func sessionFromTokens(accessToken, refreshToken string) (*Session, error) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, &AuthError{Message: "invalid access token: " + err.Error()}
	}

	sess := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Email:        claims.Email,
		Role:         claims.AppMetadata.Role,
	}
	if claims.Subject != "" {
		sess.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}

	return sess, nil
}
