package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims are the access-token fields the web tier cares about.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// ReadClaims decodes an access token without verifying its signature. The
// backend verifies every token it receives; here the claims only label the
// session.
func ReadClaims(accessToken string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, mapClaims); err != nil {
		return Claims{}, err
	}

	var c Claims
	if sub, ok := mapClaims["sub"].(string); ok {
		c.Subject = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		c.Email = email
	}
	switch exp := mapClaims["exp"].(type) {
	case float64:
		c.ExpiresAt = time.Unix(int64(exp), 0)
	case int64:
		c.ExpiresAt = time.Unix(exp, 0)
	}
	return c, nil
}
