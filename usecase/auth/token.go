package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// tokenSigner issues and parses HS256 credentials bound to a session id.
type tokenSigner struct {
	secret []byte
	issuer string
}

func (s tokenSigner) sign(c claims) (string, error) {
	c.Issuer = s.issuer
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

func (s tokenSigner) parse(raw string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if c.Issuer != s.issuer || c.Subject == "" || c.ID == "" {
		return nil, fmt.Errorf("token missing subject, session or issuer")
	}
	return c, nil
}

func newClaims(userID, sessionID, email, name string, issuedAt, expiresAt time.Time) claims {
	return claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
}
