package user

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenIssuer mints session tokens after a successful login. HS256 with a
// shared secret, subject = username.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: now}
}

func (t *TokenIssuer) Issue(u *User) (string, error) {
	issuedAt := t.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   u.Username,
		ID:        u.ID.String(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("token: failed to sign: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims. Used by callers that need to
// resolve a session back to a username.
func (t *TokenIssuer) Parse(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token: failed to parse: %w", err)
	}
	return claims, nil
}
