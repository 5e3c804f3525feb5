package utils // package utils provides helpers for operator token creation

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT and its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an HS256 JWT carrying sub, role, exp and iat
// claims. ttlMin is the lifetime in minutes.
func NewAccessToken(secret, subject, role string, ttlMin int) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("jwt: empty signing secret")
	}
	if ttlMin <= 0 {
		return AccessToken{}, errors.New("jwt: ttl must be positive")
	}
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
