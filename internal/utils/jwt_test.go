package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", "amina", "OPERATOR", 30)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), at.Exp, 5*time.Second)

	tok, err := jwt.Parse(at.Token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "amina", claims["sub"])
	assert.Equal(t, "OPERATOR", claims["role"])

	_, err = jwt.Parse(at.Token, func(*jwt.Token) (interface{}, error) { return []byte("other"), nil })
	assert.Error(t, err)
}

func TestNewAccessTokenRejectsBadInput(t *testing.T) {
	_, err := NewAccessToken("", "amina", "OPERATOR", 30)
	assert.Error(t, err)
	_, err = NewAccessToken("secret", "amina", "OPERATOR", 0)
	assert.Error(t, err)
}
