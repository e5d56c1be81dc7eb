package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"05321234567", "5321234567", true},
		{"+90 532 123 45 67", "5321234567", true},
		{"(532) 123-45-67", "5321234567", true},
		{"5321234567", "5321234567", true},
		{"03121234567", "", false},
		{"0532123456", "", false},
		{"55321234567", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizePhone(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewNullString(t *testing.T) {
	assert.Nil(t, NewNullString("   "))
	require.NotNil(t, NewNullString(" leave at door "))
	assert.Equal(t, "leave at door", *NewNullString(" leave at door "))
}

func TestParsePositiveID(t *testing.T) {
	id, err := ParsePositiveID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParsePositiveID("0")
	assert.Error(t, err)
	_, err = ParsePositiveID("abc")
	assert.Error(t, err)
}

func TestTokenManager(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)

	m, err := NewTokenManager("secret", time.Hour)
	require.NoError(t, err)

	tok, err := m.GenerateAccessToken(7, "ayse", "customer")
	require.NoError(t, err)
	claims, err := m.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "customer", claims.Role)

	t.Run("expired", func(t *testing.T) {
		short, err := NewTokenManager("secret", time.Nanosecond)
		require.NoError(t, err)
		tok, err := short.GenerateAccessToken(7, "ayse", "customer")
		require.NoError(t, err)
		time.Sleep(1100 * time.Millisecond)
		_, err = m.ValidateToken(tok)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("missing user id", func(t *testing.T) {
		tok, err := m.GenerateAccessToken(0, "ghost", "customer")
		require.NoError(t, err)
		_, err = m.ValidateToken(tok)
		assert.Error(t, err)
	})
}
