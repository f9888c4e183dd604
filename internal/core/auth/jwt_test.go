package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	j := NewJWTer("secret", "querydsl", time.Hour)
	tok, exp, err := j.Issue("admin", RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", c.UID)
	assert.Equal(t, RoleAdmin, c.Role)
}

func TestParseRejects(t *testing.T) {
	j := NewJWTer("secret", "querydsl", time.Hour)
	tok, _, err := j.Issue("admin", RoleAdmin)
	require.NoError(t, err)

	other := NewJWTer("other", "querydsl", time.Hour)
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIss := NewJWTer("secret", "someone-else", time.Hour)
	_, err = wrongIss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = j.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	j := NewJWTer("secret", "querydsl", time.Hour)
	claims := Claims{
		UID: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "querydsl",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
