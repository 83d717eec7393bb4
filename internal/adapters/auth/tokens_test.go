package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot_rental/internal/adapters/auth"
	"spot_rental/internal/domain"
)

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	u := domain.User{ID: 42, Email: "demo@user.io", Username: "demo"}

	issued, err := tokens.Issue(u)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	claims, err := tokens.Parse(issued.Value)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "demo", claims.Username)
	assert.Equal(t, issued.ID, claims.ID)
	assert.InDelta(t, time.Hour.Seconds(), tokens.Remaining(claims).Seconds(), 5)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	issued, err := auth.NewTokens("one", time.Hour).Issue(domain.User{ID: 1})
	require.NoError(t, err)

	_, err = auth.NewTokens("two", time.Hour).Parse(issued.Value)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_RejectsExpired(t *testing.T) {
	tokens := auth.NewTokens("secret", -time.Minute)
	issued, err := tokens.Issue(domain.User{ID: 1})
	require.NoError(t, err)

	_, err = tokens.Parse(issued.Value)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_RejectsGarbage(t *testing.T) {
	_, err := auth.NewTokens("secret", time.Hour).Parse("not-a-jwt")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokens_RejectsNonNumericSubject(t *testing.T) {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "jti",
		Subject:   "demo",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = auth.NewTokens("secret", time.Hour).Parse(signed)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = claims.UserID()
	require.Error(t, err)
}
