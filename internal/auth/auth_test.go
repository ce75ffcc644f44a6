package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := &BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "battery staple"))
	assert.Error(t, h.Compare("not-a-hash", "correct horse"))
}

func TestNewIssuer_Rejects(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.Error(t, err)
	_, err = NewIssuer("secret", 0)
	assert.Error(t, err)
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)

	tok, err := issuer.Issue(42)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tok.Type)
	assert.NotEmpty(t, tok.ID)

	userID, err := issuer.Parse(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	other, err := issuer.Issue(42)
	require.NoError(t, err)
	assert.NotEqual(t, tok.ID, other.ID, "every token gets its own jti")
}

func TestIssuer_Parse_Rejects(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)
	tok, err := issuer.Issue(7)
	require.NoError(t, err)

	forger, err := NewIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := forger.Issue(7)
	require.NoError(t, err)

	expiredIssuer, err := NewIssuer("secret", time.Minute)
	require.NoError(t, err)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredIssuer.Issue(7)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    issuerName,
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuerName,
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "wrong secret", token: forged.Value},
		{name: "expired", token: expired.Value},
		{name: "alg none", token: none},
		{name: "non-numeric subject", token: badSubject},
		{name: "tampered", token: tok.Value + "x"},
		{name: "empty", token: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret()
	require.NoError(t, err)
	b, err := RandomSecret()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
