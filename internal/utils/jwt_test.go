package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/knowledgehub/internal/config"
)

var t0 = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(ts time.Time) func() time.Time { return func() time.Time { return ts } }

func newIssuer(t *testing.T, secret string) *TokenIssuer {
	t.Helper()
	iss, err := NewTokenIssuer(config.TokenConfig{Secret: secret, TTL: time.Hour})
	require.NoError(t, err)
	return iss.WithClock(fixedClock(t0))
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer(config.TokenConfig{TTL: time.Hour})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	iss := newIssuer(t, "super-secret")

	at, err := iss.Issue(Identity{UserID: 42, Username: "alice"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), at.Exp)

	claims, err := iss.Verify(at.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 42, Username: "alice"}, claims.Identity())
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, at.Exp, claims.Expiry())
}

func TestIssue_SubSecondClock(t *testing.T) {
	issued := t0.Add(900 * time.Millisecond)
	iss := newIssuer(t, "k").WithClock(fixedClock(issued))

	at, err := iss.Issue(Identity{UserID: 1, Username: "u"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), at.Exp)

	claims, err := iss.Verify(at.Token)
	require.NoError(t, err)
	assert.Equal(t, t0, claims.IssuedAt.Time.UTC())
	assert.Equal(t, at.Exp, claims.Expiry())

	_, err = iss.WithClock(fixedClock(at.Exp.Add(-100 * time.Millisecond))).Verify(at.Token)
	assert.NoError(t, err, "accepted until the returned Exp")
	_, err = iss.WithClock(fixedClock(at.Exp)).Verify(at.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	iss := newIssuer(t, "k")
	ttl := 10 * time.Minute
	at, err := iss.Issue(Identity{UserID: 1, Username: "u"}, ttl)
	require.NoError(t, err)

	_, err = iss.WithClock(fixedClock(t0.Add(ttl - time.Second))).Verify(at.Token)
	assert.NoError(t, err, "accepted before expiry")

	_, err = iss.WithClock(fixedClock(t0.Add(ttl))).Verify(at.Token)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired), "rejected exactly at expiry, got %v", err)

	_, err = iss.WithClock(fixedClock(t0.Add(ttl + time.Hour))).Verify(at.Token)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestVerify_WrongSecret(t *testing.T) {
	at, err := newIssuer(t, "right").Issue(Identity{UserID: 1}, time.Hour)
	require.NoError(t, err)

	_, err = newIssuer(t, "wrong").Verify(at.Token)
	assert.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	iss := newIssuer(t, "k")
	claims := Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour))}}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Verify(none)
	assert.Error(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = iss.Verify(hs512)
	assert.Error(t, err)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	iss := newIssuer(t, "k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = iss.Verify(tok)
	assert.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	_, err := newIssuer(t, "k").Verify("not.a.jwt")
	assert.Error(t, err)
}

func TestDecodeUnverified_ReadsExpiryOfForeignToken(t *testing.T) {
	at, err := newIssuer(t, "other").Issue(Identity{UserID: 5, Username: "eve"}, 30*time.Minute)
	require.NoError(t, err)

	claims, err := newIssuer(t, "k").DecodeUnverified(at.Token)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(30*time.Minute), claims.Expiry())
	assert.Equal(t, uint64(5), claims.UserID)

	_, err = newIssuer(t, "k").DecodeUnverified("garbage")
	assert.Error(t, err)
}

func TestHashToken_StableHex(t *testing.T) {
	a := HashToken("abc")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("abc"))
	assert.NotEqual(t, a, HashToken("abd"))
	assert.Equal(t, strings.ToLower(a), a)
}
