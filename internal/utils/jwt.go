package utils // package utils provides password hashing and token signing helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/knowledgehub/internal/config"
)

// ErrMissingSecret is returned when the issuer is built without a secret.
var ErrMissingSecret = errors.New("token signing secret is required")

// Identity is the set of user claims carried inside an access token.
type Identity struct {
	UserID   uint64
	Username string
}

// Claims is the JWT payload. The numeric id is duplicated in the standard
// subject claim as a decimal string.
type Claims struct {
	UserID   uint64 `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Identity extracts the user part of the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.Username}
}

// Expiry returns the encoded expiry, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time.UTC()
}

// AccessToken is a signed token along with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// TokenIssuer signs and verifies HS256 access tokens with a secret that is
// fixed at construction.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an issuer from startup configuration.
func NewTokenIssuer(cfg config.TokenConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenIssuer{secret: []byte(cfg.Secret), ttl: cfg.TTL, now: time.Now}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

// TTL is the configured default lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token for id that expires ttl after now.
func (t *TokenIssuer) Issue(id Identity, ttl time.Duration) (AccessToken, error) {
	// NumericDate has whole-second precision; truncating here keeps the
	// returned Exp identical to the signed exp claim and to iat+ttl.
	now := t.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := Claims{
		UserID:   id.UserID,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify checks the signature, the algorithm and the expiry. A token is
// rejected once the current time reaches its exp claim. No storage is
// consulted.
func (t *TokenIssuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}

// DecodeUnverified parses the payload without checking the signature or
// expiry. It must only be applied to tokens that already passed Verify.
func (t *TokenIssuer) DecodeUnverified(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest used as the revocation key, so
// raw bearer tokens never reach storage.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
