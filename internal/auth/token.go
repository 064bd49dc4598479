package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated principal derived from a verified token's
// subject claim.
type Identity string

// Token kinds carried in the "type" claim. Refresh tokens are only good for
// minting new access tokens; everything else requires an access token.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	ErrMalformed        = errors.New("token malformed")
	ErrExpired          = errors.New("token expired")
	ErrWrongKind        = errors.New("token kind not allowed")
	ErrSignatureInvalid = errors.New("token signature invalid")
)

// Claims is the JWT claim set minted and verified by this service.
type Claims struct {
	Kind string `json:"type"`
	jwt.RegisteredClaims
}

// Tokens mints and verifies HS256 signed tokens. It holds no mutable state
// and is safe for concurrent use.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokens(secret string, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// MintAccess issues a short-lived access token for the given subject.
func (t *Tokens) MintAccess(subject string) (string, error) {
	return t.mint(subject, KindAccess, t.accessTTL)
}

// MintRefresh issues a long-lived refresh token for the given subject.
func (t *Tokens) MintRefresh(subject string) (string, error) {
	return t.mint(subject, KindRefresh, t.refreshTTL)
}

func (t *Tokens) mint(subject, kind string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// VerifyAccess validates signature, expiry, and kind, and extracts the
// subject. Tokens minted for refresh purposes are rejected with ErrWrongKind.
func (t *Tokens) VerifyAccess(token string) (Identity, error) {
	return t.verify(token, KindAccess)
}

// VerifyRefresh is the refresh-endpoint counterpart of VerifyAccess.
func (t *Tokens) VerifyRefresh(token string) (Identity, error) {
	return t.verify(token, KindRefresh)
}

func (t *Tokens) verify(token, kind string) (Identity, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrSignatureInvalid
		default:
			return "", ErrMalformed
		}
	}
	if claims.Kind != kind {
		return "", ErrWrongKind
	}
	if claims.Subject == "" {
		return "", ErrMalformed
	}
	return Identity(claims.Subject), nil
}
