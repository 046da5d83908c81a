package security

import (
	"errors"
	"time"

	"citylog/internal/common"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints and verifies the signed bearer tokens that bind a request
// to a user identity. Tokens are not stored server side; validity is
// recomputed per request from the signature, the expiry and the user's
// password-changed timestamp (checked by the auth middleware).
type TokenIssuer struct {
	auth   *jwtauth.JWTAuth
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth:   jwtauth.New("HS256", secret, nil),
		secret: secret,
		ttl:    ttl,
	}
}

// JWTAuth exposes the underlying verifier for jwtauth middleware wiring.
func (ti *TokenIssuer) JWTAuth() *jwtauth.JWTAuth { return ti.auth }

func (ti *TokenIssuer) TTL() time.Duration { return ti.ttl }

// Issue produces a signed token embedding {subject id, issued-at} with the
// configured time-to-live.
func (ti *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := map[string]interface{}{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ti.ttl).Unix(),
	}
	_, tokenString, err := ti.auth.Encode(claims)
	return tokenString, err
}

// Verify validates signature and expiry and yields the subject id and
// issued-at. Expired tokens and tampered/malformed tokens fail distinctly:
// the former means "login again", the latter implies tampering.
func (ti *TokenIssuer) Verify(tokenString string) (userID string, issuedAt time.Time, err error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", time.Time{}, common.ErrTokenExpired
		}
		return "", time.Time{}, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return "", time.Time{}, common.ErrInvalidToken
	}
	return claims.Subject, claims.IssuedAt.Time, nil
}

// UserIDFromClaims extracts the subject id from a verified claims map.
func UserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["sub"].(string)
	if !ok || id == "" {
		return "", errors.New("sub claim is missing or not a string")
	}
	return id, nil
}

// IssuedAtFromClaims extracts the issued-at timestamp from a verified claims
// map. jwtauth surfaces registered time claims as time.Time; the numeric
// forms cover tokens decoded elsewhere.
func IssuedAtFromClaims(claims map[string]interface{}) (time.Time, error) {
	switch iat := claims["iat"].(type) {
	case time.Time:
		return iat, nil
	case float64:
		return time.Unix(int64(iat), 0), nil
	case int64:
		return time.Unix(iat, 0), nil
	default:
		return time.Time{}, errors.New("iat claim is missing or has an unexpected type")
	}
}
