// Package auth implements signing and verification of the compact tokens
// clipvault issues: short-lived access tokens carrying identity and role,
// and longer-lived refresh tokens carrying only the owning user id.
//
// Both directions use a single shared HMAC-SHA256 key. Verification fails
// closed: a structural defect, signature mismatch, or past expiry yields a
// sentinel error from internal/common and never a partial claim set.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avolkov/clipvault/internal/common"
)

// AccessClaims is the claim set of an access token. Subject carries the
// user's email; UserID and Role are custom claims consumed by the
// authorization layer.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// RefreshClaims is the claim set of a refresh token. It deliberately carries
// no role or email: renewal re-fetches the current identity so that role
// changes take effect on the next rotation.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userId"`
}

var validMethods = []string{jwt.SigningMethodHS256.Alg()}

// GenerateAccessToken mints a signed access token for the given identity.
// The jti claim is a fresh UUID so two tokens minted within the same second
// are still distinct strings.
func GenerateAccessToken(userID int64, email string, role Role, issuer string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
			ID:        uuid.NewString(),
		},
		UserID: userID,
		Role:   string(role),
	})

	return token.SignedString(secretKey)
}

// GenerateRefreshToken mints a signed refresh token for the given user.
func GenerateRefreshToken(userID int64, issuer string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
			ID:        uuid.NewString(),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

// ParseAccessToken verifies signature and expiry and returns the claim set.
// Failures map onto common.ErrMalformedToken, common.ErrSignatureInvalid, or
// common.ErrTokenExpired.
func ParseAccessToken(tokenString string, secretKey []byte) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(secretKey), jwt.WithValidMethods(validMethods))
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !token.Valid {
		return nil, common.ErrSignatureInvalid
	}
	return claims, nil
}

// ParseRefreshToken verifies signature and expiry of a refresh token and
// returns the claim set. Error mapping matches ParseAccessToken.
func ParseRefreshToken(tokenString string, secretKey []byte) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(secretKey), jwt.WithValidMethods(validMethods))
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !token.Valid {
		return nil, common.ErrSignatureInvalid
	}
	return claims, nil
}

// DecodeAccessToken checks the signature but skips claim validation, so a
// token that has already expired still yields its claim set. Revocation
// paths need the embedded user id and expiry of a token that is no longer
// accepted for authentication.
func DecodeAccessToken(tokenString string, secretKey []byte) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, keyFunc(secretKey),
		jwt.WithValidMethods(validMethods), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, classifyParseError(err)
	}
	if claims.ExpiresAt == nil {
		return nil, common.ErrMalformedToken
	}
	return claims, nil
}

func keyFunc(secretKey []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}
}

// classifyParseError maps jwt/v5 error classes onto the sentinel taxonomy.
// Anything unrecognized counts as malformed: the caller must never see a
// partially decoded token as a softer failure than a broken one.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrMalformedToken
	default:
		return common.ErrMalformedToken
	}
}
