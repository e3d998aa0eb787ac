package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/avolkov/clipvault/internal/common"
)

func TestGenerateAndParseAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateAccessToken(42, "user@example.com", RoleUser, "clipvault", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	claims, err := ParseAccessToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseAccessToken error: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("userID mismatch: got %d want 42", claims.UserID)
	}
	if claims.Subject != "user@example.com" {
		t.Fatalf("subject mismatch: got %q", claims.Subject)
	}
	if claims.Role != string(RoleUser) {
		t.Fatalf("role mismatch: got %q", claims.Role)
	}
	if claims.Issuer != "clipvault" {
		t.Fatalf("issuer mismatch: got %q", claims.Issuer)
	}

	got := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if got != time.Hour {
		t.Fatalf("expiry distance mismatch: got %v want %v", got, time.Hour)
	}
}

func TestGenerateAccessToken_DistinctWithinSameInstant(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	a, err := GenerateAccessToken(1, "a@b.c", RoleUser, "clipvault", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	b, err := GenerateAccessToken(1, "a@b.c", RoleUser, "clipvault", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	if a == b {
		t.Fatalf("two tokens minted back to back must differ")
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateAccessToken(1, "a@b.c", RoleUser, "clipvault", secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	_, err = ParseAccessToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateAccessToken(2, "a@b.c", RoleUser, "clipvault", []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	_, err = ParseAccessToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrSignatureInvalid) {
		t.Fatalf("expected common.ErrSignatureInvalid, got %v", err)
	}
}

func TestParseAccessToken_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tok  string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "aaaa.bbbb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.tok, []byte("secret"))
			if !errors.Is(err, common.ErrMalformedToken) {
				t.Fatalf("expected common.ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestParseRefreshToken_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateRefreshToken(7, "clipvault", secret, 24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateRefreshToken error: %v", err)
	}

	claims, err := ParseRefreshToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseRefreshToken error: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("userID mismatch: got %d want 7", claims.UserID)
	}
}

func TestDecodeAccessToken_ToleratesExpired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateAccessToken(3, "a@b.c", RoleUser, "clipvault", secret, -10*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	claims, err := DecodeAccessToken(tok, secret)
	if err != nil {
		t.Fatalf("DecodeAccessToken error: %v", err)
	}
	if claims.UserID != 3 {
		t.Fatalf("userID mismatch: got %d want 3", claims.UserID)
	}
	if !claims.ExpiresAt.Before(time.Now()) {
		t.Fatalf("expected past expiry, got %v", claims.ExpiresAt)
	}
}

func TestDecodeAccessToken_StillChecksSignature(t *testing.T) {
	t.Parallel()

	tok, err := GenerateAccessToken(3, "a@b.c", RoleUser, "clipvault", []byte("right"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	_, err = DecodeAccessToken(tok, []byte("wrong"))
	if !errors.Is(err, common.ErrSignatureInvalid) {
		t.Fatalf("expected common.ErrSignatureInvalid, got %v", err)
	}
}
