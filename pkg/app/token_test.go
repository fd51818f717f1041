package app

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "relay-secret", Expiry: time.Hour})

	token, err := tm.Generate("abcdef0123456789")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.InstallationID != "abcdef0123456789" {
		t.Errorf("expected installation id to round trip, got %q", claims.InstallationID)
	}
	if claims.Issuer != DefaultTokenIssuer {
		t.Errorf("expected issuer %q, got %q", DefaultTokenIssuer, claims.Issuer)
	}

	// 错误的密钥
	other := NewTokenManager(TokenConfig{SecretKey: "wrong-secret"})
	if err := other.Validate(token); err == nil {
		t.Error("expected error when validating with a different secret")
	}

	// 篡改后的 Token
	if err := tm.Validate(token + "tampered"); err == nil {
		t.Error("expected error for tampered token")
	}
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "relay-secret", Expiry: -time.Hour})
	token, err := tm.Generate("x")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := tm.Validate(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "relay-secret"})
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &RelayClaims{InstallationID: "x"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if err := tm.Validate(token); err == nil {
		t.Error("expected alg=none token to be rejected")
	}
}
