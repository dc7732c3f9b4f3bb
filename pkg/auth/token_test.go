package auth

import (
	"errors"
	"testing"
	"time"
)

func TestMintAndParseToken(t *testing.T) {
	now := time.Now().UTC()
	token, err := MintToken("secret", now, time.Hour, "u-1")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "u-1" {
		t.Fatalf("expected user id u-1, got %s", claims.UserID)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Unix() != now.Add(time.Hour).Unix() {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}

	if _, err := ParseToken("other", token); err == nil {
		t.Fatalf("expected signature failure with wrong secret")
	}

	again, err := MintToken("secret", now, time.Hour, "u-1")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if again == token {
		t.Fatalf("tokens minted for the same user and instant must differ")
	}
}

func TestMintTokenValidation(t *testing.T) {
	now := time.Now()
	if _, err := MintToken("", now, time.Hour, "u"); err == nil {
		t.Fatalf("expected error without secret")
	}
	if _, err := MintToken("s", now, time.Hour, " "); err == nil {
		t.Fatalf("expected error without user id")
	}
	if _, err := MintToken("s", now, 0, "u"); err == nil {
		t.Fatalf("expected error with zero ttl")
	}
}

func TestInspect(t *testing.T) {
	now := time.Now().UTC()
	live, err := MintToken("secret", now, time.Hour, "u-1")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	info, err := Inspect(live)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.UserID != "u-1" {
		t.Fatalf("unexpected user id %q", info.UserID)
	}
	if info.Expired(now) {
		t.Fatalf("fresh token reported expired")
	}
	if !info.Expired(now.Add(2 * time.Hour)) {
		t.Fatalf("token should be expired two hours later")
	}

	if _, err := Inspect("opaque-session-token"); !errors.Is(err, ErrNotJWT) {
		t.Fatalf("expected ErrNotJWT for opaque token, got %v", err)
	}
	if _, err := Inspect("a.b.c"); !errors.Is(err, ErrNotJWT) {
		t.Fatalf("expected ErrNotJWT for garbage segments, got %v", err)
	}
}

func TestTokenInfoWithoutExpiryNeverExpires(t *testing.T) {
	if (TokenInfo{}).Expired(time.Now()) {
		t.Fatalf("zero expiry must not be treated as expired")
	}
}
