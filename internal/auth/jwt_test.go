package auth

import (
	"testing"
	"time"
)

func TestGenerateAndVerify(t *testing.T) {
	if err := InitJWTSecret("test-secret"); err != nil {
		t.Fatalf("init: %v", err)
	}

	token, err := GenerateJWT(42, "coordinator", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "coordinator" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	if err := InitJWTSecret("test-secret"); err != nil {
		t.Fatalf("init: %v", err)
	}

	token, err := GenerateJWT(1, "community", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := VerifyJWT(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	if err := InitJWTSecret("one"); err != nil {
		t.Fatalf("init: %v", err)
	}
	token, err := GenerateJWT(1, "agency", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if err := InitJWTSecret("two"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := VerifyJWT(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestInitRequiresSecret(t *testing.T) {
	if err := InitJWTSecret(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
