package auth

import (
	"errors"
	"testing"
)

func TestPasswordHashingLifecycle(t *testing.T) {
	password := "S3curePass!"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("unexpected error hashing password: %v", err)
	}
	if hash == "" {
		t.Fatal("expected hash to be populated")
	}
	if hash == password {
		t.Fatal("hash must never equal the plaintext")
	}

	if err := VerifyPassword(hash, password); err != nil {
		t.Fatalf("expected password to verify, got error: %v", err)
	}

	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("expected verification to fail for wrong password")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("   "); err == nil {
		t.Fatal("expected error for blank password")
	}
}

func TestVerifyPasswordOrFailCarriesMessage(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("unexpected error hashing password: %v", err)
	}

	if err := VerifyPasswordOrFail(hash, "correct horse", "unused"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	err = VerifyPasswordOrFail(hash, "battery staple", "password is not correct")
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := err.Error(); got != "invalid credentials: password is not correct" {
		t.Fatalf("unexpected message %q", got)
	}
}
