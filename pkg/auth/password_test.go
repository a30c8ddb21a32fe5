package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordAndCheckPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" || hash == "s3cret" {
		t.Fatalf("expected opaque hash, got %q", hash)
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Fatalf("expected bcrypt cost 10 hash, got %q", hash)
	}
	if !CheckPassword("s3cret", hash) {
		t.Fatalf("expected bcrypt password check to pass")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected bcrypt password check to fail")
	}
	if CheckPassword("s3cret", "") {
		t.Fatalf("expected empty hash to fail")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("123456"); err != nil {
		t.Fatalf("expected six characters to pass, got: %v", err)
	}
	if err := ValidatePassword("şifre1"); err != nil {
		t.Fatalf("expected six runes to pass, got: %v", err)
	}
	if err := ValidatePassword("12345"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected short password to fail, got: %v", err)
	}
	if err := ValidatePassword(""); err == nil {
		t.Fatalf("expected empty password to fail")
	}
}

func TestDecoyHashMatchesNormalCost(t *testing.T) {
	hash := DecoyHash()
	if hash == "" || hash != DecoyHash() {
		t.Fatalf("decoy hash should be stable and non-empty")
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != bcryptCost {
		t.Fatalf("decoy cost = %d, %v", cost, err)
	}
	if CheckPassword("gizli1", hash) {
		t.Fatalf("decoy hash must not accept user passwords")
	}
}
