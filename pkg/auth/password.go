package auth

import (
	"errors"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password, counted in runes.
const MinPasswordLength = 6

const bcryptCost = 10

var ErrPasswordTooShort = errors.New("password too short")

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword validates a password against a bcrypt hash.
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	decoyOnce sync.Once
	decoyHash string
)

// DecoyHash is a fixed bcrypt hash at the normal cost. Comparing against it
// makes a lookup miss cost the same as a wrong password.
func DecoyHash() string {
	decoyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("kitapsever-decoy"), bcryptCost)
		if err == nil {
			decoyHash = string(hash)
		}
	})
	return decoyHash
}

func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
