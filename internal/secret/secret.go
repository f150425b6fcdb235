// Package secret hashes and verifies passwords and clear-sale PINs with bcrypt.
package secret

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func Hash(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify reports whether plain matches stored. Empty input and values that are
// not bcrypt hashes never match.
func Verify(stored, plain string) bool {
	if stored == "" || strings.TrimSpace(plain) == "" || !IsHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}

func IsHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

// Bcrypt adapts Verify to the ledger's secret comparer.
type Bcrypt struct{}

func (Bcrypt) CompareSecret(plain, storedHash string) bool {
	return Verify(storedHash, plain)
}
