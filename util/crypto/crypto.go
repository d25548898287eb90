// Package crypto provides password hashing and verification.
package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const legacyPrefix = "pbkdf2:sha256"

// HashPasswordAsBcrypt generates a bcrypt hash of the given password.
func HashPasswordAsBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPasswordHash verifies the password against a bcrypt hash or a legacy
// werkzeug "pbkdf2:sha256[:iterations]$salt$hexdigest" hash.
func CheckPasswordHash(hash, password string) bool {
	if IsLegacyHash(hash) {
		return checkLegacyHash(hash, password)
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsLegacyHash reports whether the hash was produced by the old pbkdf2 scheme
// and should be upgraded to bcrypt on the next successful login.
func IsLegacyHash(hash string) bool {
	return strings.HasPrefix(hash, legacyPrefix)
}

func checkLegacyHash(hash, password string) bool {
	parts := strings.SplitN(hash, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, digest := parts[0], parts[1], parts[2]

	iterations := 260000
	if rest := strings.TrimPrefix(method, legacyPrefix); rest != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(rest, ":"))
		if err != nil || n <= 0 {
			return false
		}
		iterations = n
	}

	want, err := hex.DecodeString(digest)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
