package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a password against a stored digest. Both bcrypt hashes
// and legacy SHA-256 hex digests are accepted.
func CheckPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	if IsLegacyDigest(hash) {
		return subtle.ConstantTimeCompare([]byte(Digest(password)), []byte(hash)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Digest returns the lowercase hex SHA-256 of secret
func Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// IsLegacyDigest reports whether hash is a SHA-256 hex digest rather than bcrypt
func IsLegacyDigest(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
