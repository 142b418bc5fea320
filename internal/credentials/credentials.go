package credentials

import (
	"crypto/rand"
	"math/big"
)

const passwordChars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TemporaryPasswordLength is the length of generated staff passwords
const TemporaryPasswordLength = 12

// GenerateTemporaryPassword generates a random password for a newly created staff account.
// Visually ambiguous characters are left out so the password can be read aloud.
func GenerateTemporaryPassword() (string, error) {
	password := make([]byte, TemporaryPasswordLength)

	for i := range password {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordChars))))
		if err != nil {
			return "", err
		}
		password[i] = passwordChars[num.Int64()]
	}

	return string(password), nil
}
