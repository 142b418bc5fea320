package credentials

import (
	"strings"
	"testing"
)

func TestGenerateTemporaryPassword(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
	}{
		{name: "generates password of correct length", iterations: 100},
		{name: "generates unique passwords", iterations: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make(map[string]bool)
			for i := 0; i < tt.iterations; i++ {
				password, err := GenerateTemporaryPassword()
				if err != nil {
					t.Fatalf("GenerateTemporaryPassword() error = %v", err)
				}
				if len(password) != TemporaryPasswordLength {
					t.Errorf("GenerateTemporaryPassword() length = %d, want %d", len(password), TemporaryPasswordLength)
				}
				for _, c := range password {
					if !strings.ContainsRune(passwordChars, c) {
						t.Errorf("GenerateTemporaryPassword() contains invalid character %q", c)
					}
				}
				if seen[password] {
					t.Errorf("GenerateTemporaryPassword() produced duplicate %q", password)
				}
				seen[password] = true
			}
		})
	}
}
