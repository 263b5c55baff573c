package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GeneratePerishableToken returns a random hex token used for account activation.
func GeneratePerishableToken() (string, error) {
	bytes := make([]byte, 20)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}
