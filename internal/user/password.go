package user

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashSecret derives a one-way digest for a credential secret.
func hashSecret(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(digest), nil
}

// verifySecret reports whether secret matches the stored digest.
func verifySecret(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
