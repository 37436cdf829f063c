package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "chatgate/pkg/domain-errors"
)

// Generate creates a cryptographically secure random secret.
// Returns a base64-encoded string suitable for session signing keys and tests.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Fingerprint creates a bcrypt hash of a provider API key. The registry stores
// only this fingerprint; the plaintext key lives with the external secret store.
func Fingerprint(key string) (string, error) {
	if key == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "key cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeBadRequest, "key is too long")
		}
		return "", fmt.Errorf("could not hash key: %w", err)
	}
	return string(hashed), nil
}

// Verify checks if a plaintext key matches a stored fingerprint.
func Verify(key, fingerprint string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(fingerprint), []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeBadRequest, "key does not match")
		}
		return fmt.Errorf("could not verify key: %w", err)
	}
	return nil
}
