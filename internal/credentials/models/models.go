package models

import "time"

// Record tracks that a user registered a personal provider credential.
// Exactly one record exists per user. The plaintext key is held by an
// external secret store; only a bcrypt fingerprint is kept here so support
// flows can verify a presented key.
type Record struct {
	UserID      string
	Fingerprint string
	UpdatedAt   time.Time
}
