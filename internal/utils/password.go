package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinBcryptCost is the lowest cost accepted for new hashes. Costs below
// it are bumped so a misconfigured environment cannot weaken stored
// credentials.
const MinBcryptCost = 10

// ErrMalformedHash is returned by VerifyPassword when the stored hash
// is not a valid bcrypt string. This indicates data corruption, not a
// wrong password, and callers should log it as an anomaly.
var ErrMalformedHash = errors.New("stored credential is not a valid bcrypt hash")

// HashPassword returns the bcrypt hash of plain using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash against a plaintext password.
// A mismatch yields (false, nil); only a malformed stored hash yields
// an error.
func VerifyPassword(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrMalformedHash
	}
}
