package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID generates a new ULID string.
func NewID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// IDOr returns id when set, otherwise a fresh ULID.
func IDOr(id string) string {
	if id != "" {
		return id
	}
	return NewID()
}
