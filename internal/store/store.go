package store

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrNotFound is returned when no cached payload exists for a key.
	ErrNotFound = errors.New("no cached payload for key")
)

// Store is a key -> payload cache whose freshness is judged by the age of the
// last write. Implementations replace whole entries on write.
type Store interface {
	// IsStale reports whether the entry for key is missing or older than ttl.
	// A ttl of zero or less always reports stale.
	IsStale(key string, ttl time.Duration) bool
	// Read returns the last written payload for key or ErrNotFound.
	Read(key string) ([]byte, error)
	// Write replaces the payload for key.
	Write(key string, payload []byte) error
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeKey maps an arbitrary cache key to a string usable as a file name.
func SanitizeKey(key string) string {
	s := unsafeKeyChars.ReplaceAllString(key, "_")
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

func expired(modTime, now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	return now.Sub(modTime) > ttl
}
