package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// APIKeyHeader carries a personal API key.
const APIKeyHeader = "X-API-Key"

// NewAPIKey returns a fresh random key and the hash to store for it.
func NewAPIKey() (key, hash string) {
	key = uuid.NewString()
	return key, HashAPIKey(key)
}

// HashAPIKey is the stored form of an API key. Keys are random UUIDs, so an
// unsalted digest is sufficient for lookup.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
