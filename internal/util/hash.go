package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUUID returns the SHA-256 hex digest of a conversation uuid. The PII
// table stores this digest instead of the raw uuid, so a leaked PII row
// cannot be joined back to conversation content without the original uuid.
func HashUUID(uuid string) string {
	sum := sha256.Sum256([]byte(uuid))
	return hex.EncodeToString(sum[:])
}
