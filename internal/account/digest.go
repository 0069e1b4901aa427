package account

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// DigestFunc is a deterministic transform of a submitted secret. Login
// compares stored and computed digests by equality, so the function must
// be stable across processes.
type DigestFunc func(secret string) string

// DefaultDigest hashes the secret with SHA3-256 and hex-encodes it.
func DefaultDigest(secret string) string {
	sum := sha3.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
