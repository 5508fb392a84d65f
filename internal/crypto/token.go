package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenBytes is the entropy of an issued token (256 bits).
const TokenBytes = 32

// NewToken returns a random opaque token as 64 hex characters.
func NewToken() (string, error) {
	b, err := RandBytes(TokenBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the SHA-256 digest of a raw token. Only the digest is
// persisted so a leaked tokens table cannot be replayed.
func HashToken(raw string) []byte {
	sum := sha256.Sum256([]byte(raw))
	return sum[:]
}
