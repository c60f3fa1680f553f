package hasher

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/moodlabs/moodchat/domain"
)

// New returns a domain.Hasher backed by SHA‑256.
func New() domain.Hasher { return sha256Hasher{} }

type sha256Hasher struct{}

func (h sha256Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (h sha256Hasher) Verify(data []byte, hexDigest string) bool {
	want, err := hex.DecodeString(hexDigest)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(data)
	return subtle.ConstantTimeCompare(sum[:], want) == 1
}
