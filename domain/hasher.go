package domain

// Hasher is the core port for any hashing strategy.
type Hasher interface {
	Hash(data []byte) string

	// Verify reports whether data hashes to hexDigest. Implementations
	// must compare in constant time.
	Verify(data []byte, hexDigest string) bool
}
