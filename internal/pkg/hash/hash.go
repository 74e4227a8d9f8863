package hash

// Hash derives a storable representation of a secret and verifies plaintext
// against it.
type Hash interface {
	// Hash takes a plaintext string and returns its hashed representation.
	Hash(plaintext string) ([]byte, error)
	// Verify reports whether plaintext matches the hashed value. It never fails;
	// malformed input simply does not match.
	Verify(hashed, plaintext string) bool
}
