package hash

// Hash digests a plaintext secret and verifies a candidate against a stored
// digest. Implementations must be deterministic for the same key so a digest
// can be matched inside a single SQL predicate.
type Hash interface {
	Hash(plain string) (string, error)
	Verify(hashed, plain string) bool
}
