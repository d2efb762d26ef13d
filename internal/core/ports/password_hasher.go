package ports

import "context"

// PasswordHasher derives and checks salted password digests.
type PasswordHasher interface {
	GenerateSalt() ([]byte, error)
	Hash(ctx context.Context, password string, salt []byte) ([]byte, error)
	// Verify reports whether password matches digest under salt. Malformed
	// salt or digest is a mismatch, not an error; the only error returned is
	// a context error.
	Verify(ctx context.Context, password string, salt, digest []byte) (bool, error)
}
