package ports

// PasswordHasher is a one-way, salted transform for credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches hash. A mismatch is not an
	// error, only false.
	Verify(password, hash string) bool
}
