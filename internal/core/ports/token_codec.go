package ports

import "time"

// Claims is the verified payload of a bearer token.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// TokenCodec signs and verifies stateless bearer tokens. Any process holding
// the shared secret can verify a token without a storage round trip; there is
// no revocation.
type TokenCodec interface {
	// Issue builds claims expiring after the configured validity window and
	// returns the signed compact encoding.
	Issue(subjectID, role string) (string, error)
	// Verify checks signature integrity and expiry. It returns
	// domain.ErrInvalidToken on malformed input, a bad signature, or an
	// expired token. There is no expiry grace period.
	Verify(token string) (*Claims, error)
}
