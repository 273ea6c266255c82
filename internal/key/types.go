package key

import (
	"context"
	"time"
)

type SignedToken struct {
	KeyID     string
	Header    string
	Payload   string
	Signature string
}

type PublicKey struct {
	KeyID string
	Key   []byte
}

// KeyManager signs externally supplied claims for the ExternalJWTSigner API.
type KeyManager interface {
	Sign(ctx context.Context, encodedClaims string) (*SignedToken, error)
	PublicKeys() []*PublicKey
	Expiration() time.Duration
	LoadedAt() time.Time
}
