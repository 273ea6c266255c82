package key

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/clock"

	"github.com/zarvd/khaithi-translator/internal/credential"
	"github.com/zarvd/khaithi-translator/internal/fault"
	"github.com/zarvd/khaithi-translator/internal/jwt"
)

var _ KeyManager = (*serviceAccountKeyManager)(nil)

// serviceAccountKeyManager serves the service account key for the lifetime of
// the process. The key is read-only, so no locking is needed.
type serviceAccountKeyManager struct {
	logger *slog.Logger

	signer       *Signer
	keyID        string
	publicKeyDER []byte
	loadedAt     time.Time
}

func NewServiceAccountKeyManager(
	logger *slog.Logger,
	clk clock.Clock,
	sa *credential.ServiceAccount,
) (KeyManager, error) {
	signer, err := NewSigner(sa.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to import service account key: %w", err)
	}
	publicKeyDER, err := x509.MarshalPKIXPublicKey(signer.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	keyID := sa.PrivateKeyID
	if keyID == "" {
		sum := sha256.Sum256(publicKeyDER)
		keyID = hex.EncodeToString(sum[:8])
	}
	logger.Info("Loaded service account key",
		slog.String("key-id", keyID),
		slog.String("client-email", sa.ClientEmail),
	)

	return &serviceAccountKeyManager{
		logger:       logger,
		signer:       signer,
		keyID:        keyID,
		publicKeyDER: publicKeyDER,
		loadedAt:     clk.Now(),
	}, nil
}

func (s *serviceAccountKeyManager) Sign(ctx context.Context, encodedClaims string) (*SignedToken, error) {
	if _, err := jwt.DecodeSegment(encodedClaims); err != nil {
		return nil, fault.Wrap(fault.InvalidInput, "decode_claims", err, "claims are not base64url encoded")
	}

	header := jwt.BuildHeader()
	header.KeyID = s.keyID
	input, err := jwt.NewSigningInputFromClaims(header, encodedClaims)
	if err != nil {
		return nil, err
	}
	signature, err := s.signer.Sign(input)
	if err != nil {
		return nil, err
	}
	headerB64, _ := input.Split()

	return &SignedToken{
		KeyID:     s.keyID,
		Header:    headerB64,
		Payload:   encodedClaims,
		Signature: jwt.EncodeSegment(signature),
	}, nil
}

func (s *serviceAccountKeyManager) PublicKeys() []*PublicKey {
	return []*PublicKey{{
		KeyID: s.keyID,
		Key:   s.publicKeyDER,
	}}
}

func (s *serviceAccountKeyManager) Expiration() time.Duration {
	return time.Duration(jwt.LifetimeSeconds) * time.Second
}

func (s *serviceAccountKeyManager) LoadedAt() time.Time {
	return s.loadedAt
}
