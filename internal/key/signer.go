package key

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"

	"github.com/zarvd/khaithi-translator/internal/fault"
	"github.com/zarvd/khaithi-translator/internal/jwt"
)

// Signer produces RS256 signatures with a single RSA key.
type Signer struct {
	privateKey *rsa.PrivateKey
}

// NewSigner imports the PEM encoded PKCS8 key p.
func NewSigner(p string) (*Signer, error) {
	privateKey, err := ImportPrivateKey(p)
	if err != nil {
		return nil, err
	}
	return &Signer{privateKey: privateKey}, nil
}

// Sign computes RSASSA-PKCS1-v1_5 with SHA-256 over the bytes of input.
func (s *Signer) Sign(input jwt.SigningInput) ([]byte, error) {
	h := sha256.Sum256([]byte(input))
	signature, err := rsa.SignPKCS1v15(nil, s.privateKey, crypto.SHA256, h[:])
	if err != nil {
		return nil, fault.Wrap(fault.Signing, "sign", err, "failed to sign JWT")
	}
	return signature, nil
}

func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.privateKey.PublicKey
}
