package key

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"

	"github.com/zarvd/khaithi-translator/internal/fault"
)

const (
	stageImport = "import_private_key"
	pemType     = "PRIVATE KEY"
)

// ImportPrivateKey decodes a PEM armored PKCS8 RSA private key. The input must
// hold exactly one "PRIVATE KEY" block.
func ImportPrivateKey(p string) (*rsa.PrivateKey, error) {
	block, rest := pem.Decode([]byte(p))
	if block == nil {
		return nil, fault.New(fault.KeyImport, stageImport, "failed to decode PEM block")
	}
	if block.Type != pemType {
		return nil, fault.Newf(fault.KeyImport, stageImport, "unexpected PEM block type %q, want %q", block.Type, pemType)
	}
	if extra, _ := pem.Decode(rest); extra != nil || strings.TrimSpace(string(rest)) != "" {
		return nil, fault.New(fault.KeyImport, stageImport, "trailing data after PEM block")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fault.Wrap(fault.KeyImport, stageImport, err, "failed to parse PKCS8 private key")
	}
	privateKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fault.Newf(fault.KeyImport, stageImport, "private key is %T, not RSA", parsed)
	}
	return privateKey, nil
}
