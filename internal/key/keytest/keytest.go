// Package keytest generates throwaway service account keys for tests.
package keytest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zarvd/khaithi-translator/internal/credential"
)

var (
	once      sync.Once
	sharedKey *rsa.PrivateKey
	sharedErr error
)

// RSAKey returns a 2048 bit key shared across the test binary.
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	once.Do(func() {
		sharedKey, sharedErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, sharedErr)
	return sharedKey
}

// PKCS8PEM returns RSAKey armored as a "PRIVATE KEY" block.
func PKCS8PEM(t testing.TB) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(RSAKey(t))
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// PKCS1PEM returns RSAKey in the legacy "RSA PRIVATE KEY" form.
func PKCS1PEM(t testing.TB) string {
	t.Helper()
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(RSAKey(t)),
	}))
}

// ECPKCS8PEM returns a PKCS8 armored P-256 key.
func ECPKCS8PEM(t testing.TB) string {
	t.Helper()
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(ecKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// ServiceAccount returns a valid credential holding PKCS8PEM.
func ServiceAccount(t testing.TB) *credential.ServiceAccount {
	t.Helper()
	return &credential.ServiceAccount{
		ClientEmail:  "translator@demo-project.iam.gserviceaccount.com",
		PrivateKey:   PKCS8PEM(t),
		PrivateKeyID: "test-key-id",
		ProjectID:    "demo-project",
	}
}
