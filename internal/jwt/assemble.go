// Package jwt assembles the RS256 JWT assertions exchanged for OAuth2 access
// tokens.
package jwt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zarvd/khaithi-translator/internal/credential"
)

const (
	// Algorithm is the only signing algorithm accepted by the token endpoint.
	Algorithm = "RS256"
	// TokenURL is the OAuth2 token endpoint and the assertion audience.
	TokenURL = "https://oauth2.googleapis.com/token"
	// CloudPlatformScope grants access to the generation API.
	CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	// LifetimeSeconds is the fixed validity window of an assertion.
	LifetimeSeconds int64 = 3600
)

// Header is the JOSE header. KeyID is only set by the external signer surface.
type Header struct {
	Alg   string `json:"alg"`
	Typ   string `json:"typ"`
	KeyID string `json:"kid,omitempty"`
}

// ClaimSet is the assertion payload. Field order fixes the serialized key order.
type ClaimSet struct {
	Iss   string `json:"iss"`
	Sub   string `json:"sub"`
	Aud   string `json:"aud"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
	Scope string `json:"scope"`
}

// SigningInput is base64url(header) + "." + base64url(claims).
type SigningInput string

// SignedJWT is a complete compact-serialized token.
type SignedJWT string

func BuildHeader() Header {
	return Header{Alg: Algorithm, Typ: "JWT"}
}

// BuildClaimSet derives the claims for sa issued at nowSeconds.
func BuildClaimSet(sa *credential.ServiceAccount, nowSeconds int64) ClaimSet {
	return ClaimSet{
		Iss:   sa.ClientEmail,
		Sub:   sa.ClientEmail,
		Aud:   TokenURL,
		Iat:   nowSeconds,
		Exp:   nowSeconds + LifetimeSeconds,
		Scope: CloudPlatformScope,
	}
}

// Encode returns the base64url-encoded compact JSON of h.
func (h Header) Encode() (string, error) {
	return encodeJSON(h)
}

// Encode returns the base64url-encoded compact JSON of c.
func (c ClaimSet) Encode() (string, error) {
	return encodeJSON(c)
}

// NewSigningInput serializes and joins header and claims.
func NewSigningInput(header Header, claims ClaimSet) (SigningInput, error) {
	encodedClaims, err := claims.Encode()
	if err != nil {
		return "", fmt.Errorf("failed to encode claims: %w", err)
	}
	return NewSigningInputFromClaims(header, encodedClaims)
}

// NewSigningInputFromClaims joins header with claims that were encoded
// elsewhere.
func NewSigningInputFromClaims(header Header, encodedClaims string) (SigningInput, error) {
	encodedHeader, err := header.Encode()
	if err != nil {
		return "", fmt.Errorf("failed to encode header: %w", err)
	}
	return SigningInput(encodedHeader + "." + encodedClaims), nil
}

// Split returns the encoded header and claims segments.
func (s SigningInput) Split() (header, claims string) {
	header, claims, _ = strings.Cut(string(s), ".")
	return header, claims
}

// Attach appends the encoded signature, completing the token.
func (s SigningInput) Attach(signature []byte) SignedJWT {
	return SignedJWT(string(s) + "." + EncodeSegment(signature))
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return EncodeSegment(b), nil
}
