package jwt

import "encoding/base64"

// EncodeSegment encodes b with the URL-safe alphabet and no padding, as
// required for every JWT segment. Strings must be passed as their UTF-8 bytes.
func EncodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeSegment is the inverse of EncodeSegment.
func DecodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
