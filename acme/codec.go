package acme

import "encoding/base64"

// Base64URL encodes b as unpadded base64url, the only encoding ACME's JWS
// and JWK serializations use (RFC 7515 §2, RFC 7517 §3, spec.md §4.3).
func Base64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Base64URLDecode reverses Base64URL. It rejects padded input the same
// way the encoder never produces it.
func Base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
