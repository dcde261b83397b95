package jwk

import "encoding/base64"

// Base64URL encodes b as unpadded base64url (RFC 7515 §2). Duplicated
// from the acme package's identical helper rather than imported, since
// acme imports this package (for the payload helpers that build EAB
// JWS bodies) and a Go import cycle would otherwise result.
func Base64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
