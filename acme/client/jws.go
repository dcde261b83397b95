package client

import (
	"encoding/json"
	"fmt"

	"github.com/riftcloud/acme-engine/acme"
	"github.com/riftcloud/acme-engine/acme/jwk"
)

// protectedHeader is spec.md §9's tagged variant modeled as a sum type:
// exactly one of jwk or kid is set, never both. Grounded on the manual
// protected-header structs in other_examples (akrivka-go-acme-client's
// JWSProtected, fbuetler-acme-client's JWSProtectedHeader): one struct
// with omitempty jwk and kid fields, built only through two mutually
// exclusive constructors so that each header carries exactly one of them.
type protectedHeader struct {
	Alg   string            `json:"alg"`
	Nonce string            `json:"nonce,omitempty"`
	URL   string            `json:"url"`
	JWK   map[string]string `json:"jwk,omitempty"`
	Kid   string            `json:"kid,omitempty"`
}

func jwkProtectedHeader(alg string, jwkMap map[string]string, url, nonce string) protectedHeader {
	return protectedHeader{Alg: alg, JWK: jwkMap, URL: url, Nonce: nonce}
}

func kidProtectedHeader(alg, kid, url, nonce string) protectedHeader {
	return protectedHeader{Alg: alg, Kid: kid, URL: url, Nonce: nonce}
}

// flattenedJWS is the flattened JWS JSON object spec.md §3/§4.7 requires
// as the POST body for every signed ACME request.
type flattenedJWS struct {
	Protected string `json:"protected"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// emptyPayload is the sentinel a caller passes to request a POST-as-GET:
// an empty payload that base64url-encodes to the empty string, per RFC
// 8555 §6.3.
const emptyPayload = ""

// buildJWS is spec.md §4.7's JWS Encapsulator. url is the already
// resolved target, nonce is "" for inner JWS (never carries a nonce).
// payload may be a string (encoded as-is, the POST-as-GET case) or any
// JSON-marshalable value.
func buildJWS(key *jwk.AccountKey, useJWK bool, kid, url, nonce string, payload any) ([]byte, error) {
	var header protectedHeader
	if useJWK {
		header = jwkProtectedHeader(key.Alg(), key.PublicJWK(), url, nonce)
	} else {
		if kid == "" {
			return nil, fmt.Errorf("acme: kid required for protected header but none is known")
		}
		header = kidProtectedHeader(key.Alg(), kid, url, nonce)
	}

	protectedJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	protected64 := acme.Base64URL(protectedJSON)

	payload64, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}

	signingInput := protected64 + "." + payload64
	sig, err := key.Sign([]byte(signingInput))
	if err != nil {
		return nil, err
	}

	jws := flattenedJWS{
		Protected: protected64,
		Payload:   payload64,
		Signature: acme.Base64URL(sig),
	}
	return json.Marshal(jws)
}

func encodePayload(payload any) (string, error) {
	if s, ok := payload.(string); ok {
		if s == emptyPayload {
			return "", nil
		}
		return acme.Base64URL([]byte(s)), nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return acme.Base64URL(data), nil
}
