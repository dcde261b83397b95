package acme

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/riftcloud/acme-engine/acme/jwk"
)

// NewAccountPayload builds the JSON body for a newAccount request (RFC
// 8555 §7.3). If onlyReturnExisting is true the server is asked to
// return the existing account for the key rather than create a new
// one. If eabKeyID and eabHMACKey are both non-empty, an
// externalAccountBinding member is attached per RFC 8555 §7.3.4: an
// inner flattened JWS, HMAC-SHA256 signed with the CA-issued key, whose
// payload is the account's own public JWK and whose protected header
// carries no nonce. newAccountURL must be the same absolute URL the
// outer JWS's own protected header will carry (i.e. the directory's
// resolved newAccount endpoint) — RFC 8555 §7.3.4 requires the inner
// JWS's url member to match the outer request's target exactly.
//
// External account binding and KeyChangePayload are the two places an
// "inner" JWS (signed but never carrying its own nonce) is built.
func NewAccountPayload(key *jwk.AccountKey, contacts []string, onlyReturnExisting bool, newAccountURL, eabKeyID, eabHMACKey string) (map[string]any, error) {
	payload := map[string]any{}
	if len(contacts) > 0 {
		mailtos := make([]string, len(contacts))
		for i, c := range contacts {
			mailtos[i] = fmt.Sprintf("mailto:%s", c)
		}
		payload["contact"] = mailtos
	}
	if onlyReturnExisting {
		payload["onlyReturnExisting"] = true
	}

	if eabKeyID != "" && eabHMACKey != "" {
		eab, err := externalAccountBinding(key, newAccountURL, eabKeyID, eabHMACKey)
		if err != nil {
			return nil, err
		}
		payload["externalAccountBinding"] = eab
	}

	return payload, nil
}

// externalAccountBinding builds the inner flattened JWS described in RFC
// 8555 §7.3.4: protected={alg:"HS256", kid:eabKeyID, url:newAccountURL},
// payload=account's public JWK, signature=HMAC-SHA256(protected64 + "."
// + payload64, eabHMACKey).
func externalAccountBinding(key *jwk.AccountKey, newAccountURL, eabKeyID, eabHMACKey string) (map[string]string, error) {
	macKey, err := Base64URLDecode(eabHMACKey)
	if err != nil {
		return nil, fmt.Errorf("acme: decode EAB HMAC key: %w", err)
	}

	protected := map[string]string{
		"alg": "HS256",
		"kid": eabKeyID,
		"url": newAccountURL,
	}
	protectedJSON, err := json.Marshal(protected)
	if err != nil {
		return nil, err
	}
	payloadJSON, err := json.Marshal(key.PublicJWK())
	if err != nil {
		return nil, err
	}

	protected64 := Base64URL(protectedJSON)
	payload64 := Base64URL(payloadJSON)

	mac := hmac.New(sha256.New, macKey)
	mac.Write([]byte(protected64 + "." + payload64))
	sig := mac.Sum(nil)

	return map[string]string{
		"protected": protected64,
		"payload":   payload64,
		"signature": Base64URL(sig),
	}, nil
}

// NewOrderPayload builds the JSON body for a newOrder request (RFC 8555
// §7.4) from a list of DNS identifiers.
func NewOrderPayload(dnsNames []string, notBefore, notAfter time.Time) map[string]any {
	identifiers := make([]map[string]string, len(dnsNames))
	for i, name := range dnsNames {
		identifiers[i] = map[string]string{"type": "dns", "value": name}
	}
	payload := map[string]any{"identifiers": identifiers}
	if !notBefore.IsZero() {
		payload["notBefore"] = notBefore.Format(time.RFC3339)
	}
	if !notAfter.IsZero() {
		payload["notAfter"] = notAfter.Format(time.RFC3339)
	}
	return payload
}

// RevokePayload builds the JSON body for a revokeCert request (RFC 8555
// §7.6). reason is an optional CRL reason code; nil omits the field.
func RevokePayload(certDER []byte, reason *int) map[string]any {
	payload := map[string]any{"certificate": Base64URL(certDER)}
	if reason != nil {
		payload["reason"] = *reason
	}
	return payload
}

// KeyChangePayload builds the outer payload for an RFC 8555 §7.3.5 key
// rollover request: an inner flattened JWS, signed with newKey using a
// jwk (not kid) protected header and no nonce, whose payload is
// {"account": accountURL, "oldKey": oldKey's public JWK}. The caller
// signs this return value as the outer JWS using oldKey and the
// account's existing kid, at the same keyChangeURL.
func KeyChangePayload(oldKey, newKey *jwk.AccountKey, accountURL, keyChangeURL string) (map[string]string, error) {
	innerPayload, err := json.Marshal(map[string]any{
		"account": accountURL,
		"oldKey":  oldKey.PublicJWK(),
	})
	if err != nil {
		return nil, err
	}

	protected := map[string]any{
		"alg": newKey.Alg(),
		"jwk": newKey.PublicJWK(),
		"url": keyChangeURL,
	}
	protectedJSON, err := json.Marshal(protected)
	if err != nil {
		return nil, err
	}

	protected64 := Base64URL(protectedJSON)
	payload64 := Base64URL(innerPayload)

	sig, err := newKey.Sign([]byte(protected64 + "." + payload64))
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"protected": protected64,
		"payload":   payload64,
		"signature": Base64URL(sig),
	}, nil
}
