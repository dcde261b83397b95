// Package jwk implements the Key Adapter: loading an ACME account
// private key, deriving its public JWK and algorithm identifier,
// computing its RFC 7638 thumbprint, and producing raw JWS signatures
// over arbitrary signing input.
//
// Deliberately built on the standard library's crypto/rsa and
// crypto/ecdsa rather than a JOSE library: the raw-signature conversion
// and JWK canonicalization this package performs are meant to be this
// module's own components rather than hidden behind an opaque signer
// (see DESIGN.md for why a JOSE library was not a fit here).
package jwk

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"hash"
)

// Kind distinguishes the two account key families ACME supports.
type Kind int

const (
	RSA Kind = iota
	EC
)

func (k Kind) String() string {
	if k == RSA {
		return "RSA"
	}
	return "EC"
}

// AccountKey is the loaded account private key plus the facets spec.md
// §3 derives from it. Once Load succeeds, PublicJWK, Alg and Thumbprint
// are immutable for the lifetime of this value; a new key is loaded by
// constructing a new AccountKey, never by mutating one in place.
type AccountKey struct {
	kind    Kind
	bits    int
	shaBits int

	signer crypto.Signer
	hash   crypto.Hash

	jwk        map[string]string
	alg        string
	thumbprint string
}

// Load parses PEM or raw DER bytes as an RSA or EC (P-256/P-384/P-521)
// private key and returns the derived AccountKey. PEM input is tried
// first; if it doesn't decode as PEM the bytes are tried as DER
// directly, in both cases against PKCS#8, then the key-specific legacy
// formats (PKCS#1 for RSA, SEC1 for EC).
func Load(pemOrDER []byte) (*AccountKey, error) {
	der := pemOrDER
	if block, _ := pem.Decode(pemOrDER); block != nil {
		der = block.Bytes
	}

	signer, err := parsePrivateKey(der)
	if err != nil {
		return nil, &KeyLoadError{Err: err}
	}

	switch k := signer.(type) {
	case *rsa.PrivateKey:
		return newRSAAccountKey(k)
	case *ecdsa.PrivateKey:
		return newECAccountKey(k)
	default:
		return nil, &UnsupportedKeyKind{Kind: fmt.Sprintf("%T", signer)}
	}
}

func parsePrivateKey(der []byte) (crypto.Signer, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("PKCS#8 key of type %T is not a signer", key)
		}
		return signer, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("unrecognized private key encoding")
}

func newRSAAccountKey(key *rsa.PrivateKey) (*AccountKey, error) {
	pub := key.PublicKey
	eBytes := big2bytes(pub.E)

	jwk := map[string]string{
		"e":   Base64URL(eBytes),
		"kty": "RSA",
		"n":   Base64URL(pub.N.Bytes()),
	}

	thumbprint, err := thumbprintOf(jwk)
	if err != nil {
		return nil, &KeyLoadError{Err: err}
	}

	return &AccountKey{
		kind:       RSA,
		bits:       pub.N.BitLen(),
		shaBits:    256,
		signer:     key,
		hash:       crypto.SHA256,
		jwk:        jwk,
		alg:        "RS256",
		thumbprint: thumbprint,
	}, nil
}

// ecSHABits maps curve order bits to the JWS ES<N> hash width per spec.md
// §3: 256->256, 384->384, 521->512.
var ecSHABits = map[int]int{256: 256, 384: 384, 521: 512}

func newECAccountKey(key *ecdsa.PrivateKey) (*AccountKey, error) {
	bits := key.Curve.Params().BitSize
	shaBits, ok := ecSHABits[bits]
	if !ok {
		return nil, &UnsupportedKeyKind{Kind: fmt.Sprintf("EC curve with %d-bit order", bits)}
	}

	padLen := (bits + 7) / 8
	x := leftPad(key.X.Bytes(), padLen)
	y := leftPad(key.Y.Bytes(), padLen)

	jwk := map[string]string{
		"crv": fmt.Sprintf("P-%d", bits),
		"kty": "EC",
		"x":   Base64URL(x),
		"y":   Base64URL(y),
	}

	thumbprint, err := thumbprintOf(jwk)
	if err != nil {
		return nil, &KeyLoadError{Err: err}
	}

	var h crypto.Hash
	switch shaBits {
	case 256:
		h = crypto.SHA256
	case 384:
		h = crypto.SHA384
	case 512:
		h = crypto.SHA512
	}

	return &AccountKey{
		kind:       EC,
		bits:       bits,
		shaBits:    shaBits,
		signer:     key,
		hash:       h,
		jwk:        jwk,
		alg:        fmt.Sprintf("ES%d", shaBits),
		thumbprint: thumbprint,
	}, nil
}

// thumbprintOf computes base64url(SHA-256(canonical JSON of jwk)) per RFC
// 7638. encoding/json sorts map[string]string keys lexicographically and
// emits no whitespace, which is exactly the canonicalization the RFC
// requires, so long as jwk holds only the required members — which the
// two constructors above guarantee.
func thumbprintOf(jwk map[string]string) (string, error) {
	canonical, err := json.Marshal(jwk)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return Base64URL(sum[:]), nil
}

// PublicJWK returns the public key's JWK representation (spec.md §3).
// The returned map is owned by the caller to modify freely; AccountKey
// always marshals a fresh copy internally.
func (k *AccountKey) PublicJWK() map[string]string {
	cp := make(map[string]string, len(k.jwk))
	for key, v := range k.jwk {
		cp[key] = v
	}
	return cp
}

// Alg returns the JWS algorithm identifier: RS256 for RSA, ES256/384/512
// for EC.
func (k *AccountKey) Alg() string { return k.alg }

// Thumbprint returns the RFC 7638 JWK thumbprint, base64url encoded.
func (k *AccountKey) Thumbprint() string { return k.thumbprint }

// Kind reports whether this is an RSA or EC key.
func (k *AccountKey) Kind() Kind { return k.kind }

// KeyAuthorization returns "<token>.<thumbprint>", the key authorization
// string used to respond to HTTP-01/DNS-01 challenges (RFC 8555 §8.1).
// Challenge fulfilment itself is out of this core's scope (spec.md §1);
// this is the one value from that flow the core is positioned to supply.
func (k *AccountKey) KeyAuthorization(token string) string {
	return fmt.Sprintf("%s.%s", token, k.thumbprint)
}

// Sign produces the raw JWS signature over input (spec.md §4.1):
//   - RSA: PKCS#1 v1.5 over SHA-256, output is the signature as-is.
//   - EC:  ECDSA over SHA-<shaBits>; the signer yields DER, which is
//     transcoded to the fixed-width R||S form JWS requires.
func (k *AccountKey) Sign(input []byte) ([]byte, error) {
	digest := hashSum(k.hash, input)

	switch signer := k.signer.(type) {
	case *rsa.PrivateKey:
		sig, err := rsa.SignPKCS1v15(rand.Reader, signer, k.hash, digest)
		if err != nil {
			return nil, &SignError{Err: err}
		}
		return sig, nil
	case *ecdsa.PrivateKey:
		der, err := ecdsa.SignASN1(rand.Reader, signer, digest)
		if err != nil {
			return nil, &SignError{Err: err}
		}
		padLen := (k.bits + 7) / 8
		raw, err := derToRaw(der, padLen)
		if err != nil {
			return nil, err
		}
		return raw, nil
	default:
		return nil, &UnsupportedKeyKind{Kind: fmt.Sprintf("%T", signer)}
	}
}

func hashSum(h crypto.Hash, input []byte) []byte {
	var hasher hash.Hash
	switch h {
	case crypto.SHA384:
		hasher = sha512.New384()
	case crypto.SHA512:
		hasher = sha512.New()
	default:
		hasher = sha256.New()
	}
	hasher.Write(input)
	return hasher.Sum(nil)
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// big2bytes returns the minimal big-endian byte representation of a
// small positive int, used for the RSA public exponent "e" member.
func big2bytes(e int) []byte {
	if e == 0 {
		return []byte{0}
	}
	var b []byte
	for e > 0 {
		b = append([]byte{byte(e & 0xff)}, b...)
		e >>= 8
	}
	return b
}
