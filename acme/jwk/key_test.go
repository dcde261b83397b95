package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateRSAPEM(t *testing.T, bits int) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, bits)
	require.NoError(t, err)
	der := x509.MarshalPKCS1PrivateKey(key)
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})
}

func generateECPEM(t *testing.T, curve elliptic.Curve) (*ecdsa.PrivateKey, []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	return key, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
}

func TestLoadRSAKey(t *testing.T) {
	pemBytes := generateRSAPEM(t, 2048)

	key, err := Load(pemBytes)
	require.NoError(t, err)

	assert.Equal(t, RSA, key.Kind())
	assert.Equal(t, "RS256", key.Alg())
	assert.Equal(t, "RSA", key.PublicJWK()["kty"])
	assert.NotEmpty(t, key.Thumbprint())
}

func TestLoadECKeyAlgByCurve(t *testing.T) {
	cases := []struct {
		curve   elliptic.Curve
		wantAlg string
		wantCrv string
	}{
		{elliptic.P256(), "ES256", "P-256"},
		{elliptic.P384(), "ES384", "P-384"},
		{elliptic.P521(), "ES512", "P-521"},
	}

	for _, c := range cases {
		_, pemBytes := generateECPEM(t, c.curve)
		key, err := Load(pemBytes)
		require.NoError(t, err)
		assert.Equal(t, EC, key.Kind())
		assert.Equal(t, c.wantAlg, key.Alg())
		assert.Equal(t, c.wantCrv, key.PublicJWK()["crv"])
	}
}

func TestLoadUnparseableInput(t *testing.T) {
	_, err := Load([]byte("not a key"))
	require.Error(t, err)
	var loadErr *KeyLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestThumbprintStableAcrossLoads(t *testing.T) {
	pemBytes := generateRSAPEM(t, 2048)

	key1, err := Load(pemBytes)
	require.NoError(t, err)
	key2, err := Load(pemBytes)
	require.NoError(t, err)

	assert.Equal(t, key1.Thumbprint(), key2.Thumbprint())
}

func TestSignVerifyRSA(t *testing.T) {
	pemBytes := generateRSAPEM(t, 2048)
	key, err := Load(pemBytes)
	require.NoError(t, err)

	sig, err := key.Sign([]byte("signing input"))
	require.NoError(t, err)

	der, _ := pem.Decode(pemBytes)
	rsaKey, err := x509.ParsePKCS1PrivateKey(der.Bytes)
	require.NoError(t, err)

	digest := hashSum(key.hash, []byte("signing input"))
	assert.NoError(t, rsa.VerifyPKCS1v15(&rsaKey.PublicKey, key.hash, digest, sig))
}

func TestSignVerifyECWidths(t *testing.T) {
	cases := []struct {
		curve      elliptic.Curve
		wantLength int
	}{
		{elliptic.P256(), 64},
		{elliptic.P384(), 96},
		{elliptic.P521(), 132},
	}

	for _, c := range cases {
		ecKey, pemBytes := generateECPEM(t, c.curve)
		key, err := Load(pemBytes)
		require.NoError(t, err)

		sig, err := key.Sign([]byte("x"))
		require.NoError(t, err)
		require.Len(t, sig, c.wantLength)

		half := c.wantLength / 2
		r := new(big.Int).SetBytes(sig[:half])
		s := new(big.Int).SetBytes(sig[half:])

		digest := hashSum(key.hash, []byte("x"))
		assert.True(t, ecdsa.Verify(&ecKey.PublicKey, digest, r, s))
	}
}

func TestKeyAuthorization(t *testing.T) {
	pemBytes := generateRSAPEM(t, 2048)
	key, err := Load(pemBytes)
	require.NoError(t, err)

	ka := key.KeyAuthorization("token123")
	assert.Equal(t, "token123."+key.Thumbprint(), ka)
}
