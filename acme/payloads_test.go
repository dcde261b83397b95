package acme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevokePayloadWithoutReason(t *testing.T) {
	der := []byte{0x30, 0x03, 0x01, 0x02, 0x03}

	payload := RevokePayload(der, nil)

	require.Contains(t, payload, "certificate")
	assert.Equal(t, Base64URL(der), payload["certificate"])
	assert.NotContains(t, payload, "reason")
}

func TestRevokePayloadWithReason(t *testing.T) {
	der := []byte{0xde, 0xad, 0xbe, 0xef}
	reason := 1 // keyCompromise, RFC 5280 CRL reason code

	payload := RevokePayload(der, &reason)

	assert.Equal(t, Base64URL(der), payload["certificate"])
	require.Contains(t, payload, "reason")
	assert.Equal(t, 1, payload["reason"])
}
