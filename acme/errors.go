package acme

import (
	"fmt"

	"github.com/riftcloud/acme-engine/acme/jwk"
)

// KeyLoadError, UnsupportedKeyKind, SignError and MalformedSignature
// originate in the Key Adapter / ASN.1 Transcoder (spec.md §4.1/§4.2);
// they are aliased here so the full error taxonomy (spec.md §7) can be
// named from a single package regardless of which layer raises it.
type (
	KeyLoadError       = jwk.KeyLoadError
	UnsupportedKeyKind = jwk.UnsupportedKeyKind
	SignError          = jwk.SignError
	MalformedSignature = jwk.MalformedSignature
)

// DirectoryError indicates the directory could not be used: the fetch
// failed (Err wraps the underlying error), the body was not a JSON
// object, or the requested resource name has no URL entry.
type DirectoryError struct {
	URL string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("acme: directory %q: %s", e.URL, e.Err)
}
func (e *DirectoryError) Unwrap() error { return e.Err }

// TransportError wraps a connection failure or other local I/O error
// encountered while performing an HTTP request.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("acme: request to %q failed: %s", e.URL, e.Err)
}
func (e *TransportError) Unwrap() error { return e.Err }

// HttpStatusError indicates a non-2xx response that did not carry an
// application/problem+json body.
type HttpStatusError struct {
	Code string
	URL  string
}

func (e *HttpStatusError) Error() string {
	return fmt.Sprintf("acme: %s returned HTTP status %s", e.URL, e.Code)
}

// JsonParseError indicates the server sent a body declared as JSON (or a
// problem document) that did not parse.
type JsonParseError struct {
	Err error
}

func (e *JsonParseError) Error() string { return fmt.Sprintf("acme: parse JSON response: %s", e.Err) }
func (e *JsonParseError) Unwrap() error { return e.Err }

// NoKeyLoaded indicates a request was attempted before LoadAccountKey.
type NoKeyLoaded struct{}

func (e *NoKeyLoaded) Error() string { return "acme: no account key loaded" }
