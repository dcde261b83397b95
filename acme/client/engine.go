// Package client implements the Request Engine: the public entry
// point that orchestrates the Directory Cache, Nonce Manager, JWS
// Encapsulator and HTTP Transport into a single authenticated request
// call, exposed as a single-account, name-or-URL request facade.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/riftcloud/acme-engine/acme"
	"github.com/riftcloud/acme-engine/acme/jwk"
	"github.com/riftcloud/acme-engine/acme/transport"
)

// Mode selects a built-in ACME directory: a live/staging choice plus
// an escape hatch for other RFC 8555-compatible CAs.
type Mode int

const (
	Staging Mode = iota
	Live
	Custom
)

// EngineConfig configures a new Engine.
type EngineConfig struct {
	// Mode selects the directory URL. With Custom, DirectoryURL must be set.
	Mode Mode
	// DirectoryURL overrides the built-in URL; required when Mode is Custom.
	DirectoryURL string
	// CACertPath, if set, is a file of one or more PEM CA certificates
	// trusted for the ACME server's HTTPS connection.
	CACertPath string
	// HTTPTimeout bounds each HTTP round trip. Zero means no timeout,
	// matching http.Client's own default.
	HTTPTimeout time.Duration
}

func (c *EngineConfig) directoryURL() (string, error) {
	switch c.Mode {
	case Live:
		return acme.LiveDirectoryURL, nil
	case Staging:
		return acme.StagingDirectoryURL, nil
	case Custom:
		url := strings.TrimSpace(c.DirectoryURL)
		if url == "" {
			return "", fmt.Errorf("acme: Custom mode requires a non-empty DirectoryURL")
		}
		return url, nil
	default:
		return "", fmt.Errorf("acme: unknown Mode %d", c.Mode)
	}
}

// Engine is the authenticated ACME request engine (spec.md §2). It owns
// one account key (replaceable), one cached Directory, one NonceSlot and
// one AccountBinding, per spec.md §3's lifecycle.
type Engine struct {
	dir     *directoryCache
	nonces  *transport.NonceSlot
	tr      *transport.HTTPTransport
	binding *accountBinding
	key     *jwk.AccountKey
}

// New constructs an Engine. No network call is made until the first
// method that needs the directory, such as Request, GetAccountID or an
// EAB-bound NewAccountPayload (the directory loads lazily, spec.md §4.5).
func New(config EngineConfig) (*Engine, error) {
	dirURL, err := config.directoryURL()
	if err != nil {
		return nil, err
	}

	httpClient, err := newHTTPClient(config)
	if err != nil {
		return nil, err
	}

	nonces := &transport.NonceSlot{}
	tr := transport.New(httpClient, nonces)

	return &Engine{
		dir:     newDirectoryCache(tr, dirURL),
		nonces:  nonces,
		tr:      tr,
		binding: &accountBinding{},
	}, nil
}

func newHTTPClient(config EngineConfig) (*http.Client, error) {
	client := &http.Client{Timeout: config.HTTPTimeout}

	if config.CACertPath != "" {
		pemBytes, err := os.ReadFile(config.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("acme: reading CA cert bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("acme: no certificates found in %q", config.CACertPath)
		}
		client.Transport = &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}}
	}

	return client, nil
}

// Close releases the engine's key material reference and HTTP handle
// (spec.md §3, §5: "both are released deterministically when the engine
// is destroyed").
func (e *Engine) Close() {
	e.tr.Close()
	e.key = nil
}

// LoadAccountKey parses and installs a new account private key
// (spec.md §4.1, §6). It fully replaces any previously loaded key and
// transitions the AccountBinding back to KeyLoaded (spec.md §4.8's state
// machine): the new key has no kid until the next newAccount response
// binds one.
func (e *Engine) LoadAccountKey(pemOrDER []byte) error {
	key, err := jwk.Load(pemOrDER)
	if err != nil {
		return err
	}
	e.key = key
	e.binding.reset()
	return nil
}

// GetAccountID returns the account's kid, bootstrapping it with an
// onlyReturnExisting newAccount request if it isn't already known
// (spec.md §4.7, §6).
func (e *Engine) GetAccountID(ctx context.Context) (string, error) {
	if e.key == nil {
		return "", &acme.NoKeyLoaded{}
	}
	if e.binding.known() {
		return e.binding.get(), nil
	}

	if _, err := e.request(ctx, acme.NewAccountEndpoint, map[string]any{"onlyReturnExisting": true}, false); err != nil {
		return "", err
	}
	if !e.binding.known() {
		return "", fmt.Errorf("acme: newAccount response did not carry a Location header")
	}
	return e.binding.get(), nil
}

// KeyAuthorization returns "<token>.<thumbprint>" for the loaded account
// key (spec.md §6).
func (e *Engine) KeyAuthorization(token string) (string, error) {
	if e.key == nil {
		return "", &acme.NoKeyLoaded{}
	}
	return e.key.KeyAuthorization(token), nil
}

// NewAccountPayload builds a newAccount request body for the loaded
// account key, correctly binding an external account (if eabKeyID and
// eabHMACKey are both non-empty) to this engine's actual newAccount
// URL rather than a caller-supplied guess: RFC 8555 §7.3.4 requires the
// inner EAB JWS's url member to equal the outer request's target
// exactly, and only the engine (via its Directory Cache) knows that
// URL ahead of time.
func (e *Engine) NewAccountPayload(ctx context.Context, contacts []string, onlyReturnExisting bool, eabKeyID, eabHMACKey string) (map[string]any, error) {
	if e.key == nil {
		return nil, &acme.NoKeyLoaded{}
	}

	var newAccountURL string
	if eabKeyID != "" && eabHMACKey != "" {
		url, err := e.dir.resolve(ctx, acme.NewAccountEndpoint)
		if err != nil {
			return nil, err
		}
		newAccountURL = url
	}

	return acme.NewAccountPayload(e.key, contacts, onlyReturnExisting, newAccountURL, eabKeyID, eabHMACKey)
}

// ChangeKey performs an RFC 8555 §7.3.5 key rollover: it signs a
// KeyChangePayload with newKey, submits it to the keyChange endpoint
// authenticated with the engine's current account key and kid, and on
// success installs newKey as the engine's account key. The account's
// kid is unchanged by a rollover, so the existing AccountBinding is
// left intact rather than reset.
func (e *Engine) ChangeKey(ctx context.Context, newKeyPEMOrDER []byte) (*transport.DecodedResponse, error) {
	if e.key == nil {
		return nil, &acme.NoKeyLoaded{}
	}

	kid, err := e.GetAccountID(ctx)
	if err != nil {
		return nil, err
	}

	keyChangeURL, err := e.dir.resolve(ctx, acme.KeyChangeEndpoint)
	if err != nil {
		return nil, err
	}

	newKey, err := jwk.Load(newKeyPEMOrDER)
	if err != nil {
		return nil, err
	}

	payload, err := acme.KeyChangePayload(e.key, newKey, kid, keyChangeURL)
	if err != nil {
		return nil, err
	}

	resp, err := e.Request(ctx, acme.KeyChangeEndpoint, payload)
	if err != nil {
		return nil, err
	}

	e.key = newKey
	return resp, nil
}

// DownloadCertificate performs a POST-as-GET against certURL (a
// certificate resource URL, typically taken from a finalized order)
// and returns the raw certificate chain bytes. ACME servers serve
// certificates as application/pem-certificate-chain, a content type
// the HTTP Transport leaves undecoded, so the response is only ever
// available as raw bytes.
func (e *Engine) DownloadCertificate(ctx context.Context, certURL string) ([]byte, error) {
	resp, err := e.Request(ctx, certURL, emptyPayload)
	if err != nil {
		return nil, err
	}
	raw, ok := resp.RawBody()
	if !ok {
		return nil, fmt.Errorf("acme: certificate response at %q was not raw bytes (got %T)", certURL, resp.Body)
	}
	return raw, nil
}

// Request is the engine's public facade (spec.md §6): nameOrURL is
// either a directory resource name or an absolute URL, and payload is
// either a JSON-marshalable value, or the string "" to send a
// POST-as-GET (spec.md §4.7). Both kinds of target take the same internal
// path: the Directory Cache's resolver tells a name from an absolute URL,
// so there is a single entry point and no separate per-kind operation.
func (e *Engine) Request(ctx context.Context, nameOrURL string, payload any) (*transport.DecodedResponse, error) {
	return e.request(ctx, nameOrURL, payload, false)
}

// request implements spec.md §4.8's algorithm, including the one-shot
// badNonce retry.
func (e *Engine) request(ctx context.Context, resourceName string, payload any, retry bool) (*transport.DecodedResponse, error) {
	if e.key == nil {
		return nil, &acme.NoKeyLoaded{}
	}

	url, err := e.dir.resolve(ctx, resourceName)
	if err != nil {
		return nil, err
	}

	useJWK := resourceName == acme.NewAccountEndpoint

	kid := e.binding.get()
	if !useJWK && kid == "" {
		if _, err := e.GetAccountID(ctx); err != nil {
			return nil, err
		}
		kid = e.binding.get()
	}

	nonce, err := e.takeNonce(ctx)
	if err != nil {
		return nil, err
	}

	body, err := buildJWS(e.key, useJWK, kid, url, nonce, payload)
	if err != nil {
		return nil, err
	}

	resp, err := e.tr.PostJOSE(ctx, url, body)
	if err != nil {
		if protoErr, ok := err.(*acme.ProtocolError); ok && protoErr.IsBadNonce() && !retry {
			log.Printf("acme: retrying %q after badNonce", resourceName)
			return e.request(ctx, resourceName, payload, true)
		}
		return nil, err
	}

	if resourceName == acme.NewAccountEndpoint && !e.binding.known() {
		if location, ok := resp.Headers[strings.ToLower(acme.LocationHeader)]; ok && location != "" {
			e.binding.bind(location)
		}
	}

	return resp, nil
}
