// Package transport implements the HTTP Transport: the single
// capability an ACME request engine needs from the network, expressed
// as an interface so tests can inject a stub or an httptest.Server-
// backed instance in place of the real *http.Client.
//
// Covers the three request shapes an ACME exchange needs (HEAD, GET,
// POST-with-jose-body) and recognizes application/problem+json
// responses and Replay-Nonce capture as first-class concerns of the
// transport layer rather than the caller's.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"

	"github.com/riftcloud/acme-engine/acme"
)

const (
	userAgentBase = "acme-engine"
	userAgentVers = "0.1.0"

	contentTypeJSON    = "application/json"
	contentTypeProblem = "application/problem+json"
	contentTypeJOSE    = "application/jose+json"
)

// Transport is the capability surface the Request Engine depends on.
// Its three methods are the three request shapes spec.md §4.4 names.
type Transport interface {
	Get(ctx context.Context, url string) (*DecodedResponse, error)
	Head(ctx context.Context, url string) (*DecodedResponse, error)
	PostJOSE(ctx context.Context, url string, body []byte) (*DecodedResponse, error)
}

// HTTPTransport is the production Transport backed by a *http.Client. It
// always follows redirects (the http.Client default) and writes every
// response's Replay-Nonce header, if present, into the NonceSlot it was
// constructed with — spec.md §4.6's Nonce Manager only ever reads that
// slot, it never populates it itself.
type HTTPTransport struct {
	client *http.Client
	nonces *NonceSlot
}

// New builds an HTTPTransport. client may be nil to use http.DefaultClient's
// settings with a fresh *http.Client; nonces must not be nil.
func New(client *http.Client, nonces *NonceSlot) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{client: client, nonces: nonces}
}

// Close releases idle connections, matching spec.md §3's "releasing the
// engine releases... any persistent transport handle."
func (t *HTTPTransport) Close() { t.client.CloseIdleConnections() }

func (t *HTTPTransport) Get(ctx context.Context, url string) (*DecodedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &acme.TransportError{URL: url, Err: err}
	}
	return t.do(req)
}

func (t *HTTPTransport) Head(ctx context.Context, url string) (*DecodedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, &acme.TransportError{URL: url, Err: err}
	}
	return t.do(req)
}

func (t *HTTPTransport) PostJOSE(ctx context.Context, url string, body []byte) (*DecodedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &acme.TransportError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", contentTypeJOSE)
	return t.do(req)
}

func (t *HTTPTransport) do(req *http.Request) (*DecodedResponse, error) {
	ua := fmt.Sprintf("%s/%s (%s; %s)", userAgentBase, userAgentVers, runtime.GOOS, runtime.GOARCH)
	req.Header.Set("User-Agent", ua)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &acme.TransportError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &acme.TransportError{URL: req.URL.String(), Err: err}
	}

	headers := foldHeaders(resp.Header)

	if nonce := resp.Header.Get(acme.ReplayNonceHeader); nonce != "" && t.nonces != nil {
		t.nonces.Set(nonce)
	}

	decoded := &DecodedResponse{
		Code:    strconv.Itoa(resp.StatusCode),
		Headers: headers,
		Body:    rawBody,
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case hasMediaType(contentType, contentTypeProblem):
		problem, err := acme.DecodeProblem(rawBody)
		if err != nil {
			return nil, err
		}
		return decoded, problem
	case hasMediaType(contentType, contentTypeJSON):
		var parsed any
		if err := json.Unmarshal(rawBody, &parsed); err != nil {
			return nil, &acme.JsonParseError{Err: err}
		}
		decoded.Body = parsed
	}

	if resp.StatusCode/100 != 2 {
		return decoded, &acme.HttpStatusError{Code: decoded.Code, URL: req.URL.String()}
	}

	return decoded, nil
}

func foldHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[canonicalLower(k)] = h.Get(k)
	}
	return out
}

func canonicalLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// hasMediaType reports whether contentType's media type (ignoring any
// ";charset=..." parameters) equals want, case-insensitively per RFC
// 7231 §3.1.1.1.
func hasMediaType(contentType, want string) bool {
	for i, c := range contentType {
		if c == ';' {
			contentType = contentType[:i]
			break
		}
	}
	return canonicalLower(strings.TrimSpace(contentType)) == want
}
