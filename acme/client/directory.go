package client

import (
	"context"
	"log"
	"strings"

	"github.com/riftcloud/acme-engine/acme"
	"github.com/riftcloud/acme-engine/acme/transport"
)

// directoryCache fetches and memoizes the ACME directory resource on
// first use, and resolves resource names to URLs, transparently
// accepting an absolute URL in place of a name (stored under the
// reserved "_tmp" key).
type directoryCache struct {
	tr  transport.Transport
	url string

	entries map[string]any
}

func newDirectoryCache(tr transport.Transport, url string) *directoryCache {
	return &directoryCache{tr: tr, url: url}
}

// load fetches and caches the directory if it hasn't been already.
func (d *directoryCache) load(ctx context.Context) error {
	if d.entries != nil {
		return nil
	}

	resp, err := d.tr.Get(ctx, d.url)
	if err != nil {
		return &acme.DirectoryError{URL: d.url, Err: err}
	}

	obj, ok := resp.Body.(map[string]any)
	if !ok {
		return &acme.DirectoryError{URL: d.url, Err: errNotAnObject}
	}

	d.entries = obj
	log.Printf("acme: loaded directory from %q", d.url)
	return nil
}

var errNotAnObject = directoryShapeError("directory response body was not a JSON object")

type directoryShapeError string

func (e directoryShapeError) Error() string { return string(e) }

// resolve returns the URL for a resource name. If name begins with
// "http" (case-insensitive) it is instead treated as a literal absolute
// URL: it is stashed under the reserved "_tmp" directory slot and that
// slot is resolved, so a single call site handles both cases uniformly
// (spec.md §4.5, §9's note that the two cases are "an API wart" best
// hidden behind one resolver rather than surfaced to every caller).
func (d *directoryCache) resolve(ctx context.Context, name string) (string, error) {
	if err := d.load(ctx); err != nil {
		return "", err
	}

	if strings.HasPrefix(strings.ToLower(name), "http") {
		d.entries[acme.TmpDirectoryKey] = name
		name = acme.TmpDirectoryKey
	}

	raw, ok := d.entries[name]
	if !ok {
		return "", &acme.DirectoryError{URL: d.url, Err: missingEntryError(name)}
	}
	url, ok := raw.(string)
	if !ok || url == "" {
		return "", &acme.DirectoryError{URL: d.url, Err: missingEntryError(name)}
	}
	return url, nil
}

type missingEntryError string

func (e missingEntryError) Error() string { return "directory has no entry named " + string(e) }
