package client

import (
	"context"

	"github.com/riftcloud/acme-engine/acme"
)

// takeNonce is spec.md §4.6's Nonce Manager: if the slot is empty it
// issues a HEAD to newNonce (which populates the slot via the
// Transport's Replay-Nonce capture, see acme/transport), then returns
// the slot's value without clearing it — every subsequent response
// overwrites it instead, so the engine always sends the most recently
// seen nonce (spec.md §4.6, §8 invariant).
func (e *Engine) takeNonce(ctx context.Context) (string, error) {
	if e.nonces.Empty() {
		url, err := e.dir.resolve(ctx, acme.NewNonceEndpoint)
		if err != nil {
			return "", err
		}
		if _, err := e.tr.Head(ctx, url); err != nil {
			return "", err
		}
	}
	return e.nonces.Take(), nil
}
