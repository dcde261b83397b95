package transport

import "sync"

// DecodedResponse is spec.md §3's DecodedResponse: a three-digit status
// code (kept as a string, since the engine never does arithmetic on it),
// case-folded response headers, and a body that is either raw bytes or,
// when the server declared application/json, the already-parsed value.
type DecodedResponse struct {
	Code    string
	Headers map[string]string
	Body    any
}

// RawBody returns Body as bytes when the response was not JSON-decoded.
func (r *DecodedResponse) RawBody() ([]byte, bool) {
	b, ok := r.Body.([]byte)
	return b, ok
}

// NonceSlot is spec.md §4.6's Nonce Manager storage: a single
// mutex-guarded slot for the most recently seen Replay-Nonce. It is a
// value owned by one engine, never process-wide state (spec.md §9).
type NonceSlot struct {
	mu    sync.Mutex
	nonce string
}

// Set stores nonce, overwriting whatever was there. Called by the
// Transport after every response that carries a Replay-Nonce header.
func (n *NonceSlot) Set(nonce string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nonce = nonce
}

// Take returns the current nonce without clearing it — the slot is only
// ever overwritten by the next response, never emptied by a read
// (spec.md §4.6: "do not clear the slot").
func (n *NonceSlot) Take() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nonce
}

// Empty reports whether no nonce has been seen yet.
func (n *NonceSlot) Empty() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nonce == ""
}
