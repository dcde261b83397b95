package acme

// Directory resource names, as used by RFC 8555 §9.7.5 directory objects.
const (
	NewNonceEndpoint   = "newNonce"
	NewAccountEndpoint = "newAccount"
	NewOrderEndpoint   = "newOrder"
	RevokeCertEndpoint = "revokeCert"
	KeyChangeEndpoint  = "keyChange"
)

// ReplayNonceHeader is the HTTP response header an ACME server uses to
// communicate a fresh anti-replay nonce. See RFC 8555 §9.3.
const ReplayNonceHeader = "Replay-Nonce"

// LocationHeader carries the account URL in a newAccount response.
const LocationHeader = "Location"

// Built-in directory URLs for Let's Encrypt and compatible CAs.
const (
	LiveDirectoryURL    = "https://acme-v02.api.letsencrypt.org/directory"
	StagingDirectoryURL = "https://acme-staging-v02.api.letsencrypt.org/directory"
)

// tmpDirectoryKey is the reserved directory slot used to stash a
// caller-supplied absolute URL in place of a resource name, so that
// resolve() can treat both cases uniformly.
const tmpDirectoryKey = "_tmp"

// TmpDirectoryKey exposes tmpDirectoryKey for tests and callers that need
// to recognize the passthrough case.
const TmpDirectoryKey = tmpDirectoryKey
