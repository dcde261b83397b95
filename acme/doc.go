// Package acme provides the protocol-level types shared by the ACME v2
// request engine: the resource name constants from RFC 8555 §9.7.5, the
// error taxonomy a caller sees out of a request, and the small set of
// request-payload helpers the out-of-scope orchestration layer uses to
// shape newAccount/newOrder/revokeCert bodies.
//
// The signing and transport machinery live in the acme/jwk,
// acme/transport and acme/client subpackages; this package only holds
// what both sides of that boundary need to agree on.
package acme
