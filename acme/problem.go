package acme

import (
	"encoding/json"
	"fmt"
)

// SubproblemError is one entry of an RFC 7807 problem document's
// "subproblems" member, reduced to the fields spec.md §4.4 requires: a
// type URN and a detail string that has already been prefixed with the
// quoted identifier value.
type SubproblemError struct {
	Type   string
	Detail string
}

func (s SubproblemError) Error() string { return fmt.Sprintf("%s: %s", s.Type, s.Detail) }

// ProtocolError is the structured error raised whenever the ACME server
// returns an application/problem+json body (RFC 7807, as profiled by
// RFC 8555 §6.7), including any subproblems it carries.
type ProtocolError struct {
	Type        string
	Detail      string
	Subproblems []SubproblemError
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("acme: problem %s: %s", e.Type, e.Detail)
}

// IsBadNonce reports whether this is the one automatically-retried ACME
// error class (spec.md §4.8 step 4, §7).
func (e *ProtocolError) IsBadNonce() bool {
	return e != nil && e.Type == "urn:ietf:params:acme:error:badNonce"
}

// rawProblemDocument is the wire shape of an RFC 7807 body as ACME
// servers emit it.
type rawProblemDocument struct {
	Type        string `json:"type"`
	Detail      string `json:"detail"`
	Subproblems []struct {
		Type       string `json:"type"`
		Detail     string `json:"detail"`
		Identifier struct {
			Value string `json:"value"`
		} `json:"identifier"`
	} `json:"subproblems"`
}

// newProtocolError builds a ProtocolError from a decoded problem
// document, formatting each subproblem's detail as
// `"<identifier.value>": <detail>` per spec.md §4.4/§8 scenario 3.
func newProtocolError(raw rawProblemDocument) *ProtocolError {
	pe := &ProtocolError{
		Type:   raw.Type,
		Detail: raw.Detail,
	}
	for _, sp := range raw.Subproblems {
		pe.Subproblems = append(pe.Subproblems, SubproblemError{
			Type:   sp.Type,
			Detail: fmt.Sprintf("%q: %s", sp.Identifier.Value, sp.Detail),
		})
	}
	return pe
}

// DecodeProblem parses raw application/problem+json bytes into a
// ProtocolError, the shared helper the transport package uses when it
// sees that content type (spec.md §4.4).
func DecodeProblem(body []byte) (*ProtocolError, error) {
	var raw rawProblemDocument
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &JsonParseError{Err: err}
	}
	return newProtocolError(raw), nil
}
