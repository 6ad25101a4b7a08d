package resolver

import (
	"errors"
	"fmt"
)

// Reason classifies why one source failed. Every reason short of exhaustion
// is recoverable: the orchestrator falls through to the next source.
type Reason int

const (
	// ReasonTransport covers network unreachable, DNS failure, resets and
	// timeouts.
	ReasonTransport Reason = iota
	// ReasonUpstreamStatus is a non-2xx HTTP status from the upstream.
	ReasonUpstreamStatus
	// ReasonMalformed is a body that is not the expected schema, including
	// HTML substituted for JSON.
	ReasonMalformed
	// ReasonNoStream is a source that yielded nothing usable: a well-formed
	// response with no stream or video entries, or every mirror exhausted.
	ReasonNoStream
)

func (r Reason) String() string {
	switch r {
	case ReasonTransport:
		return "transport failure"
	case ReasonUpstreamStatus:
		return "upstream rejected"
	case ReasonMalformed:
		return "malformed response"
	case ReasonNoStream:
		return "no stream found"
	default:
		return "unknown"
	}
}

// SourceError is a single source's failure. It is absorbed at the
// orchestrator boundary and never crosses into the caller.
type SourceError struct {
	Source string
	Reason Reason
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError wraps a per-source failure with its classification.
func NewSourceError(source string, reason Reason, err error) *SourceError {
	return &SourceError{Source: source, Reason: reason, Err: err}
}

var (
	// ErrAllSourcesExhausted is the terminal outcome after every source in
	// the chain has failed. No automatic retry is scheduled.
	ErrAllSourcesExhausted = errors.New("all sources exhausted")

	// ErrNoStream is the typed no-result outcome sources may return
	// directly when they have nothing more specific to report.
	ErrNoStream = errors.New("no stream found")

	// ErrMirrorsExhausted reports that every configured mirror of one
	// source failed. Per-mirror causes are collapsed by the mirror
	// iterator; the individual failures are in the debug logs.
	ErrMirrorsExhausted = errors.New("all mirrors exhausted")
)
