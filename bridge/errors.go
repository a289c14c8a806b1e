// Package bridge owns the remote-venue side of the system: the session
// lifecycle, quote lookups, and the market-order submission protocol. Every
// failure it returns is classified into a small taxonomy so callers can map
// causes without parsing venue messages.
package bridge

import (
	"errors"
	"fmt"
)

// Kind classifies a bridge failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration: credentials incomplete. Fatal, detected at
	// construction time, never mid-call.
	KindConfiguration
	// KindValidation: caller input malformed; no remote side effect occurred.
	KindValidation
	// KindSession: the remote session could not be established.
	KindSession
	// KindSymbol: the venue rejected the symbol.
	KindSymbol
	// KindQuote: no tick available for the symbol.
	KindQuote
	// KindTransport: the call reached the transport layer but produced no
	// usable response (network failure, timeout, garbled or absent body).
	KindTransport
	// KindOrderRejected: the venue answered but refused or only partially
	// executed the order. Partial fills are full failures here.
	KindOrderRejected
	// KindReconciliation: the remote execution is confirmed but the local
	// ledger write failed. Real-world state has diverged; requires manual
	// follow-up.
	KindReconciliation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindSession:
		return "session"
	case KindSymbol:
		return "symbol"
	case KindQuote:
		return "quote"
	case KindTransport:
		return "transport"
	case KindOrderRejected:
		return "order_rejected"
	case KindReconciliation:
		return "reconciliation"
	default:
		return "unknown"
	}
}

// Error is a classified bridge failure. Code and Comment carry the venue's
// own status detail when the venue reported one.
type Error struct {
	Kind    Kind
	Code    int    // venue status/retcode, 0 when not applicable
	Comment string // venue comment, "" when not applicable
	Op      string // operation that failed, e.g. "order send"
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	s := e.Kind.String() + " error"
	if e.Op != "" {
		s += ": " + e.Op
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Code != 0 {
		s += fmt.Sprintf(" [%d]", e.Code)
	}
	if e.Comment != "" {
		s += " " + e.Comment
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the taxonomy kind from err, or KindUnknown when err is not
// a bridge error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given taxonomy kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

func newError(k Kind, op, msg string, err error) *Error {
	return &Error{Kind: k, Op: op, Msg: msg, Err: err}
}
