// Package fault classifies ledger errors into the kinds callers act on.
//
// Every sentinel error returned by a ledger operation is created with New and
// therefore carries a Kind. Callers still compare errors with errors.Is; the
// kind only decides how an error is surfaced (HTTP status, metric label).
package fault

import "errors"

// Kind is the class of a ledger error.
type Kind uint8

const (
	// KindUnknown is reported for errors that were not created by this package.
	KindUnknown Kind = iota
	// KindValidation covers malformed input rejected before any state is read.
	KindValidation
	// KindState covers operations that are not allowed in the current state.
	KindState
	// KindAuthorization covers identity failures: wrong caller, already claimed.
	KindAuthorization
	// KindArithmetic covers overflow and division by zero. Never wraps.
	KindArithmetic
	// KindEconomic covers slippage, liquidity and rounding rejections.
	KindEconomic
)

// String returns the lowercase name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindAuthorization:
		return "authorization"
	case KindArithmetic:
		return "arithmetic"
	case KindEconomic:
		return "economic"
	default:
		return "unknown"
	}
}

// Error is a classified sentinel error.
type Error struct {
	kind Kind
	msg  string
}

// New creates a sentinel error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the error class.
func (e *Error) Kind() Kind { return e.kind }

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return KindUnknown
}
