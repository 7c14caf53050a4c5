package eval

import "github.com/pkg/errors"

// Error kinds, one sentinel per original_source/error.h ErrorCode this
// evaluator can raise. Callers distinguish kinds with errors.Is; messages
// attached at the raise site (via errors.Wrapf) carry the offending
// expression or symbol.
var (
	ErrUnknownExpression  = errors.New("unknown expression")
	ErrUnboundVariable    = errors.New("unbound variable")
	ErrArityMismatch      = errors.New("arity mismatch")
	ErrNotAProcedure      = errors.New("not a procedure")
	ErrMalformedQuote     = errors.New("malformed quote")
	ErrMalformedIf        = errors.New("malformed if")
	ErrMalformedAssign    = errors.New("malformed set!")
	ErrMalformedDefine    = errors.New("malformed define")
	ErrMalformedLambda    = errors.New("malformed fn")
	ErrInvalidArgumentType = errors.New("invalid argument type")
)
