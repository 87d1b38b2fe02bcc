package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of an imagemath error.
type ErrorCode string

// Error codes. The leading letter names the error family:
// S syntax, N names, M modes, O operations, T types, D evaluation.
const (
	// S0xxx: Parse errors
	ErrStringNotClosed ErrorCode = "S0101"
	ErrInvalidNumber   ErrorCode = "S0102"
	ErrSyntaxError     ErrorCode = "S0201"
	ErrExpectedToken   ErrorCode = "S0202"
	ErrEmptyExpression ErrorCode = "S0203"
	ErrUnexpectedChar  ErrorCode = "S0204"
	ErrNestingTooDeep  ErrorCode = "S0205"

	// N0xxx: Name-restriction policy
	ErrForbiddenBinding ErrorCode = "N0101"
	ErrForbiddenName    ErrorCode = "N0102"

	// M0xxx: Representation tags
	ErrUnsupportedMode ErrorCode = "M0101"

	// O0xxx: Kernel dispatch
	ErrUnsupportedOperation ErrorCode = "O0101"

	// T0xxx: Type errors
	ErrInvalidBinding ErrorCode = "T0401"
	ErrInvalidOperand ErrorCode = "T0402"
	ErrNotCallable    ErrorCode = "T0403"
	ErrArgumentCount  ErrorCode = "T0404"

	// D0xxx: Evaluation errors
	ErrDivisionByZero ErrorCode = "D0101"
	ErrNumericDomain  ErrorCode = "D0102"
	ErrTimeout        ErrorCode = "D0201"
	ErrStackOverflow  ErrorCode = "D0202"
)

// Kind groups error codes into the four families callers usually
// branch on.
type Kind int

const (
	KindOther Kind = iota
	KindParse
	KindForbiddenName
	KindUnsupportedMode
	KindUnsupportedOperation
)

// String returns the conventional error name for the kind.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindForbiddenName:
		return "ForbiddenNameError"
	case KindUnsupportedMode:
		return "UnsupportedModeError"
	case KindUnsupportedOperation:
		return "UnsupportedOperationError"
	default:
		return "Error"
	}
}

// Kind reports the family the code belongs to.
func (c ErrorCode) Kind() Kind {
	switch c {
	case ErrForbiddenBinding, ErrForbiddenName:
		return KindForbiddenName
	case ErrUnsupportedMode:
		return KindUnsupportedMode
	case ErrUnsupportedOperation:
		return KindUnsupportedOperation
	}
	if len(c) > 0 && c[0] == 'S' {
		return KindParse
	}
	return KindOther
}

// Error represents a structured imagemath error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new error. Use -1 as position when the error is not
// tied to a location in the expression text.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Errorf creates a positionless error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...), -1)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, types.NewError(types.ErrForbiddenName, "", -1)) matches.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Kind returns the family of the error.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// CodeOf extracts the code of the first *Error in err's chain.
// It returns the empty code when err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// KindOf extracts the family of the first *Error in err's chain.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}
