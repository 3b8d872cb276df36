package core

import (
	"errors"
	"fmt"
)

// Predefined errors returned by sqlforge operations.
var (
	// ErrBuilder matches every error raised while assembling a statement.
	ErrBuilder = errors.New("query builder error")
	// ErrNoRows is returned when a query that expects rows returns no results.
	ErrNoRows = errors.New("no rows in result set")
	// ErrUnsupportedDialect is returned when no dialect is registered for a driver.
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	// ErrNoConnection is returned when a statement is executed without a Conn.
	ErrNoConnection = errors.New("no connection")
)

// ErrorKind classifies builder errors.
type ErrorKind int

const (
	// KindMissing reports absent required state: table, condition, columns, rows.
	KindMissing ErrorKind = iota + 1
	// KindInvalid reports an invalid input type, shape or range.
	KindInvalid
	// KindMismatch reports INSERT rows whose columns differ from the first row.
	KindMismatch
	// KindSyntax reports a condition grammar violation found by Cond.Build.
	KindSyntax
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindInvalid:
		return "invalid"
	case KindMismatch:
		return "mismatch"
	case KindSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// Error is the single error type raised by the builders.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is reports whether target is ErrBuilder or an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if target == ErrBuilder {
		return true
	}
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind && (other.Msg == "" || other.Msg == e.Msg)
	}
	return false
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func missingf(format string, args ...interface{}) *Error {
	return newError(KindMissing, format, args...)
}

func invalidf(format string, args ...interface{}) *Error {
	return newError(KindInvalid, format, args...)
}

func syntaxf(format string, args ...interface{}) *Error {
	return newError(KindSyntax, format, args...)
}

// IsKind reports whether err is a builder error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// WrapError wraps an error with additional context message.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
