package platform

import (
	"errors"
	"fmt"
)

// Kind classifies a platform failure. Boundary implementations map every
// collaborator error onto one of these so the lock controller and command
// handlers can dispatch on kind.
type Kind int

const (
	// KindUnexpected is the default for failures that fit no other kind.
	KindUnexpected Kind = iota
	// KindPermissionDenied means the bot lacks privilege for the action.
	KindPermissionDenied
	// KindNotFound means the target user, channel, or overwrite is gone.
	KindNotFound
	// KindTransient means a transport-level failure worth treating as
	// temporary (the next naturally occurring trigger is the retry).
	KindTransient
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission-denied"
	case KindNotFound:
		return "not-found"
	case KindTransient:
		return "transient"
	default:
		return "unexpected"
	}
}

// Error is a classified platform failure. Op names the failed action in
// "package: verb" form.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PermissionDenied wraps err as a permission-denied platform error.
func PermissionDenied(op string, err error) error {
	return &Error{Kind: KindPermissionDenied, Op: op, Err: err}
}

// NotFound wraps err as a not-found platform error.
func NotFound(op string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

// Transient wraps err as a transient platform error.
func Transient(op string, err error) error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// Unexpected wraps err as an unexpected platform error.
func Unexpected(op string, err error) error {
	return &Error{Kind: KindUnexpected, Op: op, Err: err}
}

// KindOf returns the kind of a platform error, or KindUnexpected for nil
// and foreign errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnexpected
}

// IsNotFound reports whether err is a not-found platform error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsPermissionDenied reports whether err is a permission-denied platform error.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == KindPermissionDenied
}
