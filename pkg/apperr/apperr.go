// Package apperr holds the error taxonomy shared by every layer of drafthub.
//
// Each failure is an *Error tagged with a Kind. Callers test for a kind with
// errors.Is against the exported sentinels:
//
//	if errors.Is(err, apperr.ErrNotFound) { ... }
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuth
	KindNotAuthenticated
	KindNotFound
	KindGeneration
	KindConfiguration
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotAuthenticated:
		return "not authenticated"
	case KindNotFound:
		return "not found"
	case KindGeneration:
		return "generation"
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "article.update"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error of the same kind with no
// operation or message of its own, which is how the sentinels are built.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

var (
	ErrAuth             = &Error{Kind: KindAuth}
	ErrNotAuthenticated = &Error{Kind: KindNotAuthenticated}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrGeneration       = &Error{Kind: KindGeneration}
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrValidation       = &Error{Kind: KindValidation}
)

func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Auth(op string, err error) error { return Wrap(KindAuth, op, err) }

func NotAuthenticated(op string) error {
	return New(KindNotAuthenticated, op, "no active session")
}

func NotFound(op, what string) error {
	return New(KindNotFound, op, what+" not found")
}

func Generation(op, format string, args ...any) error {
	return New(KindGeneration, op, fmt.Sprintf(format, args...))
}

func Configuration(op, msg string) error { return New(KindConfiguration, op, msg) }

func Validation(op, msg string) error { return New(KindValidation, op, msg) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
