package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can branch without inspecting messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindAuth
	KindValidation
	KindNotFound
	KindUnauthenticated
)

// Sentinel errors matched by errors.Is against any *Error of the same Kind.
var (
	ErrNetwork         = errors.New("network error")
	ErrAuth            = errors.New("authentication failed")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindAuth:
		return ErrAuth
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindUnauthenticated:
		return ErrUnauthenticated
	default:
		return nil
	}
}

// Error is the typed failure returned by every client operation.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "session.Login"
	Status  int    // HTTP status when the failure came from the server, 0 otherwise
	Message string // human readable, safe to show to a user
	Err     error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	b.WriteString(msg)
	if e.Err != nil && e.Err.Error() != msg {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// New creates an error of the given kind with a user facing message.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return New(kind, op, fmt.Sprintf(format, args...))
}

// Wrap classifies err. If err is already an *Error its Kind, Status and
// Message are kept and only Op is replaced when empty.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		out := *e
		if out.Op == "" {
			out.Op = op
		}
		return &out
	}
	return &Error{Kind: kind, Op: op, Message: err.Error(), Err: err}
}

// WithStatus returns a copy of e carrying the HTTP status.
func (e *Error) WithStatus(status int) *Error {
	out := *e
	out.Status = status
	return &out
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Info is the human readable view of an error kept in query state.
type Info struct {
	Kind    Kind
	Status  int
	Message string
}

// InfoOf converts err into an Info. Returns nil for a nil error.
func InfoOf(err error) *Info {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message
		if msg == "" {
			msg = e.Kind.String()
		}
		return &Info{Kind: e.Kind, Status: e.Status, Message: msg}
	}
	return &Info{Kind: KindUnknown, Message: err.Error()}
}

func (i *Info) String() string {
	if i == nil {
		return ""
	}
	return i.Message
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
