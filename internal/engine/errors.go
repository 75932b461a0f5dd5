package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strconv"
)

// errorPrefix begins the rendering of every Error.
const errorPrefix = "Docker Error"

// description identifies the error domain. It does not vary by Kind.
const description = "docker engine client error"

// Kind identifies the layer an Error originated in.
type Kind int

const (
	KindUnknown Kind = iota

	// A JSON value could not be decoded into the typed result
	KindDecoding

	// A typed value could not be serialized to JSON
	KindEncoding

	// Raw text was not well-formed JSON
	KindParse

	// The HTTP transport failed: connection, protocol or timeout
	KindTransport

	// A local read or write failed
	KindIO

	// The daemon answered with a non-success status
	KindFault
)

func (k Kind) String() string {
	switch k {
	case KindDecoding:
		return "decoding"
	case KindEncoding:
		return "encoding"
	case KindParse:
		return "parse"
	case KindTransport:
		return "transport"
	case KindIO:
		return "io"
	case KindFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by Client. Exactly one kind is
// active per value. The five wrapped kinds keep the collaborator's failure
// as-is and expose it through Cause and Unwrap; KindFault carries the status
// code and message the daemon responded with and has no cause.
//
// An Error is immutable once built.
type Error struct {
	kind    Kind
	err     error
	code    int
	message string
}

// WrapDecoding classifies err as a failure to decode JSON into a typed value.
func WrapDecoding(err error) *Error {
	return &Error{kind: KindDecoding, err: err}
}

// WrapEncoding classifies err as a failure to serialize a value to JSON.
func WrapEncoding(err error) *Error {
	return &Error{kind: KindEncoding, err: err}
}

// WrapParse classifies err as a failure to parse text as JSON.
func WrapParse(err error) *Error {
	return &Error{kind: KindParse, err: err}
}

// WrapTransport classifies err as a failure of the HTTP transport.
func WrapTransport(err error) *Error {
	return &Error{kind: KindTransport, err: err}
}

// WrapIO classifies err as a failure of a local I/O operation.
func WrapIO(err error) *Error {
	return &Error{kind: KindIO, err: err}
}

// NewFault builds the error for a response with a non-success status. Neither
// argument is validated.
func NewFault(code int, message string) *Error {
	return &Error{kind: KindFault, code: code, message: message}
}

// Error renders the error on a single line. Wrapped kinds forward the
// rendering of their cause; a fault renders its status code only.
func (e *Error) Error() string {
	if e.kind == KindFault {
		return errorPrefix + ": " + strconv.Itoa(e.code)
	}
	if e.err == nil {
		return errorPrefix + ": <nil>"
	}
	return errorPrefix + ": " + e.err.Error()
}

// Description returns a constant naming the error domain.
func (e *Error) Description() string {
	return description
}

// Kind reports which layer the error originated in.
func (e *Error) Kind() Kind {
	return e.kind
}

// Cause returns the wrapped failure, or nil for a fault.
func (e *Error) Cause() error {
	if e.kind == KindFault {
		return nil
	}
	return e.err
}

// Unwrap makes the cause visible to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause()
}

// Code returns the response status code of a fault, zero otherwise.
func (e *Error) Code() int {
	return e.code
}

// Message returns the message of a fault, empty otherwise.
func (e *Error) Message() string {
	return e.message
}

// From converts err into an *Error in one step. A nil err yields nil and an
// err that already is an *Error is returned unchanged. Otherwise the chain is
// inspected to choose the kind; failures matching no collaborator are
// treated as I/O failures.
func From(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case isParseError(err):
		return WrapParse(err)
	case isDecodeError(err):
		return WrapDecoding(err)
	case isEncodeError(err):
		return WrapEncoding(err)
	case isTransportError(err):
		return WrapTransport(err)
	default:
		return WrapIO(err)
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

func isParseError(err error) bool {
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr)
}

func isDecodeError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	var invalidErr *json.InvalidUnmarshalError
	return errors.As(err, &typeErr) || errors.As(err, &invalidErr)
}

func isEncodeError(err error) bool {
	var typeErr *json.UnsupportedTypeError
	var valueErr *json.UnsupportedValueError
	var marshalerErr *json.MarshalerError
	return errors.As(err, &typeErr) || errors.As(err, &valueErr) || errors.As(err, &marshalerErr)
}

// isTransportError matches the concrete error types of the net and net/http
// stack. A bare errno also satisfies net.Error, so the interface alone would
// claim local I/O failures.
func isTransportError(err error) bool {
	var urlErr *url.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var addrErr *net.AddrError
	return errors.As(err, &urlErr) ||
		errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.As(err, &addrErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
