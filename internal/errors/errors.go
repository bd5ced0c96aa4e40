package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

type LndHubErrorType int

const (
	UnknownError LndHubErrorType = iota
	// TransportError is a network failure or a non-2xx status.
	TransportError
	// DecodeError is a body that does not parse into the expected shape.
	DecodeError
	// AuthError is an auth exchange without a usable token pair.
	AuthError
	// InvalidInvoiceError is a payment request that is not valid BOLT11.
	InvalidInvoiceError
	// ApplicationError is an error reported by the service inside a well-formed response.
	ApplicationError
)

var typeNames = map[LndHubErrorType]string{
	UnknownError:        "unknown",
	TransportError:      "transport",
	DecodeError:         "decode",
	AuthError:           "auth",
	InvalidInvoiceError: "invalid invoice",
	ApplicationError:    "application",
}

func (t LndHubErrorType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("LndHubErrorType(%d)", int(t))
}

type LndHubError struct {
	Message string          `json:"message"`
	Err     error           `json:"-"`
	Code    LndHubErrorType `json:"code"`
	// Status is the HTTP status of a TransportError, 0 otherwise.
	Status int `json:"status,omitempty"`
}

func (e LndHubError) Error() string {
	j, err := json.Marshal(&e)
	if err != nil {
		return e.Message
	}
	return string(j)
}

func (e LndHubError) Unwrap() error {
	return e.Err
}

// New wraps err into an LndHubError of the given code.
func New(code LndHubErrorType, err error) LndHubError {
	return LndHubError{Err: err, Message: err.Error(), Code: code}
}

// Newf creates an LndHubError from a format string.
func Newf(code LndHubErrorType, format string, args ...interface{}) LndHubError {
	return New(code, fmt.Errorf(format, args...))
}

// Wrap annotates err with message and tags it with code.
func Wrap(code LndHubErrorType, err error, message string) LndHubError {
	return New(code, pkgerrors.Wrap(err, message))
}

// Transport creates a TransportError for a failed HTTP exchange.
func Transport(status int, err error) LndHubError {
	e := New(TransportError, err)
	e.Status = status
	return e
}

// Is reports whether any error in err's chain is an LndHubError of the given code.
func Is(err error, code LndHubErrorType) bool {
	var e LndHubError
	if !pkgerrors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// CodeOf returns the code of the first LndHubError in err's chain.
func CodeOf(err error) LndHubErrorType {
	var e LndHubError
	if !pkgerrors.As(err, &e) {
		return UnknownError
	}
	return e.Code
}

// IsUnauthorized reports a transport failure caused by a rejected bearer token.
// Callers treat it as a signal to refresh the token pair and retry.
func IsUnauthorized(err error) bool {
	var e LndHubError
	if !pkgerrors.As(err, &e) || e.Code != TransportError {
		return false
	}
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}
