package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure by how it is surfaced to the user
type ErrorKind string

const (
	// KindConfiguration: catalog missing or unparsable, generation unavailable
	KindConfiguration ErrorKind = "configuration"
	// KindValidation: bad user input, no network call was made
	KindValidation ErrorKind = "validation"
	// KindService: the generation request failed or was rejected
	KindService ErrorKind = "service"
	// KindTransport: fetching or decoding the generated image failed
	KindTransport ErrorKind = "transport"
	KindUnknown   ErrorKind = "unknown"
)

// Error is a classified, user-facing error
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(msg string, err error) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg, Err: err}
}

// NewValidationError creates a validation error
func NewValidationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Err: err}
}

// NewServiceError creates a service error
func NewServiceError(msg string, err error) *Error {
	return &Error{Kind: KindService, Msg: msg, Err: err}
}

// NewTransportError creates a transport error
func NewTransportError(msg string, err error) *Error {
	return &Error{Kind: KindTransport, Msg: msg, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
