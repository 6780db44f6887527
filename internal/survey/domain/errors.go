package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies every error the service can surface.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindTokenMissing   Kind = "token_missing"
	KindTokenExpired   Kind = "token_expired"
	KindTokenMalformed Kind = "token_malformed"
	KindNotFound       Kind = "not_found"
	KindStore          Kind = "store"
	KindInternal       Kind = "internal"
)

// MissingTokenMessage is returned to clients that call an identity route without a token.
const MissingTokenMessage = "You must supply a JWT as a bearer token in the auth headers to access that resource."

// FieldError names one offending input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

// Error carries a Kind plus enough context to render it on the wire.
// Err holds internal detail that must never reach the client.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.String())
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Validation builds a validation error listing the offending fields.
func Validation(fields ...FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "request validation failed",
		Fields:  fields,
	}
}

func TokenMissing() *Error {
	return &Error{Kind: KindTokenMissing, Message: MissingTokenMessage}
}

func TokenExpired(err error) *Error {
	return &Error{Kind: KindTokenExpired, Message: "the supplied token has expired", Err: err}
}

func TokenMalformed(err error) *Error {
	return &Error{Kind: KindTokenMalformed, Message: "the supplied token is invalid", Err: err}
}

// NotFound reports that no record matched the given identifier.
func NotFound(resource string, id SurveyID) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

// StoreFailure wraps a persistence error. The cause is logged, never echoed.
func StoreFailure(op string, err error) *Error {
	return &Error{Kind: KindStore, Message: op + " failed", Err: err}
}

// Internal wraps a failure that is neither input nor persistence related, such as token signing.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: op + " failed", Err: err}
}

// KindOf returns the Kind of err. Errors that are not *Error count as store failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return KindStore
}
