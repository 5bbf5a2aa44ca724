package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodePrecondition Code = "PRECONDITION_FAILED"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is presented to the person driving the client.
type Metadata struct {
	HTTPStatus    int
	PublicMessage string
	// Notify reports whether the failure should surface as a notification.
	// Precondition failures are prevented up front and auth failures redirect.
	Notify bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "validation failed",
		Notify:        true,
	},
	CodePrecondition: {
		HTTPStatus:    http.StatusPreconditionFailed,
		PublicMessage: "action not available",
		Notify:        false,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
		Notify:        false,
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
		Notify:        true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		Notify:        false,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
		Notify:        true,
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "too many requests",
		Notify:        true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "something went wrong",
		Notify:        true,
	},
	CodeDependency: {
		HTTPStatus:    http.StatusServiceUnavailable,
		PublicMessage: "service unavailable",
		Notify:        true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// CodeForStatus maps a server response status onto the client taxonomy.
func CodeForStatus(status int) Code {
	switch {
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return CodeValidation
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusTooManyRequests:
		return CodeRateLimit
	case status >= http.StatusInternalServerError:
		return CodeDependency
	default:
		return CodeInternal
	}
}

// FromHTTPStatus builds a typed error for a non-2xx response.
func FromHTTPStatus(status int, message string) *Error {
	code := CodeForStatus(status)
	if message == "" {
		message = MetadataFor(code).PublicMessage
	}
	return New(code, message).WithDetails(map[string]any{"status": status})
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// PublicMessage returns the text shown to the user for err.
func PublicMessage(err error) string {
	typed := As(err)
	if typed == nil {
		return MetadataFor(CodeInternal).PublicMessage
	}
	if m := typed.Message(); m != "" {
		return m
	}
	return MetadataFor(typed.Code()).PublicMessage
}

// ShouldNotify reports whether err surfaces as a user notification. Untyped
// errors always do; typed ones follow their code's metadata.
func ShouldNotify(err error) bool {
	if err == nil {
		return false
	}
	typed := As(err)
	if typed == nil {
		return true
	}
	return MetadataFor(typed.Code()).Notify
}
