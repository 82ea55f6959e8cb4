// Package errors defines the typed error used across services and how each
// code is surfaced over HTTP.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeInvalidQuantity      Code = "INVALID_QUANTITY"
	CodeProductUnavailable   Code = "PRODUCT_UNAVAILABLE"
	CodeOrderNumberCollision Code = "ORDER_NUMBER_COLLISION"
	CodeInvalidTransition    Code = "INVALID_TRANSITION"
	CodePersistence          Code = "PERSISTENCE_FAILURE"

	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is surfaced to API clients. When
// ExposeMessage is set the error's own message replaces PublicMessage.
type Metadata struct {
	HTTPStatus     int
	PublicMessage  string
	Retryable      bool
	DetailsAllowed bool
	ExposeMessage  bool
}

type trait uint8

const (
	retryable trait = 1 << iota
	withDetails
	exposed
)

func meta(status int, public string, traits trait) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		Retryable:      traits&retryable != 0,
		DetailsAllowed: traits&withDetails != 0,
		ExposeMessage:  traits&exposed != 0,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeInvalidInput:         meta(http.StatusBadRequest, "invalid input", withDetails|exposed),
	CodeInvalidQuantity:      meta(http.StatusUnprocessableEntity, "quantity must be a positive whole number", withDetails),
	CodeProductUnavailable:   meta(http.StatusConflict, "item no longer available", withDetails),
	CodeOrderNumberCollision: meta(http.StatusConflict, "could not allocate an order number, please retry", retryable),
	CodeInvalidTransition:    meta(http.StatusConflict, "order status change not allowed", withDetails|exposed),
	CodePersistence:          meta(http.StatusServiceUnavailable, "storage temporarily unavailable", retryable),

	CodeValidation:   meta(http.StatusBadRequest, "validation failed", withDetails|exposed),
	CodeUnauthorized: meta(http.StatusUnauthorized, "authentication required", exposed),
	CodeForbidden:    meta(http.StatusForbidden, "access denied", exposed),
	CodeNotFound:     meta(http.StatusNotFound, "resource not found", exposed),
	CodeConflict:     meta(http.StatusConflict, "conflict detected", exposed),
	CodeIdempotency:  meta(http.StatusConflict, "idempotency key reused", withDetails|exposed),
	CodeRateLimit:    meta(http.StatusTooManyRequests, "rate limit exceeded", retryable|exposed),
	CodeInternal:     meta(http.StatusInternalServerError, "internal server error", retryable),
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded failure with an optional client-safe details payload and
// an internal cause that is only logged.
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
	return &Error{code: code, message: message, cause: err}
}

// Persistence wraps a storage failure. Typed errors pass through untouched so
// a domain failure raised inside a transaction keeps its code.
func Persistence(err error, message string) error {
	switch {
	case err == nil:
		return nil
	case As(err) != nil:
		return err
	default:
		return Wrap(CodePersistence, err, message)
	}
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
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost typed error in err's chain has code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// Retryable reports whether a client may safely repeat the failed call.
// Untyped errors count as internal and are retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(As(err).Code()).Retryable
}
