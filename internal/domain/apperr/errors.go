// Package apperr defines the typed error taxonomy shared across NewsLook's
// ingestion subsystem. Each kind is a small struct implementing error,
// meant to be produced with New and inspected with errors.As, following
// the same shape as internal/resilience/retry.HTTPError and
// internal/domain/entity.ValidationError.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind is one of the ten error kinds the ingestion pipeline distinguishes
// for propagation and logging purposes.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindTimeout    Kind = "timeout"
	KindHTTP       Kind = "http"
	KindParse      Kind = "parse"
	KindEncoding   Kind = "encoding"
	KindValidation Kind = "validation"
	KindDuplicate  Kind = "duplicate"
	KindStorage    Kind = "storage"
	KindConfig     Kind = "config"
	KindCancelled  Kind = "cancelled"
)

// Error is the concrete type for every apperr-produced error. It carries a
// correlation id so a caller can echo the same token in logs and in a
// structured API response without re-deriving it.
type Error struct {
	Kind          Kind
	Message       string
	CorrelationID string
	HTTPStatus    int // only meaningful when Kind == KindHTTP
	Cause         error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("[%s] http %d: %s (correlation_id=%s)", e.Kind, e.HTTPStatus, e.Message, e.CorrelationID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v (correlation_id=%s)", e.Kind, e.Message, e.Cause, e.CorrelationID)
	}
	return fmt.Sprintf("[%s] %s (correlation_id=%s)", e.Kind, e.Message, e.CorrelationID)
}

func (e *Error) Unwrap() error { return e.Cause }

// new builds an Error, stamping a fresh correlation id.
func new(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:          kind,
		Message:       message,
		CorrelationID: uuid.NewString(),
		Cause:         cause,
	}
}

// Network wraps a transport failure: DNS, connection reset, TLS.
func Network(message string, cause error) *Error { return new(KindNetwork, message, cause) }

// Timeout wraps a deadline-exceeded condition on an HTTP call or a
// pipeline stage.
func Timeout(message string, cause error) *Error { return new(KindTimeout, message, cause) }

// HTTP wraps a non-retriable upstream HTTP status after retries are
// exhausted.
func HTTP(status int, message string) *Error {
	e := new(KindHTTP, message, nil)
	e.HTTPStatus = status
	return e
}

// Parse wraps an extractor's failure to obtain required fields.
func Parse(message string, cause error) *Error { return new(KindParse, message, cause) }

// Encoding wraps a body that could not be decoded to text under any
// supported charset.
func Encoding(message string, cause error) *Error { return new(KindEncoding, message, cause) }

// Validation wraps a missing or malformed required ingestion field.
func Validation(message string) *Error { return new(KindValidation, message, nil) }

// Duplicate wraps an expected "already present" condition. Never logged
// as an error, only counted.
func Duplicate(message string) *Error { return new(KindDuplicate, message, nil) }

// Storage wraps a SQLite failure other than brief busy contention:
// corruption, disk full, or similar.
func Storage(message string, cause error) *Error { return new(KindStorage, message, cause) }

// Config wraps a bad or missing configuration value discovered at
// startup; callers should treat this as fatal.
func Config(message string, cause error) *Error { return new(KindConfig, message, cause) }

// Cancelled wraps a cooperative-cancellation abort of an in-flight
// suspension point.
func Cancelled(message string) *Error { return new(KindCancelled, message, nil) }

// Is reports whether err carries the given Kind, unwrapping through any
// chain of %w-wrapped causes.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
