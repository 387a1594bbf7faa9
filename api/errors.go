// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-stream.

package api

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors used across the library.
var (
	// ErrInsufficientData is returned when a chain operation asks for more
	// bytes than are buffered. It indicates a caller bug, never wire input.
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStreamClosed     = errors.New("stream is closed")
	ErrReactorStopped   = errors.New("reactor is stopped")
	ErrNotSupported     = errors.New("operation not supported")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeInsufficientData
	ErrCodeMalformedFrame
	ErrCodeDecompression
	ErrCodeStream
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeInsufficientData:
		return "insufficient_data"
	case ErrCodeMalformedFrame:
		return "malformed_frame"
	case ErrCodeDecompression:
		return "decompression"
	case ErrCodeStream:
		return "stream"
	default:
		return "internal"
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Unwrap exposes the sentinel the error was built from.
func (e *Error) Unwrap() error { return e.cause }

// Cause supports github.com/pkg/errors.Cause.
func (e *Error) Cause() error { return e.cause }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// InsufficientData reports a request for want bytes when only have are buffered.
func InsufficientData(want, have int) error {
	e := NewError(ErrCodeInsufficientData, fmt.Sprintf("insufficient data: want %d, have %d", want, have))
	e.cause = ErrInsufficientData
	return errors.WithStack(e.WithContext("want", want).WithContext("have", have))
}

// InvalidArgument reports a negative or out-of-range length argument.
func InvalidArgument(name string, value int) error {
	e := NewError(ErrCodeInvalidArgument, fmt.Sprintf("invalid argument %s=%d", name, value))
	e.cause = ErrInvalidArgument
	return errors.WithStack(e.WithContext(name, value))
}

// MalformedFrameError is reported by codecs that meet framing they cannot parse.
type MalformedFrameError struct {
	Codec  string
	Reason string
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("%s: malformed frame: %s", e.Codec, e.Reason)
}

// Code returns ErrCodeMalformedFrame.
func (e *MalformedFrameError) Code() ErrorCode { return ErrCodeMalformedFrame }

// NewMalformedFrame builds a stack-carrying MalformedFrameError.
func NewMalformedFrame(codec, format string, args ...any) error {
	return errors.WithStack(&MalformedFrameError{Codec: codec, Reason: fmt.Sprintf(format, args...)})
}

// DecompressionError wraps a failure of the underlying decompressor.
type DecompressionError struct {
	Format string
	Err    error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("%s: corrupt stream: %v", e.Format, e.Err)
}

func (e *DecompressionError) Unwrap() error { return e.Err }

// Code returns ErrCodeDecompression.
func (e *DecompressionError) Code() ErrorCode { return ErrCodeDecompression }

// StreamError is a generic upstream-reported failure carrying the original cause.
type StreamError struct {
	Op    string
	Cause error
}

func (e *StreamError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("stream error: %v", e.Cause)
	}
	return fmt.Sprintf("stream error: %s: %v", e.Op, e.Cause)
}

func (e *StreamError) Unwrap() error { return e.Cause }

// Code returns ErrCodeStream.
func (e *StreamError) Code() ErrorCode { return ErrCodeStream }

// NewStreamError wraps cause into a StreamError unless it already carries a
// code from this package.
func NewStreamError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	if CodeOf(cause) != ErrCodeInternal {
		return cause
	}
	return &StreamError{Op: op, Cause: cause}
}

// CodeOf classifies err by the first coded error found in its chain.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var coded interface{ Code() ErrorCode }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}
