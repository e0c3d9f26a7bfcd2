package common

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes carried by AppError.
const (
	CodeAdapter  = "ADAPTER_ERROR"
	CodeDecode   = "DECODE_ERROR"
	CodeTimeout  = "TIMEOUT"
	CodeConfig   = "CONFIG_ERROR"
	CodeInput    = "INVALID_INPUT"
	CodeInternal = "INTERNAL"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrAdapter      = errors.New("model adapter failed")
	ErrDecode       = errors.New("model response could not be decoded")
	ErrTimeout      = errors.New("model call timed out")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAdapterError wraps a failed model invocation.
func NewAdapterError(message string, cause error) *AppError {
	return NewAppError(CodeAdapter, message, joinCause(ErrAdapter, cause))
}

// NewDecodeError wraps a response that is not the expected structured shape.
func NewDecodeError(message string, cause error) *AppError {
	return NewAppError(CodeDecode, message, joinCause(ErrDecode, cause))
}

// NewTimeoutError marks a model call that ran past its deadline.
func NewTimeoutError(message string, cause error) *AppError {
	return NewAppError(CodeTimeout, message, joinCause(ErrTimeout, cause))
}

func joinCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

func IsAdapterError(err error) bool { return errors.Is(err, ErrAdapter) }
func IsDecodeError(err error) bool  { return errors.Is(err, ErrDecode) }
func IsTimeout(err error) bool      { return errors.Is(err, ErrTimeout) }

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ToStatus maps pipeline errors onto gRPC status codes.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case IsAdapterError(err):
		return status.Error(codes.Unavailable, err.Error())
	case IsDecodeError(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func UnavailableError(message string) error {
	return status.Error(codes.Unavailable, message)
}
