package convertutil

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// ConvertError is a custom error type for adding context, attributes and a
// stack trace to errors raised anywhere in the describer or its emitters.
type ConvertError struct {
	OriginalErr error
	Message     string
	Stack       string
	Attrs       []slog.Attr
}

func (e *ConvertError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
	}
	return e.Message
}

func (e *ConvertError) Unwrap() error {
	return e.OriginalErr
}

const maxStackLength = 8192

// NewError creates a new ConvertError without an original error.
func NewError(message string, attrs ...slog.Attr) *ConvertError {
	return newConvertError(nil, message, attrs...)
}

// WrapError creates a new ConvertError, wrapping an existing error.
func WrapError(err error, message string, attrs ...slog.Attr) *ConvertError {
	return newConvertError(err, message, attrs...)
}

func newConvertError(originalErr error, message string, attrs ...slog.Attr) *ConvertError {
	buf := make([]byte, maxStackLength)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	var ce *ConvertError
	if errors.As(originalErr, &ce) {
		combinedAttrs := append(append([]slog.Attr{}, ce.Attrs...), attrs...)
		newMessage := message
		if ce.Message != "" {
			newMessage = fmt.Sprintf("%s: %s", message, ce.Message)
		}
		return &ConvertError{
			OriginalErr: ce.OriginalErr,
			Message:     newMessage,
			Stack:       ce.Stack,
			Attrs:       combinedAttrs,
		}
	}

	return &ConvertError{
		OriginalErr: originalErr,
		Message:     message,
		Stack:       stack,
		Attrs:       attrs,
	}
}

// LogError logs a ConvertError with its structured context and stack trace.
// If the error is not a ConvertError, it is logged as a plain error message.
func LogError(logger *slog.Logger, err error) {
	if err == nil {
		return
	}

	var ce *ConvertError
	if errors.As(err, &ce) {
		logAttrs := []any{slog.String("error_message", ce.Message)}
		if ce.OriginalErr != nil {
			logAttrs = append(logAttrs, slog.String("original_error", ce.OriginalErr.Error()))
		}
		logAttrs = append(logAttrs, slog.String("stack_trace", ce.Stack))
		for _, attr := range ce.Attrs {
			logAttrs = append(logAttrs, attr)
		}
		logger.Error("An error occurred", logAttrs...)
		return
	}
	logger.Error("An error occurred", slog.String("error", err.Error()))
}

// Sentinel error kinds. They are wrapped, not replaced, so
// errors.Is still matches through a ConvertError chain.
var (
	// ErrCancelled is returned by a pipeline or orchestrator run that observed
	// cooperative cancellation before completing.
	ErrCancelled = errors.New("describe: cancelled")
	// ErrInternalInvariant indicates a statistician merge detected an
	// invariant violation; always a bug, never a data problem.
	ErrInternalInvariant = errors.New("describe: internal invariant violated")
)

// OpenError reports that an input resource's file could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string { return fmt.Sprintf("open %s: %v", e.Path, e.Err) }
func (e *OpenError) Unwrap() error { return e.Err }

// DialectError reports that no delimiter candidate could be sniffed.
type DialectError struct {
	Path string
}

func (e *DialectError) Error() string { return fmt.Sprintf("%s: no delimiter candidate found", e.Path) }

// HeaderError reports an empty header row or zero columns.
type HeaderError struct {
	Path string
}

func (e *HeaderError) Error() string { return fmt.Sprintf("%s: empty or zero-column header", e.Path) }

// RowShapeError reports a cell-count mismatch on one row. It is recoverable:
// the row is skipped and the error recorded in the resource's parse-error list.
type RowShapeError struct {
	RowIndex int
	Expected int
	Actual   int
}

func (e *RowShapeError) Error() string {
	return fmt.Sprintf("row %d: expected %d fields, got %d", e.RowIndex, e.Expected, e.Actual)
}

// EncodingError reports invalid bytes on one row; handled identically to RowShapeError.
type EncodingError struct {
	RowIndex int
	Err      error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("row %d: encoding error: %v", e.RowIndex, e.Err) }
func (e *EncodingError) Unwrap() error { return e.Err }
