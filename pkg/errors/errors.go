// Package errors classifies application-level failures so callers can
// branch on what went wrong without matching message text. Parse-level
// sentinels stay in the packages that raise them; this package covers
// the operational layer around scans: storage, persistence, and the
// serving surface.
package errors

import (
	"errors"
	"fmt"
)

// Failure codes. Codes are stable strings so they can be logged and
// compared across process boundaries.
const (
	CodeUnknown      = "UNKNOWN"
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidInput = "INVALID_INPUT"
	CodeUpload       = "UPLOAD_FAILED"
	CodeDownload     = "DOWNLOAD_FAILED"
	CodeStorage      = "STORAGE_FAILED"
	CodeDatabase     = "DATABASE_FAILED"
	CodeConfig       = "CONFIG_INVALID"
)

// AppError is a classified failure. Code drives control flow, Message
// names the operation or object, and Err carries the cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error renders "[CODE] message: cause".
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by code, so errors.Is treats two
// failures of the same class as equal regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New builds a classified error with no underlying cause.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap classifies an existing error.
func Wrap(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NotFound reports that a named object does not exist.
func NotFound(what string) *AppError {
	return New(CodeNotFound, what+" not found")
}

// WrapUpload classifies a failed artifact upload.
func WrapUpload(key string, err error) *AppError {
	return Wrap(CodeUpload, "failed to upload "+key, err)
}

// WrapDownload classifies a failed artifact download.
func WrapDownload(key string, err error) *AppError {
	return Wrap(CodeDownload, "failed to download "+key, err)
}

// WrapStorage classifies a failed storage operation other than a
// transfer, for example a delete or an existence check.
func WrapStorage(op string, err error) *AppError {
	return Wrap(CodeStorage, op, err)
}

// IsNotFound reports whether err is classified CodeNotFound anywhere
// in its chain.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// CodeOf extracts the failure code, or CodeUnknown when err carries
// no classification.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// MessageOf extracts the classified message, falling back to the
// error text for unclassified errors.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
