package classfile

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural problems in a class file. Callers can
// match these with errors.Is even when they are wrapped in a ParseError.
var (
	// ErrReadFailed wraps I/O failures from ParseReader and ParseFile,
	// keeping them distinguishable from structural parse errors.
	ErrReadFailed = errors.New("read failed")

	// ErrInvalidMagic indicates the file does not start with 0xCAFEBABE.
	ErrInvalidMagic = errors.New("invalid magic number")

	// ErrUnsupportedVersion indicates the class file version is outside
	// the range accepted by the configured version gate.
	ErrUnsupportedVersion = errors.New("unsupported class file version")

	// ErrTruncated indicates the data ended before a structure was complete.
	ErrTruncated = errors.New("unexpected end of class file data")

	// ErrInvalidConstantTag indicates an unknown constant pool tag byte.
	// The constant pool cannot be skipped past an unknown tag, so this is
	// always fatal.
	ErrInvalidConstantTag = errors.New("invalid constant pool tag")

	// ErrIndexOutOfRange indicates a constant pool index that is zero,
	// beyond the pool count, or refers to the unusable slot that follows
	// a Long or Double entry.
	ErrIndexOutOfRange = errors.New("constant pool index out of range")

	// ErrConstantTypeMismatch indicates a constant pool entry did not have
	// the type required by the referencing structure.
	ErrConstantTypeMismatch = errors.New("constant pool type mismatch")

	// ErrMalformedAttribute indicates an attribute payload whose contents
	// do not match its declared layout.
	ErrMalformedAttribute = errors.New("malformed attribute")
)

// ParseError reports a structural error together with the byte offset in
// the original data at which it was detected.
type ParseError struct {
	Offset int
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// errAt wraps err with the offset at which it occurred.
func errAt(offset int, err error) error {
	return &ParseError{Offset: offset, Err: err}
}
