package tlog

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is matched by every structural format error: unknown
// markers, unknown class codes, and unknown scalar type codes.
var ErrInvalidFormat = errors.New("invalid log format")

// ErrTruncated indicates the input ended in the middle of a record, or that a
// stream's accumulated payload was not a whole number of samples.
var ErrTruncated = errors.New("truncated log")

// UnknownMarkerError indicates an unrecognized record marker byte.
type UnknownMarkerError struct {
	Marker byte
}

func (e UnknownMarkerError) Error() string {
	return fmt.Sprintf("unknown record marker 0x%02x", e.Marker)
}

func (e UnknownMarkerError) Is(target error) bool {
	if errors.Is(target, ErrInvalidFormat) {
		return true
	}
	_, ok := target.(UnknownMarkerError)
	return ok
}

// UnknownClassError indicates a metadata record with an unrecognized data
// class code.
type UnknownClassError struct {
	StreamID uint32
	Class    byte
}

func (e UnknownClassError) Error() string {
	return fmt.Sprintf("stream %d: unknown data class %d", e.StreamID, e.Class)
}

func (e UnknownClassError) Is(target error) bool {
	if errors.Is(target, ErrInvalidFormat) {
		return true
	}
	_, ok := target.(UnknownClassError)
	return ok
}

// UnknownTypeError indicates a metadata record with an unrecognized scalar
// type code.
type UnknownTypeError struct {
	StreamID uint32
	Code     byte
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("stream %d: unknown scalar type %d", e.StreamID, e.Code)
}

func (e UnknownTypeError) Is(target error) bool {
	if errors.Is(target, ErrInvalidFormat) {
		return true
	}
	_, ok := target.(UnknownTypeError)
	return ok
}

// StreamNotFoundError indicates a label or data record referencing a stream
// id with no preceding metadata record.
type StreamNotFoundError struct {
	StreamID uint32
}

func (e StreamNotFoundError) Error() string {
	return fmt.Sprintf("stream %d not declared", e.StreamID)
}

func (e StreamNotFoundError) Is(target error) bool {
	_, ok := target.(StreamNotFoundError)
	return ok
}

// SourceUnavailableError indicates the log source could not be opened. It is
// distinct from the format errors so callers can tell a missing file from a
// corrupt one.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e SourceUnavailableError) Error() string {
	return fmt.Sprintf("log source %s unavailable: %v", e.Path, e.Err)
}

func (e SourceUnavailableError) Is(target error) bool {
	_, ok := target.(SourceUnavailableError)
	return ok
}

func (e SourceUnavailableError) Unwrap() error {
	return e.Err
}
