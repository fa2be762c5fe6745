// Package wire holds the shared error taxonomy for the wire-format
// codecs. Decode failures are local and non-retryable: they indicate a
// non-conforming caller and are surfaced before any request reaches the
// dispatch path.
package wire

import "fmt"

// DecodeError reports a malformed or unrecognized wire payload. Path is
// the JSON coding path of the offending field (e.g. "input[2].type") and
// Tag the unexpected discriminator value, when one was involved.
type DecodeError struct {
	Path string
	Tag  string
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("decode %s: unexpected tag %q", e.Path, e.Tag)
	}

	return fmt.Sprintf("decode %s: %s", e.Path, e.Msg)
}

// NewDecodeError builds a DecodeError for a non-tag failure at path.
func NewDecodeError(path, format string, args ...any) *DecodeError {
	return &DecodeError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// NewTagError builds a DecodeError for an unknown discriminator value.
func NewTagError(path, tag string) *DecodeError {
	return &DecodeError{Path: path, Tag: tag}
}

// UnsupportedToolChoiceError reports a tool-choice variant that cannot be
// represented in the target wire format. It is surfaced to the caller
// rather than silently dropped.
type UnsupportedToolChoiceError struct {
	Choice string
	Target string
}

func (e *UnsupportedToolChoiceError) Error() string {
	return fmt.Sprintf("tool choice %q cannot be represented in %s", e.Choice, e.Target)
}
