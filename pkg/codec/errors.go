package codec

import (
	"errors"
	"fmt"
	"strings"
)

// Errors
var (
	ErrCorruptFrame         = errors.New("corrupt frame")
	ErrUnknownValueEncoding = errors.New("unknown value size encoding")
	ErrTrailingData         = errors.New("trailing data after frame")
)

// FrameError reports a frame that could not be decoded
type FrameError struct {
	Type    string // Go type of the record being decoded
	Offset  int    // Offset of the frame header in its input
	Version int32
	Length  int32
	Msg     string
	Err     error
}

func frameErrf(rec any, off int, version, length int32, err error, format string, args ...any) *FrameError {
	return &FrameError{
		Type:    typeName(rec),
		Offset:  off,
		Version: version,
		Length:  length,
		Msg:     fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (e *FrameError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Type)
	fmt.Fprintf(&buf, " frame at %d (v%d, %d bytes)", e.Offset, e.Version, e.Length)
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Is makes every FrameError match ErrCorruptFrame
func (e *FrameError) Is(target error) bool {
	return target == ErrCorruptFrame
}

// PayloadError reports a frame whose header was valid but whose payload failed
// to decode. The reader has already moved past the frame.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return e.Err.Error()
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// ElementError describes one list element that was skipped
type ElementError struct {
	Index int
	Err   error
}

// ListError reports list elements whose payload failed to decode. The
// remaining elements were decoded normally.
type ListError struct {
	Count  int
	Failed []ElementError
}

func (e *ListError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%d of %d list elements failed", len(e.Failed), e.Count)
	for i, f := range e.Failed {
		if i == 3 {
			fmt.Fprintf(&buf, "; and %d more", len(e.Failed)-i)
			break
		}
		fmt.Fprintf(&buf, "; [%d]: %v", f.Index, f.Err)
	}
	return buf.String()
}

func (e *ListError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
}
