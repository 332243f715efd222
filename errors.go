package av

import (
	"errors"
	"fmt"
)

// Sentinel errors. ErrAgain is the backpressure signal of the pump
// protocol: the caller must drain pending output with Take before
// retrying the failed Push or Flush.
var (
	ErrAgain                = errors.New("not ready, drain output and retry")
	ErrCodecNotFound        = errors.New("codec not found")
	ErrFilterNotFound       = errors.New("filter not found")
	ErrFormatNotFound       = errors.New("format not found")
	ErrUnknownSampleFormat  = errors.New("unknown sample format")
	ErrUnknownPixelFormat   = errors.New("unknown pixel format")
	ErrUnknownChannelLayout = errors.New("unknown channel layout")
	ErrLibraryNotLoaded     = errors.New("ffmpeg libraries not loaded")
)

// IsAgain reports whether an error is the transient backpressure signal
// rather than a real failure.
func IsAgain(err error) bool {
	return errors.Is(err, ErrAgain)
}

// wrapNotLoaded tags a library load failure so that callers can test for
// it with errors.Is(err, ErrLibraryNotLoaded).
func wrapNotLoaded(err error) error {
	return fmt.Errorf("%w: %v", ErrLibraryNotLoaded, err)
}

// Error is a failure reported either by the native libraries (carrying
// the raw status code) or by the wrapper itself.
type Error struct {
	code int32
	msg  string
}

func newError(msg string) *Error {
	return &Error{msg: msg}
}

func newErrorf(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

func errorFromRaw(code int32) *Error {
	return &Error{code: code}
}

// Code returns the native status code, or 0 for wrapper-level errors.
func (e *Error) Code() int32 {
	return e.code
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return nativeErrorString(e.code)
}

// nativeErrorString resolves a native status code to a message. The
// binding layer swaps in av_strerror once the libraries are loaded.
var nativeErrorString = func(code int32) string {
	return fmt.Sprintf("ffmpeg error %d", code)
}

// CodecError is the error type of Push and Flush on every processing
// unit. It distinguishes the transient Again signal from fatal
// processing errors; errors.Is(err, ErrAgain) holds exactly for the
// former.
type CodecError struct {
	msg   string
	inner error
	again bool
}

func codecError(err error) *CodecError {
	return &CodecError{inner: err}
}

func againError(msg string) *CodecError {
	return &CodecError{msg: msg, again: true}
}

// IsAgain reports whether the error is the backpressure signal.
func (e *CodecError) IsAgain() bool {
	return e.again
}

func (e *CodecError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return e.inner.Error()
}

func (e *CodecError) Unwrap() error {
	if e.again {
		return ErrAgain
	}
	return e.inner
}
