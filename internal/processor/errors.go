package processor

import (
	"errors"
	"fmt"
)

// Kind classifies the cause of an adapter failure.
type Kind int

const (
	KindIO Kind = iota + 1
	KindDecode
	KindEncode
	KindUnsupportedPixelLayout
	KindExit
	KindSignaled
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	case KindUnsupportedPixelLayout:
		return "unsupported pixel layout"
	case KindExit:
		return "exit"
	case KindSignaled:
		return "signaled"
	default:
		return "unknown"
	}
}

var (
	ErrSignaled               = errors.New("process terminated by signal")
	ErrUnsupportedPixelLayout = errors.New("unsupported pixel layout")
)

// Error is returned by every adapter in this package.
type Error struct {
	Kind Kind
	Op   string
	// Code is the subprocess exit status for KindExit.
	Code int
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindExit:
		return fmt.Sprintf("%s: exit status %d", e.Op, e.Code)
	case KindSignaled:
		return fmt.Sprintf("%s: %v", e.Op, ErrSignaled)
	}

	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	if e.Kind == KindSignaled && e.Err == nil {
		return ErrSignaled
	}
	return e.Err
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Kind, true
}

// ExitCode reports the subprocess exit status carried by err, if any.
func ExitCode(err error) (int, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindExit {
		return 0, false
	}
	return e.Code, true
}

func ioError(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

func decodeError(op string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

func encodeError(op string, err error) error {
	return &Error{Kind: KindEncode, Op: op, Err: err}
}
