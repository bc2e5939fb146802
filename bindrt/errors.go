package bindrt

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrViewResize is returned when inserting into or resizing a view.
	ErrViewResize = errors.New("bindrt: views cannot change the size of native storage")
	// ErrReadOnly is returned when mutating through a read-only view or handle.
	ErrReadOnly = errors.New("bindrt: read-only")
	// ErrMoved is returned when using an object whose ownership moved to
	// the native side.
	ErrMoved = errors.New("bindrt: object ownership was moved")
	// ErrClosed is returned when using an object after Close.
	ErrClosed = errors.New("bindrt: object is closed")
	// ErrNotKey is returned when a value cannot key an ordered or hash container.
	ErrNotKey = errors.New("bindrt: value cannot be used as a container key")
)

// NativeError is a failure raised by the native side. Error returns the
// native message unchanged.
type NativeError struct {
	// Symbol is the native callable that failed.
	Symbol string
	// Message is the native failure message.
	Message string
	// Err is the error reported by the bridge, if any.
	Err error
}

func (e *NativeError) Error() string {
	return e.Message
}

func (e *NativeError) Unwrap() error {
	return e.Err
}

// NewNativeError wraps err as a NativeError for symbol. Errors that already
// are NativeErrors are returned unchanged.
func NewNativeError(symbol string, err error) error {
	if err == nil {
		return nil
	}

	var native *NativeError
	if errors.As(err, &native) {
		if native.Symbol == "" {
			native.Symbol = symbol
		}

		return native
	}

	return &NativeError{Symbol: symbol, Message: err.Error(), Err: err}
}

// TypeError reports a managed value that does not fit the native type it is
// converted to.
type TypeError struct {
	Symbol string
	// Arg is the argument position, or -1 for results and containers.
	Arg  int
	Want string
	Got  any
}

func (e *TypeError) Error() string {
	where := e.Symbol
	if e.Arg >= 0 {
		where = fmt.Sprintf("%s: argument %d", e.Symbol, e.Arg)
	}

	if where != "" {
		where += ": "
	}

	return fmt.Sprintf("%swant %s, got %s", where, e.Want, typeName(e.Got))
}

func typeName(v any) string {
	args, ok := v.([]any)
	if !ok {
		return fmt.Sprintf("%T", v)
	}

	names := make([]string, len(args))
	for i, a := range args {
		names[i] = fmt.Sprintf("%T", a)
	}

	return "(" + strings.Join(names, ", ") + ")"
}

func typeError(want string, got any) error {
	return &TypeError{Arg: -1, Want: want, Got: got}
}
