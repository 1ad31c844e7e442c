// Package d holds small panic/recover assertion helpers used internally by
// arena and document to keep invariant checks terse at the call site
// while still surfacing as ordinary errors to callers.
//
// Nothing in this package is part of the public API: every function in
// arena and document that calls one of these assertions runs it inside
// d.Try and turns a panic raised here back into a normal Go error before
// returning.
package d

import "fmt"

// wrappedError pairs a message with the error that caused it, similar to
// errors.Wrap from github.com/pkg/errors but cheap enough to use on
// invariant-check hot paths.
type wrappedError struct {
	msg   string
	cause error
}

func (w wrappedError) Error() string {
	if w.msg == "" {
		return w.cause.Error()
	}
	return w.msg
}

func (w wrappedError) Cause() error {
	return w.cause
}

// Wrap returns err annotated so that Cause(Wrap(err)) == err. Wrapping nil
// returns nil. Wrapping an already-wrapped error is a no-op.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if we, ok := err.(wrappedError); ok {
		return we
	}
	return wrappedError{err.Error(), err}
}

// Unwrap returns the innermost cause of err, or err itself if it was never
// wrapped.
func Unwrap(err error) error {
	for {
		we, ok := err.(wrappedError)
		if !ok {
			return err
		}
		err = we.cause
	}
}

// Panic panics with a formatted error, the same way PanicIfTrue et al. do,
// so that Try() at the call boundary can recover it uniformly.
func Panic(format string, args ...interface{}) {
	panic(fmt.Errorf(format, args...))
}

// PanicIfError panics with err if err is non-nil. A no-op otherwise.
func PanicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

// PanicIfTrue panics if cond is true.
func PanicIfTrue(cond bool) {
	if cond {
		panic(fmt.Errorf("expected condition to be false"))
	}
}

// PanicIfFalse panics if cond is false.
func PanicIfFalse(cond bool) {
	if !cond {
		panic(fmt.Errorf("expected condition to be true"))
	}
}

// Try runs f and converts any panic raised inside it into an error return.
// If the panic value is an error it is returned as-is (after Unwrap);
// otherwise it is formatted with fmt.Errorf. A clean return from f yields a
// nil error.
func Try(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError(r)
		}
	}()
	f()
	return nil
}

func panicToError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return Unwrap(v)
	default:
		return fmt.Errorf("%v", v)
	}
}
