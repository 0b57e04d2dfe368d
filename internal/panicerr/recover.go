// Package panicerr runs functions that stop by panicking, turning the stop
// into an ordinary error return.
package panicerr

import "runtime/debug"

// Recover runs f in a new goroutine, returning its error, the error passed to
// any Halt that stopped it, or an error describing any other panic or
// runtime.Goexit.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer recoverExit(name, errch)
		defer recoverPanic(name, errch)
		errch <- f()
	}()
	return <-errch
}

// Halt stops the function running under Recover; Recover returns err as is,
// nil included, with no stack attached.
func Halt(err error) {
	panic(halt{err})
}

type halt struct{ err error }

func recoverExit(name string, errch chan<- error) {
	select {
	case errch <- exitError(name):
	default:
		// the happy path and recoverPanic both fill errch
	}
}

func recoverPanic(name string, errch chan<- error) {
	e := recover()
	if e == nil {
		return
	}
	var err error
	if h, ok := e.(halt); ok {
		err = h.err
	} else {
		err = panicError{name, e, debug.Stack()}
	}
	select {
	case errch <- err:
	default:
	}
}
