package internal

import "github.com/pkg/errors"

// Threading errors up and down the recursive graph walks (spanning path search,
// parallel way construction) would add a lot of noise to the code. Instead, we
// use panics, and the public API recovers to convert to an error.

type EditError struct {
	error
}

func (e EditError) Cause() error {
	return e.error
}

func (e EditError) Unwrap() error {
	return e.error
}

// Panic with an EditError.
func Fatalf(format string, args ...interface{}) {
	panic(EditError{errors.Errorf(format, args...)})
}

// Panic with an EditError wrapping err, so that callers can still match
// sentinel errors with errors.Is after recovery.
func Throw(err error) {
	panic(EditError{err})
}

// Use with defer and recover(). Anything that is not an EditError is
// re-raised.
func HandlePanicRecover(r interface{}) error {
	if r != nil {
		if editError, ok := r.(EditError); ok {
			return editError.error
		}
		panic(r)
	}
	return nil
}
