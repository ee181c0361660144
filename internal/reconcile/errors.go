package reconcile

import (
	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrNotFound is returned when the output root of a class is missing. It
	// aborts that class for the current pass.
	ErrNotFound = errors.NewKind("output root %s does not exist")

	// ErrIO tags a read or delete failure on a single path.
	ErrIO = errors.NewKind("%s: %v")
)

// IsNotFound reports whether err, or any error it wraps or joins, is of kind
// ErrNotFound.
func IsNotFound(err error) bool {
	return is(ErrNotFound, err)
}

// IsIO reports whether err, or any error it wraps or joins, is of kind ErrIO.
func IsIO(err error) bool {
	return is(ErrIO, err)
}

func is(k *errors.Kind, err error) bool {
	if err == nil {
		return false
	}
	if k.Is(err) {
		return true
	}
	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, x := range e.Unwrap() {
			if is(k, x) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return is(k, e.Unwrap())
	}
	return false
}
