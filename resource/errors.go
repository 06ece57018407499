package resource

import (
	"errors"
	"fmt"
)

var (
	// ErrBuild is the sentinel matched by every *BuildError.
	ErrBuild = errors.New("build failed")

	// ErrUnknownClass is returned when a class extends or is read under a
	// name that was never registered.
	ErrUnknownClass = errors.New("unknown resource class")

	// ErrAmbiguousParameter is returned when an extension reports more than
	// one kind of output for a single parameter.
	ErrAmbiguousParameter = errors.New("parameter resolved to more than one kind")
)

// BuildError is a fatal error raised while turning a resource method into an
// operation. It identifies the class and method being processed.
type BuildError struct {
	Class  string
	Method string
	Cause  error
}

func (e *BuildError) Error() string {
	switch {
	case e.Method != "":
		return fmt.Sprintf("%s.%s: %v", e.Class, e.Method, e.Cause)
	case e.Class != "":
		return fmt.Sprintf("%s: %v", e.Class, e.Cause)
	default:
		return e.Cause.Error()
	}
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Is reports ErrBuild for every BuildError so callers can match the whole
// category without a type assertion.
func (e *BuildError) Is(target error) bool {
	return target == ErrBuild
}

func buildError(class, method string, cause error) error {
	var be *BuildError
	if errors.As(cause, &be) {
		return cause
	}
	return &BuildError{Class: class, Method: method, Cause: cause}
}
