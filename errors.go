package parley

import "errors"

// ErrUnknownCommand is reported when input matches no registered name or
// alias. By default it is surfaced as rendered help text, not as a failed
// execution; callers opting into stricter semantics can test for it.
var ErrUnknownCommand = errors.New("unknown command")

// ErrMissingRequiredArgument is reported when a resolved command lacks a
// bound value for a required placeholder. Like ErrUnknownCommand it is
// non-fatal and surfaced as help text.
var ErrMissingRequiredArgument = errors.New("missing required argument")

// MissingArgumentError carries the name of the unbound required placeholder.
// It matches ErrMissingRequiredArgument under errors.Is.
type MissingArgumentError struct {
	Placeholder string
}

func (e *MissingArgumentError) Error() string {
	return "missing required argument: " + e.Placeholder
}

// Is reports whether target is ErrMissingRequiredArgument.
func (e *MissingArgumentError) Is(target error) bool {
	return target == ErrMissingRequiredArgument
}
