package parley

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Args is the typed argument object produced by matching raw input tokens
// against a command's declared signature.
type Args struct {
	// Positional maps placeholder names to their bound values: a string for
	// ordinary placeholders, a []string for the variadic one.
	Positional map[string]any

	// Variadic is the full ordered tail captured by a trailing variadic
	// placeholder, for callers that want it without naming the placeholder.
	Variadic []string

	// Flags maps flag names to their values: bool for switches (false for
	// the --no-<flag> negation), string for value-taking flags. Absent
	// flags without a declared default are simply missing from the map.
	Flags map[string]any

	// Raw is the original input line.
	Raw string
}

// String returns the value bound to a non-variadic placeholder, or "" when
// it was not provided.
func (a *Args) String(name string) string {
	if v, ok := a.Positional[name].(string); ok {
		return v
	}
	return ""
}

// Strings returns the ordered values bound to the variadic placeholder of
// the given name.
func (a *Args) Strings(name string) []string {
	if v, ok := a.Positional[name].([]string); ok {
		return v
	}
	return nil
}

// Flag returns a flag's value and whether it was set (or defaulted).
func (a *Args) Flag(name string) (any, bool) {
	v, ok := a.Flags[name]
	return v, ok
}

// Bool returns a flag's boolean value. Missing flags report false.
func (a *Args) Bool(name string) bool {
	v, ok := a.Flags[name].(bool)
	return ok && v
}

// FlagString returns a value-taking flag's string value, or "" when unset.
func (a *Args) FlagString(name string) string {
	if v, ok := a.Flags[name].(string); ok {
		return v
	}
	return ""
}

// Bind decodes the parsed arguments into a caller-provided struct. Positional
// placeholders and flags share one namespace; struct fields match by
// `mapstructure` tag or case-insensitive name.
func (a *Args) Bind(target any) error {
	merged := make(map[string]any, len(a.Positional)+len(a.Flags))
	for k, v := range a.Positional {
		merged[k] = v
	}
	for k, v := range a.Flags {
		merged[k] = v
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build args decoder: %w", err)
	}
	if err := decoder.Decode(merged); err != nil {
		return fmt.Errorf("failed to bind args: %w", err)
	}
	return nil
}
