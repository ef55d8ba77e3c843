package native

import (
	"fmt"

	"rhythm/value"
)

// argError reports a native function argument type error (spec.md
// section 7's runtime error category "native function argument type
// errors"), named after the offending native for a clearer message.
func argError(name string, format string, args ...any) error {
	return fmt.Errorf("%s: %s", name, fmt.Sprintf(format, args...))
}

// argErrorf reports a generic native-call error with no named argument
// position, used by recursive helpers (e.g. JSON encoding) where the
// offending value isn't a direct positional argument.
func argErrorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

func expectNumber(name string, v value.Value, pos int) (float64, error) {
	if v.Kind() != value.KindNumber {
		return 0, argError(name, "argument %d must be a number, got %s", pos, v.Kind())
	}
	return v.AsNumber(), nil
}

func expectString(name string, v value.Value, pos int) (string, error) {
	if v.Kind() != value.KindString {
		return "", argError(name, "argument %d must be a string, got %s", pos, v.Kind())
	}
	return v.AsString(), nil
}

func expectArray(name string, v value.Value, pos int) (*value.Array, error) {
	if v.Kind() != value.KindArray {
		return nil, argError(name, "argument %d must be an array, got %s", pos, v.Kind())
	}
	return v.AsArray(), nil
}

func expectMap(name string, v value.Value, pos int) (*value.Map, error) {
	if v.Kind() != value.KindMap {
		return nil, argError(name, "argument %d must be a map, got %s", pos, v.Kind())
	}
	return v.AsMap(), nil
}

func expectCallable(name string, v value.Value, pos int) (value.Callable, error) {
	if v.Kind() != value.KindCallable {
		return nil, argError(name, "argument %d must be callable, got %s", pos, v.Kind())
	}
	return v.AsCallable(), nil
}
