package native

import (
	"strings"

	"rhythm/value"
)

// length returns the element count of an array or map, or the rune
// count of a string.
func (t *table) length(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	switch args[0].Kind() {
	case value.KindArray:
		return value.Number(float64(args[0].AsArray().Len())), nil
	case value.KindMap:
		return value.Number(float64(args[0].AsMap().Len())), nil
	case value.KindString:
		return value.Number(float64(len([]rune(args[0].AsString())))), nil
	default:
		return value.Nil, argError("len", "argument 1 must be an array, map or string, got %s", args[0].Kind())
	}
}

// push appends its second argument to the array passed as the first,
// mutating it in place (arrays are shared by reference — spec.md
// section 5), and returns the array back for chaining.
func (t *table) push(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	arr, err := expectArray("push", args[0], 1)
	if err != nil {
		return value.Nil, err
	}
	arr.Push(args[1])
	return args[0], nil
}

// pop removes and returns the array's last element.
func (t *table) pop(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	arr, err := expectArray("pop", args[0], 1)
	if err != nil {
		return value.Nil, err
	}
	v, ok := arr.Pop()
	if !ok {
		return value.Nil, argError("pop", "array is empty")
	}
	return v, nil
}

// split breaks s on every occurrence of delim, returning an Array of
// String pieces (delim itself is not included in any piece).
func (t *table) split(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	s, err := expectString("split", args[0], 1)
	if err != nil {
		return value.Nil, err
	}
	delim, err := expectString("split", args[1], 2)
	if err != nil {
		return value.Nil, err
	}
	parts := strings.Split(s, delim)
	items := make([]value.Value, len(parts))
	for i, p := range parts {
		items[i] = value.String(p)
	}
	return value.FromArray(value.NewArray(items)), nil
}

// substring returns s[start:end] (rune-indexed, end exclusive),
// bounds-checked against s's rune length.
func (t *table) substring(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	s, err := expectString("substring", args[0], 1)
	if err != nil {
		return value.Nil, err
	}
	startN, err := expectNumber("substring", args[1], 2)
	if err != nil {
		return value.Nil, err
	}
	endN, err := expectNumber("substring", args[2], 3)
	if err != nil {
		return value.Nil, err
	}
	runes := []rune(s)
	start, end := int(startN), int(endN)
	if start < 0 || end > len(runes) || start > end {
		return value.Nil, argError("substring", "range [%d, %d) out of bounds for string of length %d", start, end, len(runes))
	}
	return value.String(string(runes[start:end])), nil
}

// keys returns a map's keys as an Array, in insertion order.
func (t *table) keys(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	m, err := expectMap("keys", args[0], 1)
	if err != nil {
		return value.Nil, err
	}
	return value.FromArray(value.NewArray(m.Keys())), nil
}

// forEach calls fn(key, value) for every entry of the given map, in
// insertion order, re-entering the VM through ctx.CallFunction (spec.md
// section 4.5: "Native functions receive a runtime context handle so
// they may re-enter the VM via call_function").
func (t *table) forEach(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	m, err := expectMap("for_each", args[0], 1)
	if err != nil {
		return value.Nil, err
	}
	callable, err := expectCallable("for_each", args[1], 2)
	if err != nil {
		return value.Nil, err
	}

	var callErr error
	m.ForEach(func(k, v value.Value) bool {
		_, callErr = ctx.CallFunction(callable, []value.Value{k, v})
		return callErr == nil
	})
	if callErr != nil {
		return value.Nil, callErr
	}
	return value.Nil, nil
}
