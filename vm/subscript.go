package vm

import (
	"fmt"

	"rhythm/value"
)

// subscriptGet implements SUBSCRIPT: on an array, index must be an
// integer number in [0, len); on a map, a missing key yields Nil; any
// other object kind is an error (spec.md section 4.4).
func subscriptGet(obj, index value.Value) (value.Value, error) {
	switch obj.Kind() {
	case value.KindArray:
		if index.Kind() != value.KindNumber || !index.IsInteger() {
			return value.Nil, fmt.Errorf("array index must be an integer number")
		}
		i := int(index.AsNumber())
		v, ok := obj.AsArray().Get(i)
		if !ok {
			return value.Nil, fmt.Errorf("array index %d out of bounds (length %d)", i, obj.AsArray().Len())
		}
		return v, nil
	case value.KindMap:
		v, ok := obj.AsMap().Get(index)
		if !ok {
			return value.Nil, nil
		}
		return v, nil
	default:
		return value.Nil, fmt.Errorf("cannot subscript a %s", obj.Kind())
	}
}

// subscriptSet implements SUBSCRIPT_ASSIGNMENT: on arrays the index
// must be an integer in range; on maps, assigning Nil deletes the key
// (spec.md section 4.4).
func subscriptSet(obj, index, v value.Value) error {
	switch obj.Kind() {
	case value.KindArray:
		if index.Kind() != value.KindNumber || !index.IsInteger() {
			return fmt.Errorf("array index must be an integer number")
		}
		i := int(index.AsNumber())
		if !obj.AsArray().Set(i, v) {
			return fmt.Errorf("array index %d out of bounds (length %d)", i, obj.AsArray().Len())
		}
		return nil
	case value.KindMap:
		obj.AsMap().Set(index, v)
		return nil
	default:
		return fmt.Errorf("cannot subscript a %s", obj.Kind())
	}
}
