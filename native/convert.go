package native

import (
	"strconv"
	"strings"

	"github.com/mcvoid/json"

	"rhythm/value"
)

// tonumber parses a string as a Rhythm Number (always float64); an
// unparsable string is a native argument type error.
func (t *table) tonumber(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	s, err := expectString("tonumber", args[0], 1)
	if err != nil {
		return value.Nil, err
	}
	n, parseErr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if parseErr != nil {
		return value.Nil, argError("tonumber", "'%s' is not a number", s)
	}
	return value.Number(n), nil
}

// fromJSON parses a JSON document and converts it to a Rhythm Value
// (spec.md section 5: null->Nil, boolean->Bool, number->Number,
// string->String, array->Array, object->Map with string keys).
func (t *table) fromJSON(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	s, err := expectString("from_json", args[0], 1)
	if err != nil {
		return value.Nil, err
	}
	parsed, parseErr := json.ParseString(s)
	if parseErr != nil {
		return value.Nil, argError("from_json", "%s", parseErr)
	}
	return jsonToValue(parsed), nil
}

func jsonToValue(v *json.Value) value.Value {
	switch v.Type() {
	case json.Null:
		return value.Nil
	case json.Boolean:
		b, _ := v.AsBoolean()
		return value.Bool(b)
	case json.Number, json.Integer:
		n, _ := v.AsNumber()
		return value.Number(n)
	case json.String:
		s, _ := v.AsString()
		return value.String(s)
	case json.Array:
		items, _ := v.AsArray()
		out := make([]value.Value, len(items))
		for i, it := range items {
			out[i] = jsonToValue(it)
		}
		return value.FromArray(value.NewArray(out))
	case json.Object:
		obj, _ := v.AsObject()
		m := value.NewMap(len(obj))
		for k, vv := range obj {
			m.Set(value.String(k), jsonToValue(vv))
		}
		return value.FromMap(m)
	default:
		return value.Nil
	}
}

// toJSON serializes a Rhythm Value to a JSON text, the inverse of
// from_json. Map keys must be strings, matching the JSON object model.
func (t *table) toJSON(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	var out strings.Builder
	if err := writeJSON(&out, args[0]); err != nil {
		return value.Nil, argError("to_json", "%s", err)
	}
	return value.String(out.String()), nil
}

func writeJSON(out *strings.Builder, v value.Value) error {
	switch v.Kind() {
	case value.KindNil:
		out.WriteString("null")
	case value.KindBool:
		if v.AsBool() {
			out.WriteString("true")
		} else {
			out.WriteString("false")
		}
	case value.KindNumber:
		out.WriteString(strconv.FormatFloat(v.AsNumber(), 'g', -1, 64))
	case value.KindString:
		out.WriteString(strconv.Quote(v.AsString()))
	case value.KindArray:
		items := v.AsArray().Items
		out.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				out.WriteByte(',')
			}
			if err := writeJSON(out, item); err != nil {
				return err
			}
		}
		out.WriteByte(']')
	case value.KindMap:
		m := v.AsMap()
		out.WriteByte('{')
		for i, k := range m.Keys() {
			if k.Kind() != value.KindString {
				return argErrorf("map key must be a string for JSON encoding, got %s", k.Kind())
			}
			if i > 0 {
				out.WriteByte(',')
			}
			out.WriteString(strconv.Quote(k.AsString()))
			out.WriteByte(':')
			val, _ := m.Get(k)
			if err := writeJSON(out, val); err != nil {
				return err
			}
		}
		out.WriteByte('}')
	default:
		return argErrorf("cannot JSON-encode a %s", v.Kind())
	}
	return nil
}
