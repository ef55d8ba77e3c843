// Package value implements Rhythm's shared runtime value model: the
// tagged union described in spec.md section 3, used unchanged by the
// compiler's constant pool and the VM's operand stack.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindMap
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindCallable:
		return "callable"
	default:
		return "unknown"
	}
}

// Value is Rhythm's tagged-union runtime value. It is deliberately a
// plain comparable struct rather than an interface: arithmetic and
// equality select behavior by Kind, per spec.md's Design Notes
// ("Value as tagged union — keep it a single sum type rather than
// dynamic dispatch"). Because Array/Map/Callable are held by pointer
// or interface, Value itself stays comparable with ==, which doubles
// as the spec's required equality rule (structural for primitives,
// identity for shared containers and callables) and lets Value be used
// directly as a map key (see Map, below).
type Value struct {
	kind     Kind
	boolean  bool
	number   float64
	str      string
	array    *Array
	m        *Map
	callable Callable
}

// Nil is the single Nil value.
var Nil = Value{kind: KindNil}

func Bool(b bool) Value                { return Value{kind: KindBool, boolean: b} }
func Number(n float64) Value           { return Value{kind: KindNumber, number: n} }
func String(s string) Value            { return Value{kind: KindString, str: s} }
func FromArray(a *Array) Value         { return Value{kind: KindArray, array: a} }
func FromMap(m *Map) Value             { return Value{kind: KindMap, m: m} }
func FromCallable(c Callable) Value    { return Value{kind: KindCallable, callable: c} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }

// Truthy implements spec.md's truthiness rule: false and Nil are
// falsy, everything else is truthy (including 0 and empty strings or
// containers).
func (v Value) Truthy() bool {
	if v.kind == KindNil {
		return false
	}
	if v.kind == KindBool {
		return v.boolean
	}
	return true
}

func (v Value) AsBool() bool         { return v.boolean }
func (v Value) AsNumber() float64    { return v.number }
func (v Value) AsString() string     { return v.str }
func (v Value) AsArray() *Array      { return v.array }
func (v Value) AsMap() *Map          { return v.m }
func (v Value) AsCallable() Callable { return v.callable }

// Equal implements spec.md's equality rule: structural for primitives,
// identity for shared containers and callables.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber:
		return v.number == other.number
	case KindString:
		return v.str == other.str
	case KindArray:
		return v.array == other.array
	case KindMap:
		return v.m == other.m
	case KindCallable:
		return v.callable == other.callable
	default:
		return false
	}
}

// IsInteger reports whether a Number value holds an integer-valued
// double, used by the "%" operator and array subscripting (spec.md
// section 4.4: "index must be an integer number").
func (v Value) IsInteger() bool {
	return v.kind == KindNumber && v.number == float64(int64(v.number))
}

// String renders a Value the way `print` does. Nested containers are
// rendered recursively with ", " separators, the same convention the
// C++ original's ostream operator<< uses for Array/Map.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindString:
		return v.str
	case KindArray:
		return v.array.renderString()
	case KindMap:
		return v.m.renderString()
	case KindCallable:
		return fmt.Sprintf("<fn %s>", v.callable.Name())
	default:
		return "<unknown>"
	}
}

// formatNumber renders a float64 the way Rhythm source would have
// written it: integral values print without a trailing ".0".
func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func quoteForContainer(v Value) string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.String()
}

func joinValues(vs []Value) string {
	parts := make([]string, len(vs))
	for i, e := range vs {
		parts[i] = quoteForContainer(e)
	}
	return strings.Join(parts, ", ")
}
