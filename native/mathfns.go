package native

import (
	"math"
	"math/rand"

	"rhythm/value"
)

var (
	mathFloor = math.Floor
	mathCeil  = math.Ceil
	mathSin   = math.Sin
	mathCos   = math.Cos
	mathTan   = math.Tan
	mathAsin  = math.Asin
	mathAcos  = math.Acos
	mathAtan  = math.Atan
	mathLog   = math.Log
	mathLog10 = math.Log10
	mathSqrt  = math.Sqrt
	mathExp   = math.Exp
	mathFabs  = math.Abs

	mathPow   = math.Pow
	mathAtan2 = math.Atan2
	mathFmod  = math.Mod
)

// unaryMath adapts a math.XXX(float64) float64 function into a
// one-argument native, sharing the argument-type-checking boilerplate.
func unaryMath(f func(float64) float64) func(value.RuntimeContext, []value.Value) (value.Value, error) {
	return func(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
		n, err := expectNumber("math", args[0], 1)
		if err != nil {
			return value.Nil, err
		}
		return value.Number(f(n)), nil
	}
}

// binaryMath adapts a math.XXX(float64, float64) float64 function into
// a two-argument native.
func binaryMath(f func(float64, float64) float64) func(value.RuntimeContext, []value.Value) (value.Value, error) {
	return func(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
		a, err := expectNumber("math", args[0], 1)
		if err != nil {
			return value.Nil, err
		}
		b, err := expectNumber("math", args[1], 2)
		if err != nil {
			return value.Nil, err
		}
		return value.Number(f(a, b)), nil
	}
}

// randomInt(a, b, n) returns an Array of n random integers drawn
// uniformly from [a, b] inclusive. Three arguments rather than the
// usual two-argument random-range convention is what spec.md's native
// table lists; the resolved reading here is "give me n of them" so a
// caller can request a batch in one native call instead of looping.
func (t *table) randomInt(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	aN, err := expectNumber("random_int", args[0], 1)
	if err != nil {
		return value.Nil, err
	}
	bN, err := expectNumber("random_int", args[1], 2)
	if err != nil {
		return value.Nil, err
	}
	nN, err := expectNumber("random_int", args[2], 3)
	if err != nil {
		return value.Nil, err
	}
	a, b, n := int64(aN), int64(bN), int(nN)
	if b < a {
		return value.Nil, argError("random_int", "range [%d, %d] is empty", a, b)
	}
	if n < 0 {
		return value.Nil, argError("random_int", "count must be non-negative, got %d", n)
	}
	span := b - a + 1
	items := make([]value.Value, n)
	for i := 0; i < n; i++ {
		items[i] = value.Number(float64(a + rand.Int63n(span)))
	}
	return value.FromArray(value.NewArray(items)), nil
}
