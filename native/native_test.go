package native

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhythm/value"
)

// fakeCtx is a no-op value.RuntimeContext for natives that don't
// exercise call_function re-entrancy in a given test.
type fakeCtx struct {
	calls [][]value.Value
	ret   value.Value
}

func (f *fakeCtx) CallFunction(callable value.Callable, args []value.Value) (value.Value, error) {
	f.calls = append(f.calls, args)
	return f.ret, nil
}

func call(t *testing.T, globals map[string]value.Value, name string, ctx value.RuntimeContext, args ...value.Value) (value.Value, error) {
	t.Helper()
	v, ok := globals[name]
	require.True(t, ok, "native %q not registered", name)
	native, ok := v.AsCallable().(*value.NativeFunction)
	require.True(t, ok, "%q is not a NativeFunction", name)
	return native.Call(ctx, args)
}

func TestLenPushPop(t *testing.T) {
	g := NewGlobals(nil, nil)
	ctx := &fakeCtx{}

	arr := value.FromArray(value.NewArray([]value.Value{value.Number(1), value.Number(2)}))
	n, err := call(t, g, "len", ctx, arr)
	require.NoError(t, err)
	assert.Equal(t, 2.0, n.AsNumber())

	_, err = call(t, g, "push", ctx, arr, value.Number(3))
	require.NoError(t, err)
	n, _ = call(t, g, "len", ctx, arr)
	assert.Equal(t, 3.0, n.AsNumber())

	popped, err := call(t, g, "pop", ctx, arr)
	require.NoError(t, err)
	assert.Equal(t, 3.0, popped.AsNumber())
}

func TestSplitAndSubstring(t *testing.T) {
	g := NewGlobals(nil, nil)
	ctx := &fakeCtx{}

	parts, err := call(t, g, "split", ctx, value.String("a,b,c"), value.String(","))
	require.NoError(t, err)
	require.Equal(t, 3, parts.AsArray().Len())
	first, _ := parts.AsArray().Get(0)
	assert.Equal(t, "a", first.AsString())

	sub, err := call(t, g, "substring", ctx, value.String("hello world"), value.Number(0), value.Number(5))
	require.NoError(t, err)
	assert.Equal(t, "hello", sub.AsString())

	_, err = call(t, g, "substring", ctx, value.String("hi"), value.Number(0), value.Number(10))
	assert.Error(t, err)
}

func TestPrintfAndSprintf(t *testing.T) {
	var out strings.Builder
	g := NewGlobals(&out, nil)
	ctx := &fakeCtx{}

	_, err := call(t, g, "printf", ctx, value.String("%s is %d\\n"), value.String("x"), value.Number(5))
	require.NoError(t, err)
	assert.Equal(t, "x is 5\n", out.String())

	s, err := call(t, g, "sprintf", ctx, value.String("%d%%"), value.Number(50))
	require.NoError(t, err)
	assert.Equal(t, "50%", s.AsString())

	_, err = call(t, g, "sprintf", ctx, value.String("%d"))
	assert.Error(t, err, "too few arguments should be a runtime error")

	_, err = call(t, g, "sprintf", ctx, value.String("%d"), value.Number(1), value.Number(2))
	assert.Error(t, err, "too many arguments should be a runtime error")
}

func TestAssert(t *testing.T) {
	g := NewGlobals(nil, nil)
	ctx := &fakeCtx{}

	_, err := call(t, g, "assert", ctx, value.Bool(true))
	assert.NoError(t, err)

	_, err = call(t, g, "assert", ctx, value.Bool(false))
	assert.Error(t, err)

	_, err = call(t, g, "assert", ctx, value.Bool(false), value.String("custom message"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom message")
}

func TestReadlineAndSlurp(t *testing.T) {
	g := NewGlobals(nil, strings.NewReader("first\nsecond\n"))
	ctx := &fakeCtx{}

	line, err := call(t, g, "readline", ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", line.AsString())

	rest, err := call(t, g, "slurp", ctx)
	require.NoError(t, err)
	assert.Equal(t, "second\n", rest.AsString())
}

func TestReadlineEOFReturnsFalse(t *testing.T) {
	g := NewGlobals(nil, strings.NewReader(""))
	ctx := &fakeCtx{}

	v, err := call(t, g, "readline", ctx)
	require.NoError(t, err)
	require.Equal(t, value.KindBool, v.Kind())
	assert.False(t, v.AsBool())
}

func TestKeysAndForEach(t *testing.T) {
	g := NewGlobals(nil, nil)
	ctx := &fakeCtx{ret: value.Nil}

	m := value.NewMap(0)
	m.Set(value.String("a"), value.Number(1))
	m.Set(value.String("b"), value.Number(2))
	mv := value.FromMap(m)

	ks, err := call(t, g, "keys", ctx, mv)
	require.NoError(t, err)
	assert.Equal(t, 2, ks.AsArray().Len())

	fn := &value.NativeFunction{FnName: "noop", Ar: 2, Fn: func(c value.RuntimeContext, a []value.Value) (value.Value, error) {
		return value.Nil, nil
	}}
	_, err = call(t, g, "for_each", ctx, mv, value.FromCallable(fn))
	require.NoError(t, err)
	assert.Len(t, ctx.calls, 2)
}

func TestToJSONFromJSONRoundTrip(t *testing.T) {
	g := NewGlobals(nil, nil)
	ctx := &fakeCtx{}

	arr := value.FromArray(value.NewArray([]value.Value{value.Number(1), value.String("x"), value.Bool(true), value.Nil}))
	encoded, err := call(t, g, "to_json", ctx, arr)
	require.NoError(t, err)

	decoded, err := call(t, g, "from_json", ctx, encoded)
	require.NoError(t, err)
	require.Equal(t, value.KindArray, decoded.Kind())
	assert.Equal(t, 4, decoded.AsArray().Len())
	v0, _ := decoded.AsArray().Get(0)
	assert.Equal(t, 1.0, v0.AsNumber())
}

func TestMathFunctions(t *testing.T) {
	g := NewGlobals(nil, nil)
	ctx := &fakeCtx{}

	r, err := call(t, g, "sqrt", ctx, value.Number(9))
	require.NoError(t, err)
	assert.Equal(t, 3.0, r.AsNumber())

	r, err = call(t, g, "pow", ctx, value.Number(2), value.Number(10))
	require.NoError(t, err)
	assert.Equal(t, 1024.0, r.AsNumber())

	r, err = call(t, g, "fabs", ctx, value.Number(-4))
	require.NoError(t, err)
	assert.Equal(t, 4.0, r.AsNumber())
}

func TestRandomIntWithinRange(t *testing.T) {
	g := NewGlobals(nil, nil)
	ctx := &fakeCtx{}

	r, err := call(t, g, "random_int", ctx, value.Number(1), value.Number(3), value.Number(50))
	require.NoError(t, err)
	arr := r.AsArray()
	require.Equal(t, 50, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		v, _ := arr.Get(i)
		n := v.AsNumber()
		assert.True(t, n >= 1 && n <= 3, "random_int produced %v outside [1,3]", n)
	}
}
