// Package native implements Rhythm's fixed native-function table
// (spec.md section 4.5): the built-ins registered into the VM's
// global map before any user bytecode runs. Each native is a
// *value.NativeFunction closing over the process's stdin/stdout so
// the VM package itself stays free of any native-specific import.
package native

import (
	"bufio"
	"io"
	"os"

	"rhythm/value"
)

// table bundles the state natives close over: the buffered stdin
// reader shared by readline/slurp, and the stdout writer print/printf
// use — matching spec.md's "file descriptors are process-wide".
type table struct {
	in  *bufio.Reader
	out io.Writer
}

func fn(name string, arity int, f func(ctx value.RuntimeContext, args []value.Value) (value.Value, error)) (string, value.Value) {
	return name, value.FromCallable(&value.NativeFunction{FnName: name, Ar: arity, Fn: f})
}

// NewGlobals builds the native global table. out receives print/printf
// output (pass the same writer given to vm.VM.SetOutput so `print` and
// `printf` interleave correctly); in feeds readline/slurp. Passing nil
// for either defaults to os.Stdout/os.Stdin.
func NewGlobals(out io.Writer, in io.Reader) map[string]value.Value {
	if out == nil {
		out = os.Stdout
	}
	if in == nil {
		in = os.Stdin
	}
	t := &table{in: bufio.NewReader(in), out: out}

	globals := map[string]value.Value{}

	entries := []struct {
		name  string
		arity int
		f     func(value.RuntimeContext, []value.Value) (value.Value, error)
	}{
		{"clock", 0, t.clock},
		{"printf", -1, t.printf},
		{"sprintf", -1, t.sprintf},
		{"len", 1, t.length},
		{"push", 2, t.push},
		{"pop", 1, t.pop},
		{"readline", 0, t.readline},
		{"slurp", 0, t.slurp},
		{"split", 2, t.split},
		{"assert", -1, t.assert},
		{"for_each", 2, t.forEach},
		{"keys", 1, t.keys},
		{"tonumber", 1, t.tonumber},
		{"from_json", 1, t.fromJSON},
		{"to_json", 1, t.toJSON},
		{"substring", 3, t.substring},
		{"random_int", 3, t.randomInt},

		{"floor", 1, unaryMath(mathFloor)},
		{"ceil", 1, unaryMath(mathCeil)},
		{"sin", 1, unaryMath(mathSin)},
		{"cos", 1, unaryMath(mathCos)},
		{"tan", 1, unaryMath(mathTan)},
		{"asin", 1, unaryMath(mathAsin)},
		{"acos", 1, unaryMath(mathAcos)},
		{"atan", 1, unaryMath(mathAtan)},
		{"log", 1, unaryMath(mathLog)},
		{"log10", 1, unaryMath(mathLog10)},
		{"sqrt", 1, unaryMath(mathSqrt)},
		{"exp", 1, unaryMath(mathExp)},
		{"fabs", 1, unaryMath(mathFabs)},
		{"pow", 2, binaryMath(mathPow)},
		{"atan2", 2, binaryMath(mathAtan2)},
		{"fmod", 2, binaryMath(mathFmod)},
	}

	for _, e := range entries {
		name, v := fn(e.name, e.arity, e.f)
		globals[name] = v
	}
	return globals
}
