package native

import (
	"fmt"
	"io"
	"time"

	"rhythm/value"
)

// clock returns seconds since the Unix epoch as a Number, matching the
// Lox-tradition clock() used for crude benchmarking.
func (t *table) clock(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

// readline returns the next line from stdin without its trailing
// newline, or false on EOF (spec.md section 7).
func (t *table) readline(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && len(line) == 0 {
		if err == io.EOF {
			return value.Bool(false), nil
		}
		return value.Nil, argError("readline", "%s", err)
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return value.String(line), nil
}

// slurp reads and returns all remaining stdin as a single string.
func (t *table) slurp(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	data, err := io.ReadAll(t.in)
	if err != nil {
		return value.Nil, argError("slurp", "%s", err)
	}
	return value.String(string(data)), nil
}

// assert is a no-op when its first argument is truthy; otherwise it
// terminates with a runtime error carrying the optional second
// argument as the failure message (spec.md: "assert(false) terminates
// with a runtime error").
func (t *table) assert(ctx value.RuntimeContext, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value.Nil, argError("assert", "expects 1 or 2 argument(s), got %d", len(args))
	}
	if args[0].Truthy() {
		return value.Nil, nil
	}
	if len(args) == 2 {
		return value.Nil, fmt.Errorf("assertion failed: %s", args[1].String())
	}
	return value.Nil, fmt.Errorf("assertion failed")
}
