// Package vm executes compiled bytecode Functions on a stack-based
// virtual machine with closures and upvalues.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"rhythm/compiler"
	"rhythm/internal/rtlog"
	"rhythm/value"
)

const defaultMaxFrames = 1024

// VM is a stack-based virtual-machine. It is the runtime environment
// where Rhythm bytecode gets executed.
type VM struct {
	stack        Stack
	frames       []CallFrame
	globals      map[string]value.Value
	openUpvalues []*Upvalue

	maxStack  int
	maxFrames int
	out       io.Writer
}

// New creates a VM. globals seeds the global namespace (the native
// function table, per spec.md section 4.5) before any user code runs.
// stackSize is the operand stack's initial capacity (spec.md's
// configurable RHYTHM_STACK_SIZE); pass 0 for the default. The stack
// grows past it when needed; open upvalues refer to stack slots by
// index, so growth does not invalidate them.
func New(globals map[string]value.Value, stackSize int) *VM {
	if stackSize <= 0 {
		stackSize = 4096
	}
	g := make(map[string]value.Value, len(globals))
	for k, v := range globals {
		g[k] = v
	}
	return &VM{
		stack:     newStack(stackSize),
		globals:   g,
		maxStack:  stackSize,
		maxFrames: defaultMaxFrames,
		out:       os.Stdout,
	}
}

// SetOutput redirects `print` — used by tests to capture output.
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// Run executes fn as the program's Script function from a clean stack
// and returns the value its final RETURN produces, which is nil for a
// script compiled by CompileAST (it always ends in NIL; RETURN).
func (vm *VM) Run(fn *compiler.Function) (value.Value, error) {
	vm.stack = vm.stack[:0]
	closure := NewClosure(fn)
	vm.frames = []CallFrame{{Closure: closure, IP: 0, FramePointer: 0}}
	return vm.runUntil(0)
}

// CallFunction implements value.RuntimeContext, letting a native
// function re-enter the VM (spec.md section 4.5 — used by for_each).
func (vm *VM) CallFunction(callable value.Callable, args []value.Value) (value.Value, error) {
	calleeIdx := len(vm.stack)
	vm.stack.Push(value.FromCallable(callable))
	for _, a := range args {
		vm.stack.Push(a)
	}
	targetLen := len(vm.frames)
	pushedFrame, err := vm.callValue(callable, len(args), calleeIdx, 0)
	if err != nil {
		return value.Nil, err
	}
	if !pushedFrame {
		result, _ := vm.stack.Pop()
		return result, nil
	}
	return vm.runUntil(targetLen)
}

// runUntil resumes bytecode dispatch until the frame stack shrinks back
// to targetLen, returning the value left by the frame that triggered
// that shrink.
func (vm *VM) runUntil(targetLen int) (value.Value, error) {
	for {
		if len(vm.frames) <= targetLen {
			v, _ := vm.stack.Peek()
			return v, nil
		}
		cf := &vm.frames[len(vm.frames)-1]
		result, done, err := vm.step(cf, targetLen)
		if err != nil {
			return value.Nil, err
		}
		if done {
			return result, nil
		}
	}
}

func (vm *VM) currentLine(cf *CallFrame) int {
	lines := cf.Closure.Fn.Chunk.Lines
	if cf.IP-1 >= 0 && cf.IP-1 < len(lines) {
		return lines[cf.IP-1]
	}
	return 0
}

func (vm *VM) runtimeError(cf *CallFrame, format string, args ...any) error {
	frames := make([]string, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		line := 0
		if f.IP-1 >= 0 && f.IP-1 < len(f.Closure.Fn.Chunk.Lines) {
			line = f.Closure.Fn.Chunk.Lines[f.IP-1]
		}
		frames = append(frames, fmt.Sprintf("%s (line %d)", f.Closure.Name(), line))
	}
	return RuntimeError{Message: fmt.Sprintf(format, args...), Line: vm.currentLine(cf), Frames: frames}
}

func readUint16(code compiler.Instructions, ip int) int {
	return int(code[ip])<<8 | int(code[ip+1])
}

// step decodes and executes exactly one instruction of cf. If the
// instruction was a RETURN that unwound the frame stack down to
// targetLen, done is true and result holds the returned value.
func (vm *VM) step(cf *CallFrame, targetLen int) (result value.Value, done bool, err error) {
	code := cf.Closure.Fn.Chunk.Instructions
	ip0 := cf.IP
	op := compiler.Opcode(code[cf.IP])
	cf.IP++

	if rtlog.Log.IsLevelEnabled(logrus.DebugLevel) {
		if disasm, derr := compiler.DisassembleInstruction(code[ip0:]); derr == nil {
			rtlog.Log.Debugf("%s frame=%d ip=%04d %s", cf.Closure.Name(), len(vm.frames)-1, ip0, disasm)
		}
	}

	switch op {
	case compiler.OP_NIL:
		vm.stack.Push(value.Nil)

	case compiler.OP_CONSTANT:
		idx := readUint16(code, cf.IP)
		cf.IP += 2
		vm.stack.Push(cf.Closure.Fn.Chunk.Constants[idx])

	case compiler.OP_POP:
		vm.stack.Pop()

	case compiler.OP_PRINT:
		v, _ := vm.stack.Pop()
		fmt.Fprintln(vm.out, v.String())

	case compiler.OP_RETURN:
		retVal, _ := vm.stack.Pop()
		vm.closeUpvalues(cf.FramePointer)
		vm.frames = vm.frames[:len(vm.frames)-1]
		if cf.FramePointer > 0 {
			vm.stack = vm.stack[:cf.FramePointer-1]
		} else {
			vm.stack = vm.stack[:0]
		}
		vm.stack.Push(retVal)
		if len(vm.frames) == targetLen {
			return retVal, true, nil
		}

	case compiler.OP_NEGATE:
		v, _ := vm.stack.Pop()
		if v.Kind() != value.KindNumber {
			return value.Nil, false, vm.runtimeError(cf, "operand of '-' must be a number, got %s", v.Kind())
		}
		vm.stack.Push(value.Number(-v.AsNumber()))

	case compiler.OP_NOT:
		v, _ := vm.stack.Pop()
		vm.stack.Push(value.Bool(!v.Truthy()))

	case compiler.OP_ADD:
		b, _ := vm.stack.Pop()
		a, _ := vm.stack.Pop()
		switch {
		case a.Kind() == value.KindNumber && b.Kind() == value.KindNumber:
			vm.stack.Push(value.Number(a.AsNumber() + b.AsNumber()))
		case a.Kind() == value.KindString && b.Kind() == value.KindString:
			vm.stack.Push(value.String(a.AsString() + b.AsString()))
		default:
			return value.Nil, false, vm.runtimeError(cf, "'+' requires two numbers or two strings, got %s and %s", a.Kind(), b.Kind())
		}

	case compiler.OP_SUBTRACT, compiler.OP_MULTIPLY, compiler.OP_DIVIDE:
		b, _ := vm.stack.Pop()
		a, _ := vm.stack.Pop()
		if a.Kind() != value.KindNumber || b.Kind() != value.KindNumber {
			return value.Nil, false, vm.runtimeError(cf, "operands must be numbers, got %s and %s", a.Kind(), b.Kind())
		}
		switch op {
		case compiler.OP_SUBTRACT:
			vm.stack.Push(value.Number(a.AsNumber() - b.AsNumber()))
		case compiler.OP_MULTIPLY:
			vm.stack.Push(value.Number(a.AsNumber() * b.AsNumber()))
		case compiler.OP_DIVIDE:
			// Division by zero propagates as IEEE Inf/NaN, not an error.
			vm.stack.Push(value.Number(a.AsNumber() / b.AsNumber()))
		}

	case compiler.OP_MODULO:
		b, _ := vm.stack.Pop()
		a, _ := vm.stack.Pop()
		if a.Kind() != value.KindNumber || b.Kind() != value.KindNumber {
			return value.Nil, false, vm.runtimeError(cf, "'%%' requires two numbers, got %s and %s", a.Kind(), b.Kind())
		}
		if !a.IsInteger() || !b.IsInteger() {
			return value.Nil, false, vm.runtimeError(cf, "'%%' requires two integer-valued numbers")
		}
		ai, bi := int64(a.AsNumber()), int64(b.AsNumber())
		if bi == 0 {
			return value.Nil, false, vm.runtimeError(cf, "'%%' by zero")
		}
		vm.stack.Push(value.Number(float64(ai % bi)))

	case compiler.OP_EQUAL:
		b, _ := vm.stack.Pop()
		a, _ := vm.stack.Pop()
		vm.stack.Push(value.Bool(a.Equal(b)))

	case compiler.OP_GREATER, compiler.OP_LESS:
		b, _ := vm.stack.Pop()
		a, _ := vm.stack.Pop()
		if a.Kind() != value.KindNumber || b.Kind() != value.KindNumber {
			return value.Nil, false, vm.runtimeError(cf, "comparison requires two numbers, got %s and %s", a.Kind(), b.Kind())
		}
		if op == compiler.OP_GREATER {
			vm.stack.Push(value.Bool(a.AsNumber() > b.AsNumber()))
		} else {
			vm.stack.Push(value.Bool(a.AsNumber() < b.AsNumber()))
		}

	case compiler.OP_DEFINE_GLOBAL:
		idx := readUint16(code, cf.IP)
		cf.IP += 2
		name := cf.Closure.Fn.Chunk.Constants[idx].AsString()
		v, _ := vm.stack.Pop()
		vm.globals[name] = v

	case compiler.OP_GET_GLOBAL:
		idx := readUint16(code, cf.IP)
		cf.IP += 2
		name := cf.Closure.Fn.Chunk.Constants[idx].AsString()
		v, ok := vm.globals[name]
		if !ok {
			return value.Nil, false, vm.runtimeError(cf, "undefined variable '%s'", name)
		}
		vm.stack.Push(v)

	case compiler.OP_SET_GLOBAL:
		idx := readUint16(code, cf.IP)
		cf.IP += 2
		name := cf.Closure.Fn.Chunk.Constants[idx].AsString()
		v, _ := vm.stack.Peek()
		// Assigning to an undefined global auto-defines it.
		vm.globals[name] = v

	case compiler.OP_GET_LOCAL:
		slot := int(code[cf.IP])
		cf.IP++
		vm.stack.Push(vm.stack[cf.FramePointer+slot])

	case compiler.OP_SET_LOCAL:
		slot := int(code[cf.IP])
		cf.IP++
		v, _ := vm.stack.Peek()
		vm.stack[cf.FramePointer+slot] = v

	case compiler.OP_GET_UPVALUE:
		idx := int(code[cf.IP])
		cf.IP++
		vm.stack.Push(cf.Closure.Upvalues[idx].Get(vm.stack))

	case compiler.OP_SET_UPVALUE:
		idx := int(code[cf.IP])
		cf.IP++
		v, _ := vm.stack.Peek()
		cf.Closure.Upvalues[idx].Set(vm.stack, v)

	case compiler.OP_CLOSE_UPVALUE:
		vm.closeUpvalues(len(vm.stack) - 1)
		vm.stack.Pop()

	case compiler.OP_JUMP_IF_FALSE:
		offset := readUint16(code, cf.IP)
		cf.IP += 2
		v, _ := vm.stack.Peek()
		if !v.Truthy() {
			cf.IP += offset
		}

	case compiler.OP_JUMP:
		offset := readUint16(code, cf.IP)
		cf.IP += 2
		cf.IP += offset

	case compiler.OP_LOOP:
		offset := readUint16(code, cf.IP)
		cf.IP += 2
		cf.IP -= offset

	case compiler.OP_CALL:
		argCount := int(code[cf.IP])
		cf.IP++
		calleeIdx := len(vm.stack) - 1 - argCount
		callable := vm.stack.PeekN(argCount).AsCallable()
		if callable == nil {
			return value.Nil, false, vm.runtimeError(cf, "value is not callable")
		}
		pushed, err := vm.callValue(callable, argCount, calleeIdx, vm.currentLine(cf))
		if err != nil {
			return value.Nil, false, err
		}
		if pushed && len(vm.frames) >= vm.maxFrames {
			return value.Nil, false, vm.runtimeError(cf, "stack overflow")
		}

	case compiler.OP_ARRAY_LITERAL:
		n := int(code[cf.IP])
		cf.IP++
		items := make([]value.Value, n)
		copy(items, vm.stack[len(vm.stack)-n:])
		vm.stack = vm.stack[:len(vm.stack)-n]
		vm.stack.Push(value.FromArray(value.NewArray(items)))

	case compiler.OP_MAP_LITERAL:
		n := int(code[cf.IP])
		cf.IP++
		m := value.NewMap(n)
		entries := vm.stack[len(vm.stack)-2*n:]
		for i := 0; i < n; i++ {
			k := entries[2*i]
			v := entries[2*i+1]
			m.Set(k, v)
		}
		vm.stack = vm.stack[:len(vm.stack)-2*n]
		vm.stack.Push(value.FromMap(m))

	case compiler.OP_SUBSCRIPT:
		index, _ := vm.stack.Pop()
		obj, _ := vm.stack.Pop()
		v, err := subscriptGet(obj, index)
		if err != nil {
			return value.Nil, false, vm.runtimeError(cf, "%s", err.Error())
		}
		vm.stack.Push(v)

	case compiler.OP_SUBSCRIPT_ASSIGNMENT:
		v, _ := vm.stack.Pop()
		index, _ := vm.stack.Pop()
		obj, _ := vm.stack.Pop()
		if err := subscriptSet(obj, index, v); err != nil {
			return value.Nil, false, vm.runtimeError(cf, "%s", err.Error())
		}
		vm.stack.Push(v)

	case compiler.OP_CLOSURE:
		idx := readUint16(code, cf.IP)
		cf.IP += 2
		constant := cf.Closure.Fn.Chunk.Constants[idx]
		fc, ok := constant.AsCallable().(*compiler.FunctionConstant)
		if !ok {
			return value.Nil, false, fmt.Errorf("🤖 DeveloperError: OP_CLOSURE constant is not a FunctionConstant")
		}
		closure := NewClosure(fc.Fn)
		for i := 0; i < fc.Fn.UpvalueCount; i++ {
			isLocal := code[cf.IP]
			idxByte := int(code[cf.IP+1])
			cf.IP += 2
			if isLocal == 1 {
				closure.Upvalues[i] = vm.captureUpvalue(cf.FramePointer + idxByte)
			} else {
				closure.Upvalues[i] = cf.Closure.Upvalues[idxByte]
			}
		}
		vm.stack.Push(value.FromCallable(closure))

	default:
		return value.Nil, false, fmt.Errorf("🤖 DeveloperError: unknown opcode %d", op)
	}

	return value.Nil, false, nil
}

// callValue dispatches a CALL (or a native re-entry via CallFunction)
// against a resolved Callable. pushed reports whether a new CallFrame
// was pushed (Closure case) — the caller must keep dispatching until
// that frame returns; for a native call the result is already on the
// stack when this returns.
func (vm *VM) callValue(callable value.Callable, argCount, calleeIdx, line int) (pushed bool, err error) {
	switch c := callable.(type) {
	case *Closure:
		if c.Fn.Arity != argCount {
			return false, RuntimeError{Line: line, Message: fmt.Sprintf("'%s' expects %d argument(s), got %d", c.Name(), c.Fn.Arity, argCount)}
		}
		framePointer := calleeIdx + 1
		vm.frames = append(vm.frames, CallFrame{Closure: c, IP: 0, FramePointer: framePointer})
		return true, nil
	case *value.NativeFunction:
		if c.Ar >= 0 && c.Ar != argCount {
			return false, RuntimeError{Line: line, Message: fmt.Sprintf("'%s' expects %d argument(s), got %d", c.Name(), c.Ar, argCount)}
		}
		args := make([]value.Value, argCount)
		copy(args, vm.stack[calleeIdx+1:])
		result, callErr := c.Call(vm, args)
		if callErr != nil {
			return false, RuntimeError{Line: line, Message: callErr.Error()}
		}
		vm.stack = vm.stack[:calleeIdx]
		vm.stack.Push(result)
		return false, nil
	default:
		return false, RuntimeError{Line: line, Message: "value is not callable"}
	}
}

// captureUpvalue returns the existing open Upvalue for stackIndex if
// one exists, or creates and registers a new one. The open list stays
// sorted by descending Location so closeUpvalues can stop early.
func (vm *VM) captureUpvalue(stackIndex int) *Upvalue {
	for _, uv := range vm.openUpvalues {
		if uv.Location == stackIndex {
			return uv
		}
	}
	created := &Upvalue{Location: stackIndex, Open: true}
	insertAt := len(vm.openUpvalues)
	for i, uv := range vm.openUpvalues {
		if uv.Location < stackIndex {
			insertAt = i
			break
		}
	}
	vm.openUpvalues = append(vm.openUpvalues, nil)
	copy(vm.openUpvalues[insertAt+1:], vm.openUpvalues[insertAt:])
	vm.openUpvalues[insertAt] = created
	return created
}

// closeUpvalues closes every open upvalue whose Location is >= from,
// copying its current stack value into itself before the backing slot
// is reused or discarded.
func (vm *VM) closeUpvalues(from int) {
	i := 0
	for i < len(vm.openUpvalues) && vm.openUpvalues[i].Location >= from {
		uv := vm.openUpvalues[i]
		uv.Closed = vm.stack[uv.Location]
		uv.Open = false
		i++
	}
	vm.openUpvalues = vm.openUpvalues[i:]
}
