package vm

import (
	"rhythm/compiler"
	"rhythm/value"
)

// Upvalue is a captured variable shared between a closure and the
// stack slot (or enclosing closure) that originally held it. While
// open, Location indexes live into the VM's operand stack; CLOSE copies
// the current value out of the stack into Closed and flips Open to
// false, after which reads/writes go through Closed instead.
type Upvalue struct {
	Location int
	Closed   value.Value
	Open     bool
}

func (u *Upvalue) Get(stack Stack) value.Value {
	if u.Open {
		return stack[u.Location]
	}
	return u.Closed
}

func (u *Upvalue) Set(stack Stack, v value.Value) {
	if u.Open {
		stack[u.Location] = v
		return
	}
	u.Closed = v
}

// Closure binds a compiled Function to the upvalues captured at the
// CLOSURE site that created it. It implements value.Callable; the VM's
// CALL handler type-switches Closure vs *value.NativeFunction since a
// closure call pushes a new CallFrame and resumes the bytecode-dispatch
// loop, while a native call returns synchronously.
type Closure struct {
	Fn       *compiler.Function
	Upvalues []*Upvalue
}

func NewClosure(fn *compiler.Function) *Closure {
	return &Closure{Fn: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
}

func (c *Closure) Arity() int   { return c.Fn.Arity }
func (c *Closure) Name() string { return c.Fn.Name }

// CallFrame is one activation record on the VM's call stack (spec.md
// section 3's CallFrame). FramePointer indexes the stack slot holding
// the callee's first parameter (the Closure value itself sits one slot
// below, at FramePointer-1) — "slot 0" that GET_LOCAL/SET_LOCAL
// operands are relative to, so the first parameter occupies
// FramePointer+0.
type CallFrame struct {
	Closure      *Closure
	IP           int
	FramePointer int
}
