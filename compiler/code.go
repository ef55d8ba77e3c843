// Package compiler turns a parsed AST into bytecode Functions for the
// VM to execute (spec.md section 4.3): single-pass, no separate
// resolver phase — scope and upvalue resolution happen inline as each
// expression/statement is visited.
package compiler

import (
	"encoding/binary"
	"fmt"
	"strings"

	"rhythm/value"
)

// Instructions is a flat byte sequence of encoded opcodes + operands.
type Instructions []byte

// Opcode identifies a single VM instruction. Operand widths are fixed
// per opcode (spec.md section 4.3's opcode table and section 6's
// bytecode layout) so the VM and disassembler can decode without
// anything beyond a Get lookup.
type Opcode byte

// iota generates a distinct byte per opcode. Grouped to mirror
// spec.md section 4.3's listing order.
const (
	OP_NIL Opcode = iota
	OP_CONSTANT
	OP_POP
	OP_PRINT
	OP_RETURN

	OP_NEGATE
	OP_NOT

	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_MODULO

	OP_EQUAL
	OP_GREATER
	OP_LESS

	OP_DEFINE_GLOBAL
	OP_GET_GLOBAL
	OP_SET_GLOBAL

	OP_GET_LOCAL
	OP_SET_LOCAL

	OP_GET_UPVALUE
	OP_SET_UPVALUE
	OP_CLOSE_UPVALUE

	OP_JUMP_IF_FALSE
	OP_JUMP
	OP_LOOP

	OP_CALL

	OP_ARRAY_LITERAL
	OP_MAP_LITERAL
	OP_SUBSCRIPT
	OP_SUBSCRIPT_ASSIGNMENT

	// OP_CLOSURE's 2-byte constant-index operand is followed by
	// upvalue_count x {is_local:1, index:1} descriptor pairs. Those
	// trailing pairs are variable-length and are appended by hand in
	// emitClosure rather than declared as a fixed OperandWidths entry.
	OP_CLOSURE
)

// OpCodeDefinition names an opcode and the byte-width of each of its
// fixed operands, for the disassembler and MakeInstruction.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_NIL:    {Name: "OP_NIL"},
	OP_CONSTANT: {Name: "OP_CONSTANT", OperandWidths: []int{2}},
	OP_POP:    {Name: "OP_POP"},
	OP_PRINT:  {Name: "OP_PRINT"},
	OP_RETURN: {Name: "OP_RETURN"},

	OP_NEGATE: {Name: "OP_NEGATE"},
	OP_NOT:    {Name: "OP_NOT"},

	OP_ADD:      {Name: "OP_ADD"},
	OP_SUBTRACT: {Name: "OP_SUBTRACT"},
	OP_MULTIPLY: {Name: "OP_MULTIPLY"},
	OP_DIVIDE:   {Name: "OP_DIVIDE"},
	OP_MODULO:   {Name: "OP_MODULO"},

	OP_EQUAL:   {Name: "OP_EQUAL"},
	OP_GREATER: {Name: "OP_GREATER"},
	OP_LESS:    {Name: "OP_LESS"},

	OP_DEFINE_GLOBAL: {Name: "OP_DEFINE_GLOBAL", OperandWidths: []int{2}},
	OP_GET_GLOBAL:    {Name: "OP_GET_GLOBAL", OperandWidths: []int{2}},
	OP_SET_GLOBAL:    {Name: "OP_SET_GLOBAL", OperandWidths: []int{2}},

	OP_GET_LOCAL: {Name: "OP_GET_LOCAL", OperandWidths: []int{1}},
	OP_SET_LOCAL: {Name: "OP_SET_LOCAL", OperandWidths: []int{1}},

	OP_GET_UPVALUE:   {Name: "OP_GET_UPVALUE", OperandWidths: []int{1}},
	OP_SET_UPVALUE:   {Name: "OP_SET_UPVALUE", OperandWidths: []int{1}},
	OP_CLOSE_UPVALUE: {Name: "OP_CLOSE_UPVALUE"},

	OP_JUMP_IF_FALSE: {Name: "OP_JUMP_IF_FALSE", OperandWidths: []int{2}},
	OP_JUMP:          {Name: "OP_JUMP", OperandWidths: []int{2}},
	OP_LOOP:          {Name: "OP_LOOP", OperandWidths: []int{2}},

	OP_CALL: {Name: "OP_CALL", OperandWidths: []int{1}},

	OP_ARRAY_LITERAL:        {Name: "OP_ARRAY_LITERAL", OperandWidths: []int{1}},
	OP_MAP_LITERAL:          {Name: "OP_MAP_LITERAL", OperandWidths: []int{1}},
	OP_SUBSCRIPT:            {Name: "OP_SUBSCRIPT"},
	OP_SUBSCRIPT_ASSIGNMENT: {Name: "OP_SUBSCRIPT_ASSIGNMENT"},

	OP_CLOSURE: {Name: "OP_CLOSURE", OperandWidths: []int{2}},
}

// Get looks up an opcode's definition, used by the disassembler.
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode: '%d' undefined", op)
	}
	return def, nil
}

// DisassembleInstruction renders one instruction's opcode name and
// decoded operand (if any), in the form the `-d/--disasm` CLI flag
// prints (spec.md section 9's disassembler).
func DisassembleInstruction(instruction []byte) (string, error) {
	op := Opcode(instruction[0])
	def, err := Get(op)
	if err != nil {
		return "", err
	}
	if len(def.OperandWidths) == 0 {
		return fmt.Sprintf("opcode: %s, operand: None, operand widths: 0 bytes", def.Name), nil
	}
	width := def.OperandWidths[0]
	var operand int
	switch width {
	case 2:
		operand = int(binary.BigEndian.Uint16(instruction[1:3]))
	case 1:
		operand = int(instruction[1])
	}
	return fmt.Sprintf("opcode: %s, operand: %d, operand widths: %d bytes", def.Name, operand, width), nil
}

// DisassembleChunk renders every instruction in a chunk as a
// multi-line listing: offset, source line, opcode name, decoded
// operand. OP_CLOSURE's trailing {is_local, index} upvalue pairs are
// printed as extra indented lines since they have no entry in
// definitions' fixed OperandWidths.
func DisassembleChunk(chunk *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)

	offset := 0
	for offset < len(chunk.Instructions) {
		op := Opcode(chunk.Instructions[offset])
		def, err := Get(op)
		if err != nil {
			fmt.Fprintf(&b, "%04d  ???\n", offset)
			offset++
			continue
		}

		size := 1
		for _, w := range def.OperandWidths {
			size += w
		}

		line := "   |"
		if offset < len(chunk.Lines) {
			line = fmt.Sprintf("%4d", chunk.Lines[offset])
		}

		desc, _ := DisassembleInstruction(chunk.Instructions[offset : offset+size])
		fmt.Fprintf(&b, "%04d %s  %s\n", offset, line, desc)

		if op == OP_CLOSURE {
			constIdx := int(binary.BigEndian.Uint16(chunk.Instructions[offset+1 : offset+3]))
			upvalueCount := 0
			if constIdx < len(chunk.Constants) {
				if fc, ok := chunk.Constants[constIdx].AsCallable().(*FunctionConstant); ok {
					upvalueCount = fc.Fn.UpvalueCount
				}
			}
			trailer := offset + size
			for i := 0; i < upvalueCount && trailer+1 < len(chunk.Instructions); i++ {
				isLocal := chunk.Instructions[trailer]
				index := chunk.Instructions[trailer+1]
				kind := "upvalue"
				if isLocal == 1 {
					kind = "local"
				}
				fmt.Fprintf(&b, "%04d      |                     %s %d\n", trailer, kind, index)
				trailer += 2
			}
			size += upvalueCount * 2
		}

		offset += size
	}

	return b.String()
}

// MakeInstruction constructs a bytecode instruction from an opcode and
// its operands, encoded Big-Endian (spec.md section 6).
//
// Example:
//
//	instr := MakeInstruction(OP_CONSTANT, 42)
//	// instr now contains: [<opcode for OP_CONSTANT>, 0x00, 0x2A]
func MakeInstruction(op Opcode, operands ...int) []byte {
	def, err := Get(op)
	if err != nil {
		return []byte{}
	}

	byteOffset := 1
	instructionLength := byteOffset
	for _, w := range def.OperandWidths {
		instructionLength += w
	}

	instruction := make([]byte, instructionLength)
	instruction[0] = byte(op)

	for i, o := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 2:
			binary.BigEndian.PutUint16(instruction[byteOffset:], uint16(o))
		case 1:
			instruction[byteOffset] = byte(o)
		}
		byteOffset += width
	}
	return instruction
}

// FunctionKind distinguishes the implicit top-level script from a
// user-defined function (spec.md section 3: Function.kind).
type FunctionKind int

const (
	KindScript FunctionKind = iota
	KindFunction
)

// Chunk is one function's compiled form: a flat instruction stream,
// its constant pool, and a parallel source-line table (spec.md section
// 3 and section 9's "replace line-0 propagation with a per-opcode line
// table").
type Chunk struct {
	Instructions Instructions
	Constants    []value.Value
	Lines        []int
}

func (c *Chunk) write(b byte, line int) {
	c.Instructions = append(c.Instructions, b)
	c.Lines = append(c.Lines, line)
}

func (c *Chunk) writeInstruction(instr []byte, line int) int {
	pos := len(c.Instructions)
	for _, b := range instr {
		c.write(b, line)
	}
	return pos
}

// Function is the compiler's immutable output for one function body
// (or the top-level script).
type Function struct {
	Name         string
	Arity        int
	Chunk        Chunk
	UpvalueCount int
	Kind         FunctionKind
}
