package compiler

import (
	"testing"

	"rhythm/ast"
	"rhythm/token"
)

// TestFullPipeline exercises the AST-to-bytecode compiler end to end on
// hand-built ASTs, checking the exact instruction stream and constant
// pool produced for a handful of arithmetic expressions (spec.md
// section 4.3/6). Building the AST by hand keeps this test independent
// of the parser package.
func TestFullPipeline(t *testing.T) {
	tests := []struct {
		name         string
		expr         ast.Expression
		instructions []byte
		constants    []float64
	}{
		{
			name: "simple addition",
			expr: ast.Binary{
				Left:     ast.Literal{Value: 5.0, Line: 1},
				Operator: token.CreateToken(token.PLUS, 1, 0),
				Right:    ast.Literal{Value: 1.0, Line: 1},
			},
			instructions: []byte{
				byte(OP_CONSTANT), 0, 0,
				byte(OP_CONSTANT), 0, 1,
				byte(OP_ADD),
				byte(OP_POP),
				byte(OP_NIL),
				byte(OP_RETURN),
			},
			constants: []float64{5, 1},
		},
		{
			name: "multiplication",
			expr: ast.Binary{
				Left:     ast.Literal{Value: 5.0, Line: 1},
				Operator: token.CreateToken(token.STAR, 1, 0),
				Right:    ast.Literal{Value: 3.0, Line: 1},
			},
			instructions: []byte{
				byte(OP_CONSTANT), 0, 0,
				byte(OP_CONSTANT), 0, 1,
				byte(OP_MULTIPLY),
				byte(OP_POP),
				byte(OP_NIL),
				byte(OP_RETURN),
			},
			constants: []float64{5, 3},
		},
		{
			name: "negation",
			expr: ast.Unary{
				Operator: token.CreateToken(token.MINUS, 1, 0),
				Right:    ast.Literal{Value: 5.0, Line: 1},
			},
			instructions: []byte{
				byte(OP_CONSTANT), 0, 0,
				byte(OP_NEGATE),
				byte(OP_POP),
				byte(OP_NIL),
				byte(OP_RETURN),
			},
			constants: []float64{5},
		},
		{
			name: "precedence: multiplication before addition",
			expr: ast.Binary{
				Left: ast.Binary{
					Left:     ast.Literal{Value: 5.0, Line: 1},
					Operator: token.CreateToken(token.STAR, 1, 0),
					Right:    ast.Literal{Value: 3.0, Line: 1},
				},
				Operator: token.CreateToken(token.PLUS, 1, 0),
				Right:    ast.Literal{Value: 2.0, Line: 1},
			},
			instructions: []byte{
				byte(OP_CONSTANT), 0, 0,
				byte(OP_CONSTANT), 0, 1,
				byte(OP_MULTIPLY),
				byte(OP_CONSTANT), 0, 2,
				byte(OP_ADD),
				byte(OP_POP),
				byte(OP_NIL),
				byte(OP_RETURN),
			},
			constants: []float64{5, 3, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statements := []ast.Stmt{ast.ExpressionStmt{Expression: tt.expr}}

			c := NewASTCompiler(0)
			fn, err := c.CompileAST(statements)
			if err != nil {
				t.Fatalf("compilation failed: %v", err)
			}

			got := []byte(fn.Chunk.Instructions)
			if len(got) != len(tt.instructions) {
				t.Fatalf("instruction length mismatch - got: %d, want: %d (got=%v want=%v)", len(got), len(tt.instructions), got, tt.instructions)
			}
			for i, b := range tt.instructions {
				if got[i] != b {
					t.Errorf("instruction mismatch at index %d - got: %d, want: %d", i, got[i], b)
				}
			}

			if len(fn.Chunk.Constants) != len(tt.constants) {
				t.Fatalf("constants length mismatch - got: %d, want: %d", len(fn.Chunk.Constants), len(tt.constants))
			}
			for i, want := range tt.constants {
				if fn.Chunk.Constants[i].AsNumber() != want {
					t.Errorf("constant mismatch at index %d - got: %v, want: %v", i, fn.Chunk.Constants[i], want)
				}
			}
		})
	}
}

// TestPipelineTopLevelIsImplicitFunction checks that CompileAST's
// result is shaped like any other Function (top-level script kind,
// zero arity), matching spec.md section 3's "the script itself is an
// implicit, argument-less Function".
func TestPipelineTopLevelIsImplicitFunction(t *testing.T) {
	statements := []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.Binary{
			Left:     ast.Literal{Value: 5.0, Line: 1},
			Operator: token.CreateToken(token.STAR, 1, 0),
			Right:    ast.Literal{Value: 3.0, Line: 1},
		}},
	}

	c := NewASTCompiler(0)
	fn, err := c.CompileAST(statements)
	if err != nil {
		t.Fatalf("compilation failed: %v", err)
	}

	if fn.Kind != KindScript {
		t.Errorf("top-level function kind mismatch - got: %v, want: KindScript", fn.Kind)
	}
	if fn.Arity != 0 {
		t.Errorf("top-level function arity mismatch - got: %d, want: 0", fn.Arity)
	}
	if len(fn.Chunk.Instructions) != 10 {
		t.Errorf("instruction length mismatch - got: %d, want: 10", len(fn.Chunk.Instructions))
	}
	if len(fn.Chunk.Constants) != 2 {
		t.Errorf("constants length mismatch - got: %d, want: 2", len(fn.Chunk.Constants))
	}
	if fn.Chunk.Constants[0].AsNumber() != 5 {
		t.Errorf("first constant mismatch - got: %v, want: 5", fn.Chunk.Constants[0])
	}
	if fn.Chunk.Constants[1].AsNumber() != 3 {
		t.Errorf("second constant mismatch - got: %v, want: 3", fn.Chunk.Constants[1])
	}
}
