package compiler

import "fmt"

// SemanticError is a compile-time error caused by the program being
// compiled: redeclaration, use of an uninitialized local,
// break/continue outside a loop, or exceeding a
// compile-time limit (spec.md section 4.3's compile-error taxonomy).
type SemanticError struct {
	Line    int
	Message string
}

func (e SemanticError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("💥 SemanticError: line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("💥 SemanticError: %s", e.Message)
}

// DeveloperError marks an invariant violation inside the compiler
// itself (a bug, not a user error) — mirrors the teacher's own
// 🤖 DeveloperError and is never raised for a user-triggered condition.
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}
