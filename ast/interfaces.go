// interfaces.go contains all visitor interfaces that any code traversing expression and statement AST nodes must implement.
// It also contains the interfaces that all statement and expression AST nodes must implement which also follows the
// visitor design pattern

package ast

// ExpressionVisitor is the interface for operating on all Expression AST nodes.
// Any type that wants to perform an operation on expressions (e.g., the compiler,
// or an ast-printer) must implement this interface.
//
// Each Visit method corresponds to a distinct Expression type.
type ExpressionVisitor interface {
	// VisitBinary is called when visiting a Binary expression (e.g., "a + b").
	VisitBinary(binary Binary) any

	// VisitUnary is called when visiting a Unary expression (e.g., "!a" or "-b").
	VisitUnary(unary Unary) any

	// VisitLiteral is called when visiting a Literal expression (e.g., a number, string, or boolean).
	VisitLiteral(literal Literal) any

	// VisitGrouping is called when visiting a Grouping expression (expressions wrapped in parentheses).
	VisitGrouping(grouping Grouping) any

	VisitVariableExpression(variable Variable) any

	VisitAssignExpression(assign Assign) any

	VisitLogical(logical Logical) any

	// VisitTernary is called when visiting a "cond ? then : else" expression.
	VisitTernary(ternary Ternary) any

	// VisitCall is called when visiting a call expression, e.g. "f(a, b)".
	VisitCall(call Call) any

	// VisitArrayLiteral is called when visiting an array literal, e.g. "[1, 2, 3]".
	VisitArrayLiteral(array ArrayLiteral) any

	// VisitMapLiteral is called when visiting a map literal, e.g. `{"x": 1}`.
	VisitMapLiteral(m MapLiteral) any

	// VisitSubscript is called when visiting an index read, e.g. "a[0]".
	VisitSubscript(subscript Subscript) any

	// VisitSubscriptAssignment is called when visiting an index write, e.g. "a[0] = 1".
	VisitSubscriptAssignment(assign SubscriptAssignment) any

	// VisitPropertyAccess is called when visiting dotted access, e.g. "m.x",
	// which the compiler lowers to a string-keyed subscript.
	VisitPropertyAccess(prop PropertyAccess) any

	// VisitFunctionExpr is called when visiting a function expression
	// (an anonymous "fun(...) { ... }" used as a value).
	VisitFunctionExpr(fn FunctionExpr) any
}

// StmtVisitor is the interface for operating on all Statement AST nodes.
// Like ExpressionVisitor, it defines one Visit method per statement type.
// This separation between expressions and statements mirrors the grammar structure.
type StmtVisitor interface {
	// VisitExpressionStmt is called when visiting an Expression statement.
	// Example: "foo + bar;"
	VisitExpressionStmt(exprStmt ExpressionStmt) any

	// VisitPrintStmt is called when visiting a Print statement.
	// Example: "print foo + bar;"
	VisitPrintStmt(printStmt PrintStmt) any

	// visitVarStmt is called when visiting a declaration statement.
	// Example: "var name = \"foo\";"
	VisitVarStmt(varStmt VarStmt) any

	// VisitBlockStmt is called when visiting a block statement.
	VisitBlockStmt(blockStmt BlockStmt) any

	VisitIfStmt(stmt IfStmt) any

	VisitWhileStmt(stmt WhileStmt) any

	// VisitFunctionStmt is called when visiting a named function declaration.
	VisitFunctionStmt(stmt FunctionStmt) any

	// VisitReturnStmt is called when visiting a return statement.
	VisitReturnStmt(stmt ReturnStmt) any

	// VisitBreakStmt is called when visiting a break statement.
	VisitBreakStmt(stmt BreakStmt) any

	// VisitContinueStmt is called when visiting a continue statement.
	VisitContinueStmt(stmt ContinueStmt) any
}

// Stmt is the base interface for all statement nodes in the AST.
// Like Expression, it follows the Visitor design pattern where each
// statement type implements Accept, calling back into the correct
// Visit method on a StmtVisitor.
//
// A statement represents an action in a program (e.g., printing,
// evaluating an expression, variable declaration). Unlike expressions,
// statements typically do not produce a value.
type Stmt interface {
	// Accept dispatches this statement to the appropriate Visit method
	// of the provided StmtVisitor implementation.
	Accept(v StmtVisitor) any
}

// Expression is the core interface for all expression nodes in the Abstract Syntax Tree (AST).
// Any expression type (e.g., binary operation, literal, grouping, etc.) must implement this interface.
// The Accept method enables the Visitor design pattern so that operations can be performed on
// expressions without the expression types needing to know the details of those operations.
// The visitor pattern decoupled behaviour from data to easily allow adding the behaviour to objects
// without the need to change the objects themselves.
type Expression interface {
	// Accept dispatches the current expression node to the appropriate method on a Visitor.
	// v: the Visitor instance that defines behavior for this expression type
	// Returns: a generic result (any), since the Visitor may define its own return type
	Accept(v ExpressionVisitor) any
}
