package compiler

// This file implements the ASTCompiler, which compiles the abstract syntax tree (AST) directly to bytecode.

import (
	"rhythm/ast"
	"rhythm/token"
	"rhythm/value"
)

// Local mirrors one slot of the runtime operand stack for the function
// currently being compiled. Depth -1 means "declared but its
// initializer has not finished compiling yet" — used to reject a
// variable referencing itself in its own initializer.
type Local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueDesc is one entry of a function's upvalue descriptor list, the
// compile-time half of the runtime Upvalue resolution algorithm.
type upvalueDesc struct {
	index   uint8
	isLocal bool
}

// loopContext tracks one enclosing loop's patchable jump lists and the
// local-stack depth at loop entry, so break/continue know how many
// locals to pop before jumping.
type loopContext struct {
	loopStart     int
	continueJumps []int
	breakJumps    []int
	localsAtEntry int
}

// FunctionConstant is how a compiled Function rides inside a parent
// chunk's constant pool: it satisfies value.Callable so it can be
// stored as a value.Value like any other constant, but the VM's
// OP_CLOSURE handler type-asserts it back to *FunctionConstant to pull
// out the real Function (chunk, upvalue count) and bind it to a fresh
// vm.Closure with the upvalues captured at that CLOSURE site.
type FunctionConstant struct {
	Fn *Function
}

func (f *FunctionConstant) Arity() int   { return f.Fn.Arity }
func (f *FunctionConstant) Name() string { return f.Fn.Name }

// ASTCompiler is a visitor that compiles AST nodes directly to
// bytecode. It implements both ast.ExpressionVisitor and
// ast.StmtVisitor to traverse and compile the tree in a single pass —
// no separate resolver phase. A chain of ASTCompilers, one per nested
// function body, link through `enclosing` so upvalue resolution can
// walk outward.
type ASTCompiler struct {
	enclosing *ASTCompiler
	function  *Function

	locals     []Local
	upvalues   []upvalueDesc
	scopeDepth int

	loopStack []*loopContext

	maxConstants int
	noLoop       bool

	nameConstants map[string]int
}

// NewASTCompiler builds the top-level compiler for the implicit Script
// function. maxConstants bounds the constant pool ("too many constants
// (>65535)"); pass 0 to fall back to the default.
func NewASTCompiler(maxConstants int) *ASTCompiler {
	if maxConstants <= 0 {
		maxConstants = 65535
	}
	return &ASTCompiler{
		function:      &Function{Name: "script", Arity: 0, Kind: KindScript},
		maxConstants:  maxConstants,
		nameConstants: map[string]int{},
	}
}

// WithNoLoop records that while/for were already rejected by the
// parser (see the parser's noLoop option) — the compiler itself does
// not need to act on it, this just keeps CLI wiring in one place.
func (ac *ASTCompiler) WithNoLoop(noLoop bool) *ASTCompiler {
	ac.noLoop = noLoop
	return ac
}

func newChildCompiler(enclosing *ASTCompiler, name string, kind FunctionKind) *ASTCompiler {
	return &ASTCompiler{
		enclosing:     enclosing,
		function:      &Function{Name: name, Kind: kind},
		scopeDepth:    1,
		maxConstants:  enclosing.maxConstants,
		nameConstants: map[string]int{},
	}
}

// CompileAST compiles a slice of top-level statements into this
// compiler's Function. A previously-appended trailing "NIL; RETURN" is
// stripped before appending the new statements' bytecode — this lets
// the REPL feed one line at a time into the same top-level script
// compiler and keep growing one Chunk incrementally.
func (ac *ASTCompiler) CompileAST(statements []ast.Stmt) (fn *Function, err error) {
	// Recover from any panic raised deep in the visitor methods, where
	// threading an error return through every recursive call would
	// obscure the single-pass algorithm; this is the only place
	// panic/recover crosses the compiler's public API boundary.
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	code := ac.function.Chunk.Instructions
	if n := len(code); n >= 2 && Opcode(code[n-2]) == OP_NIL && Opcode(code[n-1]) == OP_RETURN {
		ac.function.Chunk.Instructions = code[:n-2]
		ac.function.Chunk.Lines = ac.function.Chunk.Lines[:len(ac.function.Chunk.Lines)-2]
	}

	line := 1
	for _, stmt := range statements {
		line = stmtLine(stmt)
		ac.compileStmt(stmt)
	}
	ac.emit(OP_NIL, line)
	ac.emit(OP_RETURN, line)

	return ac.function, nil
}

// --- emission helpers -------------------------------------------------

func (ac *ASTCompiler) emit(op Opcode, line int, operands ...int) int {
	return ac.function.Chunk.writeInstruction(MakeInstruction(op, operands...), line)
}

func (ac *ASTCompiler) emitPlaceholderJump(op Opcode, line int) int {
	return ac.emit(op, line, 0xFFFF)
}

// patchJump overwrites a jump instruction's placeholder operand so it
// targets the current end of the instruction stream.
func (ac *ASTCompiler) patchJump(jumpPos int) {
	ac.patchJumpTo(jumpPos, len(ac.function.Chunk.Instructions))
}

// patchJumpTo patches a previously-emitted jump to target an arbitrary
// position (used for continue jumps, which target the loop's
// increment/re-test rather than "here").
func (ac *ASTCompiler) patchJumpTo(jumpPos, target int) {
	offset := target - (jumpPos + 3)
	if offset > 0xFFFF || offset < 0 {
		panic(SemanticError{Message: "jump offset too large"})
	}
	ac.function.Chunk.Instructions[jumpPos+1] = byte(offset >> 8)
	ac.function.Chunk.Instructions[jumpPos+2] = byte(offset)
}

func (ac *ASTCompiler) emitLoop(loopStart int, line int) {
	pos := ac.emit(OP_LOOP, line, 0xFFFF)
	offset := (pos + 3) - loopStart
	if offset > 0xFFFF {
		panic(SemanticError{Message: "loop body too large"})
	}
	ac.function.Chunk.Instructions[pos+1] = byte(offset >> 8)
	ac.function.Chunk.Instructions[pos+2] = byte(offset)
}

func (ac *ASTCompiler) addConstant(v value.Value) int {
	for i, existing := range ac.function.Chunk.Constants {
		if existing.Equal(v) {
			return i
		}
	}
	if len(ac.function.Chunk.Constants) >= ac.maxConstants {
		panic(SemanticError{Message: "too many constants in one chunk"})
	}
	ac.function.Chunk.Constants = append(ac.function.Chunk.Constants, v)
	return len(ac.function.Chunk.Constants) - 1
}

// addNameConstant interns an identifier/property name as a string
// constant, deduplicating repeats since the same name may recur many
// times (e.g. a variable read several times, or across REPL lines).
func (ac *ASTCompiler) addNameConstant(name string) int {
	if idx, ok := ac.nameConstants[name]; ok {
		return idx
	}
	idx := ac.addConstant(value.String(name))
	ac.nameConstants[name] = idx
	return idx
}

// --- scope discipline --------------------------------------------------

func (ac *ASTCompiler) beginScope() {
	ac.scopeDepth++
}

// endScope pops every local declared in the scope just exited, one
// opcode per local — CLOSE_UPVALUE for a captured local, POP
// otherwise. Per-local emission (rather than a single batched pop) is
// what lets the VM know exactly which locals need their upvalues
// closed.
func (ac *ASTCompiler) endScope(line int) {
	ac.scopeDepth--
	for len(ac.locals) > 0 && ac.locals[len(ac.locals)-1].depth > ac.scopeDepth {
		last := ac.locals[len(ac.locals)-1]
		if last.isCaptured {
			ac.emit(OP_CLOSE_UPVALUE, line)
		} else {
			ac.emit(OP_POP, line)
		}
		ac.locals = ac.locals[:len(ac.locals)-1]
	}
}

// declareLocal adds a local variable name, checking for same-scope
// duplicates. It panics if there is a duplicate variable declaration in
// the same scope.
func (ac *ASTCompiler) declareLocal(name string, line int) {
	if ac.scopeDepth == 0 {
		return
	}
	for i := len(ac.locals) - 1; i >= 0; i-- {
		local := ac.locals[i]
		if local.depth != -1 && local.depth < ac.scopeDepth {
			break
		}
		if local.name == name {
			panic(SemanticError{Line: line, Message: "redeclaration of '" + name + "' in the same scope"})
		}
	}
	ac.locals = append(ac.locals, Local{name: name, depth: -1})
}

// defineLocal marks the most recently declared local variable as
// initialized, at the current scope depth.
func (ac *ASTCompiler) defineLocal() {
	if ac.scopeDepth == 0 {
		return
	}
	ac.locals[len(ac.locals)-1].depth = ac.scopeDepth
}

// resolveLocal checks if a variable name exists in the current
// compiler's locals and returns its slot index, or -1 if not found.
func (ac *ASTCompiler) resolveLocal(name string, line int) int {
	for i := len(ac.locals) - 1; i >= 0; i-- {
		if ac.locals[i].name == name {
			if ac.locals[i].depth == -1 {
				panic(SemanticError{Line: line, Message: "cannot read local '" + name + "' in its own initializer"})
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue walks the enclosing-compiler chain looking for name
// as a local (or, transitively, an upvalue) of some enclosing function,
// capturing it at each level it threads through.
func (ac *ASTCompiler) resolveUpvalue(name string, line int) int {
	if ac.enclosing == nil {
		return -1
	}
	if slot := ac.enclosing.resolveLocal(name, line); slot != -1 {
		ac.enclosing.locals[slot].isCaptured = true
		return ac.addUpvalue(uint8(slot), true, line)
	}
	if up := ac.enclosing.resolveUpvalue(name, line); up != -1 {
		return ac.addUpvalue(uint8(up), false, line)
	}
	return -1
}

func (ac *ASTCompiler) addUpvalue(index uint8, isLocal bool, line int) int {
	for i, existing := range ac.upvalues {
		if existing.index == index && existing.isLocal == isLocal {
			return i
		}
	}
	if len(ac.upvalues) >= 255 {
		panic(SemanticError{Line: line, Message: "too many upvalues in one function"})
	}
	ac.upvalues = append(ac.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	return len(ac.upvalues) - 1
}

// --- line extraction -----------------------------------------------

func stmtLine(s ast.Stmt) int {
	switch n := s.(type) {
	case ast.ExpressionStmt:
		return exprLine(n.Expression)
	case ast.PrintStmt:
		return exprLine(n.Expression)
	case ast.VarStmt:
		return int(n.Name.Line)
	case ast.BlockStmt:
		if len(n.Statements) > 0 {
			return stmtLine(n.Statements[0])
		}
		return 1
	case ast.IfStmt:
		return exprLine(n.Condition)
	case ast.WhileStmt:
		return exprLine(n.Condition)
	case ast.FunctionStmt:
		return int(n.Name.Line)
	case ast.ReturnStmt:
		return int(n.Keyword.Line)
	case ast.BreakStmt:
		return int(n.Keyword.Line)
	case ast.ContinueStmt:
		return int(n.Keyword.Line)
	default:
		return 1
	}
}

func exprLine(e ast.Expression) int {
	switch n := e.(type) {
	case ast.Binary:
		return int(n.Operator.Line)
	case ast.Logical:
		return int(n.Operator.Line)
	case ast.Ternary:
		return int(n.Line)
	case ast.Unary:
		return int(n.Operator.Line)
	case ast.Grouping:
		return exprLine(n.Expression)
	case ast.Literal:
		return int(n.Line)
	case ast.Variable:
		return int(n.Name.Line)
	case ast.Assign:
		return int(n.Name.Line)
	case ast.Call:
		return int(n.Line)
	case ast.ArrayLiteral:
		return int(n.Line)
	case ast.MapLiteral:
		return int(n.Line)
	case ast.Subscript:
		return int(n.Line)
	case ast.SubscriptAssignment:
		return int(n.Line)
	case ast.PropertyAccess:
		return int(n.Name.Line)
	case ast.FunctionExpr:
		return int(n.Line)
	default:
		return 1
	}
}

// --- statement visitors -------------------------------------------

func (ac *ASTCompiler) compileStmt(s ast.Stmt) {
	s.Accept(ac)
}

func (ac *ASTCompiler) compileExpr(e ast.Expression) {
	e.Accept(ac)
}

// VisitExpressionStmt compiles an expression used as a statement,
// discarding its value.
func (ac *ASTCompiler) VisitExpressionStmt(exprStmt ast.ExpressionStmt) any {
	ac.compileExpr(exprStmt.Expression)
	ac.emit(OP_POP, exprLine(exprStmt.Expression))
	return nil
}

func (ac *ASTCompiler) VisitPrintStmt(printStmt ast.PrintStmt) any {
	ac.compileExpr(printStmt.Expression)
	ac.emit(OP_PRINT, exprLine(printStmt.Expression))
	return nil
}

// VisitVarStmt handles variable declaration statements. At global
// scope it interns the name and emits DEFINE_GLOBAL; inside a scope it
// declares a new local slot.
func (ac *ASTCompiler) VisitVarStmt(varStmt ast.VarStmt) any {
	line := int(varStmt.Name.Line)

	if ac.scopeDepth > 0 {
		ac.declareLocal(varStmt.Name.Lexeme, line)
		if varStmt.Initializer != nil {
			ac.compileExpr(varStmt.Initializer)
		} else {
			ac.emit(OP_NIL, line)
		}
		ac.defineLocal()
		return nil
	}

	nameIdx := ac.addNameConstant(varStmt.Name.Lexeme)
	if varStmt.Initializer != nil {
		ac.compileExpr(varStmt.Initializer)
	} else {
		ac.emit(OP_NIL, line)
	}
	ac.emit(OP_DEFINE_GLOBAL, line, nameIdx)
	return nil
}

// VisitBlockStmt compiles a block statement's body inside a fresh
// scope, then pops its locals one at a time on exit.
func (ac *ASTCompiler) VisitBlockStmt(blockStmt ast.BlockStmt) any {
	line := 1
	if len(blockStmt.Statements) > 0 {
		line = stmtLine(blockStmt.Statements[0])
	}
	ac.beginScope()
	for _, stmt := range blockStmt.Statements {
		ac.compileStmt(stmt)
	}
	ac.endScope(line)
	return nil
}

// VisitIfStmt compiles an if/else statement, using backpatched jumps
// to resolve branch targets: "C; JUMP_IF_FALSE -> L1; POP; T; JUMP ->
// L2; L1: POP; E; L2:".
func (ac *ASTCompiler) VisitIfStmt(ifStmt ast.IfStmt) any {
	line := exprLine(ifStmt.Condition)
	ac.compileExpr(ifStmt.Condition)

	thenJump := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE, line)
	ac.emit(OP_POP, line)
	ac.compileStmt(ifStmt.Then)

	elseJump := ac.emitPlaceholderJump(OP_JUMP, line)
	ac.patchJump(thenJump)
	ac.emit(OP_POP, line)

	if ifStmt.Else != nil {
		ac.compileStmt(ifStmt.Else)
	}
	ac.patchJump(elseJump)
	return nil
}

// VisitWhileStmt compiles a while loop (and a desugared for loop, whose
// increment rides on WhileStmt.Increment so continue still runs it):
// "start: C; JUMP_IF_FALSE -> end; POP; B; <continue jumps land here>;
// I; POP; LOOP -> start; end: POP".
func (ac *ASTCompiler) VisitWhileStmt(whileStmt ast.WhileStmt) any {
	line := exprLine(whileStmt.Condition)
	loopStart := len(ac.function.Chunk.Instructions)

	loop := &loopContext{loopStart: loopStart, localsAtEntry: len(ac.locals)}
	ac.loopStack = append(ac.loopStack, loop)

	ac.compileExpr(whileStmt.Condition)
	exitJump := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE, line)
	ac.emit(OP_POP, line)

	ac.compileStmt(whileStmt.Body)

	for _, pos := range loop.continueJumps {
		ac.patchJumpTo(pos, len(ac.function.Chunk.Instructions))
	}

	if whileStmt.Increment != nil {
		ac.compileExpr(whileStmt.Increment)
		ac.emit(OP_POP, exprLine(whileStmt.Increment))
	}

	ac.emitLoop(loopStart, line)
	ac.patchJump(exitJump)
	ac.emit(OP_POP, line)

	for _, pos := range loop.breakJumps {
		ac.patchJumpTo(pos, len(ac.function.Chunk.Instructions))
	}

	ac.loopStack = ac.loopStack[:len(ac.loopStack)-1]
	return nil
}

func (ac *ASTCompiler) VisitBreakStmt(stmt ast.BreakStmt) any {
	if len(ac.loopStack) == 0 {
		panic(SemanticError{Line: int(stmt.Keyword.Line), Message: "'break' outside a loop"})
	}
	loop := ac.loopStack[len(ac.loopStack)-1]
	ac.popLocalsSinceLoopEntry(loop, int(stmt.Keyword.Line))
	jump := ac.emitPlaceholderJump(OP_JUMP, int(stmt.Keyword.Line))
	loop.breakJumps = append(loop.breakJumps, jump)
	return nil
}

func (ac *ASTCompiler) VisitContinueStmt(stmt ast.ContinueStmt) any {
	if len(ac.loopStack) == 0 {
		panic(SemanticError{Line: int(stmt.Keyword.Line), Message: "'continue' outside a loop"})
	}
	loop := ac.loopStack[len(ac.loopStack)-1]
	ac.popLocalsSinceLoopEntry(loop, int(stmt.Keyword.Line))
	jump := ac.emitPlaceholderJump(OP_JUMP, int(stmt.Keyword.Line))
	loop.continueJumps = append(loop.continueJumps, jump)
	return nil
}

// popLocalsSinceLoopEntry pops (or closes) every local declared since
// entering the loop, so a break/continue that jumps out of nested
// scopes leaves the operand stack exactly where the loop expects.
func (ac *ASTCompiler) popLocalsSinceLoopEntry(loop *loopContext, line int) {
	for i := len(ac.locals) - 1; i >= loop.localsAtEntry; i-- {
		if ac.locals[i].isCaptured {
			ac.emit(OP_CLOSE_UPVALUE, line)
		} else {
			ac.emit(OP_POP, line)
		}
	}
}

func (ac *ASTCompiler) VisitReturnStmt(stmt ast.ReturnStmt) any {
	line := int(stmt.Keyword.Line)
	if stmt.Value != nil {
		ac.compileExpr(stmt.Value)
	} else {
		ac.emit(OP_NIL, line)
	}
	ac.emit(OP_RETURN, line)
	return nil
}

// VisitFunctionStmt compiles a named function declaration. At nested
// scope, a placeholder local for the function's own name is declared
// *before* compiling the body, so the body can refer to its own name
// recursively via an upvalue capture of that local.
func (ac *ASTCompiler) VisitFunctionStmt(stmt ast.FunctionStmt) any {
	line := int(stmt.Name.Line)
	if ac.scopeDepth > 0 {
		ac.declareLocal(stmt.Name.Lexeme, line)
		ac.defineLocal()
	}

	fn, upvalues := ac.compileFunctionBody(stmt.Params, stmt.Body, stmt.Name.Lexeme, KindFunction, line)
	ac.emitClosure(fn, upvalues, line)

	if ac.scopeDepth == 0 {
		nameIdx := ac.addNameConstant(stmt.Name.Lexeme)
		ac.emit(OP_DEFINE_GLOBAL, line, nameIdx)
	}
	return nil
}

// compileFunctionBody compiles params+body with a fresh child compiler
// whose scope is already one level deep and whose locals begin with
// the parameters, and returns the resulting Function plus the upvalue
// descriptors the child recorded while compiling its body.
func (ac *ASTCompiler) compileFunctionBody(params []token.Token, body []ast.Stmt, name string, kind FunctionKind, line int) (*Function, []upvalueDesc) {
	child := newChildCompiler(ac, name, kind)
	for _, p := range params {
		child.locals = append(child.locals, Local{name: p.Lexeme, depth: 1})
	}
	child.function.Arity = len(params)

	for _, s := range body {
		child.compileStmt(s)
	}
	bodyLine := line
	if len(body) > 0 {
		bodyLine = stmtLine(body[len(body)-1])
	}
	child.emit(OP_NIL, bodyLine)
	child.emit(OP_RETURN, bodyLine)

	child.function.UpvalueCount = len(child.upvalues)
	return child.function, child.upvalues
}

// emitClosure emits "CLOSURE constant_index" followed by one
// {is_local, index} byte pair per upvalue.
func (ac *ASTCompiler) emitClosure(fn *Function, upvalues []upvalueDesc, line int) {
	constIdx := ac.addConstant(value.FromCallable(&FunctionConstant{Fn: fn}))
	ac.emit(OP_CLOSURE, line, constIdx)
	for _, uv := range upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		ac.function.Chunk.write(isLocal, line)
		ac.function.Chunk.write(uv.index, line)
	}
}

// --- expression visitors -------------------------------------------

// VisitBinary handles binary expressions. !=, <=, >= are synthesized
// from their complementary opcode plus OP_NOT rather than given their
// own opcodes.
func (ac *ASTCompiler) VisitBinary(binary ast.Binary) any {
	line := int(binary.Operator.Line)

	switch binary.Operator.TokenType {
	case token.NOT_EQUAL:
		ac.compileExpr(binary.Left)
		ac.compileExpr(binary.Right)
		ac.emit(OP_EQUAL, line)
		ac.emit(OP_NOT, line)
		return nil
	case token.GREATER_EQUAL:
		ac.compileExpr(binary.Left)
		ac.compileExpr(binary.Right)
		ac.emit(OP_LESS, line)
		ac.emit(OP_NOT, line)
		return nil
	case token.LESS_EQUAL:
		ac.compileExpr(binary.Left)
		ac.compileExpr(binary.Right)
		ac.emit(OP_GREATER, line)
		ac.emit(OP_NOT, line)
		return nil
	}

	// Left expression is compiled first to ensure correct evaluation order.
	ac.compileExpr(binary.Left)
	ac.compileExpr(binary.Right)

	switch binary.Operator.TokenType {
	case token.PLUS:
		ac.emit(OP_ADD, line)
	case token.MINUS:
		ac.emit(OP_SUBTRACT, line)
	case token.STAR:
		ac.emit(OP_MULTIPLY, line)
	case token.SLASH:
		ac.emit(OP_DIVIDE, line)
	case token.PERCENT:
		ac.emit(OP_MODULO, line)
	case token.EQUAL_EQUAL:
		ac.emit(OP_EQUAL, line)
	case token.GREATER:
		ac.emit(OP_GREATER, line)
	case token.LESS:
		ac.emit(OP_LESS, line)
	default:
		panic(DeveloperError{Message: "unreachable binary operator " + string(binary.Operator.TokenType)})
	}
	return nil
}

// VisitLogical compiles short-circuiting and/or expressions.
func (ac *ASTCompiler) VisitLogical(logical ast.Logical) any {
	line := int(logical.Operator.Line)
	ac.compileExpr(logical.Left)

	switch logical.Operator.TokenType {
	case token.AND:
		// If the left operand is falsy, short-circuit past the right one.
		endJump := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE, line)
		ac.emit(OP_POP, line)
		ac.compileExpr(logical.Right)
		ac.patchJump(endJump)
	case token.OR:
		// If the left operand is truthy, short-circuit past the right one.
		elseJump := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE, line)
		endJump := ac.emitPlaceholderJump(OP_JUMP, line)
		ac.patchJump(elseJump)
		ac.emit(OP_POP, line)
		ac.compileExpr(logical.Right)
		ac.patchJump(endJump)
	}
	return nil
}

// VisitTernary compiles "condition ? then : else" the same way as an
// if/else expression: "C; JUMP_IF_FALSE -> else; POP; T; JUMP -> end;
// else: POP; E; end:".
func (ac *ASTCompiler) VisitTernary(ternary ast.Ternary) any {
	line := int(ternary.Line)
	ac.compileExpr(ternary.Condition)
	elseJump := ac.emitPlaceholderJump(OP_JUMP_IF_FALSE, line)
	ac.emit(OP_POP, line)
	ac.compileExpr(ternary.Then)
	endJump := ac.emitPlaceholderJump(OP_JUMP, line)
	ac.patchJump(elseJump)
	ac.emit(OP_POP, line)
	ac.compileExpr(ternary.Else)
	ac.patchJump(endJump)
	return nil
}

func (ac *ASTCompiler) VisitUnary(unary ast.Unary) any {
	line := int(unary.Operator.Line)
	ac.compileExpr(unary.Right)
	switch unary.Operator.TokenType {
	case token.MINUS:
		ac.emit(OP_NEGATE, line)
	case token.BANG:
		ac.emit(OP_NOT, line)
	default:
		panic(SemanticError{Line: line, Message: "invalid unary operator '" + string(unary.Operator.TokenType) + "'"})
	}
	return nil
}

func (ac *ASTCompiler) VisitGrouping(grouping ast.Grouping) any {
	ac.compileExpr(grouping.Expression)
	return nil
}

// VisitLiteral adds the literal value to the constant pool and emits
// OP_CONSTANT (or OP_NIL directly for a nil literal).
func (ac *ASTCompiler) VisitLiteral(literal ast.Literal) any {
	line := int(literal.Line)
	switch v := literal.Value.(type) {
	case nil:
		ac.emit(OP_NIL, line)
	case bool:
		ac.emit(OP_CONSTANT, line, ac.addConstant(value.Bool(v)))
	case float64:
		ac.emit(OP_CONSTANT, line, ac.addConstant(value.Number(v)))
	case string:
		ac.emit(OP_CONSTANT, line, ac.addConstant(value.String(v)))
	default:
		panic(DeveloperError{Message: "unsupported literal value type"})
	}
	return nil
}

// VisitVariableExpression compiles variable access, resolving the name
// as a local, then an upvalue, then finally a global.
func (ac *ASTCompiler) VisitVariableExpression(variable ast.Variable) any {
	line := int(variable.Name.Line)
	name := variable.Name.Lexeme

	if slot := ac.resolveLocal(name, line); slot != -1 {
		ac.emit(OP_GET_LOCAL, line, slot)
		return nil
	}
	if slot := ac.resolveUpvalue(name, line); slot != -1 {
		ac.emit(OP_GET_UPVALUE, line, slot)
		return nil
	}
	ac.emit(OP_GET_GLOBAL, line, ac.addNameConstant(name))
	return nil
}

// VisitAssignExpression compiles the right-hand side first, then
// resolves the target name the same way variable reads do.
func (ac *ASTCompiler) VisitAssignExpression(assign ast.Assign) any {
	line := int(assign.Name.Line)
	name := assign.Name.Lexeme
	ac.compileExpr(assign.Value)

	if slot := ac.resolveLocal(name, line); slot != -1 {
		ac.emit(OP_SET_LOCAL, line, slot)
		return nil
	}
	if slot := ac.resolveUpvalue(name, line); slot != -1 {
		ac.emit(OP_SET_UPVALUE, line, slot)
		return nil
	}
	ac.emit(OP_SET_GLOBAL, line, ac.addNameConstant(name))
	return nil
}

func (ac *ASTCompiler) VisitCall(call ast.Call) any {
	line := int(call.Line)
	if len(call.Arguments) > 255 {
		panic(SemanticError{Line: line, Message: "too many call arguments"})
	}
	ac.compileExpr(call.Callee)
	for _, arg := range call.Arguments {
		ac.compileExpr(arg)
	}
	ac.emit(OP_CALL, line, len(call.Arguments))
	return nil
}

func (ac *ASTCompiler) VisitArrayLiteral(array ast.ArrayLiteral) any {
	line := int(array.Line)
	if len(array.Elements) > 255 {
		panic(SemanticError{Line: line, Message: "array literal too large"})
	}
	for _, el := range array.Elements {
		ac.compileExpr(el)
	}
	ac.emit(OP_ARRAY_LITERAL, line, len(array.Elements))
	return nil
}

func (ac *ASTCompiler) VisitMapLiteral(m ast.MapLiteral) any {
	line := int(m.Line)
	if len(m.Entries) > 255 {
		panic(SemanticError{Line: line, Message: "map literal too large"})
	}
	for _, entry := range m.Entries {
		ac.compileExpr(entry.Key)
		ac.compileExpr(entry.Value)
	}
	ac.emit(OP_MAP_LITERAL, line, len(m.Entries))
	return nil
}

func (ac *ASTCompiler) VisitSubscript(subscript ast.Subscript) any {
	line := int(subscript.Line)
	ac.compileExpr(subscript.Object)
	ac.compileExpr(subscript.Index)
	ac.emit(OP_SUBSCRIPT, line)
	return nil
}

func (ac *ASTCompiler) VisitSubscriptAssignment(assign ast.SubscriptAssignment) any {
	line := int(assign.Line)
	ac.compileExpr(assign.Object)
	ac.compileExpr(assign.Index)
	ac.compileExpr(assign.Value)
	ac.emit(OP_SUBSCRIPT_ASSIGNMENT, line)
	return nil
}

// VisitPropertyAccess lowers "obj.name" to "obj[\"name\"]" at compile
// time — there is no runtime GET_PROPERTY opcode.
func (ac *ASTCompiler) VisitPropertyAccess(prop ast.PropertyAccess) any {
	line := int(prop.Name.Line)
	ac.compileExpr(prop.Object)
	ac.emit(OP_CONSTANT, line, ac.addConstant(value.String(prop.Name.Lexeme)))
	ac.emit(OP_SUBSCRIPT, line)
	return nil
}

func (ac *ASTCompiler) VisitFunctionExpr(fn ast.FunctionExpr) any {
	line := int(fn.Line)
	compiled, upvalues := ac.compileFunctionBody(fn.Params, fn.Body, "anonymous", KindFunction, line)
	ac.emitClosure(compiled, upvalues, line)
	return nil
}
