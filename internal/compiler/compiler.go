// internal/compiler/compiler.go
package compiler

import (
	"github.com/rill-lang/rill/internal/bytecode"
	"github.com/rill-lang/rill/internal/errors"
	"github.com/rill-lang/rill/internal/lexer"
	"github.com/rill-lang/rill/internal/parser"
)

// Compiler walks the expression tree and emits bytecode. Every visit leaves
// exactly one value on the operand stack; sequencing constructs pop the
// intermediate values themselves. Identifier resolution is static: local slot
// first, the enclosing function's own name second (for recursion), global
// access last. Global existence is a runtime concern.
type Compiler struct {
	prog  *bytecode.Program
	chunk *bytecode.Chunk

	// Function body being compiled; empty/nil at top level. fnValue lets a
	// body reference its own function without lexical capture.
	fnName  string
	fnValue *bytecode.Function

	locals []local
	scopes []int
	err    error
}

func NewCompiler() *Compiler {
	main := bytecode.NewChunk()
	return &Compiler{
		prog:  &bytecode.Program{Main: main},
		chunk: main,
	}
}

// Compile turns a parsed program into an executable one. Intermediate
// top-level values are popped; the last expression's value is the program's
// result, null when the program is empty.
func (c *Compiler) Compile(prog *parser.Program) (*bytecode.Program, error) {
	for i, expr := range prog.Exprs {
		expr.Accept(c)
		if i < len(prog.Exprs)-1 {
			c.emitOp(bytecode.OpPop, errors.Position{})
		}
	}
	if len(prog.Exprs) == 0 {
		c.emitOp(bytecode.OpNull, errors.Position{})
	}
	c.emitOp(bytecode.OpReturn, errors.Position{})
	if c.err != nil {
		return nil, c.err
	}
	return c.prog, nil
}

// CompileSource is the narrow front-end interface: source text in, runnable
// program or first-stage error out.
func CompileSource(source string) (*bytecode.Program, error) {
	tokens, err := lexer.NewScanner(source).ScanTokens()
	if err != nil {
		return nil, err
	}
	tree, err := parser.NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}
	return NewCompiler().Compile(tree)
}

func (c *Compiler) VisitLiteralExpr(expr *parser.Literal) interface{} {
	if c.err != nil {
		return nil
	}
	if expr.Value == nil {
		c.emitOp(bytecode.OpNull, expr.Pos)
		return nil
	}
	c.emitConstant(expr.Value, expr.Pos)
	return nil
}

func (c *Compiler) VisitVariableExpr(expr *parser.Variable) interface{} {
	if c.err != nil {
		return nil
	}
	if slot, ok := c.resolveLocal(expr.Name); ok {
		c.emitOp(bytecode.OpGetLocal, expr.Pos)
		c.emitByte(byte(slot), expr.Pos)
		return nil
	}
	if expr.Name == c.fnName {
		c.emitConstant(c.fnValue, expr.Pos)
		return nil
	}
	idx, ok := c.addConstant(expr.Name, expr.Pos)
	if !ok {
		return nil
	}
	c.emitOp(bytecode.OpGetGlobal, expr.Pos)
	c.emitByte(byte(idx), expr.Pos)
	return nil
}

func (c *Compiler) VisitUnaryExpr(expr *parser.Unary) interface{} {
	if c.err != nil {
		return nil
	}
	expr.Operand.Accept(c)
	switch expr.Operator {
	case "-":
		c.emitOp(bytecode.OpNegate, expr.Pos)
	case "!":
		c.emitOp(bytecode.OpNot, expr.Pos)
	}
	return nil
}

var binaryOps = map[string]bytecode.OpCode{
	"+":  bytecode.OpAdd,
	"-":  bytecode.OpSub,
	"*":  bytecode.OpMul,
	"/":  bytecode.OpDiv,
	"%":  bytecode.OpMod,
	"==": bytecode.OpEqual,
	"!=": bytecode.OpNotEqual,
	">":  bytecode.OpGreater,
	">=": bytecode.OpGreaterEqual,
	"<":  bytecode.OpLess,
	"<=": bytecode.OpLessEqual,
}

func (c *Compiler) VisitBinaryExpr(expr *parser.Binary) interface{} {
	if c.err != nil {
		return nil
	}
	expr.Left.Accept(c)
	expr.Right.Accept(c)
	c.emitOp(binaryOps[expr.Operator], expr.Pos)
	return nil
}

// VisitLogicalExpr lowers and/or to conditional jumps so the right operand's
// instructions are skipped when the left operand decides the result.
func (c *Compiler) VisitLogicalExpr(expr *parser.Logical) interface{} {
	if c.err != nil {
		return nil
	}
	kind := bytecode.CondAnd
	if expr.Operator == "or" {
		kind = bytecode.CondOr
	}
	expr.Left.Accept(c)
	if expr.Operator == "and" {
		end := c.emitCondJump(bytecode.OpJumpIfFalsePeek, kind, expr.Pos)
		c.emitOp(bytecode.OpPop, expr.Pos)
		expr.Right.Accept(c)
		c.emitOp(bytecode.OpCheckBool, expr.Pos)
		c.emitByte(kind, expr.Pos)
		c.patchJump(end, expr.Pos)
		return nil
	}
	rhs := c.emitCondJump(bytecode.OpJumpIfFalsePeek, kind, expr.Pos)
	end := c.emitJump(bytecode.OpJump, expr.Pos)
	c.patchJump(rhs, expr.Pos)
	c.emitOp(bytecode.OpPop, expr.Pos)
	expr.Right.Accept(c)
	c.emitOp(bytecode.OpCheckBool, expr.Pos)
	c.emitByte(kind, expr.Pos)
	c.patchJump(end, expr.Pos)
	return nil
}

func (c *Compiler) VisitAssignExpr(expr *parser.Assign) interface{} {
	if c.err != nil {
		return nil
	}
	expr.Value.Accept(c)
	if slot, ok := c.resolveLocal(expr.Name); ok {
		c.emitOp(bytecode.OpSetLocal, expr.Pos)
		c.emitByte(byte(slot), expr.Pos)
		return nil
	}
	idx, ok := c.addConstant(expr.Name, expr.Pos)
	if !ok {
		return nil
	}
	c.emitOp(bytecode.OpSetGlobal, expr.Pos)
	c.emitByte(byte(idx), expr.Pos)
	return nil
}

func (c *Compiler) VisitLetExpr(expr *parser.Let) interface{} {
	if c.err != nil {
		return nil
	}
	expr.Init.Accept(c)
	slot, ok := c.declareLocal(expr.Name, expr.Pos)
	if !ok {
		return nil
	}
	// SetLocal peeks, so the initializer's value doubles as the let
	// expression's value.
	c.emitOp(bytecode.OpSetLocal, expr.Pos)
	c.emitByte(byte(slot), expr.Pos)
	return nil
}

func (c *Compiler) VisitBlockExpr(expr *parser.Block) interface{} {
	if c.err != nil {
		return nil
	}
	c.beginScope()
	for i, child := range expr.Exprs {
		child.Accept(c)
		if i < len(expr.Exprs)-1 {
			c.emitOp(bytecode.OpPop, expr.Pos)
		}
	}
	if len(expr.Exprs) == 0 {
		c.emitOp(bytecode.OpNull, expr.Pos)
	}
	c.endScope(expr.Pos)
	return nil
}

func (c *Compiler) VisitIfExpr(expr *parser.If) interface{} {
	if c.err != nil {
		return nil
	}
	expr.Cond.Accept(c)
	elseJump := c.emitCondJump(bytecode.OpJumpIfFalse, bytecode.CondIf, expr.Pos)
	expr.Then.Accept(c)
	endJump := c.emitJump(bytecode.OpJump, expr.Pos)
	c.patchJump(elseJump, expr.Pos)
	if expr.Else != nil {
		expr.Else.Accept(c)
	} else {
		c.emitOp(bytecode.OpNull, expr.Pos)
	}
	c.patchJump(endJump, expr.Pos)
	return nil
}

// VisitWhileExpr seeds the loop's value with null so a zero-iteration loop
// yields null; each iteration pops the previous value before leaving its own.
func (c *Compiler) VisitWhileExpr(expr *parser.While) interface{} {
	if c.err != nil {
		return nil
	}
	c.emitOp(bytecode.OpNull, expr.Pos)
	loopStart := len(c.chunk.Code)
	expr.Cond.Accept(c)
	exitJump := c.emitCondJump(bytecode.OpJumpIfFalse, bytecode.CondWhile, expr.Pos)
	c.emitOp(bytecode.OpPop, expr.Pos)
	expr.Body.Accept(c)
	c.emitLoop(loopStart, expr.Pos)
	c.patchJump(exitJump, expr.Pos)
	return nil
}

// VisitFuncDeclExpr reserves the function-table index before compiling the
// body, so the body can call itself through its own name.
func (c *Compiler) VisitFuncDeclExpr(expr *parser.FuncDecl) interface{} {
	if c.err != nil {
		return nil
	}
	index := len(c.prog.Functions)
	fnValue := &bytecode.Function{
		Name:  expr.Name,
		Index: index,
		Arity: len(expr.Params),
	}
	proto := &bytecode.FuncProto{
		Name:  expr.Name,
		Arity: len(expr.Params),
		Chunk: bytecode.NewChunk(),
	}
	c.prog.Functions = append(c.prog.Functions, proto)

	// Fresh scope rooted at the parameter slots: no lexical capture.
	sub := &Compiler{
		prog:    c.prog,
		chunk:   proto.Chunk,
		fnName:  expr.Name,
		fnValue: fnValue,
	}
	for _, param := range expr.Params {
		if _, ok := sub.declareLocal(param, expr.Pos); !ok {
			c.err = sub.err
			return nil
		}
	}
	expr.Body.Accept(sub)
	sub.emitOp(bytecode.OpReturn, expr.Pos)
	if sub.err != nil {
		c.err = sub.err
		return nil
	}

	// At the declaration site the function value is bound like a let and is
	// also the expression's own value.
	c.emitConstant(fnValue, expr.Pos)
	if c.err != nil {
		return nil
	}
	slot, ok := c.declareLocal(expr.Name, expr.Pos)
	if !ok {
		return nil
	}
	c.emitOp(bytecode.OpSetLocal, expr.Pos)
	c.emitByte(byte(slot), expr.Pos)
	return nil
}

func (c *Compiler) VisitCallExpr(expr *parser.Call) interface{} {
	if c.err != nil {
		return nil
	}
	if len(expr.Args) >= MaxLocals {
		c.fail(expr.Pos, "too many call arguments")
		return nil
	}
	// print is not a value; a direct, unshadowed call compiles to its own
	// instruction and the argument count is checked by the VM.
	if callee, ok := expr.Callee.(*parser.Variable); ok && callee.Name == "print" {
		if _, shadowed := c.resolveLocal("print"); !shadowed && c.fnName != "print" {
			for _, arg := range expr.Args {
				arg.Accept(c)
			}
			c.emitOp(bytecode.OpPrint, expr.Pos)
			c.emitByte(byte(len(expr.Args)), expr.Pos)
			return nil
		}
	}
	expr.Callee.Accept(c)
	for _, arg := range expr.Args {
		arg.Accept(c)
	}
	c.emitOp(bytecode.OpCall, expr.Pos)
	c.emitByte(byte(len(expr.Args)), expr.Pos)
	return nil
}

// Emission helpers

func (c *Compiler) emitOp(op bytecode.OpCode, pos errors.Position) {
	c.chunk.WriteOp(op, pos)
}

func (c *Compiler) emitByte(b byte, pos errors.Position) {
	c.chunk.WriteOperand(b, pos)
}

func (c *Compiler) emitConstant(val interface{}, pos errors.Position) {
	idx, ok := c.addConstant(val, pos)
	if !ok {
		return
	}
	c.emitOp(bytecode.OpConstant, pos)
	c.emitByte(byte(idx), pos)
}

func (c *Compiler) addConstant(val interface{}, pos errors.Position) (int, bool) {
	idx := c.chunk.AddConstant(val)
	if idx >= MaxConstants {
		c.fail(pos, "too many constants in one chunk")
		return 0, false
	}
	return idx, true
}

// emitJump writes a jump with a placeholder offset and returns the position
// to patch once the target is known.
func (c *Compiler) emitJump(op bytecode.OpCode, pos errors.Position) int {
	c.emitOp(op, pos)
	c.emitByte(0xff, pos)
	c.emitByte(0xff, pos)
	return len(c.chunk.Code) - 2
}

// emitCondJump writes a condition-checking jump: the construct kind first,
// then the placeholder offset.
func (c *Compiler) emitCondJump(op bytecode.OpCode, kind byte, pos errors.Position) int {
	c.emitOp(op, pos)
	c.emitByte(kind, pos)
	c.emitByte(0xff, pos)
	c.emitByte(0xff, pos)
	return len(c.chunk.Code) - 2
}

func (c *Compiler) patchJump(at int, pos errors.Position) {
	offset := len(c.chunk.Code) - at - 2
	if offset > 0xffff {
		c.fail(pos, "jump distance exceeds bytecode limit")
		return
	}
	c.chunk.Code[at] = byte(offset >> 8)
	c.chunk.Code[at+1] = byte(offset)
}

func (c *Compiler) emitLoop(loopStart int, pos errors.Position) {
	c.emitOp(bytecode.OpLoop, pos)
	offset := len(c.chunk.Code) - loopStart + 2
	if offset > 0xffff {
		c.fail(pos, "loop distance exceeds bytecode limit")
		return
	}
	c.emitByte(byte(offset>>8), pos)
	c.emitByte(byte(offset), pos)
}

// fail records the first compile error; later visits become no-ops.
func (c *Compiler) fail(pos errors.Position, msg string) {
	if c.err == nil {
		c.err = &errors.CompileError{
			Kind:    errors.SlotOverflow,
			Message: msg,
			Pos:     pos,
		}
	}
}
