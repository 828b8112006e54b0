package parser

import "github.com/rill-lang/rill/internal/errors"

// Expr is any node of the expression tree. Every construct in the language,
// control flow included, is an expression and yields a value.
type Expr interface {
	Accept(visitor ExprVisitor) interface{}
}

// Program is the root node: top-level expressions in source order.
type Program struct {
	Exprs []Expr
}

// Literal expression: number, string, boolean or null
type Literal struct {
	Value interface{}
	Pos   errors.Position
}

func (l *Literal) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitLiteralExpr(l)
}

// Variable expression: x
type Variable struct {
	Name string
	Pos  errors.Position
}

func (v *Variable) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitVariableExpr(v)
}

// Unary expression: !x, -x
type Unary struct {
	Operator string
	Operand  Expr
	Pos      errors.Position
}

func (u *Unary) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitUnaryExpr(u)
}

// Binary expression: a + b
type Binary struct {
	Left     Expr
	Operator string
	Right    Expr
	Pos      errors.Position
}

func (b *Binary) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitBinaryExpr(b)
}

// Logical expression: a and b, a or b. Kept distinct from Binary because the
// right operand is evaluated conditionally.
type Logical struct {
	Left     Expr
	Operator string
	Right    Expr
	Pos      errors.Position
}

func (l *Logical) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitLogicalExpr(l)
}

// Assign expression: x = 42. Evaluates to the assigned value.
type Assign struct {
	Name  string
	Value Expr
	Pos   errors.Position
}

func (a *Assign) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitAssignExpr(a)
}

// Let expression: let x = expr. Declares a new slot in the current scope;
// evaluates to the initializer's value.
type Let struct {
	Name string
	Init Expr
	Pos  errors.Position
}

func (l *Let) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitLetExpr(l)
}

// Block expression: { e; e; ... }. Evaluates to its last child, or null when
// empty.
type Block struct {
	Exprs []Expr
	Pos   errors.Position
}

func (b *Block) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitBlockExpr(b)
}

// If expression. Else is nil when the branch is absent; the compiler supplies
// the null default, not the parser.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
	Pos  errors.Position
}

func (i *If) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitIfExpr(i)
}

// While expression: while cond { body }. Evaluates to the last iteration's
// body value, or null when zero iterations ran.
type While struct {
	Cond Expr
	Body Expr
	Pos  errors.Position
}

func (w *While) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitWhileExpr(w)
}

// FuncDecl expression: fn name(params) { block } or fn name(params) -> expr.
// Binds Name in the enclosing scope and evaluates to the function value.
type FuncDecl struct {
	Name   string
	Params []string
	Body   Expr
	Pos    errors.Position
}

func (f *FuncDecl) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitFuncDeclExpr(f)
}

// Call expression: callee(args...)
type Call struct {
	Callee Expr
	Args   []Expr
	Pos    errors.Position
}

func (c *Call) Accept(visitor ExprVisitor) interface{} {
	return visitor.VisitCallExpr(c)
}

type ExprVisitor interface {
	VisitLiteralExpr(expr *Literal) interface{}
	VisitVariableExpr(expr *Variable) interface{}
	VisitUnaryExpr(expr *Unary) interface{}
	VisitBinaryExpr(expr *Binary) interface{}
	VisitLogicalExpr(expr *Logical) interface{}
	VisitAssignExpr(expr *Assign) interface{}
	VisitLetExpr(expr *Let) interface{}
	VisitBlockExpr(expr *Block) interface{}
	VisitIfExpr(expr *If) interface{}
	VisitWhileExpr(expr *While) interface{}
	VisitFuncDeclExpr(expr *FuncDecl) interface{}
	VisitCallExpr(expr *Call) interface{}
}
