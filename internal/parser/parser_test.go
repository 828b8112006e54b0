package parser

import (
	"testing"

	rillerrors "github.com/rill-lang/rill/internal/errors"
	"github.com/rill-lang/rill/internal/lexer"
)

func parseString(t *testing.T, input string) *Program {
	t.Helper()
	tokens, err := lexer.NewScanner(input).ScanTokens()
	if err != nil {
		t.Fatalf("scan %q: %v", input, err)
	}
	prog, err := NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return prog
}

func parseExpr(t *testing.T, input string) Expr {
	t.Helper()
	prog := parseString(t, input)
	if len(prog.Exprs) != 1 {
		t.Fatalf("parse %q: got %d top-level expressions, want 1", input, len(prog.Exprs))
	}
	return prog.Exprs[0]
}

func parseError(t *testing.T, input string) *rillerrors.ParseError {
	t.Helper()
	tokens, err := lexer.NewScanner(input).ScanTokens()
	if err != nil {
		t.Fatalf("scan %q: %v", input, err)
	}
	_, err = NewParser(tokens).Parse()
	if err == nil {
		t.Fatalf("parse %q: expected an error", input)
	}
	parseErr, ok := err.(*rillerrors.ParseError)
	if !ok {
		t.Fatalf("parse %q: got %T, want ParseError", input, err)
	}
	return parseErr
}

func TestPrecedence(t *testing.T) {
	// 1 + 2 * 3 groups as 1 + (2 * 3)
	expr := parseExpr(t, "1 + 2 * 3")
	add, ok := expr.(*Binary)
	if !ok || add.Operator != "+" {
		t.Fatalf("root: got %T, want Binary +", expr)
	}
	mul, ok := add.Right.(*Binary)
	if !ok || mul.Operator != "*" {
		t.Fatalf("right: got %T, want Binary *", add.Right)
	}

	// comparison binds tighter than equality
	expr = parseExpr(t, "1 < 2 == true")
	eq, ok := expr.(*Binary)
	if !ok || eq.Operator != "==" {
		t.Fatalf("root: got %T, want Binary ==", expr)
	}
	if lt, ok := eq.Left.(*Binary); !ok || lt.Operator != "<" {
		t.Fatalf("left: got %T, want Binary <", eq.Left)
	}
}

func TestLeftAssociativity(t *testing.T) {
	// 10 - 4 - 3 groups as (10 - 4) - 3
	expr := parseExpr(t, "10 - 4 - 3")
	outer, ok := expr.(*Binary)
	if !ok || outer.Operator != "-" {
		t.Fatalf("root: got %T, want Binary -", expr)
	}
	if inner, ok := outer.Left.(*Binary); !ok || inner.Operator != "-" {
		t.Fatalf("left: got %T, want Binary -", outer.Left)
	}
}

func TestLogicalNodesDistinctFromBinary(t *testing.T) {
	expr := parseExpr(t, "a and b or c")
	or, ok := expr.(*Logical)
	if !ok || or.Operator != "or" {
		t.Fatalf("root: got %T, want Logical or", expr)
	}
	if and, ok := or.Left.(*Logical); !ok || and.Operator != "and" {
		t.Fatalf("left: got %T, want Logical and", or.Left)
	}
}

func TestLetAndAssignment(t *testing.T) {
	let, ok := parseExpr(t, "let x = 5").(*Let)
	if !ok {
		t.Fatal("want Let node")
	}
	if let.Name != "x" {
		t.Errorf("got name %q, want x", let.Name)
	}

	assign, ok := parseExpr(t, "x = 1 + 2").(*Assign)
	if !ok {
		t.Fatal("want Assign node")
	}
	if assign.Name != "x" {
		t.Errorf("got name %q, want x", assign.Name)
	}
	if _, ok := assign.Value.(*Binary); !ok {
		t.Errorf("assigned value: got %T, want Binary", assign.Value)
	}

	// assignment is right-associative: a = b = 1
	outer, ok := parseExpr(t, "a = b = 1").(*Assign)
	if !ok {
		t.Fatal("want Assign node")
	}
	if _, ok := outer.Value.(*Assign); !ok {
		t.Errorf("nested value: got %T, want Assign", outer.Value)
	}
}

func TestAssignmentTargetMustBeName(t *testing.T) {
	parseError(t, "1 = 2")
	parseError(t, "f() = 2")
}

func TestBlocks(t *testing.T) {
	blk, ok := parseExpr(t, "{ 1; 2; 3 }").(*Block)
	if !ok {
		t.Fatal("want Block node")
	}
	if len(blk.Exprs) != 3 {
		t.Errorf("got %d children, want 3", len(blk.Exprs))
	}

	// trailing separator and empty block
	blk = parseExpr(t, "{ 1; 2; }").(*Block)
	if len(blk.Exprs) != 2 {
		t.Errorf("trailing separator: got %d children, want 2", len(blk.Exprs))
	}
	blk = parseExpr(t, "{}").(*Block)
	if len(blk.Exprs) != 0 {
		t.Errorf("empty block: got %d children, want 0", len(blk.Exprs))
	}
}

func TestIfForms(t *testing.T) {
	// one-line form without else: absence is recorded as nil, not a null
	// literal
	ifExpr, ok := parseExpr(t, "if x then 1").(*If)
	if !ok {
		t.Fatal("want If node")
	}
	if ifExpr.Else != nil {
		t.Errorf("absent else: got %T, want nil", ifExpr.Else)
	}

	ifExpr = parseExpr(t, "if x then 1 else 2").(*If)
	if ifExpr.Else == nil {
		t.Error("present else: got nil")
	}

	// block form with else-if chain
	ifExpr = parseExpr(t, "if a { 1 } else if b { 2 } else { 3 }").(*If)
	chained, ok := ifExpr.Else.(*If)
	if !ok {
		t.Fatalf("else-if: got %T, want If", ifExpr.Else)
	}
	if _, ok := chained.Else.(*Block); !ok {
		t.Errorf("final else: got %T, want Block", chained.Else)
	}
}

func TestWhile(t *testing.T) {
	w, ok := parseExpr(t, "while i < 10 { i = i + 1 }").(*While)
	if !ok {
		t.Fatal("want While node")
	}
	if _, ok := w.Cond.(*Binary); !ok {
		t.Errorf("cond: got %T, want Binary", w.Cond)
	}
	if _, ok := w.Body.(*Block); !ok {
		t.Errorf("body: got %T, want Block", w.Body)
	}

	// while requires a braced body
	parseError(t, "while i < 10 i = i + 1")
}

func TestFunctionForms(t *testing.T) {
	fn, ok := parseExpr(t, "fn add(a, b) -> a + b").(*FuncDecl)
	if !ok {
		t.Fatal("want FuncDecl node")
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Errorf("got %s/%d, want add/2", fn.Name, len(fn.Params))
	}
	if _, ok := fn.Body.(*Binary); !ok {
		t.Errorf("arrow body: got %T, want Binary", fn.Body)
	}

	fn = parseExpr(t, "fn greet() { 1 }").(*FuncDecl)
	if len(fn.Params) != 0 {
		t.Errorf("got %d params, want 0", len(fn.Params))
	}
	if _, ok := fn.Body.(*Block); !ok {
		t.Errorf("block body: got %T, want Block", fn.Body)
	}

	parseError(t, "fn missing(a, b) a + b")
	parseError(t, "fn (a) -> a")
}

func TestCalls(t *testing.T) {
	call, ok := parseExpr(t, "f(1, 2, 3)").(*Call)
	if !ok {
		t.Fatal("want Call node")
	}
	if len(call.Args) != 3 {
		t.Errorf("got %d args, want 3", len(call.Args))
	}

	// calls are postfix and chain
	outer, ok := parseExpr(t, "f(1)(2)").(*Call)
	if !ok {
		t.Fatal("want Call node")
	}
	if _, ok := outer.Callee.(*Call); !ok {
		t.Errorf("callee: got %T, want Call", outer.Callee)
	}
}

func TestTopLevelSequence(t *testing.T) {
	prog := parseString(t, "let x = 1; x + 2; print(x)")
	if len(prog.Exprs) != 3 {
		t.Fatalf("got %d top-level expressions, want 3", len(prog.Exprs))
	}
	prog = parseString(t, "")
	if len(prog.Exprs) != 0 {
		t.Errorf("empty input: got %d expressions, want 0", len(prog.Exprs))
	}
}

func TestUnexpectedEndOfInput(t *testing.T) {
	for _, input := range []string{"1 +", "let x =", "(1", "{ 1; ", "fn f(a"} {
		err := parseError(t, input)
		if err.Kind != rillerrors.UnexpectedEndOfInput {
			t.Errorf("%q: got kind %s, want UnexpectedEndOfInput", input, err.Kind)
		}
	}
}

func TestUnexpectedToken(t *testing.T) {
	for _, input := range []string{"let 5 = 1", "if x 5", "1 2", ")"} {
		err := parseError(t, input)
		if err.Kind != rillerrors.UnexpectedToken {
			t.Errorf("%q: got kind %s, want UnexpectedToken", input, err.Kind)
		}
	}
}
