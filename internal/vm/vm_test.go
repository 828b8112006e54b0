package vm

import (
	"math"
	"testing"

	"github.com/rill-lang/rill/internal/compiler"
	rillerrors "github.com/rill-lang/rill/internal/errors"
)

// run compiles and executes one source string against a fresh global state.
func run(t *testing.T, src string) (Value, error) {
	t.Helper()
	prog, err := compiler.CompileSource(src)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	return Execute(prog, NewGlobalState(), nil)
}

func eval(t *testing.T, src string) Value {
	t.Helper()
	val, err := run(t, src)
	if err != nil {
		t.Fatalf("execute %q: %v", src, err)
	}
	return val
}

func runtimeKind(t *testing.T, src string) *rillerrors.RuntimeError {
	t.Helper()
	_, err := run(t, src)
	if err == nil {
		t.Fatalf("execute %q: expected runtime error, got none", src)
	}
	rtErr, ok := err.(*rillerrors.RuntimeError)
	if !ok {
		t.Fatalf("execute %q: got %v (%T), want RuntimeError", src, err, err)
	}
	return rtErr
}

func TestEvaluation(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"42", 42.0},
		{"2 + 3 * 4", 14.0},
		{"(2 + 3) * 4", 20.0},
		{"10 - 4 - 3", 3.0},
		{"7 % 3", 1.0},
		{"-5 + 3", -2.0},
		{"!true", false},
		{"!false", true},
		{`"foo" + "bar"`, "foobar"},
		{"null", nil},

		// comparisons and equality
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{`"apple" < "banana"`, true},
		{"1 == 1", true},
		{`1 == "1"`, false},
		{"null == null", true},
		{"1 != 2", true},

		// short-circuit logic
		{"true and false", false},
		{"false and 1", false},
		{"true or 1", true},
		{"false or true", true},

		// bindings, shadowing, assignment
		{"let x = 100; let y = x / 10; x - y * 9", 10.0},
		{"let x = 1; { let x = 2; x }", 2.0},
		{"let x = 1; { let x = 2; x }; x", 1.0},
		{"let x = 1; x = 5", 5.0},
		{"let x = 1; x = x + 1; x", 2.0},
		{"g = 7; g + 1", 8.0},

		// expression-oriented control flow
		{"{ 1; 2; 3 }", 3.0},
		{"{}", nil},
		{"if true then 1 else 2", 1.0},
		{"if false then 1 else 2", 2.0},
		{"if false then 1", nil},
		{"if 1 < 2 { 10 } else { 20 }", 10.0},
		{"let v = if true then 3; v", 3.0},
		{"while false { 1 }", nil},
		{"let i = 0; let acc = 0; while i < 5 { i = i + 1; acc = acc + i }", 15.0},
		{"let i = 0; while i < 3 { i = i + 1 }; i", 3.0},

		// functions
		{"fn f() -> 1; f()", 1.0},
		{"fn add(a, b) -> a + b; add(add(1, 2), add(3, 4))", 10.0},
		{"fn sq(x) -> x * x; sq(10) == 100", true},
		{"fn fact(x) -> if x > 1 then x * fact(x - 1) else 1; fact(5)", 120.0},
		{"fn double(x) -> x * 2; let f = double; f(21)", 42.0},
		{"fn outer(a) { fn inner(b) -> b * 2; inner(a) + 1 }; outer(3)", 7.0},
	}
	for _, tt := range tests {
		if got := eval(t, tt.src); got != tt.want {
			t.Errorf("%q: got %v (%T), want %v (%T)", tt.src, got, got, tt.want, tt.want)
		}
	}
}

func TestSkippedLetDoesNotDesyncScope(t *testing.T) {
	// a let under a branch that never runs counts as a compile-time slot but
	// is never materialized; scope exit must not truncate past what exists
	tests := []struct {
		src  string
		want Value
	}{
		{"{ if false then let a = 1; 2 }", 2.0},
		{"{ if true then let a = 1; a + 1 }", 2.0},
		{"let x = 1; { if false then let a = 1; x }; x", 1.0},
		{"let i = 0; while i < 2 { i = i + 1; if false then let t = 9; i }", 2.0},
	}
	for _, tt := range tests {
		if got := eval(t, tt.src); got != tt.want {
			t.Errorf("%q: got %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestSkippedLetReadsAsNull(t *testing.T) {
	if got := eval(t, "false and (let a = 1); a"); got != nil {
		t.Errorf("got %v, want null", got)
	}
}

func TestConditionErrorsNameTheConstruct(t *testing.T) {
	tests := []struct {
		src string
		op  string
	}{
		{"if 1 then 2", "if"},
		{"while 1 { 2 }", "while"},
		{"1 and true", "and"},
		{"true and 1", "and"},
		{"1 or true", "or"},
		{"false or 1", "or"},
	}
	for _, tt := range tests {
		rtErr := runtimeKind(t, tt.src)
		if rtErr.Kind != rillerrors.TypeMismatch {
			t.Errorf("%q: got kind %s, want TypeMismatch", tt.src, rtErr.Kind)
		}
		if rtErr.Op != tt.op {
			t.Errorf("%q: got op %q, want %q", tt.src, rtErr.Op, tt.op)
		}
	}
}

func TestDivisionByZeroIsInfinite(t *testing.T) {
	got, ok := eval(t, "1 / 0").(float64)
	if !ok || !math.IsInf(got, 1) {
		t.Errorf("1 / 0: got %v, want +Inf", got)
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind rillerrors.RuntimeErrorKind
	}{
		{`"a" + true`, rillerrors.TypeMismatch},
		{"1 + null", rillerrors.TypeMismatch},
		{`1 < "a"`, rillerrors.TypeMismatch},
		{"-true", rillerrors.TypeMismatch},
		{"!0", rillerrors.TypeMismatch},
		{"if 1 then 2", rillerrors.TypeMismatch},
		{"while 1 { 2 }", rillerrors.TypeMismatch},
		{"true and 1", rillerrors.TypeMismatch},
		{"false or 1", rillerrors.TypeMismatch},
		{"missing", rillerrors.UndefinedVariable},
		{"let x = 1; x(2)", rillerrors.NotCallable},
		{"null()", rillerrors.NotCallable},
		{"fn f(a) -> a; f(1, 2)", rillerrors.ArityMismatch},
		{"fn f(a, b) -> a; f(1)", rillerrors.ArityMismatch},
		{"print(1, 2)", rillerrors.ArityMismatch},
	}
	for _, tt := range tests {
		if got := runtimeKind(t, tt.src); got.Kind != tt.kind {
			t.Errorf("%q: got kind %s, want %s", tt.src, got.Kind, tt.kind)
		}
	}
}

func TestArityMismatchDetails(t *testing.T) {
	rtErr := runtimeKind(t, "fn f(a) -> a; f(1, 2)")
	if rtErr.Expected != 1 || rtErr.Got != 2 {
		t.Errorf("got expected=%d got=%d, want 1/2", rtErr.Expected, rtErr.Got)
	}
}

func TestUndefinedVariableNamesTheVariable(t *testing.T) {
	rtErr := runtimeKind(t, "let a = 1; a + nope")
	if rtErr.Name != "nope" {
		t.Errorf("got name %q, want nope", rtErr.Name)
	}
}

func TestStackOverflow(t *testing.T) {
	prog, err := compiler.CompileSource("fn spin(x) -> spin(x); spin(0)")
	if err != nil {
		t.Fatal(err)
	}
	machine := NewVM()
	machine.MaxDepth = 32
	_, err = machine.Execute(prog, NewGlobalState(), nil)
	rtErr, ok := err.(*rillerrors.RuntimeError)
	if !ok || rtErr.Kind != rillerrors.StackOverflow {
		t.Fatalf("got %v, want StackOverflow", err)
	}
	if rtErr.Depth != 32 {
		t.Errorf("got depth %d, want 32", rtErr.Depth)
	}
}

func TestPrintSink(t *testing.T) {
	prog, err := compiler.CompileSource(`print(1 + 2); print("hi"); print(true)`)
	if err != nil {
		t.Fatal(err)
	}
	var lines []string
	val, err := Execute(prog, NewGlobalState(), func(text string) {
		lines = append(lines, text)
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"3", "hi", "true"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
	if val != nil {
		t.Errorf("print result: got %v, want null", val)
	}
}

func TestPrintValueIsNull(t *testing.T) {
	if got := eval(t, "let r = print(3); r == null"); got != true {
		t.Errorf("got %v, want true", got)
	}
}

func TestGlobalsPersistAcrossExecutions(t *testing.T) {
	globals := NewGlobalState()
	machine := NewVM()

	first, err := compiler.CompileSource("counter = 1; let keep = 99; counter")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := machine.Execute(first, globals, nil); err != nil {
		t.Fatal(err)
	}

	second, err := compiler.CompileSource("counter = counter + 1; counter")
	if err != nil {
		t.Fatal(err)
	}
	val, err := machine.Execute(second, globals, nil)
	if err != nil {
		t.Fatal(err)
	}
	if val != 2.0 {
		t.Errorf("counter after two units: got %v, want 2", val)
	}

	// let bindings are frame-local and do not survive the unit
	third, err := compiler.CompileSource("keep")
	if err != nil {
		t.Fatal(err)
	}
	_, err = machine.Execute(third, globals, nil)
	rtErr, ok := err.(*rillerrors.RuntimeError)
	if !ok || rtErr.Kind != rillerrors.UndefinedVariable {
		t.Errorf("reading a let from a later unit: got %v, want UndefinedVariable", err)
	}
	if globals.Len() != 1 {
		t.Errorf("global count: got %d, want 1", globals.Len())
	}
}

func TestGlobalStoresSurviveFailedRun(t *testing.T) {
	globals := NewGlobalState()
	prog, err := compiler.CompileSource(`applied = 5; applied + "boom"`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Execute(prog, globals, nil); err == nil {
		t.Fatal("expected runtime error")
	}
	val, ok := globals.Get("applied")
	if !ok || val != 5.0 {
		t.Errorf("got %v (present=%v), want 5", val, ok)
	}
}
