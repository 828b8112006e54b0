// internal/errors/errors.go
package errors

import (
	"fmt"
	"strings"
)

// Position is a location in source text, 1-based.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LexErrorKind classifies scanner failures.
type LexErrorKind string

const (
	UnterminatedString LexErrorKind = "UnterminatedString"
	InvalidCharacter   LexErrorKind = "InvalidCharacter"
)

// LexError aborts the pipeline before parsing.
type LexError struct {
	Kind LexErrorKind
	Char rune
	Pos  Position
}

func (e *LexError) Error() string {
	switch e.Kind {
	case UnterminatedString:
		return fmt.Sprintf("lex error at %s: unterminated string literal", e.Pos)
	case InvalidCharacter:
		return fmt.Sprintf("lex error at %s: invalid character %q", e.Pos, e.Char)
	}
	return fmt.Sprintf("lex error at %s", e.Pos)
}

// ParseErrorKind classifies parser failures.
type ParseErrorKind string

const (
	UnexpectedToken      ParseErrorKind = "UnexpectedToken"
	UnexpectedEndOfInput ParseErrorKind = "UnexpectedEndOfInput"
)

// ParseError aborts the pipeline before compilation. Expected holds the
// token lexemes that would have been legal at Pos.
type ParseError struct {
	Kind     ParseErrorKind
	Expected []string
	Found    string
	Pos      Position
}

func (e *ParseError) Error() string {
	if e.Kind == UnexpectedEndOfInput {
		return fmt.Sprintf("parse error at %s: unexpected end of input, expected %s",
			e.Pos, humanList(e.Expected))
	}
	return fmt.Sprintf("parse error at %s: unexpected %q, expected %s",
		e.Pos, e.Found, humanList(e.Expected))
}

// humanList renders an expected-token set: "nothing", "'x'",
// or "one of 'a', 'b' or 'c'".
func humanList(items []string) string {
	switch len(items) {
	case 0:
		return "nothing"
	case 1:
		return "'" + items[0] + "'"
	default:
		var sb strings.Builder
		sb.WriteString("one of ")
		for i, it := range items[:len(items)-1] {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("'" + it + "'")
		}
		sb.WriteString(" or '" + items[len(items)-1] + "'")
		return sb.String()
	}
}

// CompileErrorKind classifies compiler failures.
type CompileErrorKind string

const (
	// SlotOverflow covers every implementation limit the compiler enforces:
	// local slots, constant-pool entries, jump distances.
	SlotOverflow CompileErrorKind = "SlotOverflow"
)

// CompileError aborts the pipeline before execution.
type CompileError struct {
	Kind    CompileErrorKind
	Message string
	Pos     Position
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %s: %s", e.Pos, e.Message)
}

// RuntimeErrorKind classifies VM failures.
type RuntimeErrorKind string

const (
	TypeMismatch      RuntimeErrorKind = "TypeMismatch"
	UndefinedVariable RuntimeErrorKind = "UndefinedVariable"
	NotCallable       RuntimeErrorKind = "NotCallable"
	ArityMismatch     RuntimeErrorKind = "ArityMismatch"
	StackOverflow     RuntimeErrorKind = "StackOverflow"
)

// RuntimeError aborts the current top-level execution unit. Only the fields
// relevant to Kind are populated.
type RuntimeError struct {
	Kind      RuntimeErrorKind
	Op        string // TypeMismatch: the operator
	LeftType  string // TypeMismatch: operand type names
	RightType string
	Name      string // UndefinedVariable / NotCallable
	Expected  int    // ArityMismatch
	Got       int
	Depth     int // StackOverflow
}

func (e *RuntimeError) Error() string {
	switch e.Kind {
	case TypeMismatch:
		if e.RightType == "" {
			return fmt.Sprintf("runtime error: unsupported operand type for '%s': %s",
				e.Op, e.LeftType)
		}
		return fmt.Sprintf("runtime error: unsupported operand types for '%s': %s and %s",
			e.Op, e.LeftType, e.RightType)
	case UndefinedVariable:
		return fmt.Sprintf("runtime error: undefined variable '%s'", e.Name)
	case NotCallable:
		return fmt.Sprintf("runtime error: value of type %s is not callable", e.Name)
	case ArityMismatch:
		return fmt.Sprintf("runtime error: function expects %d argument(s), got %d",
			e.Expected, e.Got)
	case StackOverflow:
		return fmt.Sprintf("runtime error: call depth exceeded %d frames", e.Depth)
	}
	return "runtime error"
}

func NewTypeMismatch(op, left, right string) *RuntimeError {
	return &RuntimeError{Kind: TypeMismatch, Op: op, LeftType: left, RightType: right}
}

func NewUnaryTypeMismatch(op, operand string) *RuntimeError {
	return &RuntimeError{Kind: TypeMismatch, Op: op, LeftType: operand}
}

func NewUndefinedVariable(name string) *RuntimeError {
	return &RuntimeError{Kind: UndefinedVariable, Name: name}
}

func NewNotCallable(typeName string) *RuntimeError {
	return &RuntimeError{Kind: NotCallable, Name: typeName}
}

func NewArityMismatch(expected, got int) *RuntimeError {
	return &RuntimeError{Kind: ArityMismatch, Expected: expected, Got: got}
}

func NewStackOverflow(depth int) *RuntimeError {
	return &RuntimeError{Kind: StackOverflow, Depth: depth}
}
