package vm

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rill-lang/rill/internal/bytecode"
)

// Value is the runtime representation: float64, bool, string, nil or
// *bytecode.Function. Values are immutable once constructed.
type Value interface{}

// TypeName returns the language-level type of a value, as used in
// type-mismatch messages.
func TypeName(val Value) string {
	switch val.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	case *bytecode.Function:
		return "function"
	default:
		return "unknown"
	}
}

// ToString renders a value for print and REPL echo: numbers without trailing
// noise, strings unquoted, booleans as true/false, null as null, functions as
// an opaque identifier.
func ToString(val Value) string {
	switch v := val.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(v)
	case string:
		return v
	case *bytecode.Function:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatNumber renders a number in plain decimal, so 1000000 and 0.00001 read
// as written. Exponent form is reserved for magnitudes whose decimal
// expansion stops being readable.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-9 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// valuesEqual implements == across all value kinds: same kind and same value.
// Mixed kinds compare unequal rather than erroring.
func valuesEqual(a, b Value) bool {
	return a == b
}

// GlobalState is the mutable session-scoped mapping from global variable name
// to value. It is created by the caller at session start, passed into every
// execution, and persists across successive top-level units in REPL mode.
type GlobalState struct {
	vars map[string]Value
}

func NewGlobalState() *GlobalState {
	return &GlobalState{vars: make(map[string]Value)}
}

// Get looks up a global. The second result is false when the name has never
// been stored.
func (g *GlobalState) Get(name string) (Value, bool) {
	val, ok := g.vars[name]
	return val, ok
}

// Set stores a global, creating the entry on first store.
func (g *GlobalState) Set(name string, val Value) {
	g.vars[name] = val
}

// Len reports how many globals exist; used by tests and the REPL banner.
func (g *GlobalState) Len() int {
	return len(g.vars)
}
