package compiler

import (
	"github.com/rill-lang/rill/internal/bytecode"
	"github.com/rill-lang/rill/internal/errors"
)

// MaxLocals bounds the local slots of one function; slot operands are a
// single byte.
const MaxLocals = 256

// MaxConstants bounds one chunk's constant pool; constant operands are a
// single byte.
const MaxConstants = 256

type local struct {
	name string
	slot int
}

// beginScope opens a nested block scope. Slots declared inside it are
// discarded when the scope ends.
func (c *Compiler) beginScope() {
	c.scopes = append(c.scopes, len(c.locals))
}

// endScope closes the innermost scope. The discard instruction carries the
// scope's base count, not a delta: slots declared under a branch that never
// ran were never materialized at runtime, so the frame truncates to the base
// rather than subtracting. Outer bindings shadowed inside the scope become
// visible again.
func (c *Compiler) endScope(pos errors.Position) {
	start := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	if len(c.locals) > start {
		c.emitOp(bytecode.OpEndScope, pos)
		c.emitByte(byte(start), pos)
	}
	c.locals = c.locals[:start]
}

// declareLocal allocates a new slot for name in the current scope.
// Redeclaring a name shadows the outer slot instead of aliasing it.
func (c *Compiler) declareLocal(name string, pos errors.Position) (int, bool) {
	if len(c.locals) >= MaxLocals {
		c.fail(pos, "too many local slots in one function")
		return 0, false
	}
	slot := len(c.locals)
	c.locals = append(c.locals, local{name: name, slot: slot})
	return slot, true
}

// resolveLocal finds name in the active scope chain, innermost declaration
// first. The second result is false when name is not a local.
func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i].slot, true
		}
	}
	return 0, false
}
