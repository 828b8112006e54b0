package bytecode

import (
	"fmt"

	"github.com/rill-lang/rill/internal/errors"
)

// Function is the compiled representation of a fn declaration and the value
// that flows through the constant pool and VM stack at runtime: an index into
// the program's function table plus the declared arity. It carries no
// captured environment.
type Function struct {
	Name  string
	Index int
	Arity int
}

func (f *Function) String() string {
	return fmt.Sprintf("<fn %s>", f.Name)
}

// FuncProto is a function-table entry: the metadata plus the compiled body.
type FuncProto struct {
	Name  string
	Arity int
	Chunk *Chunk
}

// Chunk is one linear instruction sequence with its constant pool. Constants
// hold float64, bool, string, nil and *Function.
type Chunk struct {
	Code      []byte
	Constants []interface{}
	Positions []errors.Position // source position per code byte
}

func NewChunk() *Chunk {
	return &Chunk{}
}

func (c *Chunk) WriteOp(op OpCode, pos errors.Position) {
	c.Code = append(c.Code, byte(op))
	c.Positions = append(c.Positions, pos)
}

func (c *Chunk) WriteOperand(b byte, pos errors.Position) {
	c.Code = append(c.Code, b)
	c.Positions = append(c.Positions, pos)
}

// AddConstant appends val and returns its pool index, reusing an existing
// entry when an identical constant is already pooled.
func (c *Chunk) AddConstant(val interface{}) int {
	for i, existing := range c.Constants {
		if existing == val {
			return i
		}
	}
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

func (c *Chunk) Position(ip int) errors.Position {
	if ip >= 0 && ip < len(c.Positions) {
		return c.Positions[ip]
	}
	return errors.Position{}
}

// Program is the unit of execution: the top-level chunk plus the function
// table that Function values index into. Immutable after compilation.
type Program struct {
	Main      *Chunk
	Functions []*FuncProto
}
