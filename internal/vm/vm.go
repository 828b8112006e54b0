// internal/vm/vm.go
package vm

import (
	"math"

	"github.com/rill-lang/rill/internal/bytecode"
	"github.com/rill-lang/rill/internal/errors"
)

// PrintFunc receives the rendered text of each print call.
type PrintFunc func(text string)

// DefaultMaxDepth bounds the call-frame stack; recursion past it raises
// StackOverflow instead of exhausting host resources.
const DefaultMaxDepth = 1024

// CallFrame is the per-invocation record: the body being executed, the
// program counter, and this invocation's local slot storage.
type CallFrame struct {
	chunk  *bytecode.Chunk
	ip     int
	locals []Value
}

// VM executes compiled programs. One VM may run many programs in sequence
// (the REPL does); each Execute call starts from a clean operand and frame
// stack, while GlobalState is owned by the caller and carried across calls.
type VM struct {
	MaxDepth int

	prog    *bytecode.Program
	stack   []Value
	frames  []CallFrame
	globals *GlobalState
	print   PrintFunc
}

func NewVM() *VM {
	return &VM{MaxDepth: DefaultMaxDepth}
}

// Execute runs one program to completion and returns its resulting value.
// Errors abort the run, unwinding every frame; global stores applied before
// the failure point remain in effect.
func (vm *VM) Execute(prog *bytecode.Program, globals *GlobalState, print PrintFunc) (Value, error) {
	if print == nil {
		print = func(string) {}
	}
	vm.prog = prog
	vm.globals = globals
	vm.print = print
	vm.stack = vm.stack[:0]
	vm.frames = append(vm.frames[:0], CallFrame{chunk: prog.Main})
	return vm.run()
}

// Execute is the package-level convenience for one-shot runs.
func Execute(prog *bytecode.Program, globals *GlobalState, print PrintFunc) (Value, error) {
	return NewVM().Execute(prog, globals, print)
}

func (vm *VM) run() (Value, error) {
	for {
		frame := vm.currentFrame()
		op := bytecode.OpCode(frame.chunk.Code[frame.ip])
		frame.ip++

		switch op {
		case bytecode.OpConstant:
			idx := vm.readByte()
			vm.push(frame.chunk.Constants[idx])

		case bytecode.OpNull:
			vm.push(nil)

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpEndScope:
			// The operand is the scope's base: slots past it may be fewer at
			// runtime than the compiler counted when a branch holding a let
			// never ran, so truncate rather than subtract.
			base := int(vm.readByte())
			if len(frame.locals) > base {
				frame.locals = frame.locals[:base]
			}

		case bytecode.OpAdd:
			b := vm.pop()
			a := vm.pop()
			switch l := a.(type) {
			case float64:
				r, ok := b.(float64)
				if !ok {
					return nil, errors.NewTypeMismatch("+", TypeName(a), TypeName(b))
				}
				vm.push(l + r)
			case string:
				r, ok := b.(string)
				if !ok {
					return nil, errors.NewTypeMismatch("+", TypeName(a), TypeName(b))
				}
				vm.push(l + r)
			default:
				return nil, errors.NewTypeMismatch("+", TypeName(a), TypeName(b))
			}

		case bytecode.OpSub:
			a, b, err := vm.popNumbers("-")
			if err != nil {
				return nil, err
			}
			vm.push(a - b)

		case bytecode.OpMul:
			a, b, err := vm.popNumbers("*")
			if err != nil {
				return nil, err
			}
			vm.push(a * b)

		case bytecode.OpDiv:
			// IEEE semantics: division by zero yields infinity or NaN.
			a, b, err := vm.popNumbers("/")
			if err != nil {
				return nil, err
			}
			vm.push(a / b)

		case bytecode.OpMod:
			a, b, err := vm.popNumbers("%")
			if err != nil {
				return nil, err
			}
			vm.push(math.Mod(a, b))

		case bytecode.OpNegate:
			a := vm.pop()
			n, ok := a.(float64)
			if !ok {
				return nil, errors.NewUnaryTypeMismatch("-", TypeName(a))
			}
			vm.push(-n)

		case bytecode.OpNot:
			a := vm.pop()
			b, ok := a.(bool)
			if !ok {
				return nil, errors.NewUnaryTypeMismatch("!", TypeName(a))
			}
			vm.push(!b)

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(valuesEqual(a, b))

		case bytecode.OpNotEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(!valuesEqual(a, b))

		case bytecode.OpGreater:
			if err := vm.compare(">", func(a, b float64) bool { return a > b },
				func(a, b string) bool { return a > b }); err != nil {
				return nil, err
			}

		case bytecode.OpGreaterEqual:
			if err := vm.compare(">=", func(a, b float64) bool { return a >= b },
				func(a, b string) bool { return a >= b }); err != nil {
				return nil, err
			}

		case bytecode.OpLess:
			if err := vm.compare("<", func(a, b float64) bool { return a < b },
				func(a, b string) bool { return a < b }); err != nil {
				return nil, err
			}

		case bytecode.OpLessEqual:
			if err := vm.compare("<=", func(a, b float64) bool { return a <= b },
				func(a, b string) bool { return a <= b }); err != nil {
				return nil, err
			}

		case bytecode.OpJump:
			offset := vm.readShort()
			frame.ip += offset

		case bytecode.OpJumpIfFalse:
			kind := vm.readByte()
			offset := vm.readShort()
			val := vm.pop()
			cond, ok := val.(bool)
			if !ok {
				return nil, errors.NewUnaryTypeMismatch(bytecode.CondName(kind), TypeName(val))
			}
			if !cond {
				frame.ip += offset
			}

		case bytecode.OpJumpIfFalsePeek:
			kind := vm.readByte()
			offset := vm.readShort()
			cond, ok := vm.peek().(bool)
			if !ok {
				return nil, errors.NewUnaryTypeMismatch(bytecode.CondName(kind), TypeName(vm.peek()))
			}
			if !cond {
				frame.ip += offset
			}

		case bytecode.OpCheckBool:
			kind := vm.readByte()
			if _, ok := vm.peek().(bool); !ok {
				return nil, errors.NewUnaryTypeMismatch(bytecode.CondName(kind), TypeName(vm.peek()))
			}

		case bytecode.OpLoop:
			offset := vm.readShort()
			frame.ip -= offset

		case bytecode.OpGetLocal:
			// A slot whose let sat under a branch that never ran was never
			// stored; reading it yields null.
			slot := int(vm.readByte())
			if slot >= len(frame.locals) {
				vm.push(nil)
				break
			}
			vm.push(frame.locals[slot])

		case bytecode.OpSetLocal:
			slot := int(vm.readByte())
			for len(frame.locals) <= slot {
				frame.locals = append(frame.locals, nil)
			}
			frame.locals[slot] = vm.peek()

		case bytecode.OpGetGlobal:
			name := frame.chunk.Constants[vm.readByte()].(string)
			val, ok := vm.globals.Get(name)
			if !ok {
				return nil, errors.NewUndefinedVariable(name)
			}
			vm.push(val)

		case bytecode.OpSetGlobal:
			name := frame.chunk.Constants[vm.readByte()].(string)
			vm.globals.Set(name, vm.peek())

		case bytecode.OpCall:
			argc := int(vm.readByte())
			calleeIdx := len(vm.stack) - argc - 1
			callee, ok := vm.stack[calleeIdx].(*bytecode.Function)
			if !ok {
				return nil, errors.NewNotCallable(TypeName(vm.stack[calleeIdx]))
			}
			if callee.Arity != argc {
				return nil, errors.NewArityMismatch(callee.Arity, argc)
			}
			if len(vm.frames) >= vm.MaxDepth {
				return nil, errors.NewStackOverflow(vm.MaxDepth)
			}
			locals := make([]Value, argc)
			copy(locals, vm.stack[calleeIdx+1:])
			vm.stack = vm.stack[:calleeIdx]
			vm.frames = append(vm.frames, CallFrame{
				chunk:  vm.prog.Functions[callee.Index].Chunk,
				locals: locals,
			})

		case bytecode.OpPrint:
			argc := int(vm.readByte())
			if argc != 1 {
				return nil, errors.NewArityMismatch(1, argc)
			}
			vm.print(ToString(vm.pop()))
			vm.push(nil)

		case bytecode.OpReturn:
			// The body left its value on the operand stack exactly where the
			// caller expects it; the frame just goes away.
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return vm.pop(), nil
			}
		}
	}
}

func (vm *VM) currentFrame() *CallFrame {
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) readByte() byte {
	frame := vm.currentFrame()
	b := frame.chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort() int {
	frame := vm.currentFrame()
	high := int(frame.chunk.Code[frame.ip])
	low := int(frame.chunk.Code[frame.ip+1])
	frame.ip += 2
	return high<<8 | low
}

func (vm *VM) push(val Value) {
	vm.stack = append(vm.stack, val)
}

func (vm *VM) pop() Value {
	val := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return val
}

func (vm *VM) peek() Value {
	return vm.stack[len(vm.stack)-1]
}

func (vm *VM) popNumbers(op string) (float64, float64, error) {
	b := vm.pop()
	a := vm.pop()
	l, okA := a.(float64)
	r, okB := b.(float64)
	if !okA || !okB {
		return 0, 0, errors.NewTypeMismatch(op, TypeName(a), TypeName(b))
	}
	return l, r, nil
}

// compare handles the ordering operators: numbers by numeric order, strings
// lexicographically, anything else is a type mismatch.
func (vm *VM) compare(op string, num func(a, b float64) bool, str func(a, b string) bool) error {
	b := vm.pop()
	a := vm.pop()
	switch l := a.(type) {
	case float64:
		if r, ok := b.(float64); ok {
			vm.push(num(l, r))
			return nil
		}
	case string:
		if r, ok := b.(string); ok {
			vm.push(str(l, r))
			return nil
		}
	}
	return errors.NewTypeMismatch(op, TypeName(a), TypeName(b))
}
