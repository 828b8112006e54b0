package bytecode

type OpCode byte

const (
	OpConstant OpCode = iota // 1-byte constant index
	OpNull
	OpPop
	OpEndScope // 1-byte base: truncate the frame's local slots to it
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNegate
	OpNot
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpJump            // 2-byte forward offset
	OpJumpIfFalse     // 1-byte condition kind + 2-byte forward offset, pops the condition
	OpJumpIfFalsePeek // 1-byte condition kind + 2-byte forward offset, leaves the condition on the stack
	OpCheckBool       // 1-byte condition kind; asserts the top of the stack is a boolean
	OpLoop            // 2-byte backward offset
	OpGetLocal        // 1-byte slot
	OpSetLocal        // 1-byte slot, peeks
	OpGetGlobal       // 1-byte constant index of the name
	OpSetGlobal       // 1-byte constant index of the name, peeks
	OpCall            // 1-byte argument count
	OpPrint           // 1-byte argument count, checked against 1 at runtime
	OpReturn
)

var opNames = map[OpCode]string{
	OpConstant:        "CONSTANT",
	OpNull:            "NULL",
	OpPop:             "POP",
	OpEndScope:        "END_SCOPE",
	OpAdd:             "ADD",
	OpSub:             "SUB",
	OpMul:             "MUL",
	OpDiv:             "DIV",
	OpMod:             "MOD",
	OpNegate:          "NEGATE",
	OpNot:             "NOT",
	OpEqual:           "EQUAL",
	OpNotEqual:        "NOT_EQUAL",
	OpGreater:         "GREATER",
	OpGreaterEqual:    "GREATER_EQUAL",
	OpLess:            "LESS",
	OpLessEqual:       "LESS_EQUAL",
	OpJump:            "JUMP",
	OpJumpIfFalse:     "JUMP_IF_FALSE",
	OpJumpIfFalsePeek: "JUMP_IF_FALSE_PEEK",
	OpCheckBool:       "CHECK_BOOL",
	OpLoop:            "LOOP",
	OpGetLocal:        "GET_LOCAL",
	OpSetLocal:        "SET_LOCAL",
	OpGetGlobal:       "GET_GLOBAL",
	OpSetGlobal:       "SET_GLOBAL",
	OpCall:            "CALL",
	OpPrint:           "PRINT",
	OpReturn:          "RETURN",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// OperandWidth reports how many operand bytes follow the opcode.
func (op OpCode) OperandWidth() int {
	switch op {
	case OpConstant, OpEndScope, OpGetLocal, OpSetLocal,
		OpGetGlobal, OpSetGlobal, OpCall, OpPrint, OpCheckBool:
		return 1
	case OpJump, OpLoop:
		return 2
	case OpJumpIfFalse, OpJumpIfFalsePeek:
		return 3
	}
	return 0
}

// Condition kinds, the first operand of the condition-checking opcodes. The
// VM names the construct in its type-mismatch diagnostics.
const (
	CondIf byte = iota
	CondWhile
	CondAnd
	CondOr
)

var condNames = [...]string{"if", "while", "and", "or"}

func CondName(kind byte) string {
	if int(kind) < len(condNames) {
		return condNames[kind]
	}
	return "condition"
}
