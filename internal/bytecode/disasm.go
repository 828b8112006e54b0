package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a whole program as a human-readable listing, the
// top-level chunk first and each function-table entry after it.
func Disassemble(prog *Program) string {
	var sb strings.Builder
	sb.WriteString("== <main> ==\n")
	disassembleChunk(&sb, prog.Main)
	for _, fn := range prog.Functions {
		fmt.Fprintf(&sb, "== fn %s/%d ==\n", fn.Name, fn.Arity)
		disassembleChunk(&sb, fn.Chunk)
	}
	return sb.String()
}

func disassembleChunk(sb *strings.Builder, c *Chunk) {
	for ip := 0; ip < len(c.Code); {
		ip = disassembleInstruction(sb, c, ip)
	}
}

func disassembleInstruction(sb *strings.Builder, c *Chunk, ip int) int {
	op := OpCode(c.Code[ip])
	fmt.Fprintf(sb, "%04d %-18s", ip, op)
	switch op.OperandWidth() {
	case 0:
		sb.WriteByte('\n')
		return ip + 1
	case 1:
		operand := int(c.Code[ip+1])
		switch op {
		case OpConstant, OpGetGlobal, OpSetGlobal:
			fmt.Fprintf(sb, " %3d  (%s)\n", operand, renderConstant(c, operand))
		case OpCheckBool:
			fmt.Fprintf(sb, " %3d  (%s)\n", operand, CondName(c.Code[ip+1]))
		default:
			fmt.Fprintf(sb, " %3d\n", operand)
		}
		return ip + 2
	case 2:
		offset := int(c.Code[ip+1])<<8 | int(c.Code[ip+2])
		target := ip + 3 + offset
		if op == OpLoop {
			target = ip + 3 - offset
		}
		fmt.Fprintf(sb, " %3d  -> %04d\n", offset, target)
		return ip + 3
	default:
		kind := c.Code[ip+1]
		offset := int(c.Code[ip+2])<<8 | int(c.Code[ip+3])
		fmt.Fprintf(sb, " %3d  -> %04d  (%s)\n", offset, ip+4+offset, CondName(kind))
		return ip + 4
	}
}

func renderConstant(c *Chunk, idx int) string {
	if idx < 0 || idx >= len(c.Constants) {
		return "?"
	}
	val := c.Constants[idx]
	switch v := val.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
