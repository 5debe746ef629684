// Package disasm decodes one encoded instruction back into a mnemonic
// and operand string. It decodes against the isa package's table
// instead of a live CPU memory bus, since this module's assembler
// never drives a running machine.
package disasm

import (
	"fmt"

	"github.com/go-vasm8/vasm8/isa"
)

// Instruction is one decoded instruction: its mnemonic, formatted
// operand text, and the number of bytes it occupied.
type Instruction struct {
	Mnemonic string
	Operands string
	Length   int
}

func (i Instruction) String() string {
	if i.Operands == "" {
		return i.Mnemonic
	}
	return fmt.Sprintf("%s %s", i.Mnemonic, i.Operands)
}

// Decode decodes one instruction starting at data[0], returning how
// many bytes it consumed. It returns an error if data is too short for
// the decoded opcode's length or the opcode group is unrecognized.
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, fmt.Errorf("no bytes to decode")
	}
	group, mode := isa.DecodeOpcodeByte(data[0])

	switch group {
	case isa.GroupNOP:
		return need(data, 2, Instruction{Mnemonic: "NOP", Length: 2})

	case isa.GroupBranch:
		if len(data) < 3 {
			return Instruction{}, fmt.Errorf("truncated branch instruction")
		}
		cond := isa.DecodeBranchConditionByte(data[1])
		offset := int8(data[2])
		name := isa.BranchName(cond)
		if name == "" {
			return Instruction{}, fmt.Errorf("unknown branch condition %d", cond)
		}
		return Instruction{Mnemonic: name, Operands: fmt.Sprintf("%+d", offset), Length: 3}, nil

	case isa.GroupExtended:
		if len(data) < 2 {
			return Instruction{}, fmt.Errorf("truncated extended instruction")
		}
		sub := data[1]
		name, hasOperand := extendedName(sub)
		if name == "" {
			return Instruction{}, fmt.Errorf("unknown extended sub-opcode %#x", sub)
		}
		if !hasOperand {
			return Instruction{Mnemonic: name, Length: 2}, nil
		}
		if len(data) < 3 {
			return Instruction{}, fmt.Errorf("truncated extended instruction")
		}
		dest, _ := isa.DecodeRegisterByte(data[2])
		return Instruction{Mnemonic: name, Operands: isa.RegisterName(dest), Length: 3}, nil

	case isa.GroupSHL, isa.GroupSHR:
		if len(data) < 2 {
			return Instruction{}, fmt.Errorf("truncated shift instruction")
		}
		dest, src := isa.DecodeRegisterByte(data[1])
		name := "SHL"
		if group == isa.GroupSHR {
			name = "SHR"
		}
		operands := isa.RegisterName(dest)
		if src != dest {
			operands += ", " + isa.RegisterName(src)
		}
		return Instruction{Mnemonic: name, Operands: operands, Length: 2}, nil

	default:
		return decodeMoveOrALU(data, group, mode)
	}
}

func need(data []byte, length int, inst Instruction) (Instruction, error) {
	if len(data) < length {
		return Instruction{}, fmt.Errorf("truncated instruction")
	}
	return inst, nil
}

func decodeMoveOrALU(data []byte, group byte, mode isa.Mode) (Instruction, error) {
	name := groupName(group)
	if name == "" {
		return Instruction{}, fmt.Errorf("unknown opcode group %#x", group)
	}
	if len(data) < 2 {
		return Instruction{}, fmt.Errorf("truncated instruction")
	}
	dest, srcOrIndex := isa.DecodeRegisterByte(data[1])
	destReg := isa.RegisterName(dest)

	switch mode {
	case isa.Register:
		return Instruction{Mnemonic: name, Operands: fmt.Sprintf("%s, %s", destReg, isa.RegisterName(srcOrIndex)), Length: 2}, nil
	case isa.RegisterPair:
		return Instruction{Mnemonic: name, Operands: fmt.Sprintf("%s, [%s:R%d]", destReg, isa.RegisterName(srcOrIndex), srcOrIndex+1), Length: 2}, nil
	case isa.Immediate:
		if len(data) < 3 {
			return Instruction{}, fmt.Errorf("truncated instruction")
		}
		return Instruction{Mnemonic: name, Operands: fmt.Sprintf("%s, #$%02X", destReg, data[2]), Length: 3}, nil
	case isa.ZeroPage:
		if len(data) < 3 {
			return Instruction{}, fmt.Errorf("truncated instruction")
		}
		return Instruction{Mnemonic: name, Operands: fmt.Sprintf("%s, [$%02X]", destReg, data[2]), Length: 3}, nil
	case isa.ZeroPageIndexed:
		if len(data) < 3 {
			return Instruction{}, fmt.Errorf("truncated instruction")
		}
		return Instruction{Mnemonic: name, Operands: fmt.Sprintf("%s, [$%02X+%s]", destReg, data[2], isa.RegisterName(srcOrIndex)), Length: 3}, nil
	case isa.Absolute:
		if len(data) < 4 {
			return Instruction{}, fmt.Errorf("truncated instruction")
		}
		addr := uint16(data[2]) | uint16(data[3])<<8
		if group == isa.GroupJMP || group == isa.GroupCALL {
			return Instruction{Mnemonic: name, Operands: fmt.Sprintf("$%04X", addr), Length: 4}, nil
		}
		return Instruction{Mnemonic: name, Operands: fmt.Sprintf("%s, [$%04X]", destReg, addr), Length: 4}, nil
	}
	return Instruction{}, fmt.Errorf("unknown addressing mode %v", mode)
}

func groupName(group byte) string {
	switch group {
	case isa.GroupLD:
		return "LD"
	case isa.GroupST:
		return "ST"
	case isa.GroupADD:
		return "ADD"
	case isa.GroupSUB:
		return "SUB"
	case isa.GroupAND:
		return "AND"
	case isa.GroupOR:
		return "OR"
	case isa.GroupXOR:
		return "XOR"
	case isa.GroupCMP:
		return "CMP"
	case isa.GroupJMP:
		return "JMP"
	case isa.GroupCALL:
		return "CALL"
	}
	return ""
}

func extendedName(sub byte) (name string, hasOperand bool) {
	switch sub {
	case isa.SubRET:
		return "RET", false
	case isa.SubRTI:
		return "RTI", false
	case isa.SubPUSH:
		return "PUSH", true
	case isa.SubPOP:
		return "POP", true
	case isa.SubINC:
		return "INC", true
	case isa.SubDEC:
		return "DEC", true
	case isa.SubROL:
		return "ROL", true
	case isa.SubROR:
		return "ROR", true
	case isa.SubSEI:
		return "SEI", false
	case isa.SubCLI:
		return "CLI", false
	}
	return "", false
}
