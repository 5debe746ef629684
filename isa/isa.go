// Package isa describes the instruction set of the 8-bit virtual
// console CPU: its addressing modes, its opcode groups, and the
// legal operand shapes for each mnemonic. It is consumed by the
// asm package (to encode instructions) and the disasm package (to
// decode them) the same way the go6502 package is shared between
// this repository's original asm and disasm packages.
package isa

import "fmt"

// A Mode identifies one of the CPU's addressing modes. Three bits of
// the opcode byte (bits 3-1) hold the Mode value.
type Mode byte

// Addressing modes, in the order their 3-bit encoding requires.
const (
	Immediate Mode = iota
	Register
	RegisterPair
	ZeroPage
	ZeroPageIndexed
	Absolute
)

var modeNames = [...]string{
	Immediate:       "IMMEDIATE",
	Register:        "REGISTER",
	RegisterPair:    "REGISTER_PAIR",
	ZeroPage:        "ZERO_PAGE",
	ZeroPageIndexed: "ZERO_PAGE_INDEXED",
	Absolute:        "ABSOLUTE",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", byte(m))
}

// Opcode groups occupy the high 4 bits of the opcode byte.
const (
	GroupNOP byte = iota
	GroupLD
	GroupST
	GroupADD
	GroupSUB
	GroupAND
	GroupOR
	GroupXOR
	GroupCMP
	GroupJMP
	GroupCALL
	GroupSHL
	GroupSHR
	GroupBranch
	GroupExtended
)

// Branch condition codes occupy bits 7-5 of a branch instruction's
// second byte (condition << 5).
const (
	CondZ byte = iota
	CondNZ
	CondC
	CondNC
	CondN
	CondNN
	CondV
	CondNV
)

// Branches maps a branch mnemonic to its condition code.
var Branches = map[string]byte{
	"BRZ":  CondZ,
	"BRNZ": CondNZ,
	"BRC":  CondC,
	"BRNC": CondNC,
	"BRN":  CondN,
	"BRNN": CondNN,
	"BRV":  CondV,
	"BRNV": CondNV,
}

// BranchName returns the mnemonic for a branch condition code.
func BranchName(cond byte) string {
	for name, c := range Branches {
		if c == cond {
			return name
		}
	}
	return ""
}

// Extended sub-opcodes occupy the second byte of an extended
// instruction (opcode group GroupExtended).
const (
	SubRET  byte = 0x00
	SubRTI  byte = 0x01
	SubPUSH byte = 0x10
	SubPOP  byte = 0x11
	SubINC  byte = 0x20
	SubDEC  byte = 0x21
	SubROL  byte = 0x30
	SubROR  byte = 0x31
	SubSEI  byte = 0x40
	SubCLI  byte = 0x41
)

// extended describes one extended instruction: its sub-opcode and
// whether it carries a register operand.
type extended struct {
	sub     byte
	hasOper bool
}

var extendedOps = map[string]extended{
	"RET":  {SubRET, false},
	"RTI":  {SubRTI, false},
	"PUSH": {SubPUSH, true},
	"POP":  {SubPOP, true},
	"INC":  {SubINC, true},
	"DEC":  {SubDEC, true},
	"ROL":  {SubROL, true},
	"ROR":  {SubROR, true},
	"SEI":  {SubSEI, false},
	"CLI":  {SubCLI, false},
}

// An Instruction describes one mnemonic's legal addressing modes and
// operand-count range.
type Instruction struct {
	Name        string
	Group       byte
	Modes       map[Mode]bool // legal addressing modes, empty means "see Extended/Branch"
	MinOperands int
	MaxOperands int
	Extended    bool // true for the RET/PUSH/... family
	Branch      bool // true for BRZ/BRNZ/...
}

func modeSet(modes ...Mode) map[Mode]bool {
	s := make(map[Mode]bool, len(modes))
	for _, m := range modes {
		s[m] = true
	}
	return s
}

// Instructions maps mnemonic name (uppercase) to its Instruction
// descriptor. Built once at init time, mirroring go6502's
// Instructions table construction.
var Instructions map[string]*Instruction

func init() {
	Instructions = make(map[string]*Instruction)

	reg := modeSet(Register)
	aluModes := modeSet(Register, Immediate, ZeroPage, ZeroPageIndexed, Absolute)
	moveModes := modeSet(Register, RegisterPair, Immediate, ZeroPage, ZeroPageIndexed, Absolute)
	addrModes := modeSet(Absolute)

	add := func(name string, group byte, modes map[Mode]bool, min, max int) {
		Instructions[name] = &Instruction{Name: name, Group: group, Modes: modes, MinOperands: min, MaxOperands: max}
	}

	add("NOP", GroupNOP, modeSet(), 0, 0)
	add("LD", GroupLD, moveModes, 2, 2)
	add("ST", GroupST, modeSet(Register, RegisterPair, ZeroPage, ZeroPageIndexed, Absolute), 2, 2)
	add("ADD", GroupADD, aluModes, 2, 2)
	add("SUB", GroupSUB, aluModes, 2, 2)
	add("AND", GroupAND, aluModes, 2, 2)
	add("OR", GroupOR, aluModes, 2, 2)
	add("XOR", GroupXOR, aluModes, 2, 2)
	add("CMP", GroupCMP, aluModes, 2, 2)
	add("JMP", GroupJMP, addrModes, 1, 1)
	add("CALL", GroupCALL, addrModes, 1, 1)
	add("SHL", GroupSHL, reg, 1, 2)
	add("SHR", GroupSHR, reg, 1, 2)

	for name := range Branches {
		Instructions[name] = &Instruction{Name: name, Group: GroupBranch, Branch: true, MinOperands: 1, MaxOperands: 1}
	}

	for name, ext := range extendedOps {
		min, max := 0, 0
		if ext.hasOper {
			min, max = 1, 1
		}
		Instructions[name] = &Instruction{Name: name, Group: GroupExtended, Extended: true, MinOperands: min, MaxOperands: max}
	}
}

// Lookup returns the Instruction descriptor for a mnemonic, or nil if
// the mnemonic is unknown. Mnemonic comparison is case-sensitive
// against the upper-case table names; callers are expected to
// upper-case first (the assembler's line parser already does this).
func Lookup(mnemonic string) *Instruction {
	return Instructions[mnemonic]
}

// ExtendedSubOpcode returns the sub-opcode byte for an extended
// mnemonic and whether it carries a register operand.
func ExtendedSubOpcode(mnemonic string) (sub byte, hasOperand, ok bool) {
	e, ok := extendedOps[mnemonic]
	return e.sub, e.hasOper, ok
}

// Size returns the number of bytes an instruction occupies given its
// addressing mode.
func (i *Instruction) Size(mode Mode, hasExtendedOperand bool) int {
	switch {
	case i.Name == "NOP":
		return 2
	case i.Branch:
		return 3
	case i.Extended:
		if hasExtendedOperand {
			return 3
		}
		return 2
	case mode == Register || mode == RegisterPair:
		return 2
	case mode == Absolute:
		return 4
	default: // Immediate, ZeroPage, ZeroPageIndexed
		return 3
	}
}

// RegisterName returns "R0".."R5" for register numbers 0-5.
func RegisterName(n int) string {
	return fmt.Sprintf("R%d", n)
}

// PairBase returns the base register number of a register pair (0,
// 2, or 4) given the pair's two register numbers, and whether the
// pair is valid (consecutive, even-based).
func PairBase(lo, hi int) (base int, ok bool) {
	if hi != lo+1 {
		return 0, false
	}
	if lo != 0 && lo != 2 && lo != 4 {
		return 0, false
	}
	return lo, true
}
