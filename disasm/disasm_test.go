package disasm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vasm8/vasm8/asm"
	"github.com/go-vasm8/vasm8/disasm"
	"github.com/go-vasm8/vasm8/isa"
)

func TestDecodeNOP(t *testing.T) {
	inst, err := disasm.Decode([]byte{0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, "NOP", inst.Mnemonic)
	assert.Equal(t, 2, inst.Length)
	assert.Equal(t, "NOP", inst.String())
}

func TestDecodeBranch(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupBranch, isa.Immediate), isa.BranchConditionByte(isa.CondNZ), byte(int8(-5))}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "BRNZ", inst.Mnemonic)
	assert.Equal(t, "-5", inst.Operands)
	assert.Equal(t, 3, inst.Length)
}

func TestDecodeExtendedNoOperand(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupExtended, isa.Register), isa.SubRET}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "RET", inst.Mnemonic)
	assert.Equal(t, 2, inst.Length)
}

func TestDecodeExtendedWithOperand(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupExtended, isa.Register), isa.SubPUSH, isa.RegisterByte(3, 0)}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "PUSH", inst.Mnemonic)
	assert.Equal(t, "R3", inst.Operands)
	assert.Equal(t, 3, inst.Length)
}

func TestDecodeShift(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupSHR, isa.Register), isa.RegisterByte(2, 2)}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "SHR", inst.Mnemonic)
	assert.Equal(t, "R2", inst.Operands)
}

func TestDecodeShiftWithExplicitSource(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupSHL, isa.Register), isa.RegisterByte(2, 1)}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "SHL", inst.Mnemonic)
	assert.Equal(t, "R2, R1", inst.Operands)
}

func TestDecodeRegisterToRegister(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupLD, isa.Register), isa.RegisterByte(0, 1)}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "LD", inst.Mnemonic)
	assert.Equal(t, "R0, R1", inst.Operands)
}

func TestDecodeRegisterPair(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupLD, isa.RegisterPair), isa.RegisterByte(0, 2)}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "LD", inst.Mnemonic)
	assert.Equal(t, "R0, [R2:R3]", inst.Operands)
}

func TestDecodeZeroPage(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupLD, isa.ZeroPage), isa.RegisterByte(0, 0), 0x20}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "R0, [$20]", inst.Operands)
}

func TestDecodeZeroPageIndexed(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupLD, isa.ZeroPageIndexed), isa.RegisterByte(0, 1), 0x20}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "R0, [$20+R1]", inst.Operands)
}

func TestDecodeAbsoluteLoad(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupLD, isa.Absolute), isa.RegisterByte(0, 0), 0x34, 0x12}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "R0, [$1234]", inst.Operands)
}

func TestDecodeJumpHasNoDestinationRegister(t *testing.T) {
	data := []byte{isa.OpcodeByte(isa.GroupJMP, isa.Absolute), isa.RegisterByte(0, 0), 0x34, 0x12}
	inst, err := disasm.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "JMP", inst.Mnemonic)
	assert.Equal(t, "$1234", inst.Operands)
}

func TestDecodeTruncatedInstructionErrors(t *testing.T) {
	_, err := disasm.Decode([]byte{isa.OpcodeByte(isa.GroupLD, isa.Absolute), 0x00, 0x34})
	assert.Error(t, err)
}

func TestDecodeEmptyInputErrors(t *testing.T) {
	_, err := disasm.Decode(nil)
	assert.Error(t, err)
}

// TestDecodeRoundTripsThroughAssembler assembles a short program and
// disassembles every instruction it produced, checking the mnemonic
// recovered matches what was written and that the decoded lengths sum
// to the segment's total length.
func TestDecodeRoundTripsThroughAssembler(t *testing.T) {
	code := `
	LD R0, [$1234]
	ADD R1, #5
	JMP target
target:
	RET`
	a := asm.Assemble(code, asm.Options{})
	require.False(t, asm.HasErrors(a.Diagnostics), "%v", a.Diagnostics)
	require.Len(t, a.Segments, 1)

	data := a.Segments[0].Data
	var mnemonics []string
	offset := 0
	for offset < len(data) {
		inst, err := disasm.Decode(data[offset:])
		require.NoError(t, err)
		mnemonics = append(mnemonics, inst.Mnemonic)
		offset += inst.Length
	}
	assert.Equal(t, []string{"LD", "ADD", "JMP", "RET"}, mnemonics)
	assert.Equal(t, len(data), offset)
}
