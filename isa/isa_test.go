package isa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vasm8/vasm8/isa"
)

func TestOpcodeByteRoundTrip(t *testing.T) {
	for group := byte(0); group <= isa.GroupExtended; group++ {
		for mode := isa.Immediate; mode <= isa.Absolute; mode++ {
			b := isa.OpcodeByte(group, mode)
			gotGroup, gotMode := isa.DecodeOpcodeByte(b)
			assert.Equal(t, group, gotGroup, "group round-trip for opcode byte %#02x", b)
			assert.Equal(t, mode, gotMode, "mode round-trip for opcode byte %#02x", b)
		}
	}
}

func TestRegisterByteRoundTrip(t *testing.T) {
	for dest := 0; dest < 6; dest++ {
		for src := 0; src < 6; src++ {
			b := isa.RegisterByte(dest, src)
			gotDest, gotSrc := isa.DecodeRegisterByte(b)
			assert.Equal(t, dest, gotDest)
			assert.Equal(t, src, gotSrc)
		}
	}
}

func TestBranchConditionByteRoundTrip(t *testing.T) {
	for _, cond := range isa.Branches {
		b := isa.BranchConditionByte(cond)
		assert.Equal(t, cond, isa.DecodeBranchConditionByte(b))
	}
}

func TestBranchNameRoundTrip(t *testing.T) {
	for name, cond := range isa.Branches {
		assert.Equal(t, name, isa.BranchName(cond))
	}
}

func TestLookupKnownMnemonics(t *testing.T) {
	for _, name := range []string{"NOP", "LD", "ST", "ADD", "JMP", "CALL", "SHL", "SHR", "RET", "PUSH", "BRZ"} {
		inst := isa.Lookup(name)
		require.NotNilf(t, inst, "expected %s to be a known mnemonic", name)
		assert.Equal(t, name, inst.Name)
	}
}

func TestLookupUnknownMnemonic(t *testing.T) {
	assert.Nil(t, isa.Lookup("FROB"))
}

func TestExtendedSubOpcode(t *testing.T) {
	sub, hasOperand, ok := isa.ExtendedSubOpcode("PUSH")
	require.True(t, ok)
	assert.True(t, hasOperand)
	assert.Equal(t, isa.SubPUSH, sub)

	sub, hasOperand, ok = isa.ExtendedSubOpcode("RET")
	require.True(t, ok)
	assert.False(t, hasOperand)
	assert.Equal(t, isa.SubRET, sub)

	_, _, ok = isa.ExtendedSubOpcode("FROB")
	assert.False(t, ok)
}

func TestInstructionSize(t *testing.T) {
	nop := isa.Lookup("NOP")
	assert.Equal(t, 2, nop.Size(isa.Immediate, false))

	ld := isa.Lookup("LD")
	assert.Equal(t, 2, ld.Size(isa.Register, false))
	assert.Equal(t, 2, ld.Size(isa.RegisterPair, false))
	assert.Equal(t, 3, ld.Size(isa.ZeroPage, false))
	assert.Equal(t, 3, ld.Size(isa.ZeroPageIndexed, false))
	assert.Equal(t, 4, ld.Size(isa.Absolute, false))

	ret := isa.Lookup("RET")
	assert.Equal(t, 2, ret.Size(isa.Register, false))
	push := isa.Lookup("PUSH")
	assert.Equal(t, 3, push.Size(isa.Register, true))

	brz := isa.Lookup("BRZ")
	assert.Equal(t, 3, brz.Size(isa.Immediate, false))
}

func TestPairBase(t *testing.T) {
	cases := []struct {
		lo, hi int
		base   int
		ok     bool
	}{
		{0, 1, 0, true},
		{2, 3, 2, true},
		{4, 5, 4, true},
		{1, 2, 0, false}, // odd base
		{0, 2, 0, false}, // not consecutive
	}
	for _, c := range cases {
		base, ok := isa.PairBase(c.lo, c.hi)
		assert.Equal(t, c.ok, ok, "PairBase(%d,%d)", c.lo, c.hi)
		if c.ok {
			assert.Equal(t, c.base, base, "PairBase(%d,%d)", c.lo, c.hi)
		}
	}
}

func TestRegisterName(t *testing.T) {
	assert.Equal(t, "R0", isa.RegisterName(0))
	assert.Equal(t, "R5", isa.RegisterName(5))
}
