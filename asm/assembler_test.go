package asm

import (
	"fmt"
	"strings"
	"testing"
)

func assembleHex(code string) (string, []Diagnostic) {
	a := Assemble(code, Options{})
	var b strings.Builder
	if len(a.Segments) > 0 {
		for _, v := range a.Segments[0].Data {
			fmt.Fprintf(&b, "%02X", v)
		}
	}
	return b.String(), a.Diagnostics
}

func checkASM(t *testing.T, code, expected string) {
	t.Helper()
	got, diags := assembleHex(code)
	if HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if got != expected {
		t.Errorf("code mismatch\n got: %s\n exp: %s", got, expected)
	}
}

func checkASMError(t *testing.T, code, wantMessage string) {
	t.Helper()
	_, diags := assembleHex(code)
	for _, d := range diags {
		if d.Message == wantMessage {
			return
		}
	}
	t.Errorf("expected diagnostic %q, got: %v", wantMessage, diags)
}

func TestNOP(t *testing.T) {
	checkASM(t, "NOP", "0000")
}

func TestImmediate(t *testing.T) {
	// ADD R0, #42: group 3, mode IMMEDIATE, register byte 0, value $2A.
	checkASM(t, "ADD R0, #42", "30002A")
}

func TestAbsolute(t *testing.T) {
	checkASM(t, "LD R0, [$1234]", "1A003412")
}

func TestRegisterToRegister(t *testing.T) {
	checkASM(t, "LD R0, R1", "1204")
}

func TestRegisterPair(t *testing.T) {
	checkASM(t, "LD R0, [R2:R3]", "1408")
}

func TestZeroPage(t *testing.T) {
	checkASM(t, "LD R0, [$20]", "160020")
}

func TestZeroPageIndexed(t *testing.T) {
	checkASM(t, "LD R0, [$20+R1]", "180420")
}

func TestZeroPageIndexedOverflowWarns(t *testing.T) {
	code := "LD R0, [$1234+R1]"
	_, diags := assembleHex(code)
	if HasErrors(diags) {
		t.Fatalf("unexpected errors: %v", diags)
	}
	found := false
	for _, d := range diags {
		if d.Severity == Warning && strings.Contains(d.Message, "truncated to low byte") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a zero-page truncation warning, got: %v", diags)
	}
}

func TestJumpAbsolute(t *testing.T) {
	checkASM(t, "JMP $1234", "9A003412")
}

func TestCallAbsolute(t *testing.T) {
	checkASM(t, "CALL $4000", "AA000040")
}

func TestShiftSingleOperand(t *testing.T) {
	checkASM(t, "SHL R0", "B200")
}

func TestShiftTwoOperands(t *testing.T) {
	checkASM(t, "SHR R2, R0", "C240")
}

func TestExtendedNoOperand(t *testing.T) {
	checkASM(t, "RET", "E200")
}

func TestExtendedWithOperand(t *testing.T) {
	checkASM(t, "PUSH R3", "E21060")
}

func TestBranchForward(t *testing.T) {
	// BRZ (3 bytes at $0000) branches to the NOP at $0005:
	// offset = 5 - (0+3) = 2. Two more NOPs follow it in the segment.
	code := `
	BRZ target
	NOP
target:
	NOP`
	checkASM(t, code, "D0000200000000")
}

func TestBranchOutOfRange(t *testing.T) {
	code := `
	BRZ far
	.res 200
far:
	NOP`
	checkASMError(t, code, "Branch target out of range")
}

func TestDirectiveByte(t *testing.T) {
	checkASM(t, ".byte 1, 2, 3", "010203")
}

func TestDirectiveByteAlias(t *testing.T) {
	checkASM(t, ".db $FF", "FF")
}

func TestDirectiveWord(t *testing.T) {
	checkASM(t, ".word $1234", "3412")
}

func TestDirectiveString(t *testing.T) {
	checkASM(t, `.string "AB"`, "414200")
}

func TestDirectiveRes(t *testing.T) {
	checkASM(t, ".res 3", "000000")
}

func TestDirectiveAlign(t *testing.T) {
	code := `
	.byte 1
	.align 4
	.byte 2`
	checkASM(t, code, "01000000"+"02")
}

func TestOrgRepositions(t *testing.T) {
	code := `
	.org $0010
start:
	NOP
	.word start`
	a := Assemble(code, Options{})
	if HasErrors(a.Diagnostics) {
		t.Fatalf("unexpected errors: %v", a.Diagnostics)
	}
	if len(a.Segments) != 1 || a.Segments[0].Start != 0x0010 {
		t.Fatalf("expected one segment starting at $0010, got %+v", a.Segments)
	}
	if addr, ok := a.Symbols["start"]; !ok || addr != 0x0010 {
		t.Errorf("expected start=$0010, got %#x (ok=%v)", addr, ok)
	}
}

func TestDefineForwardReference(t *testing.T) {
	code := `
	.define DEST TARGET
	.word DEST
TARGET:
	NOP`
	checkASM(t, code, "02000000")
}

func TestDefineUndefinedSymbol(t *testing.T) {
	checkASMError(t, ".define X NOPE", "Undefined symbol in .define X")
}

func TestHereToken(t *testing.T) {
	code := `
	.org $0600
X:
	.define FOO $
	NOP`
	a := Assemble(code, Options{})
	if HasErrors(a.Diagnostics) {
		t.Fatalf("unexpected errors: %v", a.Diagnostics)
	}
	if addr, ok := a.Symbols["FOO"]; !ok || addr != 0x0600 {
		t.Errorf("expected FOO=$0600, got %#x (ok=%v)", addr, ok)
	}
}

func TestLocalLabels(t *testing.T) {
	code := `
LOOP:
.top:
	NOP
	JMP .top`
	checkASM(t, code, "0000"+"9A000000")
}

func TestLocalLabelWithoutParent(t *testing.T) {
	checkASMError(t, ".top:\n\tNOP", "Local label has no parent label")
}

func TestDuplicateLabel(t *testing.T) {
	code := `
A:
	NOP
A:
	NOP`
	checkASMError(t, code, "Duplicate label: A")
}

func TestUndefinedSymbol(t *testing.T) {
	checkASMError(t, "JMP NOWHERE", "Undefined symbol: NOWHERE")
}

func TestDivideByZero(t *testing.T) {
	checkASMError(t, ".byte 1/0", "evaluation failed")
}

func TestUnknownOpcode(t *testing.T) {
	checkASMError(t, "FROB R0", "Unknown opcode")
}

func TestInvalidOperandCount(t *testing.T) {
	checkASMError(t, "NOP R0", "Invalid operand count for NOP: expected 0, got 1")
}

func TestInvalidRegisterPair(t *testing.T) {
	checkASMError(t, "LD R0, [R1:R2]", "Invalid register pair")
}

func TestUnknownDirective(t *testing.T) {
	checkASMError(t, ".frobnicate", "Unknown directive: .frobnicate")
}

func TestIncludeResolution(t *testing.T) {
	sources := map[string]string{
		"main.asm": ".include \"lib.asm\"\nADD R0, #VALUE",
		"lib.asm":  ".define VALUE 7",
	}
	a := AssembleMulti(sources, "main.asm", Options{})
	if HasErrors(a.Diagnostics) {
		t.Fatalf("unexpected errors: %v", a.Diagnostics)
	}
	if len(a.Segments) != 1 || len(a.Segments[0].Data) != 3 {
		t.Fatalf("expected 3 bytes, got %+v", a.Segments)
	}
	if a.Segments[0].Data[2] != 7 {
		t.Errorf("expected immediate value 7, got %d", a.Segments[0].Data[2])
	}
}

func TestIncludeCycleIsSkippedNotFatal(t *testing.T) {
	sources := map[string]string{
		"a.asm": ".include \"b.asm\"\nNOP",
		"b.asm": ".include \"a.asm\"\nNOP",
	}
	a := AssembleMulti(sources, "a.asm", Options{})
	if HasErrors(a.Diagnostics) {
		t.Fatalf("unexpected errors: %v", a.Diagnostics)
	}
	if len(a.Segments) != 1 || len(a.Segments[0].Data) != 4 {
		t.Fatalf("expected 4 bytes (one NOP from each file), got %+v", a.Segments)
	}
}

func TestMissingInclude(t *testing.T) {
	sources := map[string]string{"main.asm": `.include "missing.asm"`}
	a := AssembleMulti(sources, "main.asm", Options{})
	if !HasErrors(a.Diagnostics) {
		t.Fatalf("expected an error for the missing include")
	}
}

func TestCommentsAndLabelsOnSameLine(t *testing.T) {
	checkASM(t, "loop: NOP ; loop forever", "0000")
}
