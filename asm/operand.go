package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-vasm8/vasm8/isa"
)

var registerRe = regexp.MustCompile(`^[Rr]([0-9]+)$`)
var pairRe = regexp.MustCompile(`^\[\s*[Rr]([0-9]+)\s*:\s*[Rr]([0-9]+)\s*\]$`)
var indexedRe = regexp.MustCompile(`^(.+)\+\s*[Rr]([0-9]+)\s*$`)

// operandShape is the lexical classification of one operand's text
// before any symbol-table-dependent resolution. It keeps the
// zero-page/absolute ambiguity open (Bracket) until the caller can
// attempt a literal evaluation.
type operandShape int

const (
	shapeImmediate operandShape = iota
	shapeRegister
	shapeRegisterPair
	shapeBracket        // "[expr]" — ZERO_PAGE or ABSOLUTE, pending value
	shapeBracketIndexed // "[expr+Rk]" — always ZERO_PAGE_INDEXED
	shapeBare           // bare expr/label — ABSOLUTE (jump/call targets)
)

// operand holds the parsed shape of one operand plus whatever register
// numbers and expression text it carries.
type operand struct {
	shape    operandShape
	reg      int    // shapeRegister, or dest half of shapeRegisterPair
	pairHi   int    // shapeRegisterPair's second register
	indexReg int    // shapeBracketIndexed's index register
	expr     string // expression text, for shapeImmediate/Bracket/BracketIndexed/Bare
}

// parseOperand classifies one operand's raw text against the grammar:
// '#' expr | register | '[' addr_tail ']' | expr.
func parseOperand(text string) (operand, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return operand{}, fmt.Errorf("empty operand")
	}

	if strings.HasPrefix(text, "#") {
		return operand{shape: shapeImmediate, expr: strings.TrimSpace(text[1:])}, nil
	}

	if m := registerRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return operand{shape: shapeRegister, reg: n}, nil
	}

	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		if m := pairRe.FindStringSubmatch(text); m != nil {
			lo, _ := strconv.Atoi(m[1])
			hi, _ := strconv.Atoi(m[2])
			return operand{shape: shapeRegisterPair, reg: lo, pairHi: hi}, nil
		}
		inner := strings.TrimSpace(text[1 : len(text)-1])
		if m := indexedRe.FindStringSubmatch(inner); m != nil {
			idx, _ := strconv.Atoi(m[2])
			return operand{shape: shapeBracketIndexed, expr: strings.TrimSpace(m[1]), indexReg: idx}, nil
		}
		return operand{shape: shapeBracket, expr: inner}, nil
	}

	return operand{shape: shapeBare, expr: text}, nil
}

// addressingModeInfo is the fully classified addressing mode of an
// operand, resolved against the literal-only evaluator at pass 1 (to
// decide zero-page vs. absolute) and reused unchanged at pass 2.
type addressingModeInfo struct {
	mode     isa.Mode
	reg      int
	indexReg int
	expr     string // expression text still to be evaluated at pass 2
}

// classify resolves an operand into its addressing mode. evalLiteral
// attempts to fully evaluate an expression with no symbol table (pure
// numeric literals); when it cannot (the expression names an
// identifier or '$'), a bracketed bare operand is pessimistically
// classified ABSOLUTE so pass 1 can size it without the symbol table.
func (o operand) classify() (addressingModeInfo, error) {
	switch o.shape {
	case shapeImmediate:
		return addressingModeInfo{mode: isa.Immediate, expr: o.expr}, nil
	case shapeRegister:
		return addressingModeInfo{mode: isa.Register, reg: o.reg}, nil
	case shapeRegisterPair:
		base, ok := isa.PairBase(o.reg, o.pairHi)
		if !ok {
			return addressingModeInfo{}, fmt.Errorf("Invalid register pair")
		}
		return addressingModeInfo{mode: isa.RegisterPair, reg: base}, nil
	case shapeBracketIndexed:
		return addressingModeInfo{mode: isa.ZeroPageIndexed, expr: o.expr, indexReg: o.indexReg}, nil
	case shapeBracket:
		if v, ok := evalLiteral(o.expr); ok {
			if v <= 0xFF {
				return addressingModeInfo{mode: isa.ZeroPage, expr: o.expr}, nil
			}
			return addressingModeInfo{mode: isa.Absolute, expr: o.expr}, nil
		}
		// Contains an identifier or '$': pessimistically ABSOLUTE.
		return addressingModeInfo{mode: isa.Absolute, expr: o.expr}, nil
	case shapeBare:
		return addressingModeInfo{mode: isa.Absolute, expr: o.expr}, nil
	}
	return addressingModeInfo{}, fmt.Errorf("unrecognized operand")
}
