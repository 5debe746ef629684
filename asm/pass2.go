package asm

import (
	"fmt"

	"github.com/go-vasm8/vasm8/isa"
)

// runPass2 walks the same layout items pass 1 produced, now with a
// complete (read-only) symbol table, encoding bytes, opening segments,
// and recording source-map entries.
func runPass2(items []layoutItem, syms *symbolTable) ([]Segment, *SourceMap, []Diagnostic) {
	var diags diagList
	builder := newSegmentBuilder()
	srcmap := &SourceMap{}

	for _, item := range items {
		loc := item.loc()

		switch {
		case item.isInstruction:
			if item.inst == nil {
				continue // Unknown opcode already reported in pass 1; nothing to emit.
			}
			data, err, suggestion := encodeInstruction(item, syms, &diags)
			if err != nil {
				if suggestion != "" {
					diags.addErrorSuggest(loc, suggestion, "%s", err.Error())
				} else {
					diags.addError(loc, "%s", err.Error())
				}
				data = make([]byte, item.size)
			}
			if len(data) > 0 {
				builder.write(item.addr, data, &diags, loc)
				srcmap.add(item.addr, item.line.File, item.line.Line)
			}

		case item.line.Parsed.Kind == LineDirective:
			data := encodeDirective(item, syms, &diags, loc)
			if len(data) > 0 {
				builder.write(item.addr, data, &diags, loc)
			}
		}
	}

	return builder.segments, srcmap, diags.diags
}

func encodeDirective(item layoutItem, syms *symbolTable, diags *diagList, loc SourceLocation) []byte {
	d := item.dir
	env := makeEnv(item.addr, item.scope, syms)

	switch d.Kind {
	case DirByte:
		out := make([]byte, 0, len(d.Exprs))
		for _, e := range d.Exprs {
			v, err := evalExpr(e, env)
			if err != nil {
				diags.addError(loc, "%s", err.Error())
				out = append(out, 0)
				continue
			}
			out = append(out, byte(v&0xFF))
		}
		return out

	case DirWord:
		out := make([]byte, 0, 2*len(d.Exprs))
		for _, e := range d.Exprs {
			v, err := evalExpr(e, env)
			if err != nil {
				diags.addError(loc, "%s", err.Error())
				out = append(out, 0, 0)
				continue
			}
			out = append(out, byte(v&0xFF), byte(v>>8))
		}
		return out

	case DirString:
		decoded, err := unescapeString(d.StringText)
		if err != nil {
			diags.addError(loc, "%s", err.Error())
			return make([]byte, item.size)
		}
		out := make([]byte, 0, len(decoded)+1)
		out = append(out, []byte(decoded)...)
		out = append(out, 0)
		return out

	case DirRes, DirAlign:
		return make([]byte, item.size)

	default:
		return nil
	}
}

// encodeInstruction produces the encoded bytes for one instruction,
// using the mode and operand classification pass 1 already computed.
// It returns a non-nil error (and, for branch-range failures, a
// non-empty suggestion) on any value-dependent failure: undefined
// symbol, division by zero, or an out-of-range branch.
func encodeInstruction(item layoutItem, syms *symbolTable, diags *diagList) (data []byte, err error, suggestion string) {
	inst := item.inst
	env := makeEnv(item.addr, item.scope, syms)
	loc := item.loc()

	switch {
	case inst.Name == "NOP":
		return []byte{isa.OpcodeByte(isa.GroupNOP, isa.Immediate), 0x00}, nil, ""

	case inst.Branch:
		if len(item.operands) != 1 {
			return nil, fmt.Errorf("invalid branch operand"), ""
		}
		cond := isa.Branches[item.mnemonic]
		target, err := evalExpr(item.operands[0].expr, env)
		if err != nil {
			return nil, err, ""
		}
		offset := int(target) - (int(item.addr) + 3)
		if offset < -128 || offset > 127 {
			return nil, fmt.Errorf("Branch target out of range"), "use JMP"
		}
		return []byte{
			isa.OpcodeByte(isa.GroupBranch, isa.Immediate),
			isa.BranchConditionByte(cond),
			byte(int8(offset)),
		}, nil, ""

	case inst.Extended:
		sub, hasOperand, _ := isa.ExtendedSubOpcode(inst.Name)
		out := []byte{isa.OpcodeByte(isa.GroupExtended, isa.Register), sub}
		if hasOperand {
			if len(item.operands) != 1 {
				return nil, fmt.Errorf("invalid operand count for %s", inst.Name), ""
			}
			out = append(out, isa.RegisterByte(item.operands[0].reg, 0))
		}
		return out, nil, ""

	case inst.Group == isa.GroupSHL || inst.Group == isa.GroupSHR:
		if len(item.operands) == 0 {
			return nil, fmt.Errorf("invalid operand count for %s", inst.Name), ""
		}
		dest := item.operands[0].reg
		src := dest
		if len(item.operands) == 2 {
			src = item.operands[1].reg
		}
		return []byte{isa.OpcodeByte(inst.Group, isa.Register), isa.RegisterByte(dest, src)}, nil, ""

	default:
		return encodeMoveOrALU(item, env, diags, loc)
	}
}

func encodeMoveOrALU(item layoutItem, env exprEnv, diags *diagList, loc SourceLocation) ([]byte, error, string) {
	inst := item.inst
	mode := item.mode
	opByte := isa.OpcodeByte(inst.Group, mode)

	if len(item.operands) == 1 {
		src := item.operands[0]
		switch mode {
		case isa.Register, isa.RegisterPair:
			return []byte{opByte, isa.RegisterByte(0, src.reg)}, nil, ""

		case isa.Immediate:
			v, err := evalExpr(src.expr, env)
			if err != nil {
				return nil, err, ""
			}
			return []byte{opByte, 0x00, byte(v & 0xFF)}, nil, ""

		case isa.ZeroPage:
			v, err := evalExpr(src.expr, env)
			if err != nil {
				return nil, err, ""
			}
			if v > 0xFF {
				diags.addWarning(loc, "zero-page address %#x truncated to low byte", v)
			}
			return []byte{opByte, 0x00, byte(v & 0xFF)}, nil, ""

		case isa.ZeroPageIndexed:
			v, err := evalExpr(src.expr, env)
			if err != nil {
				return nil, err, ""
			}
			if v > 0xFF {
				diags.addWarning(loc, "zero-page address %#x truncated to low byte", v)
			}
			return []byte{opByte, isa.RegisterByte(0, src.indexReg), byte(v & 0xFF)}, nil, ""

		case isa.Absolute:
			v, err := evalExpr(src.expr, env)
			if err != nil {
				return nil, err, ""
			}
			return []byte{opByte, 0x00, byte(v & 0xFF), byte(v >> 8)}, nil, ""
		}
		return nil, fmt.Errorf("unsupported addressing mode"), ""
	}

	if len(item.operands) != 2 {
		return nil, fmt.Errorf("invalid operand count for %s", inst.Name), ""
	}
	dest := item.operands[0]
	src := item.operands[1]

	switch mode {
	case isa.Register, isa.RegisterPair:
		return []byte{opByte, isa.RegisterByte(dest.reg, src.reg)}, nil, ""

	case isa.Immediate:
		v, err := evalExpr(src.expr, env)
		if err != nil {
			return nil, err, ""
		}
		return []byte{opByte, isa.RegisterByte(dest.reg, 0), byte(v & 0xFF)}, nil, ""

	case isa.ZeroPage:
		v, err := evalExpr(src.expr, env)
		if err != nil {
			return nil, err, ""
		}
		if v > 0xFF {
			diags.addWarning(loc, "zero-page address %#x truncated to low byte", v)
		}
		return []byte{opByte, isa.RegisterByte(dest.reg, 0), byte(v & 0xFF)}, nil, ""

	case isa.ZeroPageIndexed:
		v, err := evalExpr(src.expr, env)
		if err != nil {
			return nil, err, ""
		}
		if v > 0xFF {
			diags.addWarning(loc, "zero-page address %#x truncated to low byte", v)
		}
		return []byte{opByte, isa.RegisterByte(dest.reg, src.indexReg), byte(v & 0xFF)}, nil, ""

	case isa.Absolute:
		v, err := evalExpr(src.expr, env)
		if err != nil {
			return nil, err, ""
		}
		return []byte{opByte, isa.RegisterByte(dest.reg, 0), byte(v & 0xFF), byte(v >> 8)}, nil, ""
	}

	return nil, fmt.Errorf("unsupported addressing mode"), ""
}
