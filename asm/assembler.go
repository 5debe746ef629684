// Package asm implements the two-pass assembler: it turns assembly
// source text, potentially spanning multiple files linked by
// `.include`, into memory segments, a symbol table, a source map, and
// a list of diagnostics.
package asm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-vasm8/vasm8/isa"
)

// Artifact bundles everything a single assemble call produces. It is
// returned even when Diagnostics contains errors — best-effort
// emission, never a bare Go error, is the contract of this package's
// two entry points.
type Artifact struct {
	Segments    []Segment
	Symbols     map[string]uint16
	SourceMap   *SourceMap
	Diagnostics []Diagnostic
}

// Succeeded reports whether no error-severity diagnostic was emitted.
func (a *Artifact) Succeeded() bool {
	return !HasErrors(a.Diagnostics)
}

// Options configures an assemble call. Verbose enables a short
// per-stage trace (include resolution, pass 1, pass 2; one summary
// line each) written to Trace (or os.Stdout when nil) via a fmt.Printf-gated
// bool rather than a structured logging library — no third-party
// logger is warranted for tracing a single compiler pass. Origin seeds
// the location counter pass 1 starts from; a leading `.org` directive
// still repositions it from there exactly as it would from zero.
type Options struct {
	Verbose bool
	Trace   io.Writer
	Origin  uint16
}

// Assemble is the single-file entry point: a default path name is used
// for all source-map and diagnostic annotations.
func Assemble(text string, opts Options) *Artifact {
	return AssembleMulti(map[string]string{defaultSourceName: text}, defaultSourceName, opts)
}

// AssembleMulti is the multi-file entry point: sources maps path to
// file text, entry names the file to start from, and the include
// resolver expands `.include` directives before assembly.
func AssembleMulti(sources map[string]string, entry string, opts Options) *Artifact {
	trace := opts.Trace
	if trace == nil {
		trace = os.Stdout
	}
	logf := func(format string, args ...any) {
		if opts.Verbose {
			fmt.Fprintf(trace, format+"\n", args...)
		}
	}

	flat, diags := resolveIncludes(sources, entry)
	if HasErrors(diags) && flat == nil {
		return &Artifact{Symbols: map[string]uint16{}, SourceMap: &SourceMap{}, Diagnostics: diags}
	}
	logf("resolved %d lines across includes", len(flat))

	items, syms, pending, pass1Diags := runPass1(flat, opts.Origin)
	diags = append(diags, pass1Diags...)
	logf("pass 1 complete: %d items, %d pending defines", len(items), len(pending))

	defineDiags := resolvePendingDefines(pending, syms)
	diags = append(diags, defineDiags...)

	segs, srcmap, pass2Diags := runPass2(items, syms)
	diags = append(diags, pass2Diags...)
	logf("pass 2 complete: %d segments, %d source-map entries", len(segs), len(srcmap.Lines()))

	return &Artifact{
		Segments:    segs,
		Symbols:     syms.exportMap(),
		SourceMap:   srcmap,
		Diagnostics: diags,
	}
}

// pendingDefine is a .define/.equ whose value expression couldn't be
// evaluated immediately during pass 1 (it named a symbol not yet
// defined, e.g. a forward label). These are retried to a fixed point
// once pass 1 has finished assigning every label address.
type pendingDefine struct {
	name  string
	expr  string
	scope string
	loc   SourceLocation
	addr  uint16
}

func resolvePendingDefines(pending []pendingDefine, syms *symbolTable) []Diagnostic {
	var diags diagList
	remaining := pending
	for len(remaining) > 0 {
		var stillPending []pendingDefine
		progressed := false
		for _, pd := range remaining {
			v, err := evalExpr(pd.expr, makeEnv(pd.addr, pd.scope, syms))
			if err != nil {
				stillPending = append(stillPending, pd)
				continue
			}
			if !syms.define(pd.name, v, pd.loc, true) {
				diags.addError(pd.loc, "Duplicate label: %s", pd.name)
			}
			progressed = true
		}
		if !progressed {
			for _, pd := range stillPending {
				diags.addError(pd.loc, "Undefined symbol in .define %s", pd.name)
			}
			break
		}
		remaining = stillPending
	}
	return diags.diags
}

// layoutItem is pass 1's per-line output: the address and size it
// assigned, plus everything pass 2 needs to encode bytes without
// re-parsing or re-classifying anything.
type layoutItem struct {
	line  FlatLine
	scope string
	addr  uint16
	size  int

	isInstruction bool
	mnemonic      string
	inst          *isa.Instruction
	mode          isa.Mode
	operands      []addressingModeInfo

	dir Directive
}

func (it layoutItem) loc() SourceLocation {
	return SourceLocation{File: it.line.File, Line: it.line.Line}
}

// computeScopes returns, for every flat line, the local-label parent
// scope in effect at that line: the most recent non-local label,
// updated as of the line that introduces it (so a parent label and a
// local reference to it may appear on the same line).
func computeScopes(flat []FlatLine) []string {
	scopes := make([]string, len(flat))
	scope := ""
	for i, fl := range flat {
		lbl := fl.Parsed.Label
		if lbl != "" && !strings.HasPrefix(lbl, ".") {
			scope = lbl
		}
		scopes[i] = scope
	}
	return scopes
}

func expandLocalLabel(label, scope string) (string, error) {
	if !strings.HasPrefix(label, ".") {
		return label, nil
	}
	if scope == "" {
		return "", fmt.Errorf("Local label has no parent label")
	}
	return scope + label, nil
}

func makeEnv(here uint16, scope string, syms *symbolTable) exprEnv {
	return exprEnv{
		here: here,
		lookup: func(name string) (uint16, bool) {
			if strings.HasPrefix(name, ".") && scope != "" {
				if v, ok := syms.lookup(scope + name); ok {
					return v, true
				}
			}
			return syms.lookup(name)
		},
	}
}

// runPass1 walks the flat line sequence maintaining a location
// counter (seeded from origin), assigns label addresses, classifies
// instruction addressing modes lexically, and sizes every construct
// without requiring the (not yet complete) symbol table.
func runPass1(flat []FlatLine, origin uint16) ([]layoutItem, *symbolTable, []pendingDefine, []Diagnostic) {
	var diags diagList
	syms := newSymbolTable()
	scopes := computeScopes(flat)
	items := make([]layoutItem, 0, len(flat))
	var pending []pendingDefine
	pc := int(origin)

	for i, fl := range flat {
		loc := SourceLocation{File: fl.File, Line: fl.Line}
		scope := scopes[i]
		p := fl.Parsed
		addr := uint16(pc)

		item := layoutItem{line: fl, scope: scope, addr: addr}

		if p.Label != "" {
			fullName, err := expandLocalLabel(p.Label, scope)
			if err != nil {
				diags.addError(loc, "%s", err.Error())
			} else if !syms.define(fullName, addr, loc, false) {
				diags.addError(loc, "Duplicate label: %s", fullName)
			}
		}

		switch p.Kind {
		case LineEmpty:
			item.size = 0

		case LineDirective:
			item.dir = p.Directive
			if p.Directive.Kind == DirOrg {
				v, err := evalExpr(p.Directive.OrgExpr, makeEnv(uint16(pc), scope, syms))
				if err != nil {
					diags.addError(loc, "%s", err.Error())
				} else {
					pc = int(v)
					addr = v
					item.addr = addr
				}
				item.size = 0
				items = append(items, item)
				continue
			}
			size, pend := pass1Directive(p.Directive, pc, loc, scope, syms, &diags)
			item.size = size
			if pend != nil {
				pending = append(pending, *pend)
			}

		case LineInstruction:
			item.isInstruction = true
			item.mnemonic = p.Mnemonic
			inst := isa.Lookup(p.Mnemonic)
			item.inst = inst
			if inst == nil {
				diags.addError(loc, "Unknown opcode")
				items = append(items, item)
				pc += item.size
				continue
			}
			n := len(p.Operands)
			if n < inst.MinOperands || n > inst.MaxOperands {
				diags.addError(loc, "Invalid operand count for %s: expected %d, got %d", p.Mnemonic, inst.MinOperands, n)
			}
			item.operands = make([]addressingModeInfo, 0, n)
			for _, opText := range p.Operands {
				op, err := parseOperand(opText)
				if err != nil {
					diags.addError(loc, "%s", err.Error())
					continue
				}
				info, err := op.classify()
				if err != nil {
					diags.addError(loc, "%s", err.Error())
					continue
				}
				item.operands = append(item.operands, info)
			}
			item.mode, item.size = classifyInstructionSize(inst, item.operands, &diags, loc)
		}

		pc += item.size
		items = append(items, item)
	}
	return items, syms, pending, diags.diags
}

// pass1Directive sizes one directive and, for .define/.equ, attempts
// immediate evaluation (queuing a pendingDefine on failure). DirOrg is
// intercepted earlier in runPass1, since it repositions the location
// counter rather than sizing a payload at the current one.
func pass1Directive(d Directive, pc int, loc SourceLocation, scope string, syms *symbolTable, diags *diagList) (int, *pendingDefine) {
	switch d.Kind {
	case DirByte:
		return len(d.Exprs), nil
	case DirWord:
		return 2 * len(d.Exprs), nil
	case DirString:
		decoded, err := unescapeString(d.StringText)
		if err != nil {
			diags.addError(loc, "%s", err.Error())
			return 0, nil
		}
		return len(decoded) + 1, nil
	case DirDefine:
		v, err := evalExpr(d.DefineExpr, makeEnv(uint16(pc), scope, syms))
		if err != nil {
			return 0, &pendingDefine{name: d.DefineName, expr: d.DefineExpr, scope: scope, loc: loc, addr: uint16(pc)}
		}
		if !syms.define(d.DefineName, v, loc, true) {
			diags.addError(loc, "Duplicate label: %s", d.DefineName)
		}
		return 0, nil
	case DirRes:
		v, err := evalExpr(d.CountExpr, makeEnv(uint16(pc), scope, syms))
		if err != nil {
			diags.addError(loc, "%s", err.Error())
			return 0, nil
		}
		return int(v), nil
	case DirAlign:
		v, err := evalExpr(d.AlignExpr, makeEnv(uint16(pc), scope, syms))
		if err != nil || v == 0 {
			if err != nil {
				diags.addError(loc, "%s", err.Error())
			}
			return 0, nil
		}
		align := int(v)
		rem := pc % align
		if rem == 0 {
			return 0, nil
		}
		return align - rem, nil
	case DirInclude:
		return 0, nil
	default:
		diags.addError(loc, "Unknown directive: .%s", strings.ToLower(d.Name))
		return 0, nil
	}
}

// classifyInstructionSize determines the addressing mode that governs
// an instruction's encoding and the byte count it occupies. Mode
// classification here is purely lexical (operand shapes already
// resolved by parseOperand/classify), so it never needs the symbol
// table — the two-pass fixed point is broken exactly this way.
func classifyInstructionSize(inst *isa.Instruction, ops []addressingModeInfo, diags *diagList, loc SourceLocation) (isa.Mode, int) {
	switch {
	case inst.Name == "NOP":
		return isa.Immediate, 2
	case inst.Branch:
		return isa.Immediate, 3
	case inst.Extended:
		hasOperand := len(ops) > 0
		return isa.Register, inst.Size(isa.Register, hasOperand)
	case inst.Group == isa.GroupSHL || inst.Group == isa.GroupSHR:
		return isa.Register, 2
	default:
		driving := ops
		if len(ops) == 2 {
			driving = ops[1:]
		}
		if len(driving) == 0 {
			return isa.Absolute, inst.Size(isa.Absolute, false)
		}
		mode := driving[0].mode
		if !inst.Modes[mode] {
			diags.addError(loc, "addressing mode %s not legal for %s", mode, inst.Name)
		}
		return mode, inst.Size(mode, false)
	}
}
