package asm

import "strings"

// LineKind tags the variant held by a ParsedLine.
type LineKind int

const (
	LineEmpty LineKind = iota
	LineInstruction
	LineDirective
)

// DirectiveKind enumerates the directive set, already resolved from
// its alias ("byte"/"db" both become DirByte) at parse time so later
// stages switch on a small closed enum instead of a raw name.
type DirectiveKind int

const (
	DirUnknown DirectiveKind = iota
	DirOrg
	DirByte
	DirWord
	DirString
	DirDefine
	DirRes
	DirAlign
	DirInclude
)

var directiveNames = map[string]DirectiveKind{
	"ORG":    DirOrg,
	"BYTE":   DirByte,
	"DB":     DirByte,
	"WORD":   DirWord,
	"DW":     DirWord,
	"STRING": DirString,
	"ASCIIZ": DirString,
	"DEFINE": DirDefine,
	"EQU":    DirDefine,
	"RES":    DirRes,
	"DSB":    DirRes,
	"ALIGN":  DirAlign,
	"INCLUDE": DirInclude,
}

// Directive carries the already-split payload of a directive line:
// each directive's argument is split into its typed fields at parse
// time; the pieces that are still expression text (Exprs, CountExpr,
// ...) are evaluated later, once a symbol table exists, but are never
// re-split or re-tokenized into comma lists again.
type Directive struct {
	Kind DirectiveKind
	Name string // upper-cased directive token, for diagnostics on DirUnknown

	OrgExpr    string   // DirOrg
	Exprs      []string // DirByte, DirWord
	StringText string   // DirString: raw quoted literal, escapes unresolved
	DefineName string   // DirDefine
	DefineExpr string   // DirDefine
	CountExpr  string   // DirRes
	AlignExpr  string   // DirAlign
	IncludePath string  // DirInclude: raw quoted path, unresolved
}

// ParsedLine is the structured record produced by parseLine: an
// optional label plus exactly one of an instruction or a directive.
type ParsedLine struct {
	Kind     LineKind
	Label    string
	Mnemonic string
	Operands []string
	Directive Directive
}

// parseLine performs comment stripping, label extraction, and
// classification into instruction/directive/empty.
func parseLine(text string) ParsedLine {
	text = stripComment(text)
	text = strings.TrimSpace(text)

	label := ""
	if idx := findTopLevelColon(text); idx >= 0 {
		label = strings.TrimSpace(text[:idx])
		text = strings.TrimSpace(text[idx+1:])
	}

	if text == "" {
		return ParsedLine{Kind: LineEmpty, Label: label}
	}

	if strings.HasPrefix(text, ".") {
		name, arg := splitFirstToken(text[1:])
		upper := strings.ToUpper(name)
		return ParsedLine{Kind: LineDirective, Label: label, Directive: parseDirectiveArg(upper, arg)}
	}

	mnemonic, rest := splitFirstToken(text)
	var operands []string
	if strings.TrimSpace(rest) != "" {
		operands = splitTopLevelCommas(rest)
	}
	return ParsedLine{
		Kind:     LineInstruction,
		Label:    label,
		Mnemonic: strings.ToUpper(mnemonic),
		Operands: operands,
	}
}

func parseDirectiveArg(upperName, arg string) Directive {
	arg = strings.TrimSpace(arg)
	kind, ok := directiveNames[upperName]
	if !ok {
		return Directive{Kind: DirUnknown, Name: upperName}
	}
	switch kind {
	case DirOrg:
		return Directive{Kind: kind, OrgExpr: arg}
	case DirByte, DirWord:
		var exprs []string
		if arg != "" {
			exprs = splitTopLevelCommas(arg)
		}
		return Directive{Kind: kind, Exprs: exprs}
	case DirString:
		return Directive{Kind: kind, StringText: arg}
	case DirDefine:
		name, rest := splitFirstToken(arg)
		return Directive{Kind: kind, DefineName: name, DefineExpr: strings.TrimSpace(rest)}
	case DirRes:
		return Directive{Kind: kind, CountExpr: arg}
	case DirAlign:
		return Directive{Kind: kind, AlignExpr: arg}
	case DirInclude:
		return Directive{Kind: kind, IncludePath: arg}
	}
	return Directive{Kind: DirUnknown, Name: upperName}
}

// stripComment removes a trailing ';' comment, ignoring ';' that
// appears inside a single- or double-quoted string or character
// literal (so `.string "a;b"` keeps its semicolon).
func stripComment(s string) string {
	inQuote := false
	var quoteCh byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			if c == '\\' && i+1 < len(s) {
				i++
				continue
			}
			if c == quoteCh {
				inQuote = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inQuote = true
			quoteCh = c
		case ';':
			return s[:i]
		}
	}
	return s
}

// findTopLevelColon returns the index of the first ':' not nested
// inside '[' ... ']', or -1 if none exists. Parens do not suppress the
// colon search, only brackets do.
func findTopLevelColon(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevelCommas splits s on commas that are not nested inside
// '(' ... ')' or '[' ... ']'.
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}

// splitFirstToken splits s into its first whitespace-delimited token
// and the (untrimmed) remainder.
func splitFirstToken(s string) (token, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}
