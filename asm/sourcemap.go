package asm

import "sort"

// SourceLine relates one emitted instruction's address back to the
// source file and line that produced it. Unlike a debugger-oriented
// source map, this never round-trips through a binary VLQ encoding —
// the artifact this assembler returns lives only within a single
// process call, so there is nothing to persist.
type SourceLine struct {
	Address uint16
	File    string
	Line    int
}

// SourceMap is the ordered list of SourceLine entries, one per emitted
// instruction (never per directive byte).
type SourceMap struct {
	lines []SourceLine
}

func (m *SourceMap) add(addr uint16, file string, line int) {
	m.lines = append(m.lines, SourceLine{Address: addr, File: file, Line: line})
}

// Lines returns the accumulated entries in emission order.
func (m *SourceMap) Lines() []SourceLine {
	return m.lines
}

// Find returns the SourceLine whose address is the greatest one not
// exceeding addr, via binary search over the sorted entries.
func (m *SourceMap) Find(addr uint16) (SourceLine, bool) {
	i := sort.Search(len(m.lines), func(i int) bool {
		return m.lines[i].Address > addr
	})
	if i == 0 {
		return SourceLine{}, false
	}
	return m.lines[i-1], true
}
