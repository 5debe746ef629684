package asm

// Symbol is one named 16-bit value: a label assigned from the
// location counter during pass 1, or a constant from .define/.equ.
type Symbol struct {
	Name     string
	Value    uint16
	Location SourceLocation
	Constant bool
}

// symbolTable is the mutable-during-pass-1, read-only-during-pass-2
// name→value mapping. The "first wins" duplicate rule is enforced at
// insertion time by define, which never overwrites an existing entry.
type symbolTable struct {
	symbols map[string]*Symbol
}

func newSymbolTable() *symbolTable {
	return &symbolTable{symbols: make(map[string]*Symbol)}
}

// define inserts name→value if name is not already defined. It
// reports ok=false (and leaves the table untouched) on a duplicate,
// so the caller can raise "Duplicate label".
func (t *symbolTable) define(name string, value uint16, loc SourceLocation, constant bool) (ok bool) {
	if _, exists := t.symbols[name]; exists {
		return false
	}
	t.symbols[name] = &Symbol{Name: name, Value: value, Location: loc, Constant: constant}
	return true
}

func (t *symbolTable) lookup(name string) (uint16, bool) {
	s, ok := t.symbols[name]
	if !ok {
		return 0, false
	}
	return s.Value, true
}

func (t *symbolTable) has(name string) bool {
	_, ok := t.symbols[name]
	return ok
}

// exportMap returns a plain name→value snapshot for the assembled
// artifact's Symbols field.
func (t *symbolTable) exportMap() map[string]uint16 {
	out := make(map[string]uint16, len(t.symbols))
	for name, s := range t.symbols {
		out[name] = s.Value
	}
	return out
}
