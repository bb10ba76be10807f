// Package symtab holds the symbol table populated by the type checker and
// consumed by TAC generation and codegen: every identifier's type plus its
// linkage/storage attributes, and for statics, its initial value.
package symtab

import "github.com/adrianmoss/subcc/pkg/ast"

// Attrs is the closed set of symbol attribute kinds: functions, static
// (file-scope or block-scope-static) variables, and ordinary locals.
type Attrs interface {
	implAttrs()
}

// FunAttrs marks a function symbol.
type FunAttrs struct {
	Defined bool
	Global  bool
}

// InitKind distinguishes a static variable's initializer state.
type InitKind int

const (
	// NoInitializer marks an extern declaration with no initializer of
	// its own; it borrows whatever definition exists elsewhere.
	NoInitializer InitKind = iota
	// Tentative marks a file-scope declaration with no initializer,
	// eligible for zero-initialization unless a real initializer is
	// found elsewhere in the translation unit.
	Tentative
	// Initial marks a static with a known constant initial value.
	Initial
)

// StaticInit is the constant value backing an Initial-kind static,
// carrying its own width so the emitter can pick .long vs .quad.
type StaticInit struct {
	IsLong bool
	Value  int64
}

// StaticAttrs marks a static-storage-duration variable symbol.
type StaticAttrs struct {
	Init   InitKind
	Value  StaticInit // meaningful only when Init == Initial
	Global bool
}

// LocalAttrs marks an ordinary automatic local variable or parameter.
type LocalAttrs struct{}

func (FunAttrs) implAttrs()    {}
func (StaticAttrs) implAttrs() {}
func (LocalAttrs) implAttrs()  {}

// Entry is one symbol table row: an identifier's type plus its attributes.
type Entry struct {
	Type  ast.Type
	Attrs Attrs
}

// Table maps identifiers to symbol entries. Identifiers here are already
// the semantic pass's renamed, scope-unique names.
type Table struct {
	entries map[string]*Entry
	order   []string // insertion order, for deterministic iteration fallback
}

// New creates an empty Table.
func New() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

// Add inserts or overwrites the entry for name.
func (t *Table) Add(name string, e *Entry) {
	if _, exists := t.entries[name]; !exists {
		t.order = append(t.order, name)
	}
	t.entries[name] = e
}

// Get looks up name, reporting whether it was found.
func (t *Table) Get(name string) (*Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Names returns every symbol name in insertion order.
func (t *Table) Names() []string {
	return t.order
}

// IsStatic reports whether name has static storage duration.
func (t *Table) IsStatic(name string) bool {
	e, ok := t.entries[name]
	if !ok {
		return false
	}
	_, ok = e.Attrs.(StaticAttrs)
	return ok
}
