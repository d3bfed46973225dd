// Package symbols implements the lexical scope stack that the semantic
// analyzer and code generator consult by name. Scopes themselves are
// precomputed by the symbol-collection pass (see pkg/collect); this package
// only activates and deactivates them as the tree walk enters and leaves
// function bodies.
package symbols

import "github.com/dcarballo/aslc/pkg/types"

// Class distinguishes how a name entered its scope, which in turn governs
// whether an array name denotes storage directly or an address (see
// IsLocalVarClass).
type Class int

const (
	Variable Class = iota
	Parameter
	Function
)

// Entry is one name binding within a Scope.
type Entry struct {
	Name  string
	Class Class
	Type  *types.Type
}

// Scope is an ordered name->Entry mapping. Insertion order is preserved
// because some callers (subroutine lowering) need declaration order.
type Scope struct {
	ID      int
	order   []string
	entries map[string]*Entry
	parent  *Scope
}

func newScope(id int, parent *Scope) *Scope {
	return &Scope{ID: id, entries: make(map[string]*Entry), parent: parent}
}

// Define adds a binding to the scope. It is only ever called by the
// symbol-collection pass, never by the analyzer or generator.
func (s *Scope) Define(name string, class Class, t *types.Type) {
	if _, exists := s.entries[name]; !exists {
		s.order = append(s.order, name)
	}
	s.entries[name] = &Entry{Name: name, Class: class, Type: t}
}

// Names returns the scope's bindings in declaration order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Scope) lookup(name string) (*Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// Table is the stack of active scopes plus the registry of all scopes
// produced by symbol collection, keyed by the stable id assigned there.
type Table struct {
	global   *Scope
	byID     map[int]*Scope
	stack    []*Scope
	curFnTy  *types.Type
	nextID   int
}

// NewTable creates an empty table with an active global scope (id 0),
// ready for the symbol-collection pass to populate.
func NewTable() *Table {
	t := &Table{byID: make(map[int]*Scope)}
	t.global = t.NewScope()
	t.stack = []*Scope{t.global}
	return t
}

// NewScope allocates a fresh, empty, unattached scope and returns it.
// The symbol-collection pass calls this once per function and stores the
// scope's id (see ScopeID) on the corresponding ast.Function node.
func (t *Table) NewScope() *Scope {
	id := t.nextID
	t.nextID++
	sc := newScope(id, t.global)
	t.byID[id] = sc
	return sc
}

// ScopeID exposes the id of a Scope value returned by NewScope, for storing
// on the owning AST node.
func (t *Table) ScopeID(s *Scope) int { return s.ID }

// Global returns the program-level scope, which only ever holds Function
// entries.
func (t *Table) Global() *Scope { return t.global }

// PushScope activates a previously-collected scope by id. It never creates
// entries; it only makes an already-populated scope the innermost one.
func (t *Table) PushScope(id int) {
	sc, ok := t.byID[id]
	if !ok {
		panic("symbols: PushScope of unknown scope id")
	}
	t.stack = append(t.stack, sc)
}

// PopScope discards the innermost scope. It is the caller's responsibility
// to call this on every exit path, including early failure.
func (t *Table) PopScope() {
	if len(t.stack) <= 1 {
		panic("symbols: PopScope of the global scope")
	}
	t.stack = t.stack[:len(t.stack)-1]
}

func (t *Table) top() *Scope { return t.stack[len(t.stack)-1] }

// FindInStack returns the entry bound to name in the innermost scope that
// binds it, searching the active scope then the global scope (ASL has at
// most two live scopes at once: the current function's and the global
// function table).
func (t *Table) FindInStack(name string) (*Entry, bool) {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if e, ok := t.stack[i].lookup(name); ok {
			return e, true
		}
	}
	return nil, false
}

// IsFunctionClass reports whether name resolves to a Function entry.
func (t *Table) IsFunctionClass(name string) bool {
	e, ok := t.FindInStack(name)
	return ok && e.Class == Function
}

// IsLocalVarClass reports whether name's innermost binding is a Variable
// entry (as opposed to Parameter or Function). This governs whether an
// array name directly denotes storage (local variable) or holds an address
// (parameter), which the code generator must materialize before indexing.
func (t *Table) IsLocalVarClass(name string) bool {
	e, ok := t.FindInStack(name)
	return ok && e.Class == Variable
}

// GetType returns the type bound to name, or nil if name is undeclared.
func (t *Table) GetType(name string) *types.Type {
	e, ok := t.FindInStack(name)
	if !ok {
		return nil
	}
	return e.Type
}

// SetCurrentFunctionType records the result type of the function whose body
// is currently being walked.
func (t *Table) SetCurrentFunctionType(ty *types.Type) { t.curFnTy = ty }

// GetCurrentFunctionType returns the result type recorded by
// SetCurrentFunctionType.
func (t *Table) GetCurrentFunctionType() *types.Type { return t.curFnTy }

// NoMainProperlyDeclared reports whether the global scope lacks a Function
// entry named "main" with no parameters and a Void result.
func (t *Table) NoMainProperlyDeclared(voidTy *types.Type) bool {
	e, ok := t.global.lookup("main")
	if !ok || e.Class != Function {
		return true
	}
	if !e.Type.IsFunction() {
		return true
	}
	return len(e.Type.FuncParams()) != 0 || e.Type.FuncResult() != voidTy
}
