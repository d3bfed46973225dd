// Package types implements the ASL type lattice: an interned set of type
// descriptors plus the predicates and compatibility rules the semantic
// analyzer and code generator are built on.
package types

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Kind is the discriminant of the type variant.
type Kind uint8

const (
	KError Kind = iota
	KVoid
	KInteger
	KFloat
	KBoolean
	KCharacter
	KArray
	KFunction
)

// Type is an interned type descriptor. Two Types describe the same type
// iff they are the same pointer.
type Type struct {
	id     int
	kind   Kind
	elem   *Type   // KArray
	length int     // KArray
	params []*Type // KFunction
	result *Type   // KFunction
}

func (t *Type) Kind() Kind { return t.kind }

func (t *Type) String() string {
	switch t.kind {
	case KError:
		return "error"
	case KVoid:
		return "void"
	case KInteger:
		return "int"
	case KFloat:
		return "float"
	case KBoolean:
		return "bool"
	case KCharacter:
		return "char"
	case KArray:
		return fmt.Sprintf("array[%d] of %s", t.length, t.elem)
	case KFunction:
		return fmt.Sprintf("function(%v) -> %s", t.params, t.result)
	default:
		return "?"
	}
}

// Manager interns type descriptors. A Manager must be used for every type
// produced during a compilation so that identifier equality coincides with
// structural equality.
type Manager struct {
	nextID int
	pool   map[uint64][]*Type

	errorT, voidT, intT, floatT, boolT, charT *Type
}

// NewManager builds a Manager with the six primitive/void/error singletons
// already interned.
func NewManager() *Manager {
	m := &Manager{pool: make(map[uint64][]*Type)}
	m.errorT = m.intern(&Type{kind: KError})
	m.voidT = m.intern(&Type{kind: KVoid})
	m.intT = m.intern(&Type{kind: KInteger})
	m.floatT = m.intern(&Type{kind: KFloat})
	m.boolT = m.intern(&Type{kind: KBoolean})
	m.charT = m.intern(&Type{kind: KCharacter})
	return m
}

func (m *Manager) Error() *Type     { return m.errorT }
func (m *Manager) Void() *Type      { return m.voidT }
func (m *Manager) Integer() *Type   { return m.intT }
func (m *Manager) Float() *Type     { return m.floatT }
func (m *Manager) Boolean() *Type   { return m.boolT }
func (m *Manager) Character() *Type { return m.charT }

// ArrayOf interns Array{elem, length}. elem must be a primitive type.
func (m *Manager) ArrayOf(elem *Type, length int) *Type {
	return m.intern(&Type{kind: KArray, elem: elem, length: length})
}

// FunctionOf interns Function{params, result}.
func (m *Manager) FunctionOf(params []*Type, result *Type) *Type {
	cp := make([]*Type, len(params))
	copy(cp, params)
	return m.intern(&Type{kind: KFunction, params: cp, result: result})
}

// hashKey produces a structural hash used to bucket the intern pool.
// Child types are assumed already interned, so their intern-assigned ids
// are enough to make the hash structural without recursing into them.
func hashKey(t *Type) uint64 {
	h := xxhash.New()
	var buf [8]byte
	h.Write([]byte{byte(t.kind)})
	switch t.kind {
	case KArray:
		binary.LittleEndian.PutUint64(buf[:], uint64(t.elem.id))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(t.length))
		h.Write(buf[:])
	case KFunction:
		binary.LittleEndian.PutUint64(buf[:], uint64(len(t.params)))
		h.Write(buf[:])
		for _, p := range t.params {
			binary.LittleEndian.PutUint64(buf[:], uint64(p.id))
			h.Write(buf[:])
		}
		binary.LittleEndian.PutUint64(buf[:], uint64(t.result.id))
		h.Write(buf[:])
	}
	return h.Sum64()
}

func sameShape(a, b *Type) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KArray:
		return a.elem == b.elem && a.length == b.length
	case KFunction:
		if len(a.params) != len(b.params) || a.result != b.result {
			return false
		}
		for i := range a.params {
			if a.params[i] != b.params[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (m *Manager) intern(t *Type) *Type {
	key := hashKey(t)
	for _, existing := range m.pool[key] {
		if sameShape(existing, t) {
			return existing
		}
	}
	m.nextID++
	t.id = m.nextID
	m.pool[key] = append(m.pool[key], t)
	return t
}

// EqualTypes is identifier equality: true iff a and b are the same interned
// type.
func EqualTypes(a, b *Type) bool { return a == b }

func (t *Type) IsError() bool     { return t.kind == KError }
func (t *Type) IsVoid() bool      { return t.kind == KVoid }
func (t *Type) IsInteger() bool   { return t.kind == KInteger }
func (t *Type) IsFloat() bool     { return t.kind == KFloat }
func (t *Type) IsBoolean() bool   { return t.kind == KBoolean }
func (t *Type) IsCharacter() bool { return t.kind == KCharacter }
func (t *Type) IsArray() bool     { return t.kind == KArray }
func (t *Type) IsFunction() bool  { return t.kind == KFunction }

func (t *Type) IsPrimitive() bool {
	switch t.kind {
	case KInteger, KFloat, KBoolean, KCharacter:
		return true
	default:
		return false
	}
}

// IsPrimitiveNonVoid is an alias kept for parity with the spec's
// vocabulary; Primitive never includes Void in this lattice.
func (t *Type) IsPrimitiveNonVoid() bool { return t.IsPrimitive() }

func (t *Type) IsNumeric() bool { return t.kind == KInteger || t.kind == KFloat }

// ArrayLength panics if t is not an Array; callers must check IsArray first.
func (t *Type) ArrayLength() int {
	if t.kind != KArray {
		panic("ArrayLength: not an array type")
	}
	return t.length
}

func (t *Type) ArrayElem() *Type {
	if t.kind != KArray {
		panic("ArrayElem: not an array type")
	}
	return t.elem
}

func (t *Type) FuncParams() []*Type {
	if t.kind != KFunction {
		panic("FuncParams: not a function type")
	}
	return t.params
}

func (t *Type) FuncResult() *Type {
	if t.kind != KFunction {
		panic("FuncResult: not a function type")
	}
	return t.result
}

// SizeOf gives the storage size in cells: Primitive=1, Array=length,
// Function=1 (functions are never materialized as storage but a slot is
// reserved for symmetry with other name classes), Void=0, Error=0.
func (t *Type) SizeOf() int {
	switch t.kind {
	case KArray:
		return t.length
	case KError, KVoid:
		return 0
	default:
		return 1
	}
}

// CopyableTypes reports whether a value of type src may be copied into a
// storage location of type dst: equal types, Integer widened to Float, or
// arrays of equal length and equal element type.
func CopyableTypes(dst, src *Type) bool {
	if EqualTypes(dst, src) {
		return true
	}
	if dst.kind == KFloat && src.kind == KInteger {
		return true
	}
	if dst.kind == KArray && src.kind == KArray {
		return dst.length == src.length && EqualTypes(dst.elem, src.elem)
	}
	return false
}

// RelOp distinguishes the two comparability rules.
type RelOp int

const (
	RelEquality RelOp = iota // == !=
	RelOrdering               // < <= > >=
)

// ComparableTypes reports whether a and b may be compared with op.
func ComparableTypes(a, b *Type, op RelOp) bool {
	if op == RelOrdering {
		return a.IsNumeric() && b.IsNumeric()
	}
	if !a.IsPrimitive() || !b.IsPrimitive() {
		return false
	}
	if EqualTypes(a, b) {
		return true
	}
	return (a.kind == KInteger && b.kind == KFloat) || (a.kind == KFloat && b.kind == KInteger)
}
