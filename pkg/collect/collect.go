// Package collect implements the symbol-collection pre-pass: it resolves
// every declared type syntax against the type manager and populates the
// symbol table with one scope per function plus the global function
// table, before the semantic analyzer ever runs. The core consumes this
// pass's output but does not implement it itself (see system design §6).
package collect

import (
	"github.com/dcarballo/aslc/pkg/ast"
	"github.com/dcarballo/aslc/pkg/symbols"
	"github.com/dcarballo/aslc/pkg/types"
)

// Resolve turns a parsed type syntax into an interned type. Arrays may
// only hold scalar elements, matching the Array.elem-is-Primitive
// invariant of the type lattice.
func Resolve(tm *types.Manager, ts ast.TypeSyntax) *types.Type {
	if ts.Array {
		return tm.ArrayOf(resolveBasic(tm, ts.Elem), ts.Len)
	}
	return resolveBasic(tm, ts.Basic)
}

func resolveBasic(tm *types.Manager, name string) *types.Type {
	switch name {
	case "int":
		return tm.Integer()
	case "float":
		return tm.Float()
	case "bool":
		return tm.Boolean()
	case "char":
		return tm.Character()
	default:
		return tm.Error()
	}
}

// Collect populates tbl with the global function table and one scope per
// function, and assigns each ast.Function its scope id via SetScopeID.
func Collect(prog *ast.Program, tm *types.Manager, tbl *symbols.Table) {
	// First pass: register every function's signature in the global scope
	// so forward references and mutual recursion resolve correctly.
	for _, fn := range prog.Functions {
		tbl.Global().Define(fn.Name, symbols.Function, signatureType(tm, fn))
	}

	// Second pass: build each function's own scope with its parameters and
	// locals, and attach the scope id to the node.
	for _, fn := range prog.Functions {
		scope := tbl.NewScope()
		for _, param := range fn.Params {
			scope.Define(param.Name, symbols.Parameter, Resolve(tm, param.Type))
		}
		for _, decl := range fn.Decls {
			t := Resolve(tm, decl.Type)
			for _, name := range decl.Names {
				scope.Define(name, symbols.Variable, t)
			}
		}
		fn.SetScopeID(tbl.ScopeID(scope))
	}
}

func signatureType(tm *types.Manager, fn *ast.Function) *types.Type {
	params := make([]*types.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = Resolve(tm, p.Type)
	}
	result := tm.Void()
	if fn.Result != nil {
		result = Resolve(tm, *fn.Result)
	}
	return tm.FunctionOf(params, result)
}
