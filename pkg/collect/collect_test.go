package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcarballo/aslc/pkg/ast"
	"github.com/dcarballo/aslc/pkg/symbols"
	"github.com/dcarballo/aslc/pkg/types"
)

func TestResolveBasicAndArrayTypes(t *testing.T) {
	tm := types.NewManager()
	assert.Same(t, tm.Integer(), Resolve(tm, ast.TypeSyntax{Basic: "int"}))
	assert.Same(t, tm.Float(), Resolve(tm, ast.TypeSyntax{Basic: "float"}))

	arrTy := Resolve(tm, ast.TypeSyntax{Array: true, Elem: "char", Len: 5})
	assert.True(t, arrTy.IsArray())
	assert.Equal(t, 5, arrTy.ArrayLength())
}

func TestResolveUnknownBasicYieldsError(t *testing.T) {
	tm := types.NewManager()
	ty := Resolve(tm, ast.TypeSyntax{Basic: "nope"})
	assert.True(t, ty.IsError())
}

func TestCollectRegistersGlobalFunctionsAndScopes(t *testing.T) {
	prog := &ast.Program{Functions: []*ast.Function{
		{
			Name:   "f",
			Params: []ast.Param{{Name: "a", Type: ast.TypeSyntax{Basic: "int"}}},
			Result: &ast.TypeSyntax{Basic: "float"},
		},
		{
			Name: "main",
			Decls: []ast.VarDecl{
				{Names: []string{"x", "y"}, Type: ast.TypeSyntax{Basic: "int"}},
			},
		},
	}}

	tm := types.NewManager()
	tbl := symbols.NewTable()
	Collect(prog, tm, tbl)

	entry, ok := tbl.FindInStack("f")
	require.True(t, ok)
	assert.Equal(t, symbols.Function, entry.Class)
	assert.True(t, entry.Type.IsFunction())

	mainFn := prog.Functions[1]
	tbl.PushScope(mainFn.ScopeID)
	defer tbl.PopScope()

	xEntry, ok := tbl.FindInStack("x")
	require.True(t, ok)
	assert.Equal(t, symbols.Variable, xEntry.Class)
	assert.True(t, xEntry.Type.IsInteger())

	yEntry, ok := tbl.FindInStack("y")
	require.True(t, ok)
	assert.Equal(t, symbols.Variable, yEntry.Class)
}

func TestCollectParametersAreParameterClass(t *testing.T) {
	prog := &ast.Program{Functions: []*ast.Function{
		{
			Name:   "f",
			Params: []ast.Param{{Name: "a", Type: ast.TypeSyntax{Basic: "int"}}},
		},
	}}
	tm := types.NewManager()
	tbl := symbols.NewTable()
	Collect(prog, tm, tbl)

	fn := prog.Functions[0]
	tbl.PushScope(fn.ScopeID)
	defer tbl.PopScope()

	aEntry, ok := tbl.FindInStack("a")
	require.True(t, ok)
	assert.Equal(t, symbols.Parameter, aEntry.Class)
}

func TestCollectVoidFunctionHasVoidResult(t *testing.T) {
	prog := &ast.Program{Functions: []*ast.Function{{Name: "main"}}}
	tm := types.NewManager()
	tbl := symbols.NewTable()
	Collect(prog, tm, tbl)

	entry, ok := tbl.FindInStack("main")
	require.True(t, ok)
	assert.Same(t, tm.Void(), entry.Type.FuncResult())
}
