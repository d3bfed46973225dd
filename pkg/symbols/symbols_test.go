package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcarballo/aslc/pkg/types"
)

func TestFindInStackPrefersInnermostScope(t *testing.T) {
	tm := types.NewManager()
	tbl := NewTable()
	tbl.Global().Define("x", Variable, tm.Float())

	sc := tbl.NewScope()
	sc.Define("x", Parameter, tm.Integer())
	tbl.PushScope(tbl.ScopeID(sc))
	defer tbl.PopScope()

	e, ok := tbl.FindInStack("x")
	require.True(t, ok)
	assert.Equal(t, Parameter, e.Class)
	assert.True(t, e.Type.IsInteger())
}

func TestIsLocalVarClass(t *testing.T) {
	tm := types.NewManager()
	tbl := NewTable()
	sc := tbl.NewScope()
	sc.Define("a", Parameter, tm.ArrayOf(tm.Integer(), 3))
	sc.Define("b", Variable, tm.ArrayOf(tm.Integer(), 3))
	tbl.PushScope(tbl.ScopeID(sc))
	defer tbl.PopScope()

	assert.False(t, tbl.IsLocalVarClass("a"))
	assert.True(t, tbl.IsLocalVarClass("b"))
	assert.False(t, tbl.IsLocalVarClass("undeclared"))
}

func TestNoMainProperlyDeclared(t *testing.T) {
	tm := types.NewManager()
	tbl := NewTable()
	assert.True(t, tbl.NoMainProperlyDeclared(tm.Void()))

	tbl.Global().Define("main", Function, tm.FunctionOf(nil, tm.Void()))
	assert.False(t, tbl.NoMainProperlyDeclared(tm.Void()))
}

func TestNoMainRejectsWrongSignature(t *testing.T) {
	tm := types.NewManager()
	tbl := NewTable()
	tbl.Global().Define("main", Function, tm.FunctionOf([]*types.Type{tm.Integer()}, tm.Void()))
	assert.True(t, tbl.NoMainProperlyDeclared(tm.Void()))
}

func TestPopScopePanicsOnGlobal(t *testing.T) {
	tbl := NewTable()
	assert.Panics(t, func() { tbl.PopScope() })
}

func TestCurrentFunctionType(t *testing.T) {
	tm := types.NewManager()
	tbl := NewTable()
	tbl.SetCurrentFunctionType(tm.Boolean())
	assert.True(t, tbl.GetCurrentFunctionType().IsBoolean())
}
