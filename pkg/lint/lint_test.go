package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcarballo/aslc/pkg/ast"
	"github.com/dcarballo/aslc/pkg/config"
	"github.com/dcarballo/aslc/pkg/types"
)

func decoratedIdent(name string, t *types.Type, lvalue bool) *ast.Ident {
	id := &ast.Ident{Name: name, Pos: ast.Pos{Line: 1, Column: 1}}
	id.SetType(t)
	id.SetIsLValue(lvalue)
	return id
}

func TestReadOfFunctionTypeIsFlaggedWhenEnabled(t *testing.T) {
	tm := types.NewManager()
	fnTy := tm.FunctionOf(nil, tm.Void())
	target := decoratedIdent("g", fnTy, false)

	fn := &ast.Function{
		Name: "main",
		Body: []ast.Stmt{&ast.ReadStmt{Target: target, Pos: target.Pos}},
	}
	prog := &ast.Program{Functions: []*ast.Function{fn}}

	cfg := config.NewConfig()
	findings := Run(prog, cfg)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "function type")
}

func TestReadOfFunctionTypeSuppressedWhenWarningDisabled(t *testing.T) {
	tm := types.NewManager()
	fnTy := tm.FunctionOf(nil, tm.Void())
	target := decoratedIdent("g", fnTy, false)

	fn := &ast.Function{
		Name: "main",
		Body: []ast.Stmt{&ast.ReadStmt{Target: target, Pos: target.Pos}},
	}
	prog := &ast.Program{Functions: []*ast.Function{fn}}

	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnReadFunctionType, false)
	findings := Run(prog, cfg)
	assert.Empty(t, findings)
}

func TestUnusedLocalIsFlaggedWhenEnabled(t *testing.T) {
	tm := types.NewManager()
	fn := &ast.Function{
		Name:  "main",
		Decls: []ast.VarDecl{{Names: []string{"x", "y"}, Type: ast.TypeSyntax{Basic: "int"}}},
		Body: []ast.Stmt{
			&ast.AssignStmt{
				Left:  decoratedIdent("x", tm.Integer(), true),
				Right: decoratedIdent("x", tm.Integer(), true),
			},
		},
	}
	prog := &ast.Program{Functions: []*ast.Function{fn}}

	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnUnusedLocal, true)
	findings := Run(prog, cfg)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, `"y"`)
}

func TestUnusedLocalDisabledByDefault(t *testing.T) {
	fn := &ast.Function{
		Name:  "main",
		Decls: []ast.VarDecl{{Names: []string{"x"}, Type: ast.TypeSyntax{Basic: "int"}}},
	}
	prog := &ast.Program{Functions: []*ast.Function{fn}}

	cfg := config.NewConfig()
	assert.Empty(t, Run(prog, cfg))
}

func TestUnusedLocalWalksIntoNestedBlocks(t *testing.T) {
	tm := types.NewManager()
	fn := &ast.Function{
		Name:  "main",
		Decls: []ast.VarDecl{{Names: []string{"x"}, Type: ast.TypeSyntax{Basic: "int"}}},
		Body: []ast.Stmt{
			&ast.IfStmt{
				Cond: decoratedIdent("b", tm.Boolean(), true),
				Then: []ast.Stmt{
					&ast.AssignStmt{
						Left:  decoratedIdent("x", tm.Integer(), true),
						Right: decoratedIdent("x", tm.Integer(), true),
					},
				},
			},
		},
	}
	prog := &ast.Program{Functions: []*ast.Function{fn}}

	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnUnusedLocal, true)
	assert.Empty(t, Run(prog, cfg))
}
