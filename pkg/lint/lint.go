// Package lint runs the handful of optional, non-blocking checks that sit
// outside the mandatory semantic rules: things the analyzer deliberately
// stays permissive about (see the open design note on reading a
// Function-typed left-expression) but that are still worth flagging.
package lint

import (
	"fmt"

	"github.com/dcarballo/aslc/pkg/ast"
	"github.com/dcarballo/aslc/pkg/config"
)

// Finding is one lint hit, already formatted for display; lint runs after
// the analyzer so it has no need for the full diagnostic sink machinery.
type Finding struct {
	Line, Column int
	Message      string
}

// Run applies every enabled warning in cfg to prog and returns the
// findings function by function, in source order of the functions; within
// one function, read-target findings come before unused-local findings.
func Run(prog *ast.Program, cfg *config.Config) []Finding {
	var out []Finding
	for _, fn := range prog.Functions {
		if cfg.IsWarningEnabled(config.WarnReadFunctionType) {
			out = append(out, findReadOfFunction(fn)...)
		}
		if cfg.IsWarningEnabled(config.WarnUnusedLocal) {
			out = append(out, findUnusedLocals(fn)...)
		}
	}
	return out
}

func findReadOfFunction(fn *ast.Function) []Finding {
	var out []Finding
	walkStmts(fn.Body, func(s ast.Stmt) {
		r, ok := s.(*ast.ReadStmt)
		if !ok {
			return
		}
		if r.Target.Decoration().Type().IsFunction() {
			p := r.Target.Position()
			out = append(out, Finding{p.Line, p.Column, "read target has function type"})
		}
	})
	return out
}

func findUnusedLocals(fn *ast.Function) []Finding {
	used := make(map[string]bool)
	walkStmts(fn.Body, func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.AssignStmt:
			markTarget(n.Left, used)
		case *ast.ReadStmt:
			markTarget(n.Target, used)
		}
	})

	var out []Finding
	for _, decl := range fn.Decls {
		for _, name := range decl.Names {
			if !used[name] {
				out = append(out, Finding{decl.Pos.Line, decl.Pos.Column,
					fmt.Sprintf("local %q in %q is never assigned or read into", name, fn.Name)})
			}
		}
	}
	return out
}

func markTarget(e ast.Expr, used map[string]bool) {
	switch n := e.(type) {
	case *ast.Ident:
		used[n.Name] = true
	case *ast.Index:
		used[n.Base.Name] = true
	}
}

// walkStmts visits every statement in body and its nested blocks, but does
// not descend into expressions: every lint here only needs statement-level
// shape.
func walkStmts(body []ast.Stmt, visit func(ast.Stmt)) {
	for _, s := range body {
		visit(s)
		switch n := s.(type) {
		case *ast.IfStmt:
			walkStmts(n.Then, visit)
			walkStmts(n.Else, visit)
		case *ast.WhileStmt:
			walkStmts(n.Body, visit)
		}
	}
}
