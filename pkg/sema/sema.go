// Package sema implements the semantic analyzer (component F): a single
// post-order walk per function that decorates every expression node with
// a type and an l-value flag while accumulating diagnostics into a sink.
// It never halts on an error; on detection it assigns the Error type to
// the offending node and continues, so a later rule that consumes an
// Error-typed operand absorbs it silently instead of cascading.
package sema

import (
	"github.com/dcarballo/aslc/pkg/ast"
	"github.com/dcarballo/aslc/pkg/diag"
	"github.com/dcarballo/aslc/pkg/symbols"
	"github.com/dcarballo/aslc/pkg/token"
	"github.com/dcarballo/aslc/pkg/types"
)

// Analyzer walks a decorated-in-place parse tree, consulting tm for type
// predicates/constructors and syms for name resolution, and reports rule
// violations into sink.
type Analyzer struct {
	tm   *types.Manager
	syms *symbols.Table
	sink *diag.Sink
}

// NewAnalyzer builds an Analyzer over an already symbol-collected table.
func NewAnalyzer(tm *types.Manager, syms *symbols.Table, sink *diag.Sink) *Analyzer {
	return &Analyzer{tm: tm, syms: syms, sink: sink}
}

// Analyze walks every function in prog, then checks for a properly
// declared main once all functions have been visited.
func (a *Analyzer) Analyze(prog *ast.Program) {
	for _, fn := range prog.Functions {
		a.visitFunction(fn)
	}
	if a.syms.NoMainProperlyDeclared(a.tm.Void()) {
		a.sink.Add(token.Token{}, diag.NoMainProperlyDeclared, "program does not properly declare a parameterless, void-returning 'main'")
	}
}

func posTok(p ast.Pos) token.Token {
	return token.Token{FileIndex: p.FileIndex, Line: p.Line, Column: p.Column, Len: p.Len}
}

func anyError(ts ...*types.Type) bool {
	for _, t := range ts {
		if t.IsError() {
			return true
		}
	}
	return false
}

func (a *Analyzer) visitFunction(fn *ast.Function) {
	entry, ok := a.syms.FindInStack(fn.Name)
	resultT := a.tm.Void()
	if ok {
		resultT = entry.Type.FuncResult()
	}
	a.syms.SetCurrentFunctionType(resultT)
	a.syms.PushScope(fn.ScopeID)
	for _, st := range fn.Body {
		a.visitStmt(st)
	}
	a.syms.PopScope()
}

// --- Statements ---

func (a *Analyzer) visitStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.AssignStmt:
		a.visitAssign(n)
	case *ast.IfStmt:
		a.visitIf(n)
	case *ast.WhileStmt:
		a.visitWhile(n)
	case *ast.CallStmt:
		a.checkCall(n.Name, n.Args, posTok(n.Pos), false)
	case *ast.ReadStmt:
		a.visitRead(n)
	case *ast.WriteStmt:
		a.visitWrite(n)
	case *ast.ReturnStmt:
		a.visitReturn(n)
	}
}

func (a *Analyzer) visitAssign(s *ast.AssignStmt) {
	a.visitExpr(s.Left)
	a.visitExpr(s.Right)
	lt, rt := s.Left.Decoration().Type(), s.Right.Decoration().Type()

	if !lt.IsError() && !rt.IsError() && !types.CopyableTypes(lt, rt) {
		a.sink.Add(posTok(s.Pos), diag.IncompatibleAssignment, "cannot assign %s to %s", rt, lt)
	}
	if !lt.IsError() && !s.Left.Decoration().IsLValue() {
		a.sink.Add(posTok(s.Pos), diag.NonReferenceableLeftExpr, "left side of assignment is not referenceable")
	}
}

func (a *Analyzer) visitIf(s *ast.IfStmt) {
	a.visitExpr(s.Cond)
	ct := s.Cond.Decoration().Type()
	if !ct.IsError() && !ct.IsBoolean() {
		a.sink.Add(posTok(s.Cond.Position()), diag.BooleanRequired, "'if' condition must be boolean")
	}
	for _, st := range s.Then {
		a.visitStmt(st)
	}
	for _, st := range s.Else {
		a.visitStmt(st)
	}
}

func (a *Analyzer) visitWhile(s *ast.WhileStmt) {
	a.visitExpr(s.Cond)
	ct := s.Cond.Decoration().Type()
	if !ct.IsError() && !ct.IsBoolean() {
		a.sink.Add(posTok(s.Cond.Position()), diag.BooleanRequired, "'while' condition must be boolean")
	}
	for _, st := range s.Body {
		a.visitStmt(st)
	}
}

func (a *Analyzer) visitRead(s *ast.ReadStmt) {
	a.visitExpr(s.Target)
	t := s.Target.Decoration().Type()
	if !t.IsError() && !t.IsPrimitive() && !t.IsFunction() {
		a.sink.Add(posTok(s.Target.Position()), diag.ReadWriteRequiresBasic, "read target must have a basic type")
	}
	if !t.IsError() && !s.Target.Decoration().IsLValue() {
		a.sink.Add(posTok(s.Target.Position()), diag.NonReferenceableLeftExpr, "read target is not referenceable")
	}
}

func (a *Analyzer) visitWrite(s *ast.WriteStmt) {
	if s.IsString {
		return
	}
	a.visitExpr(s.Expr)
	t := s.Expr.Decoration().Type()
	if !t.IsError() && !t.IsPrimitive() {
		a.sink.Add(posTok(s.Expr.Position()), diag.ReadWriteRequiresBasic, "write argument must have a basic type")
	}
}

func (a *Analyzer) visitReturn(s *ast.ReturnStmt) {
	f := a.syms.GetCurrentFunctionType()
	if s.Expr == nil {
		if !f.IsVoid() {
			a.sink.Add(posTok(s.Pos), diag.IncompatibleReturn, "missing return value for non-void function")
		}
		return
	}
	a.visitExpr(s.Expr)
	et := s.Expr.Decoration().Type()
	if f.IsVoid() {
		a.sink.Add(posTok(s.Expr.Position()), diag.IncompatibleReturn, "void function must not return a value")
		return
	}
	if et.IsError() {
		return
	}
	ok := et.IsPrimitive() && (types.EqualTypes(et, f) || (f.IsFloat() && et.IsInteger()))
	if !ok {
		a.sink.Add(posTok(s.Expr.Position()), diag.IncompatibleReturn, "returned %s is not compatible with result type %s", et, f)
	}
}

// --- Call checking, shared by procedure-call statements and
// function-call expressions. ---

func (a *Analyzer) checkCall(name string, args []ast.Expr, callTok token.Token, requireNonVoid bool) *types.Type {
	for _, arg := range args {
		a.visitExpr(arg)
	}

	entry, ok := a.syms.FindInStack(name)
	if !ok {
		a.sink.Add(callTok, diag.UndeclaredIdent, "undeclared identifier %q", name)
		return a.tm.Error()
	}
	if entry.Class != symbols.Function || !entry.Type.IsFunction() {
		a.sink.Add(callTok, diag.IsNotCallable, "%q is not callable", name)
		return a.tm.Error()
	}

	fnType := entry.Type
	if requireNonVoid && fnType.FuncResult().IsVoid() {
		a.sink.Add(callTok, diag.IsNotFunction, "%q does not return a value", name)
		return a.tm.Error()
	}

	params := fnType.FuncParams()
	if len(params) != len(args) {
		a.sink.Add(callTok, diag.NumberOfParameters, "call to %q passes %d argument(s), expected %d", name, len(args), len(params))
		return fnType.FuncResult()
	}
	for i, arg := range args {
		at := arg.Decoration().Type()
		pt := params[i]
		if !at.IsError() && !types.EqualTypes(at, pt) && !(pt.IsFloat() && at.IsInteger()) {
			a.sink.Add(posTok(arg.Position()), diag.IncompatibleParameter, "argument %d to %q has incompatible type", i+1, name)
		}
	}
	return fnType.FuncResult()
}

// --- Expressions ---

func (a *Analyzer) visitExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Literal:
		a.visitLiteral(n)
	case *ast.Ident:
		a.visitIdent(n)
	case *ast.Index:
		a.visitIndex(n)
	case *ast.Call:
		a.visitCall(n)
	case *ast.Paren:
		a.visitParen(n)
	case *ast.Unary:
		a.visitUnary(n)
	case *ast.Binary:
		a.visitBinary(n)
	}
}

func (a *Analyzer) visitLiteral(lit *ast.Literal) {
	switch lit.Kind {
	case ast.LitInt:
		lit.SetType(a.tm.Integer())
	case ast.LitFloat:
		lit.SetType(a.tm.Float())
	case ast.LitBool:
		lit.SetType(a.tm.Boolean())
	case ast.LitChar:
		lit.SetType(a.tm.Character())
	}
	lit.SetIsLValue(false)
}

// visitIdent implements both the left_expr `id` rule and the expression
// Identifier rule: they are the same rule. An undeclared identifier is
// still marked an l-value so the cascading left-expr check above does not
// pile a second diagnostic on top of the undeclared-ident one.
func (a *Analyzer) visitIdent(id *ast.Ident) {
	entry, ok := a.syms.FindInStack(id.Name)
	if !ok {
		a.sink.Add(posTok(id.Pos), diag.UndeclaredIdent, "undeclared identifier %q", id.Name)
		id.SetType(a.tm.Error())
		id.SetIsLValue(true)
		return
	}
	id.SetType(entry.Type)
	id.SetIsLValue(entry.Class != symbols.Function)
}

// visitIndex implements both the left_expr `id[E]` rule and the expression
// array-indexing rule.
func (a *Analyzer) visitIndex(ix *ast.Index) {
	a.visitIdent(ix.Base)
	a.visitExpr(ix.Index)

	baseT := ix.Base.Type()
	idxT := ix.Index.Decoration().Type()

	lvalue := true
	if !idxT.IsError() && !idxT.IsInteger() {
		a.sink.Add(posTok(ix.Index.Position()), diag.NonIntegerIndexInArrayAccess, "array index must be an integer")
		lvalue = false
	}

	if baseT.IsError() {
		ix.SetType(a.tm.Error())
		ix.SetIsLValue(false)
		return
	}
	if !baseT.IsArray() {
		a.sink.Add(posTok(ix.Base.Pos), diag.NonArrayInArrayAccess, "%q is not an array", ix.Base.Name)
		ix.SetType(a.tm.Error())
		ix.SetIsLValue(false)
		return
	}
	ix.SetType(baseT.ArrayElem())
	ix.SetIsLValue(lvalue)
}

func (a *Analyzer) visitCall(c *ast.Call) {
	t := a.checkCall(c.Name, c.Args, posTok(c.Pos), true)
	c.SetType(t)
	c.SetIsLValue(false)
}

func (a *Analyzer) visitParen(p *ast.Paren) {
	a.visitExpr(p.Inner)
	p.SetType(p.Inner.Decoration().Type())
	p.SetIsLValue(false)
}

func (a *Analyzer) visitUnary(u *ast.Unary) {
	a.visitExpr(u.Operand)
	ot := u.Operand.Decoration().Type()
	u.SetIsLValue(false)

	switch u.Op {
	case ast.OpNot:
		if ot.IsError() {
			u.SetType(a.tm.Error())
		} else if !ot.IsBoolean() {
			a.sink.Add(posTok(u.Pos), diag.IncompatibleOperator, "operand of 'not' must be boolean")
			u.SetType(a.tm.Boolean())
		} else {
			u.SetType(a.tm.Boolean())
		}
	case ast.OpNeg, ast.OpPos:
		if ot.IsError() {
			u.SetType(a.tm.Error())
		} else if !ot.IsNumeric() {
			a.sink.Add(posTok(u.Pos), diag.IncompatibleOperator, "unary operand must be numeric")
			u.SetType(ot)
		} else {
			u.SetType(ot)
		}
	}
}

func (a *Analyzer) visitBinary(b *ast.Binary) {
	a.visitExpr(b.Left)
	a.visitExpr(b.Right)
	lt, rt := b.Left.Decoration().Type(), b.Right.Decoration().Type()
	b.SetIsLValue(false)

	switch b.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		b.SetType(a.arithmeticResult(b.Pos, lt, rt))
	case ast.OpMod:
		if anyError(lt, rt) {
			b.SetType(a.tm.Error())
		} else if !lt.IsInteger() || !rt.IsInteger() {
			a.sink.Add(posTok(b.Pos), diag.IncompatibleOperator, "'%%' requires integer operands")
			b.SetType(a.tm.Integer())
		} else {
			b.SetType(a.tm.Integer())
		}
	case ast.OpEq, ast.OpNeq:
		b.SetType(a.relationalResult(b.Pos, lt, rt, types.RelEquality))
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		b.SetType(a.relationalResult(b.Pos, lt, rt, types.RelOrdering))
	case ast.OpAnd, ast.OpOr:
		if anyError(lt, rt) {
			b.SetType(a.tm.Error())
		} else if !lt.IsBoolean() || !rt.IsBoolean() {
			a.sink.Add(posTok(b.Pos), diag.IncompatibleOperator, "logical operator requires boolean operands")
			b.SetType(a.tm.Boolean())
		} else {
			b.SetType(a.tm.Boolean())
		}
	}
}

func (a *Analyzer) arithmeticResult(pos ast.Pos, lt, rt *types.Type) *types.Type {
	if anyError(lt, rt) {
		return a.tm.Error()
	}
	if !lt.IsNumeric() || !rt.IsNumeric() {
		a.sink.Add(posTok(pos), diag.IncompatibleOperator, "arithmetic operator requires numeric operands")
		return a.tm.Integer()
	}
	if lt.IsFloat() || rt.IsFloat() {
		return a.tm.Float()
	}
	return a.tm.Integer()
}

func (a *Analyzer) relationalResult(pos ast.Pos, lt, rt *types.Type, op types.RelOp) *types.Type {
	if anyError(lt, rt) {
		return a.tm.Error()
	}
	if !types.ComparableTypes(lt, rt, op) {
		a.sink.Add(posTok(pos), diag.IncompatibleOperator, "operands are not comparable")
		return a.tm.Boolean()
	}
	return a.tm.Boolean()
}
