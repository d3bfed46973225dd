// Package codegen implements the code generator (component G): the tree
// walk that lowers a decorated parse tree into t-code subroutines. It never
// runs on a tree that still has pending diagnostics; the driver gates entry
// to this package on an empty sink (see pkg/diag).
package codegen

import (
	"strconv"

	"github.com/dcarballo/aslc/pkg/ast"
	"github.com/dcarballo/aslc/pkg/symbols"
	"github.com/dcarballo/aslc/pkg/tcode"
	"github.com/dcarballo/aslc/pkg/types"
)

// triple is the generator's internal result shape for one expression:
// addr holds (or points at) the value, offs is the index operand when addr
// denotes an array base (empty otherwise), and code computes it.
type triple struct {
	Addr string
	Offs string
	Code tcode.List
}

// Generator walks one already-analyzed program and produces its t-code.
type Generator struct {
	tm  *types.Manager
	tbl *symbols.Table
	cnt *tcode.Counters
}

// NewGenerator builds a Generator sharing the type manager and symbol table
// the semantic analyzer already populated.
func NewGenerator(tm *types.Manager, tbl *symbols.Table) *Generator {
	return &Generator{tm: tm, tbl: tbl}
}

// Generate lowers every function in prog into a subroutine, in source
// order.
func (g *Generator) Generate(prog *ast.Program) *tcode.Program {
	p := &tcode.Program{}
	for _, fn := range prog.Functions {
		p.Subroutines = append(p.Subroutines, g.genFunction(fn))
	}
	return p
}

func (g *Generator) genFunction(fn *ast.Function) *tcode.Subroutine {
	g.cnt = tcode.NewCounters()
	resultT := g.tm.Void()
	if entry, ok := g.tbl.FindInStack(fn.Name); ok {
		resultT = entry.Type.FuncResult()
	}
	g.tbl.SetCurrentFunctionType(resultT)
	g.tbl.PushScope(fn.ScopeID)
	defer g.tbl.PopScope()

	sub := &tcode.Subroutine{Name: fn.Name}
	if fn.Result != nil {
		sub.Params = append(sub.Params, "_result")
	}
	for _, p := range fn.Params {
		sub.Params = append(sub.Params, p.Name)
	}
	for _, decl := range fn.Decls {
		for _, name := range decl.Names {
			t := g.tbl.GetType(name)
			sub.Locals = append(sub.Locals, tcode.Local{Name: name, Size: t.SizeOf()})
		}
	}

	var code tcode.List
	for _, stmt := range fn.Body {
		code = tcode.Cat(code, g.genStmt(stmt))
	}
	code = append(code, tcode.I(tcode.RETURN))
	sub.Code = code
	return sub
}

func (g *Generator) genStmt(s ast.Stmt) tcode.List {
	switch n := s.(type) {
	case *ast.AssignStmt:
		return g.genAssign(n)
	case *ast.IfStmt:
		return g.genIf(n)
	case *ast.WhileStmt:
		return g.genWhile(n)
	case *ast.CallStmt:
		code, _ := g.genCall(n.Name, n.Args)
		return code
	case *ast.ReadStmt:
		return g.genRead(n)
	case *ast.WriteStmt:
		return g.genWrite(n)
	case *ast.ReturnStmt:
		return g.genReturn(n)
	default:
		panic("codegen: unhandled statement node")
	}
}

// genAssign dispatches on the static type of the left-expression: a whole
// array copy gets the canonical loop, an array-element target gets XLOAD,
// everything else a plain LOAD. The right-hand side always goes through
// genExpr, which already collapses any array-element read on that side to
// a scalar temporary (see genIndexExpr), so the "scalar := array element"
// and "array element := array element" cases from the design fall out of
// these two without separate handling.
func (g *Generator) genAssign(s *ast.AssignStmt) tcode.List {
	lt := s.Left.Decoration().Type()
	if lt.IsArray() {
		return g.genWholeArrayCopy(unwrapParen(s.Left), unwrapParen(s.Right))
	}

	l := g.genLeftExpr(s.Left)
	e := g.genExpr(s.Right)
	if l.Offs != "" {
		return tcode.Cat(l.Code, e.Code, tcode.One(tcode.I(tcode.XLOAD, l.Addr, l.Offs, e.Addr)))
	}
	return tcode.Cat(l.Code, e.Code, tcode.One(tcode.I(tcode.LOAD, l.Addr, e.Addr)))
}

// unwrapParen strips any number of parenthesization layers around an
// array-typed expression, which can only ever bottom out at an identifier
// (array types never appear on a call, literal, or binary/unary result).
// visitParen forwards the Array type unchanged, so `(w)` denotes the same
// array as `w`.
func unwrapParen(e ast.Expr) *ast.Ident {
	for {
		if p, ok := e.(*ast.Paren); ok {
			e = p.Inner
			continue
		}
		return e.(*ast.Ident)
	}
}

// genWholeArrayCopy emits the canonical index loop. Stride is kept as the
// literal 1, matching the source lowering exactly (see the stride design
// note); offset = stride*index is always equivalent to offset = index for
// the scalar-only element types this language has today.
func (g *Generator) genWholeArrayCopy(dst, src *ast.Ident) tcode.List {
	srcEntry, _ := g.tbl.FindInStack(src.Name)
	length := srcEntry.Type.ArrayLength()

	k := g.cnt.NewLabelWHILE()
	loop, end := tcode.LabelWhile(k), tcode.LabelEndWhile(k)

	var code tcode.List
	dstBase, srcBase := dst.Name, src.Name
	if !g.tbl.IsLocalVarClass(dst.Name) {
		tD := g.cnt.NewTemp()
		code = append(code, tcode.I(tcode.LOAD, tD, dst.Name))
		dstBase = tD
	}
	if !g.tbl.IsLocalVarClass(src.Name) {
		tS := g.cnt.NewTemp()
		code = append(code, tcode.I(tcode.LOAD, tS, src.Name))
		srcBase = tS
	}

	idx := g.cnt.NewTemp()
	code = append(code, tcode.I(tcode.ILOAD, idx, "0"))
	code = append(code, tcode.I(tcode.LABEL, loop))

	cond := g.cnt.NewTemp()
	code = append(code, tcode.I(tcode.LT, cond, idx, strconv.Itoa(length)))
	code = append(code, tcode.I(tcode.FJUMP, cond, end))

	off := g.cnt.NewTemp()
	code = append(code, tcode.I(tcode.MUL, off, "1", idx))
	val := g.cnt.NewTemp()
	code = append(code, tcode.I(tcode.LOADX, val, srcBase, off))
	code = append(code, tcode.I(tcode.XLOAD, dstBase, off, val))
	code = append(code, tcode.I(tcode.ADD, idx, idx, "1"))
	code = append(code, tcode.I(tcode.UJUMP, loop))
	code = append(code, tcode.I(tcode.LABEL, end))
	return code
}

func (g *Generator) genIf(s *ast.IfStmt) tcode.List {
	cond := g.genExpr(s.Cond)
	k := g.cnt.NewLabelIF()
	end := tcode.LabelEndIf(k)

	if len(s.Else) == 0 {
		code := tcode.Cat(cond.Code, tcode.One(tcode.I(tcode.FJUMP, cond.Addr, end)))
		for _, st := range s.Then {
			code = tcode.Cat(code, g.genStmt(st))
		}
		return tcode.Cat(code, tcode.One(tcode.I(tcode.LABEL, end)))
	}

	elseL := tcode.LabelElse(k)
	code := tcode.Cat(cond.Code, tcode.One(tcode.I(tcode.FJUMP, cond.Addr, elseL)))
	for _, st := range s.Then {
		code = tcode.Cat(code, g.genStmt(st))
	}
	code = tcode.Cat(code, tcode.One(tcode.I(tcode.UJUMP, end)), tcode.One(tcode.I(tcode.LABEL, elseL)))
	for _, st := range s.Else {
		code = tcode.Cat(code, g.genStmt(st))
	}
	return tcode.Cat(code, tcode.One(tcode.I(tcode.LABEL, end)))
}

func (g *Generator) genWhile(s *ast.WhileStmt) tcode.List {
	k := g.cnt.NewLabelWHILE()
	start, end := tcode.LabelWhile(k), tcode.LabelEndWhile(k)

	cond := g.genExpr(s.Cond)
	code := tcode.One(tcode.I(tcode.LABEL, start))
	code = tcode.Cat(code, cond.Code, tcode.One(tcode.I(tcode.FJUMP, cond.Addr, end)))
	for _, st := range s.Body {
		code = tcode.Cat(code, g.genStmt(st))
	}
	return tcode.Cat(code, tcode.One(tcode.I(tcode.UJUMP, start)), tcode.One(tcode.I(tcode.LABEL, end)))
}

// genCall lowers both the procedure-call statement and the function-call
// expression: they share every instruction except what the caller does
// with the final temporary. The trailing POP is emitted unconditionally,
// including for Void callees, which can leave PUSH/POP unbalanced on that
// path; this is carried over deliberately, not fixed (see the open design
// note on the extra POP).
func (g *Generator) genCall(name string, args []ast.Expr) (tcode.List, string) {
	entry, _ := g.tbl.FindInStack(name)
	paramTypes := entry.Type.FuncParams()
	nonVoid := !entry.Type.FuncResult().IsVoid()

	var code tcode.List
	if nonVoid {
		code = append(code, tcode.I(tcode.PUSH))
	}
	for i, arg := range args {
		a := g.genExpr(arg)
		code = append(code, a.Code...)
		argType := arg.Decoration().Type()
		switch {
		case i < len(paramTypes) && paramTypes[i].IsFloat() && argType.IsInteger():
			tF := g.cnt.NewTemp()
			code = append(code, tcode.I(tcode.FLOAT, tF, a.Addr))
			code = append(code, tcode.I(tcode.PUSH, tF))
		case argType.IsArray():
			tA := g.cnt.NewTemp()
			code = append(code, tcode.I(tcode.ALOAD, tA, a.Addr))
			code = append(code, tcode.I(tcode.PUSH, tA))
		default:
			code = append(code, tcode.I(tcode.PUSH, a.Addr))
		}
	}
	code = append(code, tcode.I(tcode.CALL, name))
	for range args {
		code = append(code, tcode.I(tcode.POP))
	}
	t := g.cnt.NewTemp()
	code = append(code, tcode.I(tcode.POP, t))
	return code, t
}

func (g *Generator) genRead(s *ast.ReadStmt) tcode.List {
	l := g.genLeftExpr(s.Target)
	op := readOpFor(s.Target.Decoration().Type())

	if l.Offs != "" {
		t := g.cnt.NewTemp()
		code := append(l.Code, tcode.I(op, t))
		return append(code, tcode.I(tcode.XLOAD, l.Addr, l.Offs, t))
	}
	return append(l.Code, tcode.I(op, l.Addr))
}

func readOpFor(t *types.Type) tcode.Op {
	switch {
	case t.IsFloat():
		return tcode.READF
	case t.IsCharacter():
		return tcode.READC
	default:
		return tcode.READI
	}
}

func writeOpFor(t *types.Type) tcode.Op {
	switch {
	case t.IsFloat():
		return tcode.WRITEF
	case t.IsCharacter():
		return tcode.WRITEC
	default:
		return tcode.WRITEI
	}
}

func (g *Generator) genWrite(s *ast.WriteStmt) tcode.List {
	if s.IsString {
		return g.genWriteString(s.String)
	}
	e := g.genExpr(s.Expr)
	op := writeOpFor(s.Expr.Decoration().Type())
	return append(e.Code, tcode.I(op, e.Addr))
}

// genWriteString scans the raw literal text (quotes already stripped by
// the lexer, escapes left untouched) one character at a time, emitting a
// WRITELN for \n and a CHLOAD/WRITEC pair for every other character,
// including the two-character escapes \t, \", \\, whose CHLOAD operand
// keeps both characters. A backslash before any other character writes
// just that character.
func (g *Generator) genWriteString(s string) tcode.List {
	runes := []rune(s)
	var code tcode.List
	emit := func(text string) {
		t := g.cnt.NewTemp()
		code = append(code, tcode.I(tcode.CHLOAD, t, text))
		code = append(code, tcode.I(tcode.WRITEC, t))
	}
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch == '\\' && i+1 < len(runes) {
			next := runes[i+1]
			switch next {
			case 'n':
				code = append(code, tcode.I(tcode.WRITELN))
			case 't', '"', '\\':
				emit(string(runes[i : i+2]))
			default:
				emit(string(next))
			}
			i++
			continue
		}
		emit(string(ch))
	}
	return code
}

func (g *Generator) genReturn(s *ast.ReturnStmt) tcode.List {
	if s.Expr == nil {
		return nil
	}
	e := g.genExpr(s.Expr)
	exprType := s.Expr.Decoration().Type()
	resultType := g.tbl.GetCurrentFunctionType()
	if exprType.IsInteger() && resultType.IsFloat() {
		tF := g.cnt.NewTemp()
		code := append(e.Code, tcode.I(tcode.FLOAT, tF, e.Addr))
		return append(code, tcode.I(tcode.LOAD, "_result", tF))
	}
	return append(e.Code, tcode.I(tcode.LOAD, "_result", e.Addr))
}

// genLeftExpr lowers an identifier or array-indexing node used as an
// assignment or read target. A bare identifier always carries an empty
// offset; an indexed form materializes the base pointer first when the
// base is not local-variable-class (it then holds an address, not storage).
func (g *Generator) genLeftExpr(e ast.Expr) triple {
	switch n := e.(type) {
	case *ast.Ident:
		return triple{Addr: n.Name}
	case *ast.Index:
		idx := g.genExpr(n.Index)
		base := n.Base.Name
		if g.tbl.IsLocalVarClass(base) {
			return triple{Addr: base, Offs: idx.Addr, Code: idx.Code}
		}
		tA := g.cnt.NewTemp()
		code := append(idx.Code, tcode.I(tcode.LOAD, tA, base))
		return triple{Addr: tA, Offs: idx.Addr, Code: code}
	default:
		panic("codegen: unhandled left-expression node")
	}
}

// genExpr lowers any expression to a (addr, offs, code) triple. Unlike
// genLeftExpr, the offset is always empty here: array-element reads are
// already dereferenced into a scalar temporary by genIndexExpr.
func (g *Generator) genExpr(e ast.Expr) triple {
	switch n := e.(type) {
	case *ast.Literal:
		return g.genLiteral(n)
	case *ast.Ident:
		return triple{Addr: n.Name}
	case *ast.Index:
		return g.genIndexExpr(n)
	case *ast.Call:
		code, t := g.genCall(n.Name, n.Args)
		return triple{Addr: t, Code: code}
	case *ast.Paren:
		return g.genExpr(n.Inner)
	case *ast.Unary:
		return g.genUnary(n)
	case *ast.Binary:
		return g.genBinary(n)
	default:
		panic("codegen: unhandled expression node")
	}
}

func (g *Generator) genLiteral(n *ast.Literal) triple {
	t := g.cnt.NewTemp()
	switch n.Kind {
	case ast.LitInt:
		return triple{Addr: t, Code: tcode.One(tcode.I(tcode.ILOAD, t, n.Text))}
	case ast.LitFloat:
		return triple{Addr: t, Code: tcode.One(tcode.I(tcode.FLOAD, t, n.Text))}
	case ast.LitBool:
		v := "0"
		if n.Text == "true" {
			v = "1"
		}
		return triple{Addr: t, Code: tcode.One(tcode.I(tcode.LOAD, t, v))}
	case ast.LitChar:
		return triple{Addr: t, Code: tcode.One(tcode.I(tcode.CHLOAD, t, n.Text))}
	default:
		panic("codegen: unhandled literal kind")
	}
}

func (g *Generator) genIndexExpr(n *ast.Index) triple {
	idx := g.genExpr(n.Index)
	base := n.Base.Name
	t := g.cnt.NewTemp()
	if g.tbl.IsLocalVarClass(base) {
		code := append(idx.Code, tcode.I(tcode.LOADX, t, base, idx.Addr))
		return triple{Addr: t, Code: code}
	}
	tA := g.cnt.NewTemp()
	code := append(idx.Code, tcode.I(tcode.LOAD, tA, base))
	code = append(code, tcode.I(tcode.LOADX, t, tA, idx.Addr))
	return triple{Addr: t, Code: code}
}

func (g *Generator) genUnary(n *ast.Unary) triple {
	operand := g.genExpr(n.Operand)
	t := g.cnt.NewTemp()
	switch n.Op {
	case ast.OpNot:
		code := append(operand.Code, tcode.I(tcode.NOT, t, operand.Addr))
		return triple{Addr: t, Code: code}
	case ast.OpNeg:
		op := tcode.NEG
		if n.Operand.Decoration().Type().IsFloat() {
			op = tcode.FNEG
		}
		code := append(operand.Code, tcode.I(op, t, operand.Addr))
		return triple{Addr: t, Code: code}
	case ast.OpPos:
		code := append(operand.Code, tcode.I(tcode.LOAD, t, operand.Addr))
		return triple{Addr: t, Code: code}
	default:
		panic("codegen: unhandled unary operator")
	}
}

// widen inserts a FLOAT conversion on whichever side is Integer when the
// other side is Float, returning the (possibly replaced) operand addrs.
func (g *Generator) widen(lt, rt *types.Type, laddr, raddr string, code tcode.List) (string, string, tcode.List) {
	if lt.IsInteger() && rt.IsFloat() {
		tF := g.cnt.NewTemp()
		code = append(code, tcode.I(tcode.FLOAT, tF, laddr))
		return tF, raddr, code
	}
	if lt.IsFloat() && rt.IsInteger() {
		tF := g.cnt.NewTemp()
		code = append(code, tcode.I(tcode.FLOAT, tF, raddr))
		return laddr, tF, code
	}
	return laddr, raddr, code
}

func (g *Generator) genBinary(n *ast.Binary) triple {
	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return g.genArith(n)
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return g.genRelational(n)
	case ast.OpAnd, ast.OpOr:
		return g.genLogical(n)
	default:
		panic("codegen: unhandled binary operator")
	}
}

func (g *Generator) genArith(n *ast.Binary) triple {
	l, r := g.genExpr(n.Left), g.genExpr(n.Right)
	lt, rt := n.Left.Decoration().Type(), n.Right.Decoration().Type()
	code := tcode.Cat(l.Code, r.Code)

	if n.Op == ast.OpMod {
		// Both operands are Integer for MOD; no widening applies.
		t := g.cnt.NewTemp()
		div := g.cnt.NewTemp()
		mul := g.cnt.NewTemp()
		code = append(code, tcode.I(tcode.DIV, div, l.Addr, r.Addr))
		code = append(code, tcode.I(tcode.MUL, mul, div, r.Addr))
		code = append(code, tcode.I(tcode.SUB, t, l.Addr, mul))
		return triple{Addr: t, Code: code}
	}

	laddr, raddr, code := g.widen(lt, rt, l.Addr, r.Addr, code)
	isFloat := lt.IsFloat() || rt.IsFloat()
	t := g.cnt.NewTemp()
	var op tcode.Op
	switch n.Op {
	case ast.OpAdd:
		op = pick(isFloat, tcode.FADD, tcode.ADD)
	case ast.OpSub:
		op = pick(isFloat, tcode.FSUB, tcode.SUB)
	case ast.OpMul:
		op = pick(isFloat, tcode.FMUL, tcode.MUL)
	case ast.OpDiv:
		op = pick(isFloat, tcode.FDIV, tcode.DIV)
	}
	code = append(code, tcode.I(op, t, laddr, raddr))
	return triple{Addr: t, Code: code}
}

func (g *Generator) genRelational(n *ast.Binary) triple {
	l, r := g.genExpr(n.Left), g.genExpr(n.Right)
	lt, rt := n.Left.Decoration().Type(), n.Right.Decoration().Type()
	code := tcode.Cat(l.Code, r.Code)
	laddr, raddr, code := g.widen(lt, rt, l.Addr, r.Addr, code)
	isFloat := lt.IsFloat() || rt.IsFloat()
	t := g.cnt.NewTemp()

	switch n.Op {
	case ast.OpEq:
		code = append(code, tcode.I(pick(isFloat, tcode.FEQ, tcode.EQ), t, laddr, raddr))
	case ast.OpNeq:
		teq := g.cnt.NewTemp()
		code = append(code, tcode.I(pick(isFloat, tcode.FEQ, tcode.EQ), teq, laddr, raddr))
		code = append(code, tcode.I(tcode.NOT, t, teq))
	case ast.OpLt:
		code = append(code, tcode.I(pick(isFloat, tcode.FLT, tcode.LT), t, laddr, raddr))
	case ast.OpLe:
		code = append(code, tcode.I(pick(isFloat, tcode.FLE, tcode.LE), t, laddr, raddr))
	case ast.OpGt:
		code = append(code, tcode.I(pick(isFloat, tcode.FLT, tcode.LT), t, raddr, laddr))
	case ast.OpGe:
		code = append(code, tcode.I(pick(isFloat, tcode.FLE, tcode.LE), t, raddr, laddr))
	}
	return triple{Addr: t, Code: code}
}

func (g *Generator) genLogical(n *ast.Binary) triple {
	l, r := g.genExpr(n.Left), g.genExpr(n.Right)
	code := tcode.Cat(l.Code, r.Code)
	t := g.cnt.NewTemp()
	op := tcode.AND
	if n.Op == ast.OpOr {
		op = tcode.OR
	}
	code = append(code, tcode.I(op, t, l.Addr, r.Addr))
	return triple{Addr: t, Code: code}
}

func pick(cond bool, ifTrue, ifFalse tcode.Op) tcode.Op {
	if cond {
		return ifTrue
	}
	return ifFalse
}
