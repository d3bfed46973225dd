package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcarballo/aslc/pkg/collect"
	"github.com/dcarballo/aslc/pkg/diag"
	"github.com/dcarballo/aslc/pkg/lexer"
	"github.com/dcarballo/aslc/pkg/parser"
	"github.com/dcarballo/aslc/pkg/sema"
	"github.com/dcarballo/aslc/pkg/symbols"
	"github.com/dcarballo/aslc/pkg/tcode"
	"github.com/dcarballo/aslc/pkg/token"
	"github.com/dcarballo/aslc/pkg/types"
)

func lexAll(src string) []token.Token {
	l := lexer.NewLexer([]rune(src), 0)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

func compile(t *testing.T, src string) *tcode.Program {
	t.Helper()
	sink := diag.NewSink()
	prog := parser.NewParser(lexAll(src), sink).Parse()

	tm := types.NewManager()
	tbl := symbols.NewTable()
	collect.Collect(prog, tm, tbl)
	sema.NewAnalyzer(tm, tbl, sink).Analyze(prog)
	require.True(t, sink.Empty(), "unexpected diagnostics: %v", sink.All())

	return NewGenerator(tm, tbl).Generate(prog)
}

func findSub(p *tcode.Program, name string) *tcode.Subroutine {
	for _, s := range p.Subroutines {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func opsOf(code tcode.List) []tcode.Op {
	out := make([]tcode.Op, len(code))
	for i, in := range code {
		out[i] = in.Op
	}
	return out
}

func TestScalarAssignmentLowersToLoadOfArithmetic(t *testing.T) {
	prog := compile(t, "func main() var x: int; x = 3 + 4; endfunc")
	sub := findSub(prog, "main")
	require.NotNil(t, sub)
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.ILOAD)
	assert.Contains(t, ops, tcode.ADD)
	assert.Contains(t, ops, tcode.LOAD)
	assert.Equal(t, tcode.RETURN, ops[len(ops)-1])
}

func TestFunctionSignatureGetsSyntheticResultParam(t *testing.T) {
	prog := compile(t, `
		func f(a: int): float
			return a;
		endfunc
		func main()
		endfunc
	`)
	sub := findSub(prog, "f")
	require.NotNil(t, sub)
	require.Len(t, sub.Params, 2)
	assert.Equal(t, "_result", sub.Params[0])
	assert.Equal(t, "a", sub.Params[1])
}

func TestReturnWidensIntegerToFloat(t *testing.T) {
	prog := compile(t, `
		func f(a: int): float
			return a;
		endfunc
		func main()
		endfunc
	`)
	sub := findSub(prog, "f")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.FLOAT)

	last := sub.Code[len(sub.Code)-2]
	assert.Equal(t, tcode.LOAD, last.Op)
	assert.Equal(t, "_result", last.Args[0])
}

func TestLocalsCarrySizeFromDeclaredType(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: int;
			var v: array [5] of char;
		endfunc
	`)
	sub := findSub(prog, "main")
	require.Len(t, sub.Locals, 2)
	assert.Equal(t, tcode.Local{Name: "x", Size: 1}, sub.Locals[0])
	assert.Equal(t, tcode.Local{Name: "v", Size: 5}, sub.Locals[1])
}

func TestWholeArrayCopyEmitsCanonicalLoop(t *testing.T) {
	prog := compile(t, `
		func main()
			var v: array [3] of int;
			var w: array [3] of int;
			v = w;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.LABEL)
	assert.Contains(t, ops, tcode.LOADX)
	assert.Contains(t, ops, tcode.XLOAD)
	assert.Contains(t, ops, tcode.UJUMP)
	assert.Contains(t, ops, tcode.FJUMP)

	var mul *tcode.Instr
	for i := range sub.Code {
		if sub.Code[i].Op == tcode.MUL {
			mul = &sub.Code[i]
			break
		}
	}
	require.NotNil(t, mul)
	assert.Equal(t, "1", mul.Args[1])
}

func TestParenthesizedWholeArrayCopyUnwrapsToCanonicalLoop(t *testing.T) {
	prog := compile(t, `
		func main()
			var v: array [3] of int;
			var w: array [3] of int;
			v = (w);
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.LABEL)
	assert.Contains(t, ops, tcode.LOADX)
	assert.Contains(t, ops, tcode.XLOAD)
}

func TestArrayParamIsMaterializedBeforeIndexing(t *testing.T) {
	prog := compile(t, `
		func f(v: array [3] of int): int
			return v[0];
		endfunc
		func main()
		endfunc
	`)
	sub := findSub(prog, "f")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.LOAD)
	assert.Contains(t, ops, tcode.LOADX)
}

func TestLocalArrayIndexingSkipsMaterialization(t *testing.T) {
	prog := compile(t, `
		func main()
			var v: array [3] of int;
			var x: int;
			x = v[0];
		endfunc
	`)
	sub := findSub(prog, "main")
	loadxCount := 0
	for _, in := range sub.Code {
		if in.Op == tcode.LOADX {
			loadxCount++
			assert.Equal(t, "v", in.Args[1])
		}
	}
	assert.Equal(t, 1, loadxCount)
}

func TestIfWithoutElseUsesSingleEndLabel(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: int;
			if x > 0 then
				x = 1;
			endif
		endfunc
	`)
	sub := findSub(prog, "main")
	var labels []string
	for _, in := range sub.Code {
		if in.Op == tcode.LABEL {
			labels = append(labels, in.Args[0])
		}
	}
	assert.Equal(t, []string{tcode.LabelEndIf(0)}, labels)
}

func TestIfWithElseUsesElseAndEndLabels(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: int;
			if x > 0 then
				x = 1;
			else
				x = 2;
			endif
		endfunc
	`)
	sub := findSub(prog, "main")
	var labels []string
	for _, in := range sub.Code {
		if in.Op == tcode.LABEL {
			labels = append(labels, in.Args[0])
		}
	}
	assert.Equal(t, []string{tcode.LabelElse(0), tcode.LabelEndIf(0)}, labels)
}

func TestWhileEmitsBackedgeToStartLabel(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: int;
			while x < 10 do
				x = x + 1;
			endwhile
		endfunc
	`)
	sub := findSub(prog, "main")
	var ujump *tcode.Instr
	for i := range sub.Code {
		if sub.Code[i].Op == tcode.UJUMP {
			ujump = &sub.Code[i]
			break
		}
	}
	require.NotNil(t, ujump)
	assert.Equal(t, tcode.LabelWhile(0), ujump.Args[0])
}

func TestCallPushesResultSlotForNonVoidFunction(t *testing.T) {
	prog := compile(t, `
		func f(): int
			return 1;
		endfunc
		func main()
			var x: int;
			x = f();
		endfunc
	`)
	sub := findSub(prog, "main")
	require.True(t, len(sub.Code) > 0)
	assert.Equal(t, tcode.PUSH, sub.Code[0].Op)
	assert.Equal(t, 0, sub.Code[0].N)
}

func TestCallWidensIntegerArgumentToFloatParam(t *testing.T) {
	prog := compile(t, `
		func f(a: float)
		endfunc
		func main()
			f(1);
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.FLOAT)
	assert.Contains(t, ops, tcode.CALL)
}

func TestCallPassesArrayArgumentByAddress(t *testing.T) {
	prog := compile(t, `
		func f(v: array [3] of int)
		endfunc
		func main()
			var v: array [3] of int;
			f(v);
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.ALOAD)
}

func TestCallEmitsTrailingPopPerArgumentPlusResult(t *testing.T) {
	prog := compile(t, `
		func f(a: int, b: int): int
			return a;
		endfunc
		func main()
			var x: int;
			x = f(1, 2);
		endfunc
	`)
	sub := findSub(prog, "main")
	popCount := 0
	for _, in := range sub.Code {
		if in.Op == tcode.POP {
			popCount++
		}
	}
	assert.Equal(t, 3, popCount)
}

func TestModIsSynthesizedFromDivMulSub(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: int;
			x = 7 % 2;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.DIV)
	assert.Contains(t, ops, tcode.MUL)
	assert.Contains(t, ops, tcode.SUB)
}

func TestNotEqualIsSynthesizedFromEqAndNot(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: int;
			var b: bool;
			b = x != 1;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.EQ)
	assert.Contains(t, ops, tcode.NOT)
}

func TestGreaterThanSwapsOperandsOfLt(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: int;
			var b: bool;
			b = x > 1;
		endfunc
	`)
	sub := findSub(prog, "main")
	var lt *tcode.Instr
	for i := range sub.Code {
		if sub.Code[i].Op == tcode.LT {
			lt = &sub.Code[i]
		}
	}
	require.NotNil(t, lt)
	assert.Equal(t, "x", lt.Args[2])
}

func TestFloatComparisonUsesFloatOpcodes(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: float;
			var b: bool;
			b = x < 1.5;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.FLT)
}

func TestMixedIntFloatComparisonWidensInteger(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: int;
			var y: float;
			var b: bool;
			b = x < y;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.FLOAT)
	assert.Contains(t, ops, tcode.FLT)
}

func TestLogicalOperatorsHaveNoShortCircuitJumps(t *testing.T) {
	prog := compile(t, `
		func main()
			var a: bool;
			var b: bool;
			var c: bool;
			c = a and b;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.AND)
	for _, op := range ops {
		assert.NotEqual(t, tcode.FJUMP, op)
	}
}

func TestWriteStringEmitsWritelnForNewlineEscape(t *testing.T) {
	prog := compile(t, `
		func main()
			write "hi\n";
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.WRITELN)
	assert.Contains(t, ops, tcode.CHLOAD)
	assert.Contains(t, ops, tcode.WRITEC)
}

func TestWriteScalarPicksOpcodeByType(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: float;
			write x;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.WRITEF)
}

func TestReadPicksOpcodeByType(t *testing.T) {
	prog := compile(t, `
		func main()
			var c: char;
			read c;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.READC)
}

func TestReadIntoArrayElementUsesXload(t *testing.T) {
	prog := compile(t, `
		func main()
			var v: array [3] of int;
			read v[0];
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.READI)
	assert.Contains(t, ops, tcode.XLOAD)
}

func TestUnaryPlusIsLoweredAsCopy(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: int;
			var y: int;
			y = +x;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.LOAD)
}

func TestUnaryNegOnFloatUsesFneg(t *testing.T) {
	prog := compile(t, `
		func main()
			var x: float;
			var y: float;
			y = -x;
		endfunc
	`)
	sub := findSub(prog, "main")
	ops := opsOf(sub.Code)
	assert.Contains(t, ops, tcode.FNEG)
}
