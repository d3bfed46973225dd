// Command aslc compiles one ASL source file to t-code: parse, collect
// symbols, analyze, and — only if analysis left no diagnostics — generate
// and emit. Mirrors the shape of the teacher's own driver (lex/parse once,
// run the passes in order, gate the next stage on the previous one), pared
// down to the single input file this front end's external interface calls
// for.
package main

import (
	"fmt"
	"os"

	"github.com/dcarballo/aslc/pkg/cli"
	"github.com/dcarballo/aslc/pkg/codegen"
	"github.com/dcarballo/aslc/pkg/collect"
	"github.com/dcarballo/aslc/pkg/config"
	"github.com/dcarballo/aslc/pkg/diag"
	"github.com/dcarballo/aslc/pkg/emit"
	"github.com/dcarballo/aslc/pkg/lexer"
	"github.com/dcarballo/aslc/pkg/lint"
	"github.com/dcarballo/aslc/pkg/parser"
	"github.com/dcarballo/aslc/pkg/sema"
	"github.com/dcarballo/aslc/pkg/symbols"
	"github.com/dcarballo/aslc/pkg/token"
	"github.com/dcarballo/aslc/pkg/types"
)

func main() {
	app := cli.NewApp("aslc")
	app.Synopsis = "[options] <input.asl>"

	var (
		outFile  string
		dumpOnly bool
	)

	readFnType := true
	unusedLocal := false

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "write t-code to <file> instead of stdout")
	fs.Bool(&dumpOnly, "check", "c", false, "analyze only; report diagnostics and exit without generating code")
	fs.Warnings([]cli.WarningFlag{
		{Name: "read-function-type", Usage: "warn when a read target has function type", Enabled: &readFnType},
		{Name: "unused-local", Usage: "warn about locals never assigned or read into", Enabled: &unusedLocal},
	})

	app.Action = func(args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one input file, got %d", len(args))
		}
		cfg := config.NewConfig()
		cfg.SetWarning(config.WarnReadFunctionType, readFnType)
		cfg.SetWarning(config.WarnUnusedLocal, unusedLocal)
		return compile(args[0], outFile, dumpOnly, cfg)
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func compile(path, outFile string, dumpOnly bool, cfg *config.Config) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	sink := diag.NewSink()
	file := diag.SourceFile{Name: path, Content: []rune(string(src))}

	lx := lexer.NewLexer([]rune(string(src)), 0)
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}

	p := parser.NewParser(toks, sink)
	prog := p.Parse()

	tm := types.NewManager()
	tbl := symbols.NewTable()
	collect.Collect(prog, tm, tbl)

	an := sema.NewAnalyzer(tm, tbl, sink)
	an.Analyze(prog)

	diag.Render(os.Stderr, sink, []diag.SourceFile{file}, diag.ColorForWriter(os.Stderr))

	for _, f := range lint.Run(prog, cfg) {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: warning: %s\n", path, f.Line, f.Column, f.Message)
	}

	if !sink.Empty() {
		return fmt.Errorf("%d error(s)", sink.Len())
	}
	if dumpOnly {
		return nil
	}

	gen := codegen.NewGenerator(tm, tbl)
	tcodeProg := gen.Generate(prog)

	var backend emit.Backend = emit.TextBackend{}
	buf, err := backend.Generate(tcodeProg)
	if err != nil {
		return err
	}

	if outFile == "" {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(outFile, buf.Bytes(), 0o644)
}
