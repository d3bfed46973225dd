// Command aslctest runs the front end end-to-end over a directory of ASL
// source files and diffs its output against cached golden files, the same
// golden-file-plus-diff shape the teacher's differential runner uses,
// adapted from a two-compiler comparison to a single-target one: there is
// no reference implementation to diff against here, so golden files are
// the source of truth, named by the content hash of the input they came
// from so a source edit invalidates its own cache entry and nothing else.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/dcarballo/aslc/pkg/codegen"
	"github.com/dcarballo/aslc/pkg/collect"
	"github.com/dcarballo/aslc/pkg/diag"
	"github.com/dcarballo/aslc/pkg/emit"
	"github.com/dcarballo/aslc/pkg/lexer"
	"github.com/dcarballo/aslc/pkg/parser"
	"github.com/dcarballo/aslc/pkg/sema"
	"github.com/dcarballo/aslc/pkg/symbols"
	"github.com/dcarballo/aslc/pkg/token"
	"github.com/dcarballo/aslc/pkg/types"
)

const (
	cRed   = "\x1b[91m"
	cGreen = "\x1b[92m"
	cCyan  = "\x1b[96m"
	cNone  = "\x1b[0m"
)

var (
	testFiles  = flag.String("test-files", "testdata/*.asl", "glob pattern for ASL sources to run")
	goldenDir  = flag.String("golden-dir", "testdata/golden", "directory holding golden output, one file per source hash")
	update     = flag.Bool("update", false, "write golden files for every test instead of comparing against them")
	jobs       = flag.Int("j", 4, "number of parallel workers")
)

// result is either the rendered diagnostics (when analysis failed) or the
// emitted t-code (when it succeeded), whichever the pipeline actually
// produced — golden comparison does not care which.
func runOne(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	sink := diag.NewSink()
	lx := lexer.NewLexer([]rune(string(src)), 0)
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}

	prog := parser.NewParser(toks, sink).Parse()
	tm := types.NewManager()
	tbl := symbols.NewTable()
	collect.Collect(prog, tm, tbl)
	sema.NewAnalyzer(tm, tbl, sink).Analyze(prog)

	if !sink.Empty() {
		var out bytes.Buffer
		file := diag.SourceFile{Name: path, Content: []rune(string(src))}
		diag.Render(&out, sink, []diag.SourceFile{file}, false)
		return out.String(), nil
	}

	tcodeProg := codegen.NewGenerator(tm, tbl).Generate(prog)
	buf, err := (emit.TextBackend{}).Generate(tcodeProg)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", xxhash.Sum64(data)), nil
}

func goldenPath(sourceFile string) (string, error) {
	h, err := hashFile(sourceFile)
	if err != nil {
		return "", err
	}
	base := filepath.Base(sourceFile)
	return filepath.Join(*goldenDir, fmt.Sprintf("%s.%s.golden", base, h)), nil
}

type outcome struct {
	file   string
	status string
	diff   string
	err    error
}

func main() {
	flag.Parse()
	log.SetFlags(0)

	files, err := filepath.Glob(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s invalid glob pattern: %v", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("no test files matched")
		return
	}
	if err := os.MkdirAll(*goldenDir, 0o755); err != nil {
		log.Fatalf("%s[ERROR]%s could not create golden dir: %v", cRed, cNone, err)
	}

	tasks := make(chan string, len(files))
	results := make(chan outcome, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range tasks {
				results <- process(f)
			}
		}()
	}
	for _, f := range files {
		tasks <- f
	}
	close(tasks)
	wg.Wait()
	close(results)

	pass, fail := 0, 0
	for r := range results {
		switch r.status {
		case "PASS":
			pass++
			fmt.Printf("%s[PASS]%s %s\n", cGreen, cNone, r.file)
		case "UPDATED":
			pass++
			fmt.Printf("%s[UPDATED]%s %s\n", cCyan, cNone, r.file)
		default:
			fail++
			fmt.Printf("%s[FAIL]%s %s\n", cRed, cNone, r.file)
			if r.err != nil {
				fmt.Println("  error:", r.err)
			}
			if r.diff != "" {
				fmt.Println(r.diff)
			}
		}
	}
	fmt.Printf("\n%d passed, %d failed\n", pass, fail)
	if fail > 0 {
		os.Exit(1)
	}
}

func process(file string) outcome {
	got, err := runOne(file)
	if err != nil {
		return outcome{file: file, status: "FAIL", err: err}
	}

	gp, err := goldenPath(file)
	if err != nil {
		return outcome{file: file, status: "FAIL", err: err}
	}

	if *update {
		if err := os.WriteFile(gp, []byte(got), 0o644); err != nil {
			return outcome{file: file, status: "FAIL", err: err}
		}
		return outcome{file: file, status: "UPDATED"}
	}

	want, err := os.ReadFile(gp)
	if err != nil {
		return outcome{file: file, status: "FAIL", err: fmt.Errorf("no golden file (run with -update to create one): %w", err)}
	}
	if diff := cmp.Diff(string(want), got); diff != "" {
		return outcome{file: file, status: "FAIL", diff: diff}
	}
	return outcome{file: file, status: "PASS"}
}
