package diag

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/dcarballo/aslc/pkg/token"
)

// SourceFile records a file's name and content so diagnostics can quote
// the offending line.
type SourceFile struct {
	Name    string
	Content []rune
}

// ColorForWriter reports whether w is a real terminal, gating ANSI color
// the way the driver gates its help paging width: both consult the same
// terminal package, just for different axes (color vs wrap width).
func ColorForWriter(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func findFileAndLine(files []SourceFile, tok token.Token) (name string, line, col int) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(files) {
		return "<unknown>", tok.Line, tok.Column
	}
	return files[tok.FileIndex].Name, tok.Line, tok.Column
}

func printSourceLine(w io.Writer, files []SourceFile, tok token.Token, color bool) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(files) || tok.Line == 0 {
		return
	}
	content := files[tok.FileIndex].Content
	lineNum := tok.Line
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}
	fmt.Fprintf(w, "  %s\n", string(content[lineStart:lineEnd]))

	caretLen := tok.Len
	if caretLen < 1 {
		caretLen = 1
	}
	pad := strings.Repeat(" ", maxInt(tok.Column-1, 0))
	if color {
		fmt.Fprintf(w, "  %s\033[32m^%s\033[0m\n", pad, strings.Repeat("~", caretLen-1))
	} else {
		fmt.Fprintf(w, "  %s^%s\n", pad, strings.Repeat("~", caretLen-1))
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Render writes every diagnostic in a Sink to w, in emission order, with
// the offending source line and a caret under it. Color is only ever
// emitted when color is true; callers pick that with ColorForWriter.
func Render(w io.Writer, sink *Sink, files []SourceFile, color bool) {
	for _, d := range sink.All() {
		name, line, col := findFileAndLine(files, d.Tok)
		if color {
			fmt.Fprintf(w, "%s:%d:%d: \033[31merror:\033[0m %s [%s]\n", name, line, col, d.Message, d.Kind)
		} else {
			fmt.Fprintf(w, "%s:%d:%d: error: %s [%s]\n", name, line, col, d.Message, d.Kind)
		}
		printSourceLine(w, files, d.Tok, color)
	}
}
