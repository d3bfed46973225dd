// Package emit renders a t-code program to its textual form. The core
// produces subroutines with no opinion on the wire format; the textual
// form is delegated entirely to an emitter, mirroring the way the teacher
// keeps IR-to-assembly rendering behind a Backend interface.
package emit

import (
	"bytes"
	"fmt"

	"github.com/dcarballo/aslc/pkg/tcode"
)

// Backend renders a finished t-code program to a byte buffer.
type Backend interface {
	Generate(prog *tcode.Program) (*bytes.Buffer, error)
}

// TextBackend is the reference backend: one subroutine per block, params
// and locals on header lines, one instruction per line. It exists to make
// generated t-code inspectable and diffable in golden tests, not to target
// any particular runtime.
type TextBackend struct{}

func (TextBackend) Generate(prog *tcode.Program) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	for i, sub := range prog.Subroutines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "sub %s(%s)\n", sub.Name, joinParams(sub.Params))
		for _, l := range sub.Locals {
			fmt.Fprintf(&buf, "  local %s %d\n", l.Name, l.Size)
		}
		for _, in := range sub.Code {
			fmt.Fprintf(&buf, "  %s\n", in.String())
		}
	}
	return &buf, nil
}

func joinParams(params []string) string {
	var b bytes.Buffer
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p)
	}
	return b.String()
}
