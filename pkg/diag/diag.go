// Package diag implements the diagnostic sink (component D) and the
// terminal rendering of accumulated diagnostics. Unlike the teacher's
// util.Error, nothing here ever terminates the process: diagnostics
// accumulate and the caller decides what to do once a pass finishes.
package diag

import (
	"fmt"

	"github.com/dcarballo/aslc/pkg/token"
)

// Kind names one of the semantic error categories from the error-handling
// design, or "syntax-error" for parser-level recognition failures.
type Kind string

const (
	UndeclaredIdent               Kind = "undeclared-ident"
	IsNotCallable                 Kind = "is-not-callable"
	IsNotFunction                 Kind = "is-not-function"
	NumberOfParameters            Kind = "number-of-parameters"
	IncompatibleParameter         Kind = "incompatible-parameter"
	IncompatibleAssignment        Kind = "incompatible-assignment"
	NonReferenceableLeftExpr      Kind = "non-referenceable-left-expr"
	NonReferenceableExpression    Kind = "non-referenceable-expression"
	BooleanRequired               Kind = "boolean-required"
	IncompatibleOperator          Kind = "incompatible-operator"
	NonArrayInArrayAccess         Kind = "non-array-in-array-access"
	NonIntegerIndexInArrayAccess  Kind = "non-integer-index-in-array-access"
	ReadWriteRequiresBasic        Kind = "read-write-requires-basic"
	IncompatibleReturn            Kind = "incompatible-return"
	NoMainProperlyDeclared        Kind = "no-main-properly-declared"
	SyntaxError                   Kind = "syntax-error"
)

// Diagnostic is one (location, kind, message) record.
type Diagnostic struct {
	Tok     token.Token
	Kind    Kind
	Message string
}

// Sink accumulates diagnostics in emission order and never aborts a walk.
type Sink struct {
	diags []Diagnostic
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Add records one diagnostic at tok's location.
func (s *Sink) Add(tok token.Token, kind Kind, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{Tok: tok, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Empty reports whether no diagnostics have been recorded.
func (s *Sink) Empty() bool { return len(s.diags) == 0 }

// All returns the recorded diagnostics in emission order. The slice is
// owned by the Sink and must not be mutated by callers.
func (s *Sink) All() []Diagnostic { return s.diags }

// Len reports how many diagnostics have been recorded.
func (s *Sink) Len() int { return len(s.diags) }
