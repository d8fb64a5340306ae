// Package errors defines the closed error-kind taxonomy shared by every
// stage of the pipeline: lexer and parser raise Syntax errors, the
// compiler raises Semantic errors, and the VM raises Runtime errors with
// an attached call-stack snapshot.
package errors

import (
	"fmt"
	"strings"
)

// Kind is the closed set of error categories a Context can surface.
type Kind int

const (
	Generic Kind = iota
	Syntax
	Semantic
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case Semantic:
		return "semantic error"
	case Runtime:
		return "runtime error"
	default:
		return "error"
	}
}

// Location pins an error to a place in source text.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// HasLocation reports whether a location was actually recorded.
func (l Location) HasLocation() bool {
	return l.Line > 0
}

// Frame is one entry of a runtime call-stack snapshot, innermost first.
type Frame struct {
	Function string // "<main>" or "<lambda>" when the function is unnamed
	Location Location
}

// Error is the single error type threaded through lexer, parser,
// compiler, and VM. It implements the standard error interface.
type Error struct {
	Kind     Kind
	Message  string
	Location Location
	Source   string // the offending source line, for caret display
	Stack    []Frame
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Location.HasLocation() {
		fmt.Fprintf(&b, "%s: %s: %s", e.Location, e.Kind, e.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	}
	for _, fr := range e.Stack {
		if fr.Location.HasLocation() {
			fmt.Fprintf(&b, "\n\tat %s (%s)", fr.Function, fr.Location)
		} else {
			fmt.Fprintf(&b, "\n\tat %s", fr.Function)
		}
	}
	return b.String()
}

// Syntaxf builds a Syntax error at loc.
func Syntaxf(loc Location, format string, args ...interface{}) *Error {
	return &Error{Kind: Syntax, Message: fmt.Sprintf(format, args...), Location: loc}
}

// Semanticf builds a Semantic error, optionally located.
func Semanticf(loc Location, format string, args ...interface{}) *Error {
	return &Error{Kind: Semantic, Message: fmt.Sprintf(format, args...), Location: loc}
}

// Runtimef builds a Runtime error; Stack is attached by the VM separately.
func Runtimef(format string, args ...interface{}) *Error {
	return &Error{Kind: Runtime, Message: fmt.Sprintf(format, args...)}
}

// WithStack returns a copy of e with its stack trace set.
func (e *Error) WithStack(frames []Frame) *Error {
	cp := *e
	cp.Stack = frames
	return &cp
}

// WithSource attaches the offending source line for caret-style display.
func (e *Error) WithSource(line string) *Error {
	cp := *e
	cp.Source = line
	return &cp
}
