// Package loxerror provides the compile-time diagnostic list used by the
// compiler, in the accumulate-then-format shape of go/scanner.ErrorList (the
// same shape the teacher re-exports as scanner.ErrorList in its own
// lang/scanner package).
package loxerror

import "fmt"

// Error is a single compile-time diagnostic, tied to a source line rather
// than a byte offset (spec.md's scanner contract hands the compiler line
// numbers, not positions). Where is the optional " at '<lexeme>'" / " at
// end" clause clox's errorAt inserts between "Error" and the message
// (spec.md §6 "Standard error"); it is empty for diagnostics not tied to a
// specific token (e.g. an illegal token the scanner already named).
type Error struct {
	Line  int
	Where string
	Msg   string
}

func (e Error) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Msg)
}

// List accumulates diagnostics during a single compilation. Its methods do
// not accept a nil *List; callers construct one with &List{}.
type List struct {
	errs []Error
}

// Add appends a diagnostic with no location clause to the list.
func (l *List) Add(line int, format string, args ...interface{}) {
	l.errs = append(l.errs, Error{Line: line, Msg: fmt.Sprintf(format, args...)})
}

// AddAt appends a diagnostic with a location clause ("at '<lexeme>'" or "at
// end", with no leading/trailing space) to the list.
func (l *List) AddAt(line int, where, format string, args ...interface{}) {
	w := ""
	if where != "" {
		w = " " + where
	}
	l.errs = append(l.errs, Error{Line: line, Where: w, Msg: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic was added.
func (l *List) HasErrors() bool { return len(l.errs) > 0 }

// Len returns the number of accumulated diagnostics.
func (l *List) Len() int { return len(l.errs) }

// Errs returns the accumulated diagnostics in the order they were added.
func (l *List) Errs() []Error { return l.errs }

// Error implements the error interface: the first recorded diagnostic,
// followed by "(and N more errors)" when there are others. Use Errs for the
// full list.
func (l *List) Error() string {
	switch len(l.errs) {
	case 0:
		return "no errors"
	case 1:
		return l.errs[0].Error()
	}
	s := fmt.Sprintf("%s (and %d more errors)", l.errs[0].Error(), len(l.errs)-1)
	return s
}
