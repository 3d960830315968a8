package compiler

import "github.com/mna/loxvm/lang/object"

// funcKind distinguishes the handful of contexts a function body can be
// compiled in, each of which changes a handful of emission rules (whether
// slot 0 is named "this", whether a bare "return;" is legal, what it
// implicitly returns). Grounded on original_source/clox/src/compiler.c's
// FunctionType enum.
type funcKind uint8

const (
	funcScript funcKind = iota
	funcFunction
	funcMethod
	funcInitializer
	funcGetter
	funcExpression
)

// local tracks one slot of the function currently being compiled. depth -1
// marks a local whose initializer is still being compiled (so referencing
// it by name is a self-reference error, spec.md §8 "self-referential
// initializer").
type local struct {
	name     string
	depth    int
	captured bool
}

// classState tracks the class declaration currently being compiled, chained
// to any enclosing class declaration (nested classes are legal, if unusual).
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// funcState is the compiler's state for one function body, chained to its
// lexically enclosing function so upvalue resolution can walk outward.
// Grounded on original_source/clox/src/compiler.c's Compiler struct; kept as
// an explicit, non-global value per spec.md §9's preference for threading
// state rather than mutating package-level variables.
type funcState struct {
	enclosing *funcState

	fn   *object.Function
	kind funcKind

	locals   []local
	upvalues []object.UpvalueDesc

	scopeDepth int

	// loopStart/loopScope/exitJump track the innermost enclosing loop for
	// break/continue, saved and restored around nested loops exactly as
	// original_source/clox/src/compiler.c's whileStatement/forStatement do.
	loopStart int
	loopScope int
	exitJump  int
}
