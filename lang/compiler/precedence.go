package compiler

// precedence orders the Pratt parser's infix binding power, from loosest to
// tightest, following original_source/clox/src/compiler.c's Precedence
// enum. PREC_POWER sits above PREC_UNARY there (clox's own table makes `^`
// left-associative via its uniform rule.precedence+1 recursion); this
// compiler instead gives `^` right-associativity in binary(), the
// behavior spec.md's grammar explicitly calls for.
type precedence uint8

const (
	precNone precedence = iota
	precComma
	precAssignment
	precTernary
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precPower
	precCall
	precPrimary
)
