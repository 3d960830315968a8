package compiler

import "github.com/mna/loxvm/lang/token"

// rule is one row of the Pratt dispatch table: how to parse this token when
// it starts an expression (prefix), how to parse it when it follows one
// (infix), and the precedence it binds at as an infix operator.
type rule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

// rules is the Pratt table, grounded directly on
// original_source/clox/src/compiler.c's `ParseRule rules[]`, rendered as a
// map instead of an array indexed by a C-style designated initializer since
// token.Token has no exported upper bound to size a Go array against.
var rules = map[token.Token]rule{
	token.LPAREN:        {grouping, call, precCall},
	token.LBRACK:        {list, subscript, precCall},
	token.COMMA:         {nil, comma, precComma},
	token.DOT:           {nil, dot, precCall},
	token.MINUS:         {unary, binary, precTerm},
	token.PLUS:          {nil, binary, precTerm},
	token.SLASH:         {nil, binary, precFactor},
	token.STAR:          {nil, binary, precFactor},
	token.CARET:         {nil, binary, precPower},
	token.QUESTION:      {nil, conditional, precTernary},
	token.BANG:          {unary, nil, precNone},
	token.BANG_EQUAL:    {nil, binary, precEquality},
	token.EQUAL_EQUAL:   {nil, binary, precEquality},
	token.GREATER:       {nil, binary, precComparison},
	token.GREATER_EQUAL: {nil, binary, precComparison},
	token.LESS:          {nil, binary, precComparison},
	token.LESS_EQUAL:    {nil, binary, precComparison},
	token.IDENT:         {variable, nil, precNone},
	token.STRING:        {stringLit, nil, precNone},
	token.NUMBER:        {number, nil, precNone},
	token.AND:           {nil, and_, precAnd},
	token.FALSE:         {literal, nil, precNone},
	token.FUN:           {functionExpression, nil, precPrimary},
	token.NIL:           {literal, nil, precNone},
	token.OR:            {nil, or_, precOr},
	token.SUPER:         {super_, nil, precNone},
	token.THIS:          {this_, nil, precNone},
	token.TRUE:          {literal, nil, precNone},
}

var zeroRule = rule{prec: precNone}

func getRule(tt token.Token) rule {
	if r, ok := rules[tt]; ok {
		return r
	}
	return zeroRule
}
