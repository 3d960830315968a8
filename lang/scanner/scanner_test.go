package scanner_test

import (
	"testing"

	"github.com/mna/loxvm/lang/scanner"
	"github.com/mna/loxvm/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []scanner.Token {
	t.Helper()
	s := scanner.New(src)
	var toks []scanner.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuationAndKeywords(t *testing.T) {
	toks := scanAll(t, "var x = (1 + 2) * 3; // comment\nclass A < B {}")
	require.NotEmpty(t, toks)

	want := []token.Token{
		token.VAR, token.IDENT, token.EQUAL, token.LPAREN, token.NUMBER,
		token.PLUS, token.NUMBER, token.RPAREN, token.STAR, token.NUMBER,
		token.SEMICOLON, token.CLASS, token.IDENT, token.LESS, token.IDENT,
		token.LBRACE, token.RBRACE, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		assert.Equalf(t, w, toks[i].Type, "token %d", i)
	}
}

func TestScanStringLiteral(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)
	assert.Equal(t, "hello world", scanner.StringValue(toks[0].Lexeme))
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"hello`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Type)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll(t, "1 2.5 10")
	require.Len(t, toks, 4)
	for i, want := range []string{"1", "2.5", "10"} {
		assert.Equal(t, token.NUMBER, toks[i].Type)
		assert.Equal(t, want, toks[i].Lexeme)
	}
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll(t, "var a = 1;\nvar b = 2;")
	var lines []int
	for _, tok := range toks {
		lines = append(lines, tok.Line)
	}
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[5].Line)
}

func TestScanTwoCharOperators(t *testing.T) {
	toks := scanAll(t, "!= == <= >= ! = < >")
	want := []token.Token{
		token.BANG_EQUAL, token.EQUAL_EQUAL, token.LESS_EQUAL, token.GREATER_EQUAL,
		token.BANG, token.EQUAL, token.LESS, token.GREATER, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, w := range want {
		assert.Equal(t, w, toks[i].Type)
	}
}
