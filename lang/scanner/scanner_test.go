package scanner_test

import (
	"testing"

	"github.com/mna/corvid/lang/scanner"
	"github.com/mna/corvid/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(src string) []scanner.Token {
	s := scanner.New(src)
	var toks []scanner.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []scanner.Token) []token.Token {
	ks := make([]token.Token, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){};,.+-*/! != = == < <= > >=")
	require.Equal(t, []token.Token{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMI,
		token.COMMA, token.DOT, token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.BANG, token.BANG_EQ, token.EQ, token.EQ_EQ, token.LT, token.LE,
		token.GT, token.GE, token.EOF,
	}, kinds(toks))
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("var x = classic")
	require.Equal(t, []token.Token{token.VAR, token.IDENT, token.EQ, token.IDENT, token.EOF}, kinds(toks))
	require.Equal(t, "classic", toks[3].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll("123 4.5 0")
	require.Equal(t, []token.Token{token.NUMBER, token.NUMBER, token.NUMBER, token.EOF}, kinds(toks))
	require.Equal(t, "4.5", toks[1].Lexeme)
}

func TestScanString(t *testing.T) {
	toks := scanAll(`"hello world"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"oops`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestScanTracksLines(t *testing.T) {
	toks := scanAll("var a = 1;\nvar b = 2;")
	require.Equal(t, 1, toks[0].Line)
	// "var" on the second line
	var secondVar scanner.Token
	count := 0
	for _, tk := range toks {
		if tk.Kind == token.VAR {
			count++
			if count == 2 {
				secondVar = tk
			}
		}
	}
	require.Equal(t, 2, secondVar.Line)
}

func TestScanLineComment(t *testing.T) {
	toks := scanAll("1 // comment\n2")
	require.Equal(t, []token.Token{token.NUMBER, token.NUMBER, token.EOF}, kinds(toks))
}
