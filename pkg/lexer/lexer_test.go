package lexer

import (
	"strings"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `int main(void) { return 42; }`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenInt_, "int"},
		{TokenIdent, "main"},
		{TokenLParen, "("},
		{TokenVoid, "void"},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenInt, "42"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `+ - * / % = == != < <= > >= && || ! & | ^ ~ << >> ++ -- ?  :`

	tests := []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenAssign, TokenEq, TokenNe, TokenLt, TokenLe, TokenGt, TokenGe,
		TokenAnd, TokenOr, TokenNot, TokenAmpersand, TokenPipe, TokenCaret,
		TokenTilde, TokenShl, TokenShr, TokenIncrement, TokenDecrement,
		TokenQuestion, TokenColon,
	}

	l := New(input)
	for i, want := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if tok.Type != want {
			t.Fatalf("tests[%d] - expected %s, got %s (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestCompoundAssignments(t *testing.T) {
	input := `+= -= *= /= %= &= |= ^= <<= >>=`
	tests := []TokenType{
		TokenPlusAssign, TokenMinusAssign, TokenStarAssign, TokenSlashAssign,
		TokenPercentAssign, TokenAndAssign, TokenOrAssign, TokenXorAssign,
		TokenShlAssign, TokenShrAssign,
	}
	l := New(input)
	for i, want := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if tok.Type != want {
			t.Fatalf("tests[%d] - expected %s, got %s", i, want, tok.Type)
		}
	}
}

func TestIntegerWidthSuffix(t *testing.T) {
	tests := []struct {
		input string
		width IntWidth
		lit   string
	}{
		{"42", WidthInt, "42"},
		{"42L", WidthLong, "42"},
		{"42l", WidthLong, "42"},
		{"0", WidthInt, "0"},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.input, err)
		}
		if tok.Type != TokenInt || tok.Width != tt.width || tok.Literal != tt.lit {
			t.Fatalf("%s: got type=%s width=%v literal=%q", tt.input, tok.Type, tok.Width, tok.Literal)
		}
	}
}

func TestKeywordsClosedSet(t *testing.T) {
	input := `int long void return if else goto do while for break continue static extern switch case default`
	tests := []TokenType{
		TokenInt_, TokenLong, TokenVoid, TokenReturn, TokenIf, TokenElse,
		TokenGoto, TokenDo, TokenWhile, TokenFor, TokenBreak, TokenContinue,
		TokenStatic, TokenExtern, TokenSwitch, TokenCase, TokenDefault,
	}
	l := New(input)
	for i, want := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if tok.Type != want {
			t.Fatalf("tests[%d] - expected %s, got %s", i, want, tok.Type)
		}
	}
}

func TestLexErrorReportsUnconsumedSuffix(t *testing.T) {
	tests := []string{
		"int x = 1@2;",
		"42abc",
		"int @foo;",
	}
	for _, input := range tests {
		_, err := Tokenize(input)
		if err == nil {
			t.Fatalf("%q: expected lex error, got none", input)
		}
		var lexErr *LexError
		if !asLexError(err, &lexErr) {
			t.Fatalf("%q: expected *LexError, got %T", input, err)
		}
		if lexErr.Remainder == "" || !strings.HasSuffix(input, lexErr.Remainder) || !strings.Contains(err.Error(), lexErr.Remainder) {
			t.Fatalf("%q: expected the error to report an unconsumed suffix of the input, got %q", input, err.Error())
		}
	}
}

func asLexError(err error, target **LexError) bool {
	if le, ok := err.(*LexError); ok {
		*target = le
		return true
	}
	return false
}

func TestTokenizeStopsAtEOF(t *testing.T) {
	toks, err := Tokenize("int main(void) { return 0; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[len(toks)-1].Type != TokenEOF {
		t.Fatalf("expected final token to be EOF, got %s", toks[len(toks)-1].Type)
	}
}
