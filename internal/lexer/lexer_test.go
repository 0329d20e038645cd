package lexer

import (
	"testing"

	"github.com/alexchoi0/blueprint-engine/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)

total = 0
for i in range(10):
    total += fib(i)
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.DEF, "def"},
		{token.IDENT, "fib"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, ""},
		{token.IF, "if"},
		{token.IDENT, "n"},
		{token.LT, "<"},
		{token.INT, "2"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, ""},
		{token.RETURN, "return"},
		{token.IDENT, "n"},
		{token.NEWLINE, "\n"},
		{token.DEDENT, ""},
		{token.RETURN, "return"},
		{token.IDENT, "fib"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.MINUS, "-"},
		{token.INT, "1"},
		{token.RPAREN, ")"},
		{token.PLUS, "+"},
		{token.IDENT, "fib"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.MINUS, "-"},
		{token.INT, "2"},
		{token.RPAREN, ")"},
		{token.NEWLINE, "\n"},
		{token.DEDENT, ""},
		{token.IDENT, "total"},
		{token.ASSIGN, "="},
		{token.INT, "0"},
		{token.NEWLINE, "\n"},
		{token.FOR, "for"},
		{token.IDENT, "i"},
		{token.IN, "in"},
		{token.IDENT, "range"},
		{token.LPAREN, "("},
		{token.INT, "10"},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, ""},
		{token.IDENT, "total"},
		{token.PLUS_ASSIGN, "+="},
		{token.IDENT, "fib"},
		{token.LPAREN, "("},
		{token.IDENT, "i"},
		{token.RPAREN, ")"},
		{token.NEWLINE, "\n"},
		{token.DEDENT, ""},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q '%q', got=%q: '%q'",
				i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperatorsAndLiterals(t *testing.T) {
	input := `x = 3.14
y = 10 // 3
z = 2 % 2 != 0 and not (x <= y or x >= y)
s = 'single'
b = b"raw"
t = f"got {x}"
0x1F
1e3
pass
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.FLOAT, "3.14"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.INT, "10"},
		{token.FLOORDIV, "//"},
		{token.INT, "3"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "z"},
		{token.ASSIGN, "="},
		{token.INT, "2"},
		{token.PERCENT, "%"},
		{token.INT, "2"},
		{token.NOT_EQ, "!="},
		{token.INT, "0"},
		{token.AND, "and"},
		{token.NOT, "not"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.LT_EQ, "<="},
		{token.IDENT, "y"},
		{token.OR, "or"},
		{token.IDENT, "x"},
		{token.GT_EQ, ">="},
		{token.IDENT, "y"},
		{token.RPAREN, ")"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "s"},
		{token.ASSIGN, "="},
		{token.STRING, "single"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "b"},
		{token.ASSIGN, "="},
		{token.BYTES, "raw"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "t"},
		{token.ASSIGN, "="},
		{token.FSTRING, "got {x}"},
		{token.NEWLINE, "\n"},
		{token.INT, "0x1F"},
		{token.NEWLINE, "\n"},
		{token.FLOAT, "1e3"},
		{token.NEWLINE, "\n"},
		{token.PASS, "pass"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q '%q', got=%q: '%q'",
				i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestBracketsSuppressNewlines(t *testing.T) {
	input := `xs = [1,
      2,
      3]
done = True
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.IDENT, "xs"},
		{token.ASSIGN, "="},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.COMMA, ","},
		{token.INT, "2"},
		{token.COMMA, ","},
		{token.INT, "3"},
		{token.RBRACKET, "]"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "done"},
		{token.ASSIGN, "="},
		{token.TRUE, "True"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q: '%q'",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestBlankAndCommentLinesEmitNothing(t *testing.T) {
	input := `a = 1

# just a comment
b = 2
`

	tests := []token.TokenType{
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.IDENT, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q: '%q'",
				i, want, tok.Type, tok.Literal)
		}
	}
}

func TestDedentToUnknownLevelIsIllegal(t *testing.T) {
	input := "if a:\n        b\n    c\n"

	l := New(input)
	sawIllegal := false
	for {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			sawIllegal = true
			break
		}
		if tok.Type == token.EOF {
			break
		}
	}
	if !sawIllegal {
		t.Fatalf("expected ILLEGAL token for inconsistent dedent")
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`x = "oops`)
	for {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			if tok.Literal != "unterminated string" {
				t.Fatalf("wrong literal: %q", tok.Literal)
			}
			return
		}
		if tok.Type == token.EOF {
			t.Fatalf("expected ILLEGAL token, reached EOF")
		}
	}
}
