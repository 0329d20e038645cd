package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alexchoi0/blueprint-engine/internal/token"
)

// Lexer tokenizes blueprint source. Indentation is significant: at the start
// of each logical line the lexer compares leading whitespace against an
// indent stack and emits INDENT/DEDENT tokens. Inside brackets newlines and
// indentation are ignored, as in the source dialect.
type Lexer struct {
	input        string
	position     int  // current byte position (start of current rune)
	readPosition int  // next byte position
	ch           rune // current rune; 0 means EOF
	line         int
	col          int

	indents      []int // indentation stack, always starts with 0
	pending      []token.Token
	atLineStart  bool
	bracketDepth int // ( [ { nesting; suppresses NEWLINE/INDENT handling
}

func New(input string) *Lexer {
	l := &Lexer{
		input:       input,
		line:        1,
		col:         0,
		indents:     []int{0},
		atLineStart: true,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) NextToken() token.Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	if l.atLineStart && l.bracketDepth == 0 {
		if tok, ok := l.handleIndentation(); ok {
			return tok
		}
	}

	l.skipSpacesAndComments()

	switch l.ch {
	case 0:
		return l.eofToken()
	case '\n':
		if l.bracketDepth > 0 {
			l.readChar()
			return l.NextToken()
		}
		tok := l.newToken(token.NEWLINE, "\n")
		l.readChar()
		l.atLineStart = true
		return tok
	case '=':
		return l.compound(token.ASSIGN, '=', token.EQ)
	case '!':
		if l.peekChar() == '=' {
			tok := l.newToken(token.NOT_EQ, "!=")
			l.readChar()
			l.readChar()
			return tok
		}
		tok := l.newToken(token.ILLEGAL, string(l.ch))
		l.readChar()
		return tok
	case '+':
		return l.compound(token.PLUS, '=', token.PLUS_ASSIGN)
	case '-':
		return l.compound(token.MINUS, '=', token.MINUS_ASSIGN)
	case '*':
		return l.compound(token.ASTERISK, '=', token.ASTERISK_ASSIGN)
	case '/':
		if l.peekChar() == '/' {
			tok := l.newToken(token.FLOORDIV, "//")
			l.readChar()
			l.readChar()
			return tok
		}
		return l.compound(token.SLASH, '=', token.SLASH_ASSIGN)
	case '%':
		return l.compound(token.PERCENT, '=', token.PERCENT_ASSIGN)
	case '<':
		return l.compound(token.LT, '=', token.LT_EQ)
	case '>':
		return l.compound(token.GT, '=', token.GT_EQ)
	case ',':
		return l.single(token.COMMA)
	case ';':
		return l.single(token.SEMICOLON)
	case ':':
		return l.single(token.COLON)
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		return l.single(token.PERIOD)
	case '(':
		l.bracketDepth++
		return l.single(token.LPAREN)
	case ')':
		l.bracketDepth--
		return l.single(token.RPAREN)
	case '[':
		l.bracketDepth++
		return l.single(token.LBRACKET)
	case ']':
		l.bracketDepth--
		return l.single(token.RBRACKET)
	case '{':
		l.bracketDepth++
		return l.single(token.LBRACE)
	case '}':
		l.bracketDepth--
		return l.single(token.RBRACE)
	case '"', '\'':
		return l.readString(l.ch, token.STRING)
	default:
		if l.ch == 'f' && (l.peekChar() == '"' || l.peekChar() == '\'') {
			tok := l.tokenAt()
			l.readChar()
			s := l.readString(l.ch, token.FSTRING)
			s.Line, s.Col = tok.Line, tok.Col
			return s
		}
		if l.ch == 'b' && (l.peekChar() == '"' || l.peekChar() == '\'') {
			tok := l.tokenAt()
			l.readChar()
			s := l.readString(l.ch, token.BYTES)
			s.Line, s.Col = tok.Line, tok.Col
			return s
		}
		if isLetter(l.ch) {
			tok := l.tokenAt()
			lit := l.readIdentifier()
			tok.Type = token.LookupIdent(lit)
			tok.Literal = lit
			return tok
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
		tok := l.newToken(token.ILLEGAL, string(l.ch))
		l.readChar()
		return tok
	}
}

// handleIndentation measures the leading whitespace of the next logical line
// and queues INDENT/DEDENT tokens against the indent stack. Blank lines and
// comment-only lines produce no tokens at all.
func (l *Lexer) handleIndentation() (token.Token, bool) {
	for {
		width := 0
		for l.ch == ' ' || l.ch == '\t' {
			if l.ch == '\t' {
				width += 8 - width%8
			} else {
				width++
			}
			l.readChar()
		}
		if l.ch == '#' {
			l.skipComment()
		}
		if l.ch == '\n' {
			l.readChar()
			continue // blank line, re-measure
		}
		if l.ch == 0 {
			l.atLineStart = false
			return l.eofToken(), true
		}

		l.atLineStart = false
		current := l.indents[len(l.indents)-1]
		if width > current {
			l.indents = append(l.indents, width)
			return l.newToken(token.INDENT, ""), true
		}
		if width < current {
			for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
				l.indents = l.indents[:len(l.indents)-1]
				l.pending = append(l.pending, l.newToken(token.DEDENT, ""))
			}
			if l.indents[len(l.indents)-1] != width {
				l.pending = append(l.pending, l.newToken(token.ILLEGAL, "inconsistent indentation"))
			}
			tok := l.pending[0]
			l.pending = l.pending[1:]
			return tok, true
		}
		return token.Token{}, false
	}
}

// eofToken closes any open blocks before the final EOF.
func (l *Lexer) eofToken() token.Token {
	if len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		return l.newToken(token.DEDENT, "")
	}
	return l.newToken(token.EOF, "")
}

func (l *Lexer) skipSpacesAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '\\' && l.peekChar() == '\n' {
			l.readChar()
			l.readChar()
			continue
		}
		if l.ch == '#' {
			l.skipComment()
			continue
		}
		return
	}
}

func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) single(t token.TokenType) token.Token {
	tok := l.newToken(t, string(l.ch))
	l.readChar()
	return tok
}

func (l *Lexer) compound(t token.TokenType, next rune, t2 token.TokenType) token.Token {
	tok := l.tokenAt()
	if l.peekChar() == next {
		first := l.ch
		l.readChar()
		tok.Type = t2
		tok.Literal = string(first) + string(l.ch)
		l.readChar()
		return tok
	}
	tok.Type = t
	tok.Literal = string(l.ch)
	l.readChar()
	return tok
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() token.Token {
	tok := l.tokenAt()
	start := l.position
	typ := token.TokenType(token.INT)

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		tok.Type = token.INT
		tok.Literal = l.input[start:l.position]
		return tok
	}

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		typ = token.FLOAT
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	} else if l.ch == '.' && !isLetter(l.peekChar()) && l.peekChar() != '.' {
		typ = token.FLOAT
		l.readChar()
	}
	if l.ch == 'e' || l.ch == 'E' {
		peek := l.peekChar()
		if isDigit(peek) || peek == '+' || peek == '-' {
			typ = token.FLOAT
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	tok.Type = typ
	tok.Literal = l.input[start:l.position]
	return tok
}

func (l *Lexer) readString(quote rune, typ token.TokenType) token.Token {
	tok := l.tokenAt()
	tok.Type = typ

	// triple-quoted strings span lines verbatim
	if l.peekChar() == quote && l.peekTwo() == quote {
		l.readChar()
		l.readChar()
		l.readChar()
		start := l.position
		for {
			if l.ch == 0 {
				tok.Type = token.ILLEGAL
				tok.Literal = "unterminated string"
				return tok
			}
			if l.ch == quote && l.peekChar() == quote && l.peekTwo() == quote {
				break
			}
			l.readChar()
		}
		tok.Literal = l.input[start:l.position]
		l.readChar()
		l.readChar()
		l.readChar()
		return tok
	}

	l.readChar()
	var b strings.Builder
	for l.ch != quote {
		if l.ch == 0 || l.ch == '\n' {
			tok.Type = token.ILLEGAL
			tok.Literal = "unterminated string"
			return tok
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '\\':
				b.WriteRune('\\')
			case '"':
				b.WriteRune('"')
			case '\'':
				b.WriteRune('\'')
			case '0':
				b.WriteRune(0)
			default:
				b.WriteRune('\\')
				b.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar()
	tok.Literal = b.String()
	return tok
}

func (l *Lexer) peekTwo() rune {
	pos := l.readPosition
	if pos >= len(l.input) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.input[pos:])
	pos += size
	if pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos:])
	return r
}

func (l *Lexer) newToken(t token.TokenType, lit string) token.Token {
	return token.Token{Type: t, Literal: lit, Line: l.line, Col: l.col}
}

func (l *Lexer) tokenAt() token.Token {
	return token.Token{Line: l.line, Col: l.col}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
