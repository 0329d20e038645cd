package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"
	NEWLINE = "NEWLINE"
	INDENT  = "INDENT"
	DEDENT  = "DEDENT"

	// Identifiers + literals
	IDENT   = "IDENT"  // x, result, http
	INT     = "INT"    // 1343456
	FLOAT   = "FLOAT"  // 3.14
	STRING  = "STRING" // "foobar"
	FSTRING = "FSTRING"
	BYTES   = "BYTES" // b"abc"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	FLOORDIV = "//"
	PERCENT  = "%"

	PLUS_ASSIGN     = "+="
	MINUS_ASSIGN    = "-="
	ASTERISK_ASSIGN = "*="
	SLASH_ASSIGN    = "/="
	PERCENT_ASSIGN  = "%="

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	EQ     = "=="
	NOT_EQ = "!="

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	DEF      = "DEF"
	LAMBDA   = "LAMBDA"
	RETURN   = "RETURN"
	YIELD    = "YIELD"
	IF       = "IF"
	ELIF     = "ELIF"
	ELSE     = "ELSE"
	FOR      = "FOR"
	WHILE    = "WHILE"
	IN       = "IN"
	NOT      = "NOT"
	AND      = "AND"
	OR       = "OR"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	PASS     = "PASS"
	LOAD     = "LOAD"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	NONE     = "NONE"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int // 1-based source line
	Col     int // 1-based column of the token start
}

var keywords = map[string]TokenType{
	"def":      DEF,
	"lambda":   LAMBDA,
	"return":   RETURN,
	"yield":    YIELD,
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"for":      FOR,
	"while":    WHILE,
	"in":       IN,
	"not":      NOT,
	"and":      AND,
	"or":       OR,
	"break":    BREAK,
	"continue": CONTINUE,
	"pass":     PASS,
	"load":     LOAD,
	"True":     TRUE,
	"False":    FALSE,
	"None":     NONE,
}

// LookupIdent returns the keyword token type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
