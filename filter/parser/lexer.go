package parser

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	IDENTIFIER
	STRING
	NUMBER

	AND
	OR
	NOT
	IN
	IS
	NULL
	TRUE
	FALSE

	COMMA
	PAREN_OPEN
	PAREN_CLOSE
	EQ
	NEQ
	LT
	LTE
	GT
	GTE
)

var keywords = map[string]TokenType{
	"AND":   AND,
	"OR":    OR,
	"NOT":   NOT,
	"IN":    IN,
	"IS":    IS,
	"NULL":  NULL,
	"TRUE":  TRUE,
	"FALSE": FALSE,
}

type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

func (t Token) String() string {
	if t.Type == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q at %d", t.Literal, t.Pos)
}

type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	tok := Token{Pos: l.position}

	switch l.ch {
	case 0:
		tok.Type = EOF
		return tok
	case ',':
		tok.Type, tok.Literal = COMMA, ","
	case '(':
		tok.Type, tok.Literal = PAREN_OPEN, "("
	case ')':
		tok.Type, tok.Literal = PAREN_CLOSE, ")"
	case '=':
		tok.Type, tok.Literal = EQ, "="
		if l.peekChar() == '=' {
			l.readChar()
			tok.Literal = "=="
		}
	case '!':
		if l.peekChar() != '=' {
			tok.Type, tok.Literal = ILLEGAL, "!"
			break
		}
		l.readChar()
		tok.Type, tok.Literal = NEQ, "!="
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok.Type, tok.Literal = LTE, "<="
		case '>':
			l.readChar()
			tok.Type, tok.Literal = NEQ, "<>"
		default:
			tok.Type, tok.Literal = LT, "<"
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = GTE, ">="
		} else {
			tok.Type, tok.Literal = GT, ">"
		}
	case '\'':
		return l.readQuoted('\'', STRING, tok)
	case '"', '`':
		return l.readQuoted(l.ch, IDENTIFIER, tok)
	default:
		switch {
		case isLetter(l.ch):
			tok.Literal = l.readIdentifier()
			if kw, ok := keywords[strings.ToUpper(tok.Literal)]; ok {
				tok.Type = kw
			} else {
				tok.Type = IDENTIFIER
			}
			return tok
		case isDigit(l.ch) || ((l.ch == '-' || l.ch == '.') && (isDigit(l.peekChar()) || l.peekChar() == '.')):
			tok.Type = NUMBER
			tok.Literal = l.readNumber()
			return tok
		default:
			tok.Type, tok.Literal = ILLEGAL, string(l.ch)
		}
	}
	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[position:l.position]
}

// readQuoted reads a quoted string or identifier. A doubled quote stands
// for the quote itself.
func (l *Lexer) readQuoted(quote byte, t TokenType, tok Token) Token {
	var b strings.Builder
	for {
		l.readChar()
		switch {
		case l.ch == 0:
			tok.Type, tok.Literal = ILLEGAL, "unterminated quote"
			return tok
		case l.ch == quote && l.peekChar() == quote:
			b.WriteByte(quote)
			l.readChar()
		case l.ch == quote:
			l.readChar()
			tok.Type, tok.Literal = t, b.String()
			return tok
		default:
			b.WriteByte(l.ch)
		}
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
