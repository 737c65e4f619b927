package manifest

import (
	"fmt"
	"strings"
)

// tokenKind is the lexical class of a token.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokVar
	tokString
	tokInt
	tokFloat
	tokPunct
)

// token is one lexeme of a type expression. pos is the byte offset.
type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.text)
}

// Multi-character punctuation.
var puncts = []string{"::", "->", "=>", "[]"}

// lex splits expr into tokens.
func lex(expr string) ([]token, error) {
	var out []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'' || c == '"':
			s, n, err := lexString(expr, i)
			if err != nil {
				return nil, err
			}
			out = append(out, token{kind: tokString, text: s, pos: i})
			i = n
		case isDigit(c) || (c == '-' && i+1 < len(expr) && isDigit(expr[i+1])):
			start := i
			i++
			kind := tokInt
			for i < len(expr) && (isDigit(expr[i]) || expr[i] == '.' || expr[i] == '_') {
				if expr[i] == '.' {
					if i+1 < len(expr) && expr[i+1] == '.' {
						break
					}
					kind = tokFloat
				}
				i++
			}
			out = append(out, token{kind: kind, text: strings.ReplaceAll(expr[start:i], "_", ""), pos: start})
		case c == '$':
			start := i
			i++
			for i < len(expr) && isIdentChar(expr[i]) {
				i++
			}
			if i == start+1 {
				return nil, syntaxErrorf(expr, start, "missing variable name")
			}
			out = append(out, token{kind: tokVar, text: expr[start+1 : i], pos: start})
		case isIdentStart(c):
			start := i
			for i < len(expr) {
				if isIdentChar(expr[i]) {
					i++
					continue
				}
				// class-string, non-empty-string
				if expr[i] == '-' && i+1 < len(expr) && isLetter(expr[i+1]) {
					i++
					continue
				}
				break
			}
			out = append(out, token{kind: tokIdent, text: expr[start:i], pos: start})
		default:
			p := string(c)
			for _, multi := range puncts {
				if strings.HasPrefix(expr[i:], multi) {
					p = multi
					break
				}
			}
			if len(p) == 1 && !strings.Contains("<>,|?()[]{}:", p) {
				return nil, syntaxErrorf(expr, i, "unexpected character %q", c)
			}
			out = append(out, token{kind: tokPunct, text: p, pos: i})
			i += len(p)
		}
	}
	return append(out, token{kind: tokEOF, pos: len(expr)}), nil
}

// lexString reads a quoted string starting at expr[start]. Only the quote
// character and the backslash are escaped, so class names keep their
// namespace separators.
func lexString(expr string, start int) (string, int, error) {
	quote := expr[start]
	var b strings.Builder
	for i := start + 1; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\\' && i+1 < len(expr) && (expr[i+1] == quote || expr[i+1] == '\\'):
			b.WriteByte(expr[i+1])
			i++
		case c == quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, syntaxErrorf(expr, start, "unterminated string")
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isIdentStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '\\' || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
