package term

import (
	"strings"

	"gitlab.com/tinyland/lab/oasis/pkg/fault"
)

// token is one tokenizer output. Operator tokens carry the operator
// text; word tokens carry the assembled text plus quoting metadata
// that drives later expansion stages.
type token struct {
	text string
	op   bool
	// quoted is true when any part of the word was quoted; quoted
	// words never glob-expand.
	quoted bool
	// literal is true when the whole word was single-quoted; literal
	// words skip variable expansion (already skipped at tokenize time)
	// and alias substitution.
	literal bool
}

// operators, longest first so "&&" wins over a would-be "&".
var operatorSet = []string{"&&", "||", ">>", ";", "|", ">"}

// tokenize splits a raw line into word and operator tokens. Variable
// expansion happens inline for unquoted and double-quoted regions via
// lookup; single-quoted regions are preserved byte for byte.
//
// Quoting rules:
//   - 'x'  : verbatim until the closing quote
//   - "x"  : $VAR expands; \" \\ \$ escape
//   - \x   : escapes the next byte outside quotes
//
// An unterminated quote is a parse fault.
func tokenize(line string, lookup func(string) string) ([]token, error) {
	var tokens []token
	var cur strings.Builder
	curQuoted := false
	curLiteral := true
	started := false

	flush := func() {
		if !started {
			return
		}
		// An unquoted word that expanded to nothing disappears, the
		// way $UNSET does in a shell.
		if cur.Len() == 0 && !curQuoted {
			cur.Reset()
			curQuoted = false
			curLiteral = true
			started = false
			return
		}
		tokens = append(tokens, token{
			text:    cur.String(),
			quoted:  curQuoted,
			literal: curLiteral && curQuoted,
		})
		cur.Reset()
		curQuoted = false
		curLiteral = true
		started = false
	}

	i := 0
	for i < len(line) {
		c := line[i]

		if c == ' ' || c == '\t' {
			flush()
			i++
			continue
		}

		// Operators end the current word.
		if op, n := matchOperator(line[i:]); n > 0 {
			flush()
			tokens = append(tokens, token{text: op, op: true})
			i += n
			continue
		}

		started = true
		switch c {
		case '\'':
			end := strings.IndexByte(line[i+1:], '\'')
			if end < 0 {
				return nil, fault.Newf(fault.Parse, line, "unterminated single quote")
			}
			cur.WriteString(line[i+1 : i+1+end])
			curQuoted = true
			i += end + 2
		case '"':
			consumed, text, err := scanDoubleQuoted(line[i:], lookup)
			if err != nil {
				return nil, err
			}
			cur.WriteString(text)
			curQuoted = true
			curLiteral = false
			i += consumed
		case '\\':
			if i+1 >= len(line) {
				return nil, fault.Newf(fault.Parse, line, "trailing backslash")
			}
			cur.WriteByte(line[i+1])
			curLiteral = false
			i += 2
		case '$':
			name, n := scanVarName(line[i+1:])
			if n == 0 {
				cur.WriteByte('$')
				i++
			} else {
				cur.WriteString(lookup(name))
				curLiteral = false
				i += 1 + n
			}
		default:
			cur.WriteByte(c)
			curLiteral = false
			i++
		}
	}
	flush()
	return tokens, nil
}

// matchOperator reports the operator at the head of s, if any.
func matchOperator(s string) (string, int) {
	for _, op := range operatorSet {
		if strings.HasPrefix(s, op) {
			return op, len(op)
		}
	}
	return "", 0
}

// scanDoubleQuoted consumes a "..." region starting at s[0] == '"'.
// Returns bytes consumed and the expanded content.
func scanDoubleQuoted(s string, lookup func(string) string) (int, string, error) {
	var b strings.Builder
	i := 1
	for i < len(s) {
		switch s[i] {
		case '"':
			return i + 1, b.String(), nil
		case '\\':
			if i+1 < len(s) {
				switch s[i+1] {
				case '"', '\\', '$':
					b.WriteByte(s[i+1])
					i += 2
					continue
				}
			}
			b.WriteByte('\\')
			i++
		case '$':
			name, n := scanVarName(s[i+1:])
			if n == 0 {
				b.WriteByte('$')
				i++
			} else {
				b.WriteString(lookup(name))
				i += 1 + n
			}
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return 0, "", fault.Newf(fault.Parse, s, "unterminated double quote")
}

// scanVarName consumes a variable name after '$': either one of the
// special single characters or an identifier run.
func scanVarName(s string) (string, int) {
	if s == "" {
		return "", 0
	}
	if s[0] == '?' {
		return "?", 1
	}
	n := 0
	for n < len(s) && (isAlnum(s[n]) || s[n] == '_') {
		n++
	}
	return s[:n], n
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
