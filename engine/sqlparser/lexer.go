package sqlparser

import (
	"strings"

	"github.com/pkg/errors"
)

// token 词法单元；quoted标记引号包裹的字符串字面量
// 行读尽时text为空且quoted为false
type token struct {
	text   string
	quoted bool
}

type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) skipSpaces() {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c != ' ' && c != '\t' {
			break
		}
		l.pos++
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpaces()
	if l.pos >= len(l.input) {
		return token{}, nil
	}

	c := l.input[l.pos]

	if c == '\'' || c == '"' {
		l.pos++
		start := l.pos
		for l.pos < len(l.input) && l.input[l.pos] != c {
			l.pos++
		}
		if l.pos >= len(l.input) {
			return token{}, errors.New("unterminated string literal")
		}
		text := l.input[start:l.pos]
		l.pos++
		return token{text: text, quoted: true}, nil
	}

	switch c {
	case '<':
		if l.pos+1 < len(l.input) && (l.input[l.pos+1] == '>' || l.input[l.pos+1] == '=') {
			l.pos += 2
			return token{text: l.input[l.pos-2 : l.pos]}, nil
		}
		l.pos++
		return token{text: "<"}, nil
	case '>':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return token{text: ">="}, nil
		}
		l.pos++
		return token{text: ">"}, nil
	case '!':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return token{text: "!="}, nil
		}
		return token{}, errors.New("unexpected '!'")
	case '=', '(', ')', '*', ',':
		l.pos++
		return token{text: string(c)}, nil
	}

	start := l.pos
	for l.pos < len(l.input) && !isDelimiter(l.input[l.pos]) {
		l.pos++
	}
	return token{text: l.input[start:l.pos]}, nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\'', '"', '<', '>', '!', '=', '(', ')', '*', ',':
		return true
	}
	return false
}

func (l *lexer) expectKeyword(keyword string) error {
	tok, err := l.next()
	if err != nil {
		return err
	}
	if !strings.EqualFold(tok.text, keyword) || tok.quoted {
		return errors.Errorf("expected %s, got %q", keyword, tok.text)
	}
	return nil
}

func (l *lexer) expectSeq(symbols ...string) error {
	for _, sym := range symbols {
		tok, err := l.next()
		if err != nil {
			return err
		}
		if tok.text != sym || tok.quoted {
			return errors.Errorf("expected %q, got %q", sym, tok.text)
		}
	}
	return nil
}
