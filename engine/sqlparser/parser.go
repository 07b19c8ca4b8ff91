package sqlparser

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xbase-engine/engine/plan"
)

// QuitStatement 退出命令
type QuitStatement struct{}

// 命令语法（大小写不敏感的关键字）：
//   SELECT <proj> FROM <table> [WHERE <cond> [AND <cond>]...]
//   LOAD <table> FROM '<file>' [WITH INDEX]
//   QUIT | EXIT
// proj: * | key | value | count(*)
// cond: (key|value) (=|<>|!=|>|<|>=|<=) <literal>

// ParseCommand 解析一行命令，返回plan层的结构化语句
func ParseCommand(line string) (interface{}, error) {
	lex := newLexer(line)
	tok, err := lex.next()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(tok.text) {
	case "":
		return nil, nil
	case "quit", "exit":
		return QuitStatement{}, nil
	case "select":
		return parseSelect(lex)
	case "load":
		return parseLoad(lex)
	default:
		return nil, errors.Errorf("unknown command %q", tok.text)
	}
}

func parseSelect(lex *lexer) (*plan.SelectStatement, error) {
	stmt := &plan.SelectStatement{}

	tok, err := lex.next()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(tok.text) {
	case "*":
		stmt.Attr = plan.AttrBoth
	case "key":
		stmt.Attr = plan.AttrKey
	case "value":
		stmt.Attr = plan.AttrValue
	case "count":
		if err := lex.expectSeq("(", "*", ")"); err != nil {
			return nil, err
		}
		stmt.Attr = plan.AttrCount
	default:
		return nil, errors.Errorf("bad projection %q", tok.text)
	}

	if err := lex.expectKeyword("from"); err != nil {
		return nil, err
	}

	tok, err = lex.next()
	if err != nil {
		return nil, err
	}
	if tok.text == "" || tok.quoted {
		return nil, errors.New("missing table name")
	}
	stmt.Table = tok.text

	tok, err = lex.next()
	if err != nil {
		return nil, err
	}
	if tok.text == "" {
		return stmt, nil
	}
	if strings.ToLower(tok.text) != "where" {
		return nil, errors.Errorf("expected WHERE, got %q", tok.text)
	}

	for {
		cond, err := parseCond(lex)
		if err != nil {
			return nil, err
		}
		stmt.Conds = append(stmt.Conds, cond)

		tok, err = lex.next()
		if err != nil {
			return nil, err
		}
		if tok.text == "" {
			return stmt, nil
		}
		if strings.ToLower(tok.text) != "and" {
			return nil, errors.Errorf("expected AND, got %q", tok.text)
		}
	}
}

func parseCond(lex *lexer) (plan.SelCond, error) {
	var cond plan.SelCond

	tok, err := lex.next()
	if err != nil {
		return cond, err
	}
	switch strings.ToLower(tok.text) {
	case "key":
		cond.Attr = plan.AttrKey
	case "value":
		cond.Attr = plan.AttrValue
	default:
		return cond, errors.Errorf("bad condition attribute %q", tok.text)
	}

	tok, err = lex.next()
	if err != nil {
		return cond, err
	}
	switch tok.text {
	case "=":
		cond.Comp = plan.CompEQ
	case "<>", "!=":
		cond.Comp = plan.CompNE
	case ">":
		cond.Comp = plan.CompGT
	case "<":
		cond.Comp = plan.CompLT
	case ">=":
		cond.Comp = plan.CompGE
	case "<=":
		cond.Comp = plan.CompLE
	default:
		return cond, errors.Errorf("bad comparator %q", tok.text)
	}

	tok, err = lex.next()
	if err != nil {
		return cond, err
	}
	if tok.text == "" && !tok.quoted {
		return cond, errors.New("missing condition literal")
	}
	cond.Value = tok.text
	return cond, nil
}

func parseLoad(lex *lexer) (*plan.LoadStatement, error) {
	stmt := &plan.LoadStatement{}

	tok, err := lex.next()
	if err != nil {
		return nil, err
	}
	if tok.text == "" || tok.quoted {
		return nil, errors.New("missing table name")
	}
	stmt.Table = tok.text

	if err := lex.expectKeyword("from"); err != nil {
		return nil, err
	}

	tok, err = lex.next()
	if err != nil {
		return nil, err
	}
	if tok.text == "" {
		return nil, errors.New("missing load file name")
	}
	stmt.File = tok.text

	tok, err = lex.next()
	if err != nil {
		return nil, err
	}
	if tok.text == "" {
		return stmt, nil
	}
	if strings.ToLower(tok.text) != "with" {
		return nil, errors.Errorf("expected WITH, got %q", tok.text)
	}
	if err := lex.expectKeyword("index"); err != nil {
		return nil, err
	}
	stmt.WithIndex = true
	return stmt, nil
}
