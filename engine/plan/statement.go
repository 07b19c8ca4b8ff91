package plan

// 投影属性编号，与条件属性共用：key=1 value=2
const (
	AttrKey   = 1
	AttrValue = 2
	AttrBoth  = 3
	AttrCount = 4
)

// CompOp 比较运算符
type CompOp int

const (
	CompEQ CompOp = iota
	CompNE
	CompGT
	CompLT
	CompGE
	CompLE
)

func (op CompOp) String() string {
	switch op {
	case CompEQ:
		return "="
	case CompNE:
		return "<>"
	case CompGT:
		return ">"
	case CompLT:
		return "<"
	case CompGE:
		return ">="
	case CompLE:
		return "<="
	}
	return "?"
}

// SelCond 单个选择条件，所有条件之间为AND关系
// Attr取AttrKey或AttrValue，Value为字面量原文
type SelCond struct {
	Attr  int
	Comp  CompOp
	Value string
}

// SelectStatement 结构化的SELECT语句
type SelectStatement struct {
	Attr  int
	Table string
	Conds []SelCond
}

// LoadStatement 结构化的LOAD语句
type LoadStatement struct {
	Table     string
	File      string
	WithIndex bool
}
