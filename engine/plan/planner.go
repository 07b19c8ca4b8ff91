package plan

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/zhukovaskychina/xbase-engine/engine/basic"
	"github.com/zhukovaskychina/xbase-engine/engine/btree"
	"github.com/zhukovaskychina/xbase-engine/engine/record"
	"github.com/zhukovaskychina/xbase-engine/logger"
	"github.com/zhukovaskychina/xbase-engine/util"
)

// Planner 选择执行器
// 把key上的条件折叠为整数区间，再决定走索引区间扫描还是全堆扫描
type Planner struct {
	dataDir string
	out     io.Writer
}

// NewPlanner 创建执行器，查询结果写入out
func NewPlanner(dataDir string, out io.Writer) *Planner {
	return &Planner{dataDir: dataDir, out: out}
}

func (p *Planner) tablePath(table string) string {
	return filepath.Join(p.dataDir, table+".tbl")
}

func (p *Planner) indexPath(table string) string {
	return filepath.Join(p.dataDir, table+".idx")
}

// Select 执行一条SELECT
// 折叠区间为空时不读堆直接出0条结果
func (p *Planner) Select(stmt *SelectStatement) error {
	if stmt.Attr < AttrKey || stmt.Attr > AttrCount {
		return basic.ErrInvalidAttribute
	}

	rf, err := record.Open(p.tablePath(stmt.Table), 'r')
	if err != nil {
		logger.Errorf("table %s does not exist", stmt.Table)
		return err
	}

	count, err := p.dispatch(rf, stmt)

	if cerr := rf.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if stmt.Attr == AttrCount {
		fmt.Fprintf(p.out, "%d\n", count)
	}
	return nil
}

// dispatch 折叠key条件并选择扫描路径
func (p *Planner) dispatch(rf *record.RecordFile, stmt *SelectStatement) (int, error) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	residual := make([]SelCond, 0, len(stmt.Conds))
	numNEKey := 0
	empty := false

	for _, cond := range stmt.Conds {
		switch cond.Attr {
		case AttrKey:
			condEmpty, condResidual := foldKeyCond(cond, &lo, &hi)
			if condEmpty {
				empty = true
			}
			if condResidual {
				residual = append(residual, cond)
				numNEKey++
			}
		case AttrValue:
			residual = append(residual, cond)
		default:
			return 0, basic.ErrInvalidAttribute
		}
	}

	// NE收缩端点后区间可能翻转；超出int32域的区间也不可能有键命中
	if lo > hi || lo > math.MaxInt32 || hi < math.MinInt32 {
		empty = true
	}

	if empty {
		return 0, nil
	}

	if lo == math.MinInt64 && hi == math.MaxInt64 {
		// key上没有任何区间约束，索引帮不上忙
		return p.fullHeapScan(rf, stmt.Conds, stmt.Attr)
	}

	idxPath := p.indexPath(stmt.Table)
	if exists, _ := util.PathExists(idxPath); !exists {
		return p.fullHeapScan(rf, stmt.Conds, stmt.Attr)
	}

	tree, err := btree.Open(idxPath, 'r')
	if err != nil {
		logger.Warnf("index %s unusable, falling back to heap scan: %v", idxPath, err)
		return p.fullHeapScan(rf, stmt.Conds, stmt.Attr)
	}

	loKey := int32(max64(lo, math.MinInt32))
	hiKey := int32(min64(hi, math.MaxInt32))

	var count int
	switch {
	case len(residual) == 0 && stmt.Attr == AttrKey:
		count, err = p.indexScanKeysOnly(tree, loKey, hiKey, nil)
	case numNEKey == len(residual) && stmt.Attr == AttrKey:
		// 残余条件全是key上的不等条件，仍然不用回堆
		count, err = p.indexScanKeysOnly(tree, loKey, hiKey, neKeys(residual))
	default:
		count, err = p.indexScanGeneral(tree, rf, loKey, hiKey, residual, stmt.Attr)
	}

	if cerr := tree.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return count, err
}

// foldKeyCond 把一个key条件折叠进[lo, hi]区间
// 返回 (区间是否已为空, 条件是否要保留为残余条件)
func foldKeyCond(cond SelCond, lo, hi *int64) (bool, bool) {
	val := atoi64(cond.Value)

	switch cond.Comp {
	case CompEQ:
		if val < *lo || val > *hi {
			return true, false
		}
		*lo, *hi = val, val

	case CompNE:
		if val > *lo && val < *hi {
			// 落在区间内部，留到逐条目判断
			return false, true
		}
		if val == *lo && val == *hi {
			return true, false
		}
		if val == *lo {
			*lo++
		} else if val == *hi {
			*hi--
		}

	case CompGT, CompGE:
		if cond.Comp == CompGT {
			val++
		}
		if val > *hi {
			return true, false
		}
		if val > *lo {
			*lo = val
		}

	case CompLT, CompLE:
		if cond.Comp == CompLT {
			val--
		}
		if val < *lo {
			return true, false
		}
		if val < *hi {
			*hi = val
		}
	}
	return false, false
}

// fullHeapScan 从头扫描堆文件，逐条评估全部条件
func (p *Planner) fullHeapScan(rf *record.RecordFile, conds []SelCond, attr int) (int, error) {
	count := 0
	end := rf.EndRid()
	for rid := (basic.RecordId{}); rid.Less(end); rid = rid.Next(record.RecordsPerPage) {
		key, value, err := rf.Read(rid)
		if err != nil {
			logger.Errorf("error while reading tuple %v from table: %v", rid, err)
			return count, err
		}
		if !checkConditions(conds, key, value) {
			continue
		}
		count++
		p.printTuple(attr, key, value)
	}
	return count, nil
}

// indexScanKeysOnly 纯索引区间扫描，不回堆
// skipKeys非空时跳过其中的键（key上的NE残余条件）
func (p *Planner) indexScanKeysOnly(tree *btree.BPlusTreeIndex, loKey, hiKey int32, skipKeys []int64) (int, error) {
	cur, err := p.locateStart(tree, loKey)
	if err != nil {
		return 0, err
	}

	count := 0
	for cur.Pid > 0 {
		key, _, err := tree.ReadForward(&cur)
		if err == basic.ErrNoSuchRecord {
			break
		}
		if err != nil {
			return count, err
		}
		if key > hiKey {
			break
		}
		if containsKey(skipKeys, int64(key)) {
			continue
		}
		count++
		p.printTuple(AttrKey, key, "")
	}
	return count, nil
}

// indexScanGeneral 索引定界，逐条回堆读值并评估残余条件
func (p *Planner) indexScanGeneral(tree *btree.BPlusTreeIndex, rf *record.RecordFile, loKey, hiKey int32, residual []SelCond, attr int) (int, error) {
	cur, err := p.locateStart(tree, loKey)
	if err != nil {
		return 0, err
	}

	count := 0
	for cur.Pid > 0 {
		key, rid, err := tree.ReadForward(&cur)
		if err == basic.ErrNoSuchRecord {
			break
		}
		if err != nil {
			return count, err
		}
		if key > hiKey {
			break
		}

		key, value, err := rf.Read(rid)
		if err != nil {
			logger.Errorf("error while reading tuple %v from table: %v", rid, err)
			return count, err
		}
		if !checkConditions(residual, key, value) {
			continue
		}
		count++
		p.printTuple(attr, key, value)
	}
	return count, nil
}

// locateStart 把游标定位到区间下界
// 未命中不是错误，游标已停在第一个不小于下界的条目上
func (p *Planner) locateStart(tree *btree.BPlusTreeIndex, loKey int32) (basic.IndexCursor, error) {
	var cur basic.IndexCursor
	err := tree.Locate(loKey, &cur)
	if err != nil && err != basic.ErrNoSuchRecord {
		return cur, err
	}
	return cur, nil
}

// checkConditions 对一条元组评估条件合取
func checkConditions(conds []SelCond, key int32, value string) bool {
	for _, cond := range conds {
		var diff int64
		switch cond.Attr {
		case AttrKey:
			diff = int64(key) - atoi64(cond.Value)
		case AttrValue:
			diff = int64(strings.Compare(value, cond.Value))
		default:
			return false
		}
		if !matchComp(cond.Comp, diff) {
			return false
		}
	}
	return true
}

// matchComp 以 元组值-条件值 的差判断单个比较是否成立
func matchComp(op CompOp, diff int64) bool {
	switch op {
	case CompEQ:
		return diff == 0
	case CompNE:
		return diff != 0
	case CompGT:
		return diff > 0
	case CompLT:
		return diff < 0
	case CompGE:
		return diff >= 0
	case CompLE:
		return diff <= 0
	}
	return false
}

func (p *Planner) printTuple(attr int, key int32, value string) {
	switch attr {
	case AttrKey:
		fmt.Fprintf(p.out, "%d\n", key)
	case AttrValue:
		fmt.Fprintf(p.out, "%s\n", value)
	case AttrBoth:
		fmt.Fprintf(p.out, "%d '%s'\n", key, value)
	}
}

func neKeys(residual []SelCond) []int64 {
	keys := make([]int64, 0, len(residual))
	for _, cond := range residual {
		keys = append(keys, atoi64(cond.Value))
	}
	return keys
}

func containsKey(keys []int64, key int64) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// atoi64 按C的atol语义解析前缀整数，无合法前缀时为0
func atoi64(s string) int64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}

	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	var v int64
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		v = v*10 + int64(s[i]-'0')
		i++
	}
	if neg {
		return -v
	}
	return v
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
