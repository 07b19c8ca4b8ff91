package plan

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xbase-engine/engine/basic"
	"github.com/zhukovaskychina/xbase-engine/engine/btree"
	"github.com/zhukovaskychina/xbase-engine/engine/record"
)

// writeLoadFile 生成一份装载文件，一行一条 key,value
func writeLoadFile(t *testing.T, dir string, rows [][2]string) string {
	t.Helper()
	var sb strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&sb, "%s,%s\n", row[0], row[1])
	}
	path := filepath.Join(dir, "load.del")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
	return path
}

// newTestPlanner 装载一张表，返回执行器和输出缓冲
func newTestPlanner(t *testing.T, rows [][2]string, withIndex bool) (*Planner, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	out := &bytes.Buffer{}
	planner := NewPlanner(dir, out)

	loadFile := writeLoadFile(t, dir, rows)
	require.NoError(t, planner.Load(&LoadStatement{Table: "t", File: loadFile, WithIndex: withIndex}))
	out.Reset()
	return planner, out
}

func lines(buf *bytes.Buffer) []string {
	s := strings.TrimRight(buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestFoldKeyCondInterval(t *testing.T) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)

	empty, residual := foldKeyCond(SelCond{Attr: AttrKey, Comp: CompGE, Value: "10"}, &lo, &hi)
	assert.False(t, empty)
	assert.False(t, residual)
	empty, residual = foldKeyCond(SelCond{Attr: AttrKey, Comp: CompLE, Value: "20"}, &lo, &hi)
	assert.False(t, empty)
	assert.False(t, residual)
	assert.Equal(t, int64(10), lo)
	assert.Equal(t, int64(20), hi)

	// 区间内部的NE留作残余条件
	empty, residual = foldKeyCond(SelCond{Attr: AttrKey, Comp: CompNE, Value: "15"}, &lo, &hi)
	assert.False(t, empty)
	assert.True(t, residual)

	// 端点上的NE收缩区间
	empty, residual = foldKeyCond(SelCond{Attr: AttrKey, Comp: CompNE, Value: "10"}, &lo, &hi)
	assert.False(t, empty)
	assert.False(t, residual)
	assert.Equal(t, int64(11), lo)
}

func TestFoldKeyCondGtLt(t *testing.T) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)

	foldKeyCond(SelCond{Attr: AttrKey, Comp: CompGT, Value: "5"}, &lo, &hi)
	foldKeyCond(SelCond{Attr: AttrKey, Comp: CompLT, Value: "9"}, &lo, &hi)
	assert.Equal(t, int64(6), lo)
	assert.Equal(t, int64(8), hi)
}

func TestFoldKeyCondConflict(t *testing.T) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)

	empty, _ := foldKeyCond(SelCond{Attr: AttrKey, Comp: CompEQ, Value: "5"}, &lo, &hi)
	assert.False(t, empty)
	empty, _ = foldKeyCond(SelCond{Attr: AttrKey, Comp: CompEQ, Value: "7"}, &lo, &hi)
	assert.True(t, empty)
}

func TestFoldKeyCondOverflowSafe(t *testing.T) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)

	// INT_MAX上的GT不会回绕
	empty, _ := foldKeyCond(SelCond{Attr: AttrKey, Comp: CompGT, Value: "2147483647"}, &lo, &hi)
	assert.False(t, empty)
	assert.Equal(t, int64(math.MaxInt32)+1, lo)
}

func TestSelectHeapScan(t *testing.T) {
	planner, out := newTestPlanner(t, [][2]string{
		{"3", "cherry"}, {"1", "apple"}, {"2", "banana"},
	}, false)

	require.NoError(t, planner.Select(&SelectStatement{Attr: AttrBoth, Table: "t"}))
	assert.Equal(t, []string{"3 'cherry'", "1 'apple'", "2 'banana'"}, lines(out))
}

func TestSelectValueCondition(t *testing.T) {
	planner, out := newTestPlanner(t, [][2]string{
		{"1", "apple"}, {"2", "banana"}, {"3", "apple"},
	}, false)

	require.NoError(t, planner.Select(&SelectStatement{
		Attr:  AttrKey,
		Table: "t",
		Conds: []SelCond{{Attr: AttrValue, Comp: CompEQ, Value: "apple"}},
	}))
	assert.Equal(t, []string{"1", "3"}, lines(out))
}

func TestSelectIndexRangeWithNEResidual(t *testing.T) {
	planner, out := newTestPlanner(t, [][2]string{
		{"10", "a"}, {"15", "b"}, {"20", "c"}, {"25", "d"},
	}, true)

	// key>=10 and key<=20 and key<>15 折叠为[10,20]加一个NE残余
	require.NoError(t, planner.Select(&SelectStatement{
		Attr:  AttrKey,
		Table: "t",
		Conds: []SelCond{
			{Attr: AttrKey, Comp: CompGE, Value: "10"},
			{Attr: AttrKey, Comp: CompLE, Value: "20"},
			{Attr: AttrKey, Comp: CompNE, Value: "15"},
		},
	}))
	assert.Equal(t, []string{"10", "20"}, lines(out))
}

func TestSelectConflictingEquals(t *testing.T) {
	planner, out := newTestPlanner(t, [][2]string{
		{"5", "five"}, {"7", "seven"},
	}, true)

	require.NoError(t, planner.Select(&SelectStatement{
		Attr:  AttrCount,
		Table: "t",
		Conds: []SelCond{
			{Attr: AttrKey, Comp: CompEQ, Value: "5"},
			{Attr: AttrKey, Comp: CompEQ, Value: "7"},
		},
	}))
	assert.Equal(t, []string{"0"}, lines(out))
}

func TestSelectPointQueryViaIndex(t *testing.T) {
	rows := make([][2]string, 0, 300)
	for i := 0; i < 300; i++ {
		rows = append(rows, [2]string{fmt.Sprint(i * 2), fmt.Sprintf("v%d", i*2)})
	}
	planner, out := newTestPlanner(t, rows, true)

	require.NoError(t, planner.Select(&SelectStatement{
		Attr:  AttrBoth,
		Table: "t",
		Conds: []SelCond{{Attr: AttrKey, Comp: CompEQ, Value: "250"}},
	}))
	assert.Equal(t, []string{"250 'v250'"}, lines(out))

	// 落在键间隙上的点查没有结果
	out.Reset()
	require.NoError(t, planner.Select(&SelectStatement{
		Attr:  AttrBoth,
		Table: "t",
		Conds: []SelCond{{Attr: AttrKey, Comp: CompEQ, Value: "251"}},
	}))
	assert.Nil(t, lines(out))
}

func TestSelectRangeViaIndex(t *testing.T) {
	rows := make([][2]string, 0, 500)
	for i := 0; i < 500; i++ {
		rows = append(rows, [2]string{fmt.Sprint(i), fmt.Sprintf("v%d", i)})
	}
	planner, out := newTestPlanner(t, rows, true)

	require.NoError(t, planner.Select(&SelectStatement{
		Attr:  AttrKey,
		Table: "t",
		Conds: []SelCond{
			{Attr: AttrKey, Comp: CompGT, Value: "100"},
			{Attr: AttrKey, Comp: CompLE, Value: "105"},
		},
	}))
	assert.Equal(t, []string{"101", "102", "103", "104", "105"}, lines(out))
}

func TestSelectRangeGeneralResiduals(t *testing.T) {
	rows := make([][2]string, 0, 100)
	for i := 0; i < 100; i++ {
		value := "even"
		if i%2 == 1 {
			value = "odd"
		}
		rows = append(rows, [2]string{fmt.Sprint(i), value})
	}
	planner, out := newTestPlanner(t, rows, true)

	// 区间走索引，value条件逐条回堆判断
	require.NoError(t, planner.Select(&SelectStatement{
		Attr:  AttrBoth,
		Table: "t",
		Conds: []SelCond{
			{Attr: AttrKey, Comp: CompGE, Value: "10"},
			{Attr: AttrKey, Comp: CompLT, Value: "16"},
			{Attr: AttrValue, Comp: CompEQ, Value: "odd"},
		},
	}))
	assert.Equal(t, []string{"11 'odd'", "13 'odd'", "15 'odd'"}, lines(out))
}

func TestSelectCountProjection(t *testing.T) {
	rows := make([][2]string, 0, 50)
	for i := 0; i < 50; i++ {
		rows = append(rows, [2]string{fmt.Sprint(i), "x"})
	}
	planner, out := newTestPlanner(t, rows, true)

	require.NoError(t, planner.Select(&SelectStatement{
		Attr:  AttrCount,
		Table: "t",
		Conds: []SelCond{{Attr: AttrKey, Comp: CompGE, Value: "40"}},
	}))
	assert.Equal(t, []string{"10"}, lines(out))
}

func TestSelectBoundedRangeWithoutIndex(t *testing.T) {
	planner, out := newTestPlanner(t, [][2]string{
		{"1", "a"}, {"2", "b"}, {"3", "c"},
	}, false)

	// 没有索引文件时即使区间有界也走全堆扫描
	require.NoError(t, planner.Select(&SelectStatement{
		Attr:  AttrKey,
		Table: "t",
		Conds: []SelCond{{Attr: AttrKey, Comp: CompGE, Value: "2"}},
	}))
	assert.Equal(t, []string{"2", "3"}, lines(out))
}

func TestSelectMissingTable(t *testing.T) {
	planner := NewPlanner(t.TempDir(), &bytes.Buffer{})
	err := planner.Select(&SelectStatement{Attr: AttrKey, Table: "missing"})
	assert.Error(t, err)
}

func TestSelectInvalidAttr(t *testing.T) {
	planner := NewPlanner(t.TempDir(), &bytes.Buffer{})
	err := planner.Select(&SelectStatement{Attr: 9, Table: "t"})
	assert.Error(t, err)
}

func TestLoadBuildsHeapAndIndex(t *testing.T) {
	dir := t.TempDir()
	planner := NewPlanner(dir, &bytes.Buffer{})

	rows := make([][2]string, 0, 200)
	for i := 199; i >= 0; i-- {
		rows = append(rows, [2]string{fmt.Sprint(i), fmt.Sprintf("'val %d'", i)})
	}
	loadFile := writeLoadFile(t, dir, rows)
	require.NoError(t, planner.Load(&LoadStatement{Table: "t", File: loadFile, WithIndex: true}))

	rf, err := record.Open(filepath.Join(dir, "t.tbl"), 'r')
	require.NoError(t, err)
	defer rf.Close()
	key, value, err := rf.Read(basic.RecordId{Pid: 0, Sid: 0})
	require.NoError(t, err)
	assert.Equal(t, int32(199), key)
	assert.Equal(t, "val 199", value)

	tree, err := btree.Open(filepath.Join(dir, "t.idx"), 'r')
	require.NoError(t, err)
	defer tree.Close()
	assert.GreaterOrEqual(t, tree.Height(), int32(2))
}
