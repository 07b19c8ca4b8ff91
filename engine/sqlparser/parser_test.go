package sqlparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xbase-engine/engine/plan"
)

func TestParseSelectStar(t *testing.T) {
	stmt, err := ParseCommand("SELECT * FROM movie")
	require.NoError(t, err)

	sel, ok := stmt.(*plan.SelectStatement)
	require.True(t, ok)
	assert.Equal(t, plan.AttrBoth, sel.Attr)
	assert.Equal(t, "movie", sel.Table)
	assert.Empty(t, sel.Conds)
}

func TestParseSelectCount(t *testing.T) {
	stmt, err := ParseCommand("select count(*) from t where key >= 10 and key <= 20")
	require.NoError(t, err)

	sel, ok := stmt.(*plan.SelectStatement)
	require.True(t, ok)
	assert.Equal(t, plan.AttrCount, sel.Attr)
	require.Len(t, sel.Conds, 2)
	assert.Equal(t, plan.SelCond{Attr: plan.AttrKey, Comp: plan.CompGE, Value: "10"}, sel.Conds[0])
	assert.Equal(t, plan.SelCond{Attr: plan.AttrKey, Comp: plan.CompLE, Value: "20"}, sel.Conds[1])
}

func TestParseSelectConds(t *testing.T) {
	stmt, err := ParseCommand("select key from t where key <> 5 and value = 'some text'")
	require.NoError(t, err)

	sel, ok := stmt.(*plan.SelectStatement)
	require.True(t, ok)
	assert.Equal(t, plan.AttrKey, sel.Attr)
	require.Len(t, sel.Conds, 2)
	assert.Equal(t, plan.SelCond{Attr: plan.AttrKey, Comp: plan.CompNE, Value: "5"}, sel.Conds[0])
	assert.Equal(t, plan.SelCond{Attr: plan.AttrValue, Comp: plan.CompEQ, Value: "some text"}, sel.Conds[1])
}

func TestParseSelectNegativeLiteral(t *testing.T) {
	stmt, err := ParseCommand("select value from t where key > -100")
	require.NoError(t, err)

	sel, ok := stmt.(*plan.SelectStatement)
	require.True(t, ok)
	require.Len(t, sel.Conds, 1)
	assert.Equal(t, plan.SelCond{Attr: plan.AttrKey, Comp: plan.CompGT, Value: "-100"}, sel.Conds[0])
}

func TestParseLoad(t *testing.T) {
	stmt, err := ParseCommand("LOAD movie FROM 'movie.del' WITH INDEX")
	require.NoError(t, err)

	load, ok := stmt.(*plan.LoadStatement)
	require.True(t, ok)
	assert.Equal(t, "movie", load.Table)
	assert.Equal(t, "movie.del", load.File)
	assert.True(t, load.WithIndex)

	stmt, err = ParseCommand("load t from 'data.del'")
	require.NoError(t, err)
	load, ok = stmt.(*plan.LoadStatement)
	require.True(t, ok)
	assert.False(t, load.WithIndex)
}

func TestParseQuitAndEmpty(t *testing.T) {
	stmt, err := ParseCommand("quit")
	require.NoError(t, err)
	_, ok := stmt.(QuitStatement)
	assert.True(t, ok)

	stmt, err = ParseCommand("   ")
	require.NoError(t, err)
	assert.Nil(t, stmt)
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"frobnicate t",
		"select bogus from t",
		"select key from t where color = 'red'",
		"select key from t where key !! 3",
		"select key t",
		"load t 'file.del'",
		"select key from t where value = 'unterminated",
	} {
		_, err := ParseCommand(line)
		assert.Error(t, err, "line %q", line)
	}
}
