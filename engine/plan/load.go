package plan

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xbase-engine/engine/basic"
	"github.com/zhukovaskychina/xbase-engine/engine/btree"
	"github.com/zhukovaskychina/xbase-engine/engine/record"
	"github.com/zhukovaskychina/xbase-engine/logger"
)

// Load 执行一条LOAD：逐行解析装载文件，追加进堆文件，
// 需要时同步插入索引。首个错误即中止，文件照常关闭，不回滚
func (p *Planner) Load(stmt *LoadStatement) error {
	f, err := os.Open(stmt.File)
	if err != nil {
		logger.Errorf("error opening load file %s: %v", stmt.File, err)
		return basic.ErrFileOpenFailed
	}
	defer f.Close()

	rf, err := record.Open(p.tablePath(stmt.Table), 'w')
	if err != nil {
		logger.Errorf("error opening table %s: %v", stmt.Table, err)
		return err
	}

	var tree *btree.BPlusTreeIndex
	if stmt.WithIndex {
		tree, err = btree.Open(p.indexPath(stmt.Table), 'w')
		if err != nil {
			logger.Errorf("error opening index for %s: %v", stmt.Table, err)
			rf.Close()
			return err
		}
	}

	loaded := 0
	scanner := bufio.NewScanner(f)
	for err == nil && scanner.Scan() {
		var key int32
		var value string

		key, value, err = ParseLoadLine(scanner.Text())
		if err != nil {
			logger.Errorf("error while reading a line from %s: %v", stmt.File, err)
			break
		}

		var rid basic.RecordId
		rid, err = rf.Append(key, value)
		if err != nil {
			logger.Errorf("error while inserting a tuple into table %s: %v", stmt.Table, err)
			break
		}

		if tree != nil {
			if err = tree.Insert(key, rid); err != nil {
				logger.Errorf("error while inserting into index %s: %v", stmt.Table, err)
				break
			}
		}
		loaded++
	}
	if err == nil {
		if serr := scanner.Err(); serr != nil {
			logger.Errorf("error while reading %s: %v", stmt.File, serr)
			err = basic.ErrFileReadFailed
		}
	}

	if tree != nil {
		if cerr := tree.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if cerr := rf.Close(); cerr != nil && err == nil {
		err = cerr
	}

	if err == nil {
		logger.Infof("loaded %d tuples into table %s", loaded, stmt.Table)
	}
	return err
}

// ParseLoadLine 解析一行装载数据：<整数key> , <value>
// 逗号后的空白被跳过；value可用单双引号包住，否则取到行尾；
// value可缺省。缺少逗号返回 ErrInvalidFileFormat
func ParseLoadLine(line string) (int32, string, error) {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}

	key := int32(atoi64(line[i:]))

	ci := strings.IndexByte(line[i:], ',')
	if ci < 0 {
		return 0, "", errors.WithMessagef(basic.ErrInvalidFileFormat, "no comma in line %q", line)
	}

	j := i + ci + 1
	for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
		j++
	}
	if j >= len(line) {
		return key, "", nil
	}

	if c := line[j]; c == '\'' || c == '"' {
		value := line[j+1:]
		if loc := strings.IndexByte(value, c); loc >= 0 {
			value = value[:loc]
		}
		return key, value, nil
	}
	return key, line[j:], nil
}
