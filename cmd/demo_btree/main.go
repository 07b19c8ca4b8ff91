package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zhukovaskychina/xbase-engine/engine/basic"
	"github.com/zhukovaskychina/xbase-engine/engine/btree"
	"github.com/zhukovaskychina/xbase-engine/logger"
)

// B+树索引演示：乱序插入一批键，展示分裂后的树结构和有序前向扫描
func main() {
	logger.InitLogger(logger.LogConfig{LogLevel: "debug"})

	dir, err := os.MkdirTemp("", "xbase-demo")
	if err != nil {
		fmt.Println("mkdir temp failed:", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	idxPath := filepath.Join(dir, "demo.idx")
	tree, err := btree.Open(idxPath, 'w')
	if err != nil {
		fmt.Println("open index failed:", err)
		os.Exit(1)
	}

	const n = 500
	for i := 0; i < n; i++ {
		key := int32((i*7919 + 13) % 10000)
		rid := basic.RecordId{Pid: int32(i / 7), Sid: int32(i % 7)}
		if err := tree.Insert(key, rid); err != nil {
			fmt.Printf("insert key %d failed: %v\n", key, err)
			os.Exit(1)
		}
	}

	fmt.Printf("inserted %d keys, height=%d rootPid=%d\n", n, tree.Height(), tree.RootPid())
	fmt.Println("tree structure:")
	tree.Dump(os.Stdout)

	var cur basic.IndexCursor
	if err := tree.Locate(-1<<31, &cur); err != nil && err != basic.ErrNoSuchRecord {
		fmt.Println("locate failed:", err)
		os.Exit(1)
	}

	scanned := 0
	prev := int32(-1 << 31)
	for cur.Pid > 0 {
		key, _, err := tree.ReadForward(&cur)
		if err == basic.ErrNoSuchRecord {
			break
		}
		if err != nil {
			fmt.Println("read forward failed:", err)
			os.Exit(1)
		}
		if key < prev {
			fmt.Printf("scan out of order at key %d\n", key)
			os.Exit(1)
		}
		prev = key
		scanned++
	}
	fmt.Printf("forward scan visited %d keys in order\n", scanned)

	if err := tree.Close(); err != nil {
		fmt.Println("close failed:", err)
		os.Exit(1)
	}
}
