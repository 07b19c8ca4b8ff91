package btree

import (
	"fmt"
	"io"

	"github.com/zhukovaskychina/xbase-engine/engine/basic"
	"github.com/zhukovaskychina/xbase-engine/engine/pagestore"
	"github.com/zhukovaskychina/xbase-engine/logger"
	"github.com/zhukovaskychina/xbase-engine/util"
)

// 元数据页（0号页）布局：根页号 int32、树高 int32，其余填零
const (
	metaPid       basic.PageId = 0
	metaRootOff                = 0
	metaHeightOff              = 4
)

// splitPromo 下层分裂后向上层传递的提升信息
type splitPromo struct {
	keyUp  int32
	newPid basic.PageId
}

// BPlusTreeIndex 盘上B+树索引，键为int32，值为RecordId
// 页在写入时按endPid顺序分配，只增不回收
type BPlusTreeIndex struct {
	pf      *pagestore.PageFile
	rootPid basic.PageId
	height  int32
}

// Open 打开索引文件
// 文件为空时写入初始元数据页（rootPid=-1, height=0），否则从0号页恢复
func Open(name string, mode byte) (*BPlusTreeIndex, error) {
	pf, err := pagestore.Open(name, mode)
	if err != nil {
		return nil, err
	}

	t := &BPlusTreeIndex{
		pf:      pf,
		rootPid: basic.InvalidPageId,
		height:  0,
	}

	buf := make([]byte, basic.PageSize)
	if pf.EndPid() == 0 {
		util.WriteI32At(buf, metaRootOff, t.rootPid)
		util.WriteI32At(buf, metaHeightOff, t.height)
		if err := pf.Write(metaPid, buf); err != nil {
			pf.Close()
			return nil, err
		}
	} else {
		if err := pf.Read(metaPid, buf); err != nil {
			pf.Close()
			return nil, err
		}
		t.rootPid = util.ReadI32At(buf, metaRootOff)
		t.height = util.ReadI32At(buf, metaHeightOff)
	}

	return t, nil
}

// Close 把元数据写回0号页并关闭页文件
// 只读打开的索引没有待落盘的元数据，直接关闭
func (t *BPlusTreeIndex) Close() error {
	if !t.pf.Writable() {
		return t.pf.Close()
	}

	buf := make([]byte, basic.PageSize)
	util.WriteI32At(buf, metaRootOff, t.rootPid)
	util.WriteI32At(buf, metaHeightOff, t.height)

	if err := t.pf.Write(metaPid, buf); err != nil {
		t.pf.Close()
		return err
	}
	return t.pf.Close()
}

// Height 返回树高，0表示空树
func (t *BPlusTreeIndex) Height() int32 {
	return t.height
}

// RootPid 返回根页号
func (t *BPlusTreeIndex) RootPid() basic.PageId {
	return t.rootPid
}

// Insert 插入 (key, rid)，键重复返回 ErrDuplicateKey
// 写顺序保证子先于父：分裂出的兄弟页先落盘，新根最后落盘
func (t *BPlusTreeIndex) Insert(key int32, rid basic.RecordId) error {
	if t.height == 0 {
		node := NewLeafNode()
		if err := node.Insert(key, rid); err != nil {
			return err
		}

		t.rootPid = t.pf.EndPid()
		if err := node.Write(t.rootPid, t.pf); err != nil {
			return err
		}
		t.height = 1
		return nil
	}

	promo, err := t.insertNode(t.rootPid, 1, key, rid)
	if err != nil {
		return err
	}

	if promo != nil {
		// 根分裂，长出新的一层
		newRoot := NewInternalNode()
		newRoot.InitRoot(t.rootPid, promo.keyUp, promo.newPid)

		t.rootPid = t.pf.EndPid()
		if err := newRoot.Write(t.rootPid, t.pf); err != nil {
			return err
		}
		t.height++
		logger.Debugf("btree root grown: rootPid=%d height=%d", t.rootPid, t.height)
	}
	return nil
}

// insertNode 从level层的pid节点递归下降插入
// 返回nil表示本层未分裂；否则携带上推键与新兄弟页号
func (t *BPlusTreeIndex) insertNode(pid basic.PageId, level int32, key int32, rid basic.RecordId) (*splitPromo, error) {
	if level == t.height {
		return t.insertLeaf(pid, key, rid)
	}

	node := NewInternalNode()
	if err := node.Read(pid, t.pf); err != nil {
		return nil, err
	}

	childPid := node.LocateChildPtr(key)
	promo, err := t.insertNode(childPid, level+1, key, rid)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, nil
	}

	// 子节点分裂，把上推键挂进本节点
	err = node.Insert(promo.keyUp, promo.newPid)
	switch err {
	case nil:
		promo = nil
	case basic.ErrNodeFull:
		sibling := NewInternalNode()
		midKey, serr := node.InsertAndSplit(promo.keyUp, promo.newPid, sibling)
		if serr != nil {
			return nil, serr
		}

		newPid := t.pf.EndPid()
		if werr := sibling.Write(newPid, t.pf); werr != nil {
			return nil, werr
		}
		logger.Debugf("btree internal split: pid=%d newPid=%d midKey=%d", pid, newPid, midKey)
		promo = &splitPromo{keyUp: midKey, newPid: newPid}
	default:
		return nil, err
	}

	if err := node.Write(pid, t.pf); err != nil {
		return nil, err
	}
	return promo, nil
}

// insertLeaf 在叶子层执行插入，满则分裂
func (t *BPlusTreeIndex) insertLeaf(pid basic.PageId, key int32, rid basic.RecordId) (*splitPromo, error) {
	node := NewLeafNode()
	if err := node.Read(pid, t.pf); err != nil {
		return nil, err
	}

	var promo *splitPromo

	err := node.Insert(key, rid)
	switch err {
	case nil:
	case basic.ErrNodeFull:
		sibling := NewLeafNode()
		siblingKey, serr := node.InsertAndSplit(key, rid, sibling)
		if serr != nil {
			return nil, serr
		}

		newPid := t.pf.EndPid()
		sibling.SetNextPtr(node.NextPtr())
		node.SetNextPtr(newPid)
		if werr := sibling.Write(newPid, t.pf); werr != nil {
			return nil, werr
		}
		logger.Debugf("btree leaf split: pid=%d newPid=%d siblingKey=%d", pid, newPid, siblingKey)
		promo = &splitPromo{keyUp: siblingKey, newPid: newPid}
	default:
		return nil, err
	}

	if err := node.Write(pid, t.pf); err != nil {
		return nil, err
	}
	return promo, nil
}

// Locate 定位searchKey所在的叶子条目
// 命中时游标指向该条目并返回nil；未命中时游标停在同一叶子内第一个
// 大于searchKey的条目上（可能一过末尾）并返回 ErrNoSuchRecord
func (t *BPlusTreeIndex) Locate(searchKey int32, cursor *basic.IndexCursor) error {
	if t.height == 0 {
		return basic.ErrNoSuchRecord
	}

	pid := t.rootPid
	node := NewInternalNode()
	for i := int32(1); i < t.height; i++ {
		if err := node.Read(pid, t.pf); err != nil {
			return err
		}
		pid = node.LocateChildPtr(searchKey)
	}

	leaf := NewLeafNode()
	if err := leaf.Read(pid, t.pf); err != nil {
		return err
	}

	eid, found := leaf.Locate(searchKey)
	cursor.Pid = pid
	cursor.Eid = eid
	if !found {
		return basic.ErrNoSuchRecord
	}
	return nil
}

// ReadForward 读取游标处的 (key, rid) 并把游标推进一格
// 当前叶子读尽时跳到右兄弟；读完最后一个条目后游标的Pid为链表末尾标记，
// 调用方以 Pid <= 0 识别扫描结束（此时再调用返回 ErrInvalidCursor）。
// 游标停在最右叶子末尾之后时返回 ErrNoSuchRecord
func (t *BPlusTreeIndex) ReadForward(cursor *basic.IndexCursor) (int32, basic.RecordId, error) {
	if cursor.Pid <= 0 || cursor.Eid < 0 {
		return 0, basic.RecordId{}, basic.ErrInvalidCursor
	}

	node := NewLeafNode()
	if err := node.Read(cursor.Pid, t.pf); err != nil {
		return 0, basic.RecordId{}, err
	}

	// Locate未命中可能把游标停在叶子末尾之后，先跳到右兄弟
	if cursor.Eid >= node.KeyCount() {
		next := node.NextPtr()
		cursor.Pid = next
		cursor.Eid = 0
		if next <= 0 {
			return 0, basic.RecordId{}, basic.ErrNoSuchRecord
		}
		if err := node.Read(next, t.pf); err != nil {
			return 0, basic.RecordId{}, err
		}
	}

	key, rid, err := node.ReadEntry(cursor.Eid)
	if err != nil {
		return 0, basic.RecordId{}, err
	}

	cursor.Eid++
	if cursor.Eid >= node.KeyCount() {
		cursor.Pid = node.NextPtr()
		cursor.Eid = 0
	}
	return key, rid, nil
}

// Dump 把树的结构按层写入w，调试用
func (t *BPlusTreeIndex) Dump(w io.Writer) error {
	if t.height == 0 {
		fmt.Fprintln(w, "(empty)")
		return nil
	}
	return t.dumpNode(w, t.rootPid, 1)
}

func (t *BPlusTreeIndex) dumpNode(w io.Writer, pid basic.PageId, level int32) error {
	if level == t.height {
		leaf := NewLeafNode()
		if err := leaf.Read(pid, t.pf); err != nil {
			return err
		}
		fmt.Fprintf(w, "leaf %d:", pid)
		for i := int32(0); i < leaf.KeyCount(); i++ {
			key, _, err := leaf.ReadEntry(i)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, " %d", key)
		}
		fmt.Fprintln(w)
		return nil
	}

	node := NewInternalNode()
	if err := node.Read(pid, t.pf); err != nil {
		return err
	}
	fmt.Fprintf(w, "node %d:", pid)
	for i := int32(0); i < node.KeyCount(); i++ {
		fmt.Fprintf(w, " %d", node.keyAt(i))
	}
	fmt.Fprintln(w)

	for j := int32(0); j <= node.KeyCount(); j++ {
		if err := t.dumpNode(w, node.childAt(j), level+1); err != nil {
			return err
		}
	}
	return nil
}
