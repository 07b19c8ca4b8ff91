package btree

import (
	"github.com/zhukovaskychina/xbase-engine/engine/basic"
	"github.com/zhukovaskychina/xbase-engine/engine/pagestore"
	"github.com/zhukovaskychina/xbase-engine/util"
)

// 节点页布局常量
// 叶子页：[0,4) 条目数，4起每条目 (RecordId, key)，页尾4字节为右兄弟页号
// 非叶子页：[0,4) 键数，[4,8) 最左子页号，8起每条目 (key, 子页号)
const (
	pageIdSize   = 4
	recordIdSize = 8

	LeafEntrySize  = recordIdSize + 4
	EntriesPerPage = (basic.PageSize - 4 - pageIdSize) / LeafEntrySize

	InternalEntrySize = 4 + pageIdSize
	KeysPerPage       = (basic.PageSize - 4 - pageIdSize) / InternalEntrySize

	leafEntryBase   = 4
	leafNextPtrOff  = basic.PageSize - pageIdSize
	internalP0Off   = 4
	internalEntBase = 4 + pageIdSize
)

// LeafNode 叶子节点，持有一页大小的缓冲区
// 条目按key严格升序存放
type LeafNode struct {
	buf []byte
}

// NewLeafNode 创建空叶子节点，右兄弟指针置为无效
func NewLeafNode() *LeafNode {
	n := &LeafNode{buf: make([]byte, basic.PageSize)}
	n.SetNextPtr(basic.InvalidPageId)
	return n
}

// Read 从页文件读入pid页的内容
func (n *LeafNode) Read(pid basic.PageId, pf *pagestore.PageFile) error {
	return pf.Read(pid, n.buf)
}

// Write 把节点内容写回pid页
func (n *LeafNode) Write(pid basic.PageId, pf *pagestore.PageFile) error {
	return pf.Write(pid, n.buf)
}

// KeyCount 返回节点内条目数
func (n *LeafNode) KeyCount() int32 {
	return util.ReadI32At(n.buf, 0)
}

func (n *LeafNode) setKeyCount(count int32) {
	util.WriteI32At(n.buf, 0, count)
}

func (n *LeafNode) entryOff(eid int32) int {
	return leafEntryBase + int(eid)*LeafEntrySize
}

// Locate 在节点内查找searchKey
// 命中返回 (条目序号, true)；未命中返回第一个大于searchKey的条目序号，
// 可能等于条目数（即一过末尾）
func (n *LeafNode) Locate(searchKey int32) (int32, bool) {
	count := n.KeyCount()
	var i int32
	for i = 0; i < count; i++ {
		key := util.ReadI32At(n.buf, n.entryOff(i)+recordIdSize)
		if key == searchKey {
			return i, true
		}
		if key > searchKey {
			break
		}
	}
	return i, false
}

// ReadEntry 读取第eid个条目
func (n *LeafNode) ReadEntry(eid int32) (int32, basic.RecordId, error) {
	if eid < 0 || eid >= n.KeyCount() {
		return 0, basic.RecordId{}, basic.ErrInvalidCursor
	}
	off := n.entryOff(eid)
	rid := basic.RecordId{
		Pid: util.ReadI32At(n.buf, off),
		Sid: util.ReadI32At(n.buf, off+4),
	}
	key := util.ReadI32At(n.buf, off+recordIdSize)
	return key, rid, nil
}

// Insert 按序插入 (key, rid)
// 键已存在返回 ErrDuplicateKey，节点已满返回 ErrNodeFull
func (n *LeafNode) Insert(key int32, rid basic.RecordId) error {
	eid, found := n.Locate(key)
	if found {
		return basic.ErrDuplicateKey
	}

	count := n.KeyCount()
	if count == EntriesPerPage {
		return basic.ErrNodeFull
	}

	off := n.entryOff(eid)
	if eid != count {
		// 腾出插入位置
		copy(n.buf[off+LeafEntrySize:], n.buf[off:n.entryOff(count)])
	}
	util.WriteI32At(n.buf, off, rid.Pid)
	util.WriteI32At(n.buf, off+4, rid.Sid)
	util.WriteI32At(n.buf, off+recordIdSize, key)

	n.setKeyCount(count + 1)
	return nil
}

// InsertAndSplit 把 (key, rid) 插入并把节点对半分裂到sibling
// 调用时sibling必须为空，返回sibling的首键
// 分裂点的选取保证左节点最终持有 (N+1)/2 个条目
func (n *LeafNode) InsertAndSplit(key int32, rid basic.RecordId, sibling *LeafNode) (int32, error) {
	if sibling.KeyCount() > 0 {
		return 0, basic.ErrInvalidPageData
	}

	half := int32((EntriesPerPage + 1) / 2)
	eid, found := n.Locate(key)
	if found {
		return 0, basic.ErrDuplicateKey
	}

	split := half
	if eid < half {
		split--
	}

	count := n.KeyCount()
	sibling.initFromSplit(n.buf[n.entryOff(split):n.entryOff(count)])
	n.setKeyCount(split)

	var err error
	if split < half {
		err = n.Insert(key, rid)
	} else {
		err = sibling.Insert(key, rid)
	}
	if err != nil {
		return 0, err
	}

	siblingKey, _, err := sibling.ReadEntry(0)
	return siblingKey, err
}

// initFromSplit 以分裂搬来的条目初始化空节点
func (n *LeafNode) initFromSplit(entries []byte) {
	n.setKeyCount(int32(len(entries) / LeafEntrySize))
	copy(n.buf[leafEntryBase:], entries)
}

// NextPtr 返回右兄弟页号，链表末尾为 InvalidPageId
func (n *LeafNode) NextPtr() basic.PageId {
	return util.ReadI32At(n.buf, leafNextPtrOff)
}

// SetNextPtr 设置右兄弟页号
func (n *LeafNode) SetNextPtr(pid basic.PageId) {
	util.WriteI32At(n.buf, leafNextPtrOff, pid)
}
