package btree

import (
	"github.com/zhukovaskychina/xbase-engine/engine/basic"
	"github.com/zhukovaskychina/xbase-engine/engine/pagestore"
	"github.com/zhukovaskychina/xbase-engine/util"
)

// InternalNode 非叶子节点，只做路由不存数据
// 键数为c时有c+1个子页号：最左子页号单独存放，其余随条目存放
type InternalNode struct {
	buf []byte
}

// NewInternalNode 创建空的非叶子节点
func NewInternalNode() *InternalNode {
	return &InternalNode{buf: make([]byte, basic.PageSize)}
}

// Read 从页文件读入pid页的内容
func (n *InternalNode) Read(pid basic.PageId, pf *pagestore.PageFile) error {
	return pf.Read(pid, n.buf)
}

// Write 把节点内容写回pid页
func (n *InternalNode) Write(pid basic.PageId, pf *pagestore.PageFile) error {
	return pf.Write(pid, n.buf)
}

// KeyCount 返回节点内键数
func (n *InternalNode) KeyCount() int32 {
	return util.ReadI32At(n.buf, 0)
}

func (n *InternalNode) setKeyCount(count int32) {
	util.WriteI32At(n.buf, 0, count)
}

func (n *InternalNode) entryOff(eid int32) int {
	return internalEntBase + int(eid)*InternalEntrySize
}

func (n *InternalNode) keyAt(eid int32) int32 {
	return util.ReadI32At(n.buf, n.entryOff(eid))
}

// childAt 返回第j个子页号，j=0为最左子页
func (n *InternalNode) childAt(j int32) basic.PageId {
	if j == 0 {
		return util.ReadI32At(n.buf, internalP0Off)
	}
	return util.ReadI32At(n.buf, n.entryOff(j-1)+4)
}

// locate 返回key的插入位置，即第一个大于key的键序号
func (n *InternalNode) locate(key int32) int32 {
	count := n.KeyCount()
	var i int32
	for i = 0; i < count; i++ {
		if n.keyAt(i) > key {
			break
		}
	}
	return i
}

// LocateChildPtr 返回searchKey应当下降的子页号
// 选中满足 key_j <= searchKey 的最大j对应的子页，全部键都大于searchKey时走最左子页
func (n *InternalNode) LocateChildPtr(searchKey int32) basic.PageId {
	return n.childAt(n.locate(searchKey))
}

// Insert 按序插入 (key, 子页号)，节点已满返回 ErrNodeFull
func (n *InternalNode) Insert(key int32, pid basic.PageId) error {
	count := n.KeyCount()
	if count == KeysPerPage {
		return basic.ErrNodeFull
	}

	eid := n.locate(key)
	off := n.entryOff(eid)
	if eid != count {
		copy(n.buf[off+InternalEntrySize:], n.buf[off:n.entryOff(count)])
	}
	util.WriteI32At(n.buf, off, key)
	util.WriteI32At(n.buf, off+4, pid)

	n.setKeyCount(count + 1)
	return nil
}

// InsertAndSplit 把 (key, pid) 插入并分裂到sibling，返回上推的中间键
// sibling固定分得 KeysPerPage/2 个键，中间键从两个子节点中移除
func (n *InternalNode) InsertAndSplit(key int32, pid basic.PageId, sibling *InternalNode) (int32, error) {
	if sibling.KeyCount() > 0 {
		return 0, basic.ErrInvalidPageData
	}

	half := int32((KeysPerPage + 1) / 2)
	eid := n.locate(key)

	var midKey int32

	switch {
	case eid == half:
		// 新键正好落在中间，自身上推，新子页成为sibling的最左子页
		midKey = key
		sibling.initFromSplit(pid, n.entriesCopy(half, KeysPerPage))
		n.setKeyCount(half)

	case eid < half:
		midKey = n.keyAt(half - 1)
		sibling.initFromSplit(n.childAt(half), n.entriesCopy(half, KeysPerPage))
		n.setKeyCount(half - 1)
		if err := n.Insert(key, pid); err != nil {
			return 0, err
		}

	default: // eid > half
		midKey = n.keyAt(half)
		entries := make([]byte, 0, int(KeysPerPage/2)*InternalEntrySize)
		entries = append(entries, n.entriesCopy(half+1, eid)...)

		var incoming [InternalEntrySize]byte
		util.WriteI32At(incoming[:], 0, key)
		util.WriteI32At(incoming[:], 4, pid)
		entries = append(entries, incoming[:]...)

		entries = append(entries, n.entriesCopy(eid, KeysPerPage)...)
		sibling.initFromSplit(n.childAt(half+1), entries)
		n.setKeyCount(half)
	}

	return midKey, nil
}

// entriesCopy 返回键序号区间[i, j)的条目副本
func (n *InternalNode) entriesCopy(i, j int32) []byte {
	return util.ReadBytesAt(n.buf, n.entryOff(i), int(j-i)*InternalEntrySize)
}

// initFromSplit 以最左子页号和分裂搬来的条目初始化空节点
func (n *InternalNode) initFromSplit(p0 basic.PageId, entries []byte) {
	n.setKeyCount(int32(len(entries) / InternalEntrySize))
	util.WriteI32At(n.buf, internalP0Off, p0)
	copy(n.buf[internalEntBase:], entries)
}

// InitRoot 以 (p0, key, p1) 初始化新的根节点
func (n *InternalNode) InitRoot(p0 basic.PageId, key int32, p1 basic.PageId) {
	n.setKeyCount(1)
	util.WriteI32At(n.buf, internalP0Off, p0)
	util.WriteI32At(n.buf, internalEntBase, key)
	util.WriteI32At(n.buf, internalEntBase+4, p1)
}
