package record

import (
	"github.com/zhukovaskychina/xbase-engine/engine/basic"
	"github.com/zhukovaskychina/xbase-engine/engine/pagestore"
	"github.com/zhukovaskychina/xbase-engine/util"
)

// 堆文件页布局：
//   [0,4)   记录数 count
//   槽i     4 + i*SlotSize 起：key int32、值长度 int32、值内容、零填充
// 槽定长，页内不跨页，页从0号页起连续使用
const (
	SlotSize       = 128
	MaxValueLen    = SlotSize - 8
	RecordsPerPage = (basic.PageSize - 4) / SlotSize

	countOffset = 0
	slotBase    = 4
)

// RecordFile 元组堆文件，按RecordId定位 (key, value) 记录
// 只支持追加和按位置读取
type RecordFile struct {
	pf     *pagestore.PageFile
	endRid basic.RecordId
}

// Open 打开堆文件，非空文件扫描末页恢复endRid
func Open(name string, mode byte) (*RecordFile, error) {
	pf, err := pagestore.Open(name, mode)
	if err != nil {
		return nil, err
	}

	rf := &RecordFile{pf: pf}

	endPid := pf.EndPid()
	if endPid == 0 {
		rf.endRid = basic.RecordId{Pid: 0, Sid: 0}
		return rf, nil
	}

	buf := make([]byte, basic.PageSize)
	lastPid := endPid - 1
	if err := pf.Read(lastPid, buf); err != nil {
		pf.Close()
		return nil, err
	}

	count := util.ReadI32At(buf, countOffset)
	if count < 0 || count > RecordsPerPage {
		pf.Close()
		return nil, basic.ErrInvalidPageData
	}
	if count == RecordsPerPage {
		rf.endRid = basic.RecordId{Pid: lastPid + 1, Sid: 0}
	} else {
		rf.endRid = basic.RecordId{Pid: lastPid, Sid: count}
	}
	return rf, nil
}

// EndRid 返回下一条待追加记录的位置，也就是最后一条记录之后的rid
func (rf *RecordFile) EndRid() basic.RecordId {
	return rf.endRid
}

// Append 追加一条记录，返回分配的RecordId
// 超长的value被截断到MaxValueLen
func (rf *RecordFile) Append(key int32, value string) (basic.RecordId, error) {
	rid := rf.endRid

	buf := make([]byte, basic.PageSize)
	if rid.Sid > 0 {
		if err := rf.pf.Read(rid.Pid, buf); err != nil {
			return basic.RecordId{}, err
		}
	}

	if len(value) > MaxValueLen {
		value = value[:MaxValueLen]
	}

	off := slotBase + int(rid.Sid)*SlotSize
	util.WriteI32At(buf, off, key)
	util.WriteI32At(buf, off+4, int32(len(value)))
	util.WriteBytesAt(buf, off+8, []byte(value))
	util.WriteI32At(buf, countOffset, rid.Sid+1)

	if err := rf.pf.Write(rid.Pid, buf); err != nil {
		return basic.RecordId{}, err
	}

	rf.endRid = rid.Next(RecordsPerPage)
	return rid, nil
}

// Read 读取rid处的记录
func (rf *RecordFile) Read(rid basic.RecordId) (int32, string, error) {
	if rid.Sid < 0 || rid.Sid >= RecordsPerPage || !rid.Less(rf.endRid) {
		return 0, "", basic.ErrInvalidRid
	}

	buf := make([]byte, basic.PageSize)
	if err := rf.pf.Read(rid.Pid, buf); err != nil {
		return 0, "", err
	}

	count := util.ReadI32At(buf, countOffset)
	if rid.Sid >= count {
		return 0, "", basic.ErrInvalidRid
	}

	off := slotBase + int(rid.Sid)*SlotSize
	key := util.ReadI32At(buf, off)
	vlen := util.ReadI32At(buf, off+4)
	if vlen < 0 || vlen > MaxValueLen {
		return 0, "", basic.ErrInvalidPageData
	}
	value := string(buf[off+8 : off+8+int(vlen)])
	return key, value, nil
}

// Close 关闭底层页文件
func (rf *RecordFile) Close() error {
	return rf.pf.Close()
}
