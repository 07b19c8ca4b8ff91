package pagestore

import (
	"io"
	"os"

	"github.com/dgraph-io/ristretto/v2"
	jerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/xbase-engine/engine/basic"
	"github.com/zhukovaskychina/xbase-engine/logger"
)

// 打开模式
const (
	ModeRead  byte = 'r'
	ModeWrite byte = 'w'
)

// CacheMaxBytes 页缓存容量上限，进程启动时可由配置覆盖
var CacheMaxBytes int64 = 4194304

// PageFile 把一个文件抽象为定长页的序列
// 页号从0开始连续分配，向endPid写入即扩展文件，页永不回收
type PageFile struct {
	file   *os.File
	path   string
	mode   byte
	endPid basic.PageId
	cache  *ristretto.Cache[int32, []byte]
}

// Open 打开页文件
// 写模式下文件不存在则创建，读模式下文件不存在返回 ErrFileOpenFailed
func Open(name string, mode byte) (*PageFile, error) {
	var (
		file *os.File
		err  error
	)

	switch mode {
	case ModeRead:
		file, err = os.Open(name)
	case ModeWrite:
		file, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0644)
	default:
		return nil, basic.ErrFileOpenFailed
	}
	if err != nil {
		logger.Debugf("open page file %s failed: %v", name, jerrors.Trace(err))
		return nil, basic.ErrFileOpenFailed
	}

	st, err := file.Stat()
	if err != nil {
		file.Close()
		logger.Errorf("stat page file %s failed: %v", name, err)
		return nil, basic.ErrFileOpenFailed
	}

	cache, err := ristretto.NewCache(&ristretto.Config[int32, []byte]{
		NumCounters: CacheMaxBytes / basic.PageSize * 10,
		MaxCost:     CacheMaxBytes,
		BufferItems: 64,
	})
	if err != nil {
		file.Close()
		logger.Errorf("init page cache for %s failed: %v", name, err)
		return nil, basic.ErrFileOpenFailed
	}

	return &PageFile{
		file:   file,
		path:   name,
		mode:   mode,
		endPid: basic.PageId(st.Size() / basic.PageSize),
		cache:  cache,
	}, nil
}

// EndPid 返回第一个尚未分配的页号，即当前页数
func (pf *PageFile) EndPid() basic.PageId {
	return pf.endPid
}

// Writable 返回文件是否以写模式打开
func (pf *PageFile) Writable() bool {
	return pf.mode == ModeWrite
}

// Read 读取pid页的内容填入buf，buf长度必须等于PageSize
func (pf *PageFile) Read(pid basic.PageId, buf []byte) error {
	if len(buf) != basic.PageSize {
		return basic.ErrInvalidPageData
	}
	if pid < 0 || pid >= pf.endPid {
		return basic.ErrInvalidPid
	}

	if cached, ok := pf.cache.Get(int32(pid)); ok && len(cached) == basic.PageSize {
		copy(buf, cached)
		return nil
	}

	if _, err := pf.file.Seek(int64(pid)*basic.PageSize, io.SeekStart); err != nil {
		logger.Errorf("seek page %d of %s failed: %v", pid, pf.path, jerrors.Trace(err))
		return basic.ErrFileSeekFailed
	}
	if _, err := io.ReadFull(pf.file, buf); err != nil {
		logger.Errorf("read page %d of %s failed: %v", pid, pf.path, jerrors.Trace(err))
		return basic.ErrFileReadFailed
	}

	cached := make([]byte, basic.PageSize)
	copy(cached, buf)
	pf.cache.Set(int32(pid), cached, basic.PageSize)
	// Set异步生效，等它落定，避免后续写入被缓存里的旧副本盖住
	pf.cache.Wait()
	return nil
}

// Write 把buf写入pid页
// pid == endPid 时扩展文件一页，pid > endPid 返回 ErrInvalidPid
func (pf *PageFile) Write(pid basic.PageId, buf []byte) error {
	if pf.mode != ModeWrite {
		return basic.ErrReadOnly
	}
	if len(buf) != basic.PageSize {
		return basic.ErrInvalidPageData
	}
	if pid < 0 || pid > pf.endPid {
		return basic.ErrInvalidPid
	}

	if _, err := pf.file.Seek(int64(pid)*basic.PageSize, io.SeekStart); err != nil {
		logger.Errorf("seek page %d of %s failed: %v", pid, pf.path, jerrors.Trace(err))
		return basic.ErrFileSeekFailed
	}
	if _, err := pf.file.Write(buf); err != nil {
		logger.Errorf("write page %d of %s failed: %v", pid, pf.path, jerrors.Trace(err))
		return basic.ErrFileWriteFailed
	}

	if pid == pf.endPid {
		pf.endPid++
	}

	cached := make([]byte, basic.PageSize)
	copy(cached, buf)
	pf.cache.Set(int32(pid), cached, basic.PageSize)
	// 等待Set落定，保证随后的Read读到本次写入的内容
	pf.cache.Wait()
	return nil
}

// Close 刷盘并释放文件句柄
func (pf *PageFile) Close() error {
	pf.cache.Close()

	if pf.mode == ModeWrite {
		if err := pf.file.Sync(); err != nil {
			logger.Errorf("sync page file %s failed: %v", pf.path, err)
			pf.file.Close()
			return basic.ErrFileWriteFailed
		}
	}
	if err := pf.file.Close(); err != nil {
		return basic.ErrFileWriteFailed
	}
	return nil
}
