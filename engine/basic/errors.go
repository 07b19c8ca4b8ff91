package basic

import "errors"

// 文件I/O相关错误
var (
	ErrFileOpenFailed  = errors.New("file open failed")
	ErrFileSeekFailed  = errors.New("file seek failed")
	ErrFileReadFailed  = errors.New("file read failed")
	ErrFileWriteFailed = errors.New("file write failed")
	ErrReadOnly        = errors.New("file opened read-only")
	ErrEndOfFile       = errors.New("end of file")
)

// 页与游标相关错误
var (
	ErrInvalidPid      = errors.New("invalid page id")
	ErrInvalidCursor   = errors.New("invalid index cursor")
	ErrInvalidRid      = errors.New("invalid record id")
	ErrInvalidPageData = errors.New("invalid page data")
)

// 索引相关错误
var (
	// ErrNodeFull 节点已满，仅在插入与分裂逻辑之间传递，不会越过BTree公开接口
	ErrNodeFull = errors.New("node full")

	// ErrNoSuchRecord 查找未命中，游标停在第一个大于搜索键的条目上
	ErrNoSuchRecord = errors.New("no such record")

	ErrDuplicateKey = errors.New("duplicate key")
)

// 输入相关错误
var (
	ErrInvalidAttribute  = errors.New("invalid attribute")
	ErrInvalidFileFormat = errors.New("invalid load file format")
)
