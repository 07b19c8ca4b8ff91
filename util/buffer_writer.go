package util

import "encoding/binary"

// WriteI32 向buff的cursor位置写入小端int32，返回新的cursor
func WriteI32(buff []byte, cursor int, v int32) int {
	binary.LittleEndian.PutUint32(buff[cursor:cursor+4], uint32(v))
	return cursor + 4
}

// WriteI32At 向buff中off位置写入小端int32
func WriteI32At(buff []byte, off int, v int32) {
	binary.LittleEndian.PutUint32(buff[off:off+4], uint32(v))
}

// WriteBytesAt 向buff中off位置写入from的内容
func WriteBytesAt(buff []byte, off int, from []byte) {
	copy(buff[off:off+len(from)], from)
}
