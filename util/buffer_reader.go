package util

import "encoding/binary"

// 页内数据统一按小端序编码

// ReadI32 从buff的cursor位置读取小端int32，返回新的cursor
func ReadI32(buff []byte, cursor int) (int, int32) {
	v := int32(binary.LittleEndian.Uint32(buff[cursor : cursor+4]))
	return cursor + 4, v
}

// ReadI32At 读取buff中off位置的小端int32
func ReadI32At(buff []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(buff[off : off+4]))
}

// ReadBytesAt 读取buff中off位置起length个字节的副本
func ReadBytesAt(buff []byte, off int, length int) []byte {
	out := make([]byte, length)
	copy(out, buff[off:off+length])
	return out
}
