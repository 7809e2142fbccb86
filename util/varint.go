// Package util holds small encoding helpers shared by the storage packages:
// LEB128 varints, zigzag-encoded signed varints, and fixed-width big-endian
// integers, all appended to and consumed from a growing byte slice.
package util

import "encoding/binary"

// EncodeVarint appends u to buf as an unsigned LEB128 varint.
func EncodeVarint(buf []byte, u uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], u)
	return append(buf, tmp[:n]...)
}

// DecodeVarint reads one varint from the front of buf, returning the
// remaining bytes, the decoded value, and whether decoding succeeded.
func DecodeVarint(buf []byte) ([]byte, uint64, bool) {
	u, n := binary.Uvarint(buf)
	if n <= 0 {
		return buf, 0, false
	}
	return buf[n:], u, true
}

// EncodeZigzag64 appends n to buf as a zigzag-encoded signed varint, so
// small negative numbers stay small on the wire.
func EncodeZigzag64(buf []byte, n int64) []byte {
	return EncodeVarint(buf, uint64((n<<1)^(n>>63)))
}

// DecodeZigzag64 reads one zigzag-encoded signed varint from the front of
// buf.
func DecodeZigzag64(buf []byte) ([]byte, int64, bool) {
	rest, u, ok := DecodeVarint(buf)
	if !ok {
		return buf, 0, false
	}
	n := int64(u>>1) ^ -int64(u&1)
	return rest, n, true
}

// EncodeUint32 appends u to buf as 4 big-endian bytes.
func EncodeUint32(buf []byte, u uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], u)
	return append(buf, tmp[:]...)
}

// DecodeUint32 reads 4 big-endian bytes from the front of buf.
func DecodeUint32(buf []byte) ([]byte, uint32, bool) {
	if len(buf) < 4 {
		return buf, 0, false
	}
	return buf[4:], binary.BigEndian.Uint32(buf[:4]), true
}

// EncodeUint64 appends u to buf as 8 big-endian bytes.
func EncodeUint64(buf []byte, u uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], u)
	return append(buf, tmp[:]...)
}

// DecodeUint64 reads 8 big-endian bytes from the front of buf.
func DecodeUint64(buf []byte) ([]byte, uint64, bool) {
	if len(buf) < 8 {
		return buf, 0, false
	}
	return buf[8:], binary.BigEndian.Uint64(buf[:8]), true
}
