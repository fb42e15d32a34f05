package util

/*
Encoding utilities for the tidal wire format. Note that these utilities do not
check lengths - it is necessary to ensure buffers passed to write functions
are large enough, or a panic may result.
*/

import (
	"encoding/binary"
)

// U8 writes a uint8 to dst and returns the written length.
func U8(dst []byte, src uint8) int {
	dst[0] = src
	return 1
}

// U32 writes a little-endian uint32 to dst and returns the written length.
func U32(dst []byte, src uint32) int {
	binary.LittleEndian.PutUint32(dst, src)
	return 4
}

// U64 writes a little-endian uint64 to dst and returns the written length.
func U64(dst []byte, src uint64) int {
	binary.LittleEndian.PutUint64(dst, src)
	return 8
}

// WriteCString writes a null-terminated string to dst and returns the written
// length.
func WriteCString(dst []byte, s string) int {
	n := copy(dst, s)
	dst[n] = 0
	return n + 1
}

// ReadU32 reads a little-endian uint32 from src and stores it in x, returning
// the consumed length.
func ReadU32(src []byte, x *uint32) int {
	*x = binary.LittleEndian.Uint32(src)
	return 4
}

// ReadU64 reads a little-endian uint64 from src and stores it in x, returning
// the consumed length.
func ReadU64(src []byte, x *uint64) int {
	*x = binary.LittleEndian.Uint64(src)
	return 8
}
