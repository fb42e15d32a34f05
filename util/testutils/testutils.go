package testutils

import (
	"encoding/binary"
	"math"
)

/*
Helpers for building tidal wire bytes in tests.
*/

////////////////////////////////////////////////////////////////////////////////

// Flatten concatenates slices of the same type.
func Flatten[T any](slices ...[]T) []T {
	var result []T
	for _, s := range slices {
		result = append(result, s...)
	}
	return result
}

// U8b returns a byte slice containing a single uint8 value.
func U8b(v uint8) []byte {
	return []byte{v}
}

// U16b returns a byte slice containing a single uint16 value.
func U16b(v uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return buf
}

// U32b returns a byte slice containing a single uint32 value.
func U32b(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// U64b returns a byte slice containing a single uint64 value.
func U64b(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

// I8b returns a byte slice containing a single int8 value.
func I8b(v int8) []byte {
	return U8b(uint8(v))
}

// I16b returns a byte slice containing a single int16 value.
func I16b(v int16) []byte {
	return U16b(uint16(v))
}

// I32b returns a byte slice containing a single int32 value.
func I32b(v int32) []byte {
	return U32b(uint32(v))
}

// I64b returns a byte slice containing a single int64 value.
func I64b(v int64) []byte {
	return U64b(uint64(v))
}

// F32b returns a byte slice containing a single float32 value.
func F32b(v float32) []byte {
	return U32b(math.Float32bits(v))
}

// F64b returns a byte slice containing a single float64 value.
func F64b(v float64) []byte {
	return U64b(math.Float64bits(v))
}

func Boolb(v bool) []byte {
	if v {
		return U8b(1)
	}
	return U8b(0)
}

// CString returns a byte slice containing a null-terminated string.
func CString(s string) []byte {
	return append([]byte(s), 0)
}
