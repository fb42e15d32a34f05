package util_test

import (
	"testing"

	"github.com/droplab/tidal/util"
	"github.com/stretchr/testify/require"
)

func TestU8(t *testing.T) {
	buf := make([]byte, 1)
	n := util.U8(buf, 0x42)
	require.Equal(t, 1, n)
	require.Equal(t, []byte{0x42}, buf)
}

func TestU32(t *testing.T) {
	buf := make([]byte, 4)
	n := util.U32(buf, 0x01020304)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
}

func TestU64(t *testing.T) {
	buf := make([]byte, 8)
	n := util.U64(buf, 0x0102030405060708)
	require.Equal(t, 8, n)
	require.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, buf)
}

func TestWriteCString(t *testing.T) {
	buf := make([]byte, 6)
	n := util.WriteCString(buf, "hello")
	require.Equal(t, 6, n)
	require.Equal(t, []byte{'h', 'e', 'l', 'l', 'o', 0}, buf)
}

func TestReadU32(t *testing.T) {
	var x uint32
	n := util.ReadU32([]byte{0x04, 0x03, 0x02, 0x01}, &x)
	require.Equal(t, 4, n)
	require.Equal(t, uint32(0x01020304), x)
}

func TestReadU64(t *testing.T) {
	var x uint64
	n := util.ReadU64([]byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, &x)
	require.Equal(t, 8, n)
	require.Equal(t, uint64(0x0102030405060708), x)
}

func TestRoundTripU32(t *testing.T) {
	buf := make([]byte, 4)
	util.U32(buf, 123456789)
	var x uint32
	util.ReadU32(buf, &x)
	require.Equal(t, uint32(123456789), x)
}
