package tlog_test

import (
	"bytes"
	"testing"

	"github.com/droplab/tidal/schema"
	"github.com/droplab/tidal/tlog"
	tu "github.com/droplab/tidal/util/testutils"
	"github.com/stretchr/testify/require"
)

func scalarMetadata(id uint32, name string, fields ...schema.ScalarType) []byte {
	codes := make([]byte, len(fields))
	for i, f := range fields {
		codes[i] = byte(f)
	}
	return tu.Flatten(
		tu.U8b(0xA5),
		tu.U32b(id),
		tu.CString(name),
		tu.U8b(0),
		tu.U32b(uint32(len(fields))),
		codes,
	)
}

func vectorMetadata(id uint32, name string, elem schema.ScalarType, length uint32) []byte {
	return tu.Flatten(
		tu.U8b(0xA5),
		tu.U32b(id),
		tu.CString(name),
		tu.U8b(1),
		tu.U8b(byte(elem)),
		tu.U32b(length),
	)
}

func matrixMetadata(id uint32, name string, elem schema.ScalarType, rows, cols uint32) []byte {
	return tu.Flatten(
		tu.U8b(0xA5),
		tu.U32b(id),
		tu.CString(name),
		tu.U8b(2),
		tu.U8b(byte(elem)),
		tu.U32b(rows),
		tu.U32b(cols),
	)
}

func dataRecord(id uint32, timestamp uint64, payload []byte) []byte {
	return tu.Flatten(tu.U8b(0xDB), tu.U32b(id), tu.U64b(timestamp), payload)
}

func labelRecord(id uint32, labels ...string) []byte {
	parts := [][]byte{tu.U8b(0x66), tu.U32b(id)}
	for _, l := range labels {
		parts = append(parts, tu.CString(l))
	}
	return tu.Flatten(parts...)
}

func TestDecodeEmptyInput(t *testing.T) {
	ds, err := tlog.Decode(bytes.NewReader(nil))
	require.NoError(t, err)
	require.Empty(t, ds.Streams)
}

func TestLabeledScalarStream(t *testing.T) {
	data := tu.Flatten(
		scalarMetadata(0, "gains", schema.F32, schema.F32),
		labelRecord(0, "a", "b"),
		dataRecord(0, 100, tu.Flatten(tu.F32b(1.5), tu.F32b(-2.5))),
		dataRecord(0, 200, tu.Flatten(tu.F32b(3.0), tu.F32b(4.0))),
	)
	ds, err := tlog.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	sig := ds.Streams["gains"]
	require.NotNil(t, sig)
	require.Equal(t, []uint64{100, 200}, sig.Timestamps)
	require.Equal(t, []string{"a", "b"}, sig.Labels)

	samples, ok := sig.Samples.(*tlog.ScalarSamples)
	require.True(t, ok)
	require.Equal(t, 2, samples.Len())

	a, ok := samples.Field("a")
	require.True(t, ok)
	require.Equal(t, []any{float32(1.5), float32(3.0)}, a)
	b, ok := samples.Field("b")
	require.True(t, ok)
	require.Equal(t, []any{float32(-2.5), float32(4.0)}, b)

	// named and positional access agree
	require.Equal(t, samples.Column(0), a)
	require.Equal(t, samples.Column(1), b)

	_, ok = samples.Field("c")
	require.False(t, ok)
}

func TestUnlabeledScalarStream(t *testing.T) {
	data := tu.Flatten(
		scalarMetadata(7, "state", schema.U8, schema.I16),
		dataRecord(7, 1, tu.Flatten(tu.U8b(9), tu.I16b(-300))),
	)
	ds, err := tlog.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	samples, ok := ds.Streams["state"].Samples.(*tlog.ScalarSamples)
	require.True(t, ok)
	require.Equal(t, "f0", samples.Fields[0].Name)
	require.Equal(t, "f1", samples.Fields[1].Name)
	require.Equal(t, []any{uint8(9)}, samples.Column(0))
	require.Equal(t, []any{int16(-300)}, samples.Column(1))
}

func TestVectorStream(t *testing.T) {
	data := tu.Flatten(
		vectorMetadata(3, "accel", schema.F64, 3),
		dataRecord(3, 42, tu.Flatten(tu.F64b(1), tu.F64b(2), tu.F64b(3))),
	)
	ds, err := tlog.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	sig := ds.Streams["accel"]
	samples, ok := sig.Samples.(*tlog.VectorSamples)
	require.True(t, ok)
	require.Equal(t, 1, samples.Len())
	require.Equal(t, []any{float64(1), float64(2), float64(3)}, samples.Rows[0])
}

func TestMatrixTransposition(t *testing.T) {
	// One 2x3 uint8 sample, column-major on the wire.
	data := tu.Flatten(
		matrixMetadata(1, "covariance", schema.U8, 2, 3),
		dataRecord(1, 5, []byte{0, 3, 1, 4, 2, 5}),
	)
	ds, err := tlog.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	samples, ok := ds.Streams["covariance"].Samples.(*tlog.MatrixSamples)
	require.True(t, ok)
	require.Equal(t, 1, samples.Len())
	require.Equal(t, [][]any{
		{uint8(0), uint8(1), uint8(2)},
		{uint8(3), uint8(4), uint8(5)},
	}, samples.Blocks[0])
}

func TestMatrixLabelsNameRows(t *testing.T) {
	data := tu.Flatten(
		matrixMetadata(0, "m", schema.U8, 2, 3),
		labelRecord(0, "top", "bottom"),
	)
	ds, err := tlog.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, []string{"top", "bottom"}, ds.Streams["m"].Labels)
}

func TestUnknownMarker(t *testing.T) {
	data := tu.Flatten(
		scalarMetadata(0, "s", schema.U8),
		tu.U8b(0x77),
	)
	_, err := tlog.Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, tlog.UnknownMarkerError{})
	require.ErrorIs(t, err, tlog.ErrInvalidFormat)
}

func TestUnknownClass(t *testing.T) {
	data := tu.Flatten(
		tu.U8b(0xA5),
		tu.U32b(0),
		tu.CString("s"),
		tu.U8b(3),
	)
	_, err := tlog.Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, tlog.UnknownClassError{})
	require.ErrorIs(t, err, tlog.ErrInvalidFormat)
}

func TestUnknownScalarType(t *testing.T) {
	t.Run("scalar field", func(t *testing.T) {
		_, err := tlog.Decode(bytes.NewReader(scalarMetadata(0, "s", schema.ScalarType(11))))
		require.ErrorIs(t, err, tlog.UnknownTypeError{})
		require.ErrorIs(t, err, tlog.ErrInvalidFormat)
	})
	t.Run("vector element", func(t *testing.T) {
		_, err := tlog.Decode(bytes.NewReader(vectorMetadata(0, "v", schema.ScalarType(200), 3)))
		require.ErrorIs(t, err, tlog.UnknownTypeError{})
	})
}

func TestForwardReferenceRejection(t *testing.T) {
	t.Run("data", func(t *testing.T) {
		_, err := tlog.Decode(bytes.NewReader(dataRecord(9, 1, nil)))
		require.ErrorIs(t, err, tlog.StreamNotFoundError{})
	})
	t.Run("labels", func(t *testing.T) {
		_, err := tlog.Decode(bytes.NewReader(labelRecord(9, "a")))
		require.ErrorIs(t, err, tlog.StreamNotFoundError{})
	})
}

func TestTruncationDetection(t *testing.T) {
	full := tu.Flatten(
		vectorMetadata(0, "v", schema.U8, 8),
		dataRecord(0, 1, []byte{1, 2, 3, 4, 5, 6, 7, 8}),
	)
	cases := []struct {
		name string
		data []byte
	}{
		{"mid stream id", full[:3]},
		{"mid name", full[:6]},
		{"mid layout", full[:11]},
		{"mid data stream id", tu.Flatten(vectorMetadata(0, "v", schema.U8, 8), tu.U8b(0xDB), tu.U8b(0))},
		{"mid timestamp", full[:len(full)-12]},
		{"mid payload", full[:len(full)-5]},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := tlog.Decode(bytes.NewReader(c.data))
			require.ErrorIs(t, err, tlog.ErrTruncated)
		})
	}

	t.Run("complete input succeeds", func(t *testing.T) {
		_, err := tlog.Decode(bytes.NewReader(full))
		require.NoError(t, err)
	})

	t.Run("mid label", func(t *testing.T) {
		data := tu.Flatten(
			scalarMetadata(0, "s", schema.U8, schema.U8),
			tu.U8b(0x66), tu.U32b(0), tu.CString("a"), []byte("b"),
		)
		_, err := tlog.Decode(bytes.NewReader(data))
		require.ErrorIs(t, err, tlog.ErrTruncated)
	})
}

func TestRedeclaration(t *testing.T) {
	data := tu.Flatten(
		scalarMetadata(0, "s", schema.U8),
		dataRecord(0, 1, tu.U8b(10)),
		dataRecord(0, 2, tu.U8b(20)),
		// same id, new layout: prior samples are discarded
		vectorMetadata(0, "s", schema.U16, 2),
		dataRecord(0, 3, tu.Flatten(tu.U16b(7), tu.U16b(8))),
	)
	ds, err := tlog.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	sig := ds.Streams["s"]
	require.Equal(t, []uint64{3}, sig.Timestamps)
	samples, ok := sig.Samples.(*tlog.VectorSamples)
	require.True(t, ok)
	require.Equal(t, []any{uint16(7), uint16(8)}, samples.Rows[0])
}

func TestEmptyStream(t *testing.T) {
	ds, err := tlog.Decode(bytes.NewReader(scalarMetadata(0, "idle", schema.F64)))
	require.NoError(t, err)

	sig := ds.Streams["idle"]
	require.NotNil(t, sig)
	require.Empty(t, sig.Timestamps)
	require.Equal(t, 0, sig.Samples.Len())
}

func TestZeroFieldScalarStream(t *testing.T) {
	data := tu.Flatten(
		scalarMetadata(0, "events"),
		dataRecord(0, 1, nil),
		dataRecord(0, 2, nil),
	)
	ds, err := tlog.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, ds.Streams["events"].Timestamps)
	require.Equal(t, 2, ds.Streams["events"].Samples.Len())
}

func TestDecodeFileMissing(t *testing.T) {
	_, err := tlog.DecodeFile("/nonexistent/log.bin")
	require.ErrorIs(t, err, tlog.SourceUnavailableError{})
	require.NotErrorIs(t, err, tlog.ErrInvalidFormat)
}

func TestRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	w := tlog.NewWriter(buf)

	all := []schema.ScalarType{
		schema.U8, schema.I8, schema.U16, schema.I16, schema.U32, schema.I32,
		schema.U64, schema.I64, schema.F32, schema.F64, schema.Bool,
	}
	scalar, err := w.AddScalarStream("everything", all...)
	require.NoError(t, err)
	require.NoError(t, scalar.SetLabels(
		"u8", "i8", "u16", "i16", "u32", "i32", "u64", "i64", "f32", "f64", "flag"))

	vec, err := w.AddVectorStream("velocity", schema.F64, 3)
	require.NoError(t, err)
	mat, err := w.AddMatrixStream("rotation", schema.I16, 2, 2)
	require.NoError(t, err)

	sample := tu.Flatten(
		tu.U8b(1), tu.I8b(-2), tu.U16b(3), tu.I16b(-4), tu.U32b(5), tu.I32b(-6),
		tu.U64b(7), tu.I64b(-8), tu.F32b(9.5), tu.F64b(-10.5), tu.Boolb(true),
	)
	require.NoError(t, scalar.Log(1000, sample))
	require.NoError(t, vec.Log(1001, tu.Flatten(tu.F64b(0.1), tu.F64b(0.2), tu.F64b(0.3))))
	// column-major: [[1,3],[2,4]]
	require.NoError(t, mat.Log(1002, tu.Flatten(tu.I16b(1), tu.I16b(2), tu.I16b(3), tu.I16b(4))))

	ds, err := tlog.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, ds.Streams, 3)
	require.Equal(t, []string{"everything", "rotation", "velocity"}, ds.Names())

	t.Run("scalar", func(t *testing.T) {
		sig := ds.Streams["everything"]
		require.Equal(t, []uint64{1000}, sig.Timestamps)
		samples, ok := sig.Samples.(*tlog.ScalarSamples)
		require.True(t, ok)
		want := []any{
			uint8(1), int8(-2), uint16(3), int16(-4), uint32(5), int32(-6),
			uint64(7), int64(-8), float32(9.5), float64(-10.5), true,
		}
		require.Equal(t, want, samples.Rows[0])
		flag, ok := samples.Field("flag")
		require.True(t, ok)
		require.Equal(t, []any{true}, flag)
	})

	t.Run("vector", func(t *testing.T) {
		samples, ok := ds.Streams["velocity"].Samples.(*tlog.VectorSamples)
		require.True(t, ok)
		require.Equal(t, []any{0.1, 0.2, 0.3}, samples.Rows[0])
	})

	t.Run("matrix", func(t *testing.T) {
		samples, ok := ds.Streams["rotation"].Samples.(*tlog.MatrixSamples)
		require.True(t, ok)
		require.Equal(t, [][]any{
			{int16(1), int16(3)},
			{int16(2), int16(4)},
		}, samples.Blocks[0])
	})
}

func TestSignalSample(t *testing.T) {
	buf := &bytes.Buffer{}
	w := tlog.NewWriter(buf)
	s, err := w.AddScalarStream("s", schema.U8, schema.Bool)
	require.NoError(t, err)
	require.NoError(t, s.SetLabels("count", "ok"))
	require.NoError(t, s.Log(1, tu.Flatten(tu.U8b(4), tu.Boolb(false))))

	ds, err := tlog.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"count": uint8(4), "ok": false}, ds.Streams["s"].Sample(0))
}
