package tlog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/droplab/tidal/schema"
)

/*
The reader decodes a complete tidal log in a single forward pass. The control
loop reads one marker byte at a time and dispatches to the matching record
reader; metadata records establish per-stream layouts, label records name the
layout positions, and data records append raw timestamp/payload bytes to the
stream's accumulation buffers. Nothing is interpreted until the input is
exhausted, at which point finalization materializes typed samples per stream.

Order matters: labels and data may only reference previously-declared stream
ids, because the data reader needs the declared layout size to know how many
payload bytes to consume. Re-declaring an id replaces the layout and discards
anything accumulated under the old one.

End of input at a marker boundary is normal termination. End of input anywhere
else is ErrTruncated: the upstream Python parser treats a short record as a
silent end of file, which can hide real corruption, and we deliberately do not
preserve that.
*/

////////////////////////////////////////////////////////////////////////////////

type reader struct {
	r       *bufio.Reader
	streams map[uint32]*stream
}

// Decode reads a tidal log from r and returns the decoded dataset. The source
// is consumed exactly once, in order. One malformed record fails the whole
// decode; there is no partial result.
func Decode(r io.Reader) (*Dataset, error) {
	d := &reader{
		r:       bufio.NewReader(r),
		streams: make(map[uint32]*stream),
	}
	for {
		marker, err := d.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read marker: %w", err)
		}
		switch marker {
		case markerMetadata:
			err = d.readMetadata()
		case markerLabels:
			err = d.readLabels()
		case markerData:
			err = d.readData()
		default:
			err = UnknownMarkerError{Marker: marker}
		}
		if err != nil {
			return nil, err
		}
	}
	return d.finalize()
}

// DecodeFile decodes the tidal log at path.
func DecodeFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, SourceUnavailableError{Path: path, Err: err}
	}
	defer f.Close()
	return Decode(f)
}

// readMetadata handles a metadata record: stream id, null-terminated name,
// class code, then class-specific layout fields. It creates or replaces the
// stream entry, resetting the accumulation buffers.
func (d *reader) readMetadata() error {
	id, err := d.readU32("stream id")
	if err != nil {
		return err
	}
	name, err := d.readString("stream name")
	if err != nil {
		return err
	}
	class, err := d.readByte("data class")
	if err != nil {
		return err
	}
	var layout schema.Layout
	switch schema.Class(class) {
	case schema.Scalar:
		count, err := d.readU32("field count")
		if err != nil {
			return err
		}
		fields := make([]schema.ScalarType, count)
		for i := range fields {
			fields[i], err = d.readScalarType(id)
			if err != nil {
				return err
			}
		}
		layout = schema.NewScalar(fields...)
	case schema.Vector:
		elem, err := d.readScalarType(id)
		if err != nil {
			return err
		}
		length, err := d.readU32("vector length")
		if err != nil {
			return err
		}
		layout = schema.NewVector(elem, int(length))
	case schema.Matrix:
		elem, err := d.readScalarType(id)
		if err != nil {
			return err
		}
		rows, err := d.readU32("matrix rows")
		if err != nil {
			return err
		}
		cols, err := d.readU32("matrix cols")
		if err != nil {
			return err
		}
		layout = schema.NewMatrix(elem, int(rows), int(cols))
	default:
		return UnknownClassError{StreamID: id, Class: class}
	}
	d.streams[id] = &stream{id: id, name: name, layout: layout}
	return nil
}

// readLabels handles a label record: stream id, then one null-terminated
// string per layout label position.
func (d *reader) readLabels() error {
	id, err := d.readU32("stream id")
	if err != nil {
		return err
	}
	s, ok := d.streams[id]
	if !ok {
		return StreamNotFoundError{StreamID: id}
	}
	labels := make([]string, s.layout.LabelCount())
	for i := range labels {
		labels[i], err = d.readString("label")
		if err != nil {
			return err
		}
	}
	s.labels = labels
	return nil
}

// readData handles a data record: stream id, u64 timestamp, then one
// layout-sized payload. Both are buffered raw, uninterpreted.
func (d *reader) readData() error {
	id, err := d.readU32("stream id")
	if err != nil {
		return err
	}
	s, ok := d.streams[id]
	if !ok {
		return StreamNotFoundError{StreamID: id}
	}
	if _, err := io.CopyN(&s.times, d.r, timestampSize); err != nil {
		return truncated("timestamp", err)
	}
	if _, err := io.CopyN(&s.data, d.r, int64(s.layout.Size())); err != nil {
		return truncated("sample payload", err)
	}
	return nil
}

func (d *reader) readByte(what string) (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, truncated(what, err)
	}
	return b, nil
}

func (d *reader) readU32(what string) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, truncated(what, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *reader) readScalarType(id uint32) (schema.ScalarType, error) {
	code, err := d.readByte("scalar type")
	if err != nil {
		return 0, err
	}
	t := schema.ScalarType(code)
	if !t.Valid() {
		return 0, UnknownTypeError{StreamID: id, Code: code}
	}
	return t, nil
}

// readString reads a null-terminated UTF-8 string.
func (d *reader) readString(what string) (string, error) {
	b, err := d.r.ReadBytes(0)
	if err != nil {
		return "", truncated(what, err)
	}
	return string(b[:len(b)-1]), nil
}

// truncated maps end-of-input conditions inside a record to ErrTruncated and
// passes other read failures through.
func truncated(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w", what, ErrTruncated)
	}
	return fmt.Errorf("failed to read %s: %w", what, err)
}

// finalize materializes the accumulated buffers of every stream into typed
// samples.
func (d *reader) finalize() (*Dataset, error) {
	ds := &Dataset{Streams: make(map[string]*Signal, len(d.streams))}
	for _, s := range d.streams {
		sig, err := finalizeStream(s)
		if err != nil {
			return nil, err
		}
		ds.Streams[s.name] = sig
	}
	return ds, nil
}

func finalizeStream(s *stream) (*Signal, error) {
	times := s.times.Bytes()
	n := len(times) / timestampSize
	timestamps := make([]uint64, n)
	for i := range timestamps {
		timestamps[i] = binary.LittleEndian.Uint64(times[i*timestampSize:])
	}
	size := s.layout.Size()
	data := s.data.Bytes()
	if size > 0 && len(data) != n*size {
		return nil, fmt.Errorf("stream %q: %d payload bytes for %d samples of %d: %w",
			s.name, len(data), n, size, ErrTruncated)
	}
	var samples Samples
	switch s.layout.Class {
	case schema.Scalar:
		samples = scalarSamples(s, n, data)
	case schema.Vector:
		samples = vectorSamples(s, n, data)
	case schema.Matrix:
		samples = matrixSamples(s, n, data)
	}
	return &Signal{
		ID:         s.id,
		Name:       s.name,
		Layout:     s.layout,
		Labels:     s.labels,
		Timestamps: timestamps,
		Samples:    samples,
	}, nil
}

func scalarSamples(s *stream, n int, data []byte) *ScalarSamples {
	fields := make([]Field, len(s.layout.Fields))
	for i, t := range s.layout.Fields {
		name := fmt.Sprintf("f%d", i)
		if i < len(s.labels) {
			name = s.labels[i]
		}
		fields[i] = Field{Name: name, Type: t}
	}
	rows := make([][]any, n)
	size := s.layout.Size()
	for i := 0; i < n; i++ {
		row := make([]any, len(fields))
		sample := data[i*size:]
		offset := 0
		for j, t := range s.layout.Fields {
			row[j] = decodeValue(t, sample[offset:])
			offset += t.Size()
		}
		rows[i] = row
	}
	return &ScalarSamples{Fields: fields, Rows: rows}
}

func vectorSamples(s *stream, n int, data []byte) *VectorSamples {
	elem := s.layout.Elem
	esize := elem.Size()
	rows := make([][]any, n)
	size := s.layout.Size()
	for i := 0; i < n; i++ {
		row := make([]any, s.layout.Length)
		sample := data[i*size:]
		for j := range row {
			row[j] = decodeValue(elem, sample[j*esize:])
		}
		rows[i] = row
	}
	return &VectorSamples{Elem: elem, Length: s.layout.Length, Rows: rows}
}

// matrixSamples transposes each block from the column-major wire order to
// row-major: wire element k holds (row k%rows, col k/rows).
func matrixSamples(s *stream, n int, data []byte) *MatrixSamples {
	elem := s.layout.Elem
	esize := elem.Size()
	nrows, ncols := s.layout.Rows, s.layout.Cols
	blocks := make([][][]any, n)
	size := s.layout.Size()
	for i := 0; i < n; i++ {
		sample := data[i*size:]
		block := make([][]any, nrows)
		for r := 0; r < nrows; r++ {
			block[r] = make([]any, ncols)
			for c := 0; c < ncols; c++ {
				block[r][c] = decodeValue(elem, sample[(c*nrows+r)*esize:])
			}
		}
		blocks[i] = block
	}
	return &MatrixSamples{Elem: elem, Rows: nrows, Cols: ncols, Blocks: blocks}
}

// decodeValue interprets one little-endian element. Type codes are validated
// at metadata-read time, so an unknown code here is a bug.
func decodeValue(t schema.ScalarType, b []byte) any {
	switch t {
	case schema.U8:
		return b[0]
	case schema.I8:
		return int8(b[0])
	case schema.U16:
		return binary.LittleEndian.Uint16(b)
	case schema.I16:
		return int16(binary.LittleEndian.Uint16(b))
	case schema.U32:
		return binary.LittleEndian.Uint32(b)
	case schema.I32:
		return int32(binary.LittleEndian.Uint32(b))
	case schema.U64:
		return binary.LittleEndian.Uint64(b)
	case schema.I64:
		return int64(binary.LittleEndian.Uint64(b))
	case schema.F32:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case schema.F64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case schema.Bool:
		return b[0] != 0
	default:
		panic("unknown scalar type")
	}
}
