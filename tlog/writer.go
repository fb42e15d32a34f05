package tlog

import (
	"fmt"
	"io"

	"github.com/droplab/tidal/schema"
	"github.com/droplab/tidal/util"
)

/*
The writer produces tidal logs. It mirrors the upstream C++ logging library:
streams are registered up front (which emits their metadata records), may be
labeled once, and are then fed timestamped samples. Stream ids are assigned
sequentially from zero in registration order.

Payloads are raw little-endian bytes sized exactly to the stream layout.
Matrix payloads must be column-major, as on the wire; the reader transposes on
decode.
*/

////////////////////////////////////////////////////////////////////////////////

// Writer writes tidal log records to an underlying writer.
type Writer struct {
	w    io.Writer
	next uint32
}

// NewWriter creates a writer that emits records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Stream is one registered log stream.
type Stream struct {
	w       *Writer
	id      uint32
	layout  schema.Layout
	labeled bool
}

// ID returns the stream's assigned id.
func (s *Stream) ID() uint32 {
	return s.id
}

// Layout returns the stream's declared layout.
func (s *Stream) Layout() schema.Layout {
	return s.layout
}

// AddScalarStream registers a stream of records with the given field types
// and writes its metadata record.
func (w *Writer) AddScalarStream(name string, fields ...schema.ScalarType) (*Stream, error) {
	for _, f := range fields {
		if !f.Valid() {
			return nil, UnknownTypeError{StreamID: w.next, Code: byte(f)}
		}
	}
	layout := schema.NewScalar(fields...)
	body := make([]byte, 1+4+len(fields))
	offset := util.U8(body, uint8(schema.Scalar))
	offset += util.U32(body[offset:], uint32(len(fields)))
	for _, f := range fields {
		offset += util.U8(body[offset:], uint8(f))
	}
	return w.addStream(name, layout, body)
}

// AddVectorStream registers a stream of fixed-length vectors and writes its
// metadata record.
func (w *Writer) AddVectorStream(name string, elem schema.ScalarType, length int) (*Stream, error) {
	if !elem.Valid() {
		return nil, UnknownTypeError{StreamID: w.next, Code: byte(elem)}
	}
	layout := schema.NewVector(elem, length)
	body := make([]byte, 1+1+4)
	offset := util.U8(body, uint8(schema.Vector))
	offset += util.U8(body[offset:], uint8(elem))
	util.U32(body[offset:], uint32(length))
	return w.addStream(name, layout, body)
}

// AddMatrixStream registers a stream of fixed-size matrices and writes its
// metadata record.
func (w *Writer) AddMatrixStream(name string, elem schema.ScalarType, rows, cols int) (*Stream, error) {
	if !elem.Valid() {
		return nil, UnknownTypeError{StreamID: w.next, Code: byte(elem)}
	}
	layout := schema.NewMatrix(elem, rows, cols)
	body := make([]byte, 1+1+4+4)
	offset := util.U8(body, uint8(schema.Matrix))
	offset += util.U8(body[offset:], uint8(elem))
	offset += util.U32(body[offset:], uint32(rows))
	util.U32(body[offset:], uint32(cols))
	return w.addStream(name, layout, body)
}

func (w *Writer) addStream(name string, layout schema.Layout, format []byte) (*Stream, error) {
	id := w.next
	buf := make([]byte, 1+4+len(name)+1)
	offset := util.U8(buf, markerMetadata)
	offset += util.U32(buf[offset:], id)
	util.WriteCString(buf[offset:], name)
	if _, err := w.w.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write stream header: %w", err)
	}
	if _, err := w.w.Write(format); err != nil {
		return nil, fmt.Errorf("failed to write stream format: %w", err)
	}
	w.next++
	return &Stream{w: w, id: id, layout: layout}, nil
}

// SetLabels writes the stream's label record. The label count must match the
// layout's label count: the field count for scalar streams, the length for
// vectors, and the row count for matrices. A stream may be labeled once.
func (s *Stream) SetLabels(labels ...string) error {
	if len(labels) != s.layout.LabelCount() {
		return fmt.Errorf("stream %d: %d labels for layout %s (want %d)",
			s.id, len(labels), s.layout, s.layout.LabelCount())
	}
	if s.labeled {
		return fmt.Errorf("stream %d: labels already set", s.id)
	}
	size := 1 + 4
	for _, l := range labels {
		size += len(l) + 1
	}
	buf := make([]byte, size)
	offset := util.U8(buf, markerLabels)
	offset += util.U32(buf[offset:], s.id)
	for _, l := range labels {
		offset += util.WriteCString(buf[offset:], l)
	}
	if _, err := s.w.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write labels: %w", err)
	}
	s.labeled = true
	return nil
}

// Log writes one data record. The payload must be exactly one layout-sized
// sample.
func (s *Stream) Log(timestamp uint64, payload []byte) error {
	if len(payload) != s.layout.Size() {
		return fmt.Errorf("stream %d: %d payload bytes for layout %s (want %d)",
			s.id, len(payload), s.layout, s.layout.Size())
	}
	buf := make([]byte, 1+4+timestampSize+len(payload))
	offset := util.U8(buf, markerData)
	offset += util.U32(buf[offset:], s.id)
	offset += util.U64(buf[offset:], timestamp)
	copy(buf[offset:], payload)
	if _, err := s.w.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write data record: %w", err)
	}
	return nil
}
