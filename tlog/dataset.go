package tlog

import (
	"github.com/droplab/tidal/schema"
	"github.com/droplab/tidal/util"
)

/*
Decoded output types. A Dataset maps stream names to signals; a Signal is the
layout plus the decoded timestamps and samples for one stream. Sample
collections are class-specific so consumers can address scalar fields by name,
vector elements by index, and matrix elements by row and column. Matrix blocks
are row-major here, transposed from the column-major wire order during
finalization.
*/

////////////////////////////////////////////////////////////////////////////////

// Dataset is the result of one decode: all declared streams keyed by name.
type Dataset struct {
	Streams map[string]*Signal
}

// Names returns the stream names in sorted order.
func (d *Dataset) Names() []string {
	return util.Okeys(d.Streams)
}

// Signal is one decoded stream. Timestamps and samples are in file order and
// always the same length.
type Signal struct {
	ID         uint32
	Name       string
	Layout     schema.Layout
	Labels     []string
	Timestamps []uint64
	Samples    Samples
}

// Len returns the number of samples.
func (s *Signal) Len() int {
	return len(s.Timestamps)
}

// Sample returns a generic representation of sample i: a field-name-keyed map
// for scalar streams, a value slice for vectors, and a row-major slice of
// rows for matrices.
func (s *Signal) Sample(i int) any {
	switch v := s.Samples.(type) {
	case *ScalarSamples:
		m := make(map[string]any, len(v.Fields))
		for j, f := range v.Fields {
			m[f.Name] = v.Rows[i][j]
		}
		return m
	case *VectorSamples:
		return v.Rows[i]
	case *MatrixSamples:
		return v.Blocks[i]
	default:
		return nil
	}
}

// Samples is the class-specific sample collection of a signal.
type Samples interface {
	Len() int
}

// Field is one named, typed position within a scalar record layout.
type Field struct {
	Name string
	Type schema.ScalarType
}

// ScalarSamples holds samples of a scalar stream: one row of mixed-type
// values per sample. Field names come from the stream's label record, or
// default to f0..fN-1 when no labels were declared.
type ScalarSamples struct {
	Fields []Field
	Rows   [][]any
}

func (s *ScalarSamples) Len() int {
	return len(s.Rows)
}

// FieldIndex returns the position of the named field, or -1.
func (s *ScalarSamples) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Column returns all values of field i across samples.
func (s *ScalarSamples) Column(i int) []any {
	col := make([]any, len(s.Rows))
	for j, row := range s.Rows {
		col[j] = row[i]
	}
	return col
}

// Field returns all values of the named field across samples.
func (s *ScalarSamples) Field(name string) ([]any, bool) {
	i := s.FieldIndex(name)
	if i == -1 {
		return nil, false
	}
	return s.Column(i), true
}

// VectorSamples holds samples of a vector stream: one fixed-length
// homogeneous row per sample.
type VectorSamples struct {
	Elem   schema.ScalarType
	Length int
	Rows   [][]any
}

func (s *VectorSamples) Len() int {
	return len(s.Rows)
}

// MatrixSamples holds samples of a matrix stream: one rows x cols block per
// sample, indexed [row][col].
type MatrixSamples struct {
	Elem   schema.ScalarType
	Rows   int
	Cols   int
	Blocks [][][]any
}

func (s *MatrixSamples) Len() int {
	return len(s.Blocks)
}
