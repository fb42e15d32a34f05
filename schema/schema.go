package schema

import (
	"fmt"
	"strings"
)

/*
Schema models the shape of one tidal log stream. A stream is declared with a
data class (scalar, vector, or matrix) and a set of element types drawn from a
closed set of eleven fixed-size primitives. The wire identifies classes and
primitives by single-byte codes; both enumerations here match those codes
exactly.

A Layout is the fully-resolved schema for one stream. Its byte size is computed
once at construction and cached, since the decoder needs it on every data
record to know how many payload bytes to consume.
*/

////////////////////////////////////////////////////////////////////////////////

// ScalarType is an enumeration of the primitive element types. The values
// match the wire codes.
type ScalarType uint8

const (
	U8 ScalarType = iota
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	F32
	F64
	Bool
)

// Valid returns true if the type is a recognized wire code.
func (t ScalarType) Valid() bool {
	return t <= Bool
}

// Size returns the fixed byte size of the type.
func (t ScalarType) Size() int {
	switch t {
	case U8, I8, Bool:
		return 1
	case U16, I16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	default:
		return 0
	}
}

func (t ScalarType) String() string {
	switch t {
	case U8:
		return "uint8"
	case I8:
		return "int8"
	case U16:
		return "uint16"
	case I16:
		return "int16"
	case U32:
		return "uint32"
	case I32:
		return "int32"
	case U64:
		return "uint64"
	case I64:
		return "int64"
	case F32:
		return "float32"
	case F64:
		return "float64"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// Class is the shape category of a stream's samples. The values match the
// wire codes.
type Class uint8

const (
	Scalar Class = iota
	Vector
	Matrix
)

// Valid returns true if the class is a recognized wire code.
func (c Class) Valid() bool {
	return c <= Matrix
}

func (c Class) String() string {
	switch c {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	case Matrix:
		return "matrix"
	default:
		return "invalid"
	}
}

// Layout is the resolved schema for one stream. Exactly one shape is in use,
// per the Class field: Fields for scalar records, Elem and Length for vectors,
// Elem, Rows and Cols for matrices. Matrix samples are stored on the wire in
// column-major order.
type Layout struct {
	Class  Class
	Fields []ScalarType
	Elem   ScalarType
	Length int
	Rows   int
	Cols   int

	size int
}

// NewScalar returns the layout of a record of independently-typed fields.
func NewScalar(fields ...ScalarType) Layout {
	size := 0
	for _, f := range fields {
		size += f.Size()
	}
	return Layout{Class: Scalar, Fields: fields, size: size}
}

// NewVector returns the layout of a fixed-length homogeneous vector.
func NewVector(elem ScalarType, length int) Layout {
	return Layout{Class: Vector, Elem: elem, Length: length, size: elem.Size() * length}
}

// NewMatrix returns the layout of a fixed-size homogeneous matrix.
func NewMatrix(elem ScalarType, rows, cols int) Layout {
	return Layout{Class: Matrix, Elem: elem, Rows: rows, Cols: cols, size: elem.Size() * rows * cols}
}

// Size returns the byte size of one sample.
func (l Layout) Size() int {
	return l.size
}

// Count returns the number of elements in one sample.
func (l Layout) Count() int {
	switch l.Class {
	case Scalar:
		return len(l.Fields)
	case Vector:
		return l.Length
	case Matrix:
		return l.Rows * l.Cols
	default:
		return 0
	}
}

// LabelCount returns the number of labels a label record carries for the
// layout. For matrices this is the row count rather than the element count,
// matching the upstream format: label records written by existing producers
// only ever name the row dimension.
func (l Layout) LabelCount() int {
	switch l.Class {
	case Scalar:
		return len(l.Fields)
	case Vector:
		return l.Length
	case Matrix:
		return l.Rows
	default:
		return 0
	}
}

func (l Layout) String() string {
	switch l.Class {
	case Scalar:
		names := make([]string, len(l.Fields))
		for i, f := range l.Fields {
			names[i] = f.String()
		}
		return "scalar(" + strings.Join(names, ",") + ")"
	case Vector:
		return fmt.Sprintf("vector(%s,%d)", l.Elem, l.Length)
	case Matrix:
		return fmt.Sprintf("matrix(%s,%dx%d)", l.Elem, l.Rows, l.Cols)
	default:
		return "invalid"
	}
}
