package ql

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/droplab/tidal/schema"
	"github.com/droplab/tidal/tlog"
)

/*
Filter compilation. A parsed filter expression is compiled to a predicate over
decoded signals; regexes in ~ conditions are compiled once here rather than
per evaluation.

Field semantics:

    name  - stream name; = and != compare exactly, ~ is a regex search
    id    - stream id; = and != against an integer
    class - scalar, vector, or matrix
    type  - element type name; for scalar streams a type matches when any
            field has it, and != means no field has it
*/

////////////////////////////////////////////////////////////////////////////////

// Predicate reports whether a signal passes a filter.
type Predicate func(*tlog.Signal) bool

var parser = NewParser() // nolint:gochecknoglobals

// Compile parses and compiles a filter expression.
func Compile(src string) (Predicate, error) {
	filter, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filter: %w", err)
	}
	terms := make([]Predicate, 0, len(filter.Or))
	for _, or := range filter.Or {
		conditions := make([]Predicate, 0, len(or.And))
		for _, c := range or.And {
			p, err := compileCondition(c)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, p)
		}
		terms = append(terms, all(conditions))
	}
	return func(sig *tlog.Signal) bool {
		for _, term := range terms {
			if term(sig) {
				return true
			}
		}
		return false
	}, nil
}

func all(conditions []Predicate) Predicate {
	return func(sig *tlog.Signal) bool {
		for _, c := range conditions {
			if !c(sig) {
				return false
			}
		}
		return true
	}
}

func compileCondition(c *Condition) (Predicate, error) {
	switch c.Field {
	case "name":
		return compileName(c)
	case "id":
		return compileID(c)
	case "class":
		return compileClass(c)
	case "type":
		return compileType(c)
	default:
		return nil, fmt.Errorf("unknown filter field %q", c.Field)
	}
}

func compileName(c *Condition) (Predicate, error) {
	value, ok := c.Value.Str()
	if !ok {
		return nil, fmt.Errorf("name condition requires a string value")
	}
	switch c.Op {
	case "=":
		return func(sig *tlog.Signal) bool { return sig.Name == value }, nil
	case "!=":
		return func(sig *tlog.Signal) bool { return sig.Name != value }, nil
	case "~":
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("failed to compile name regex: %w", err)
		}
		return func(sig *tlog.Signal) bool { return re.MatchString(sig.Name) }, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q for name", c.Op)
	}
}

func compileID(c *Condition) (Predicate, error) {
	var id int64
	switch {
	case c.Value.Integer != nil:
		id = *c.Value.Integer
	case c.Value.Word != nil:
		parsed, err := strconv.ParseInt(*c.Value.Word, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("id condition requires an integer value")
		}
		id = parsed
	default:
		return nil, fmt.Errorf("id condition requires an integer value")
	}
	switch c.Op {
	case "=":
		return func(sig *tlog.Signal) bool { return int64(sig.ID) == id }, nil
	case "!=":
		return func(sig *tlog.Signal) bool { return int64(sig.ID) != id }, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q for id", c.Op)
	}
}

func compileClass(c *Condition) (Predicate, error) {
	value, ok := c.Value.Str()
	if !ok {
		return nil, fmt.Errorf("class condition requires a class name")
	}
	var class schema.Class
	switch value {
	case "scalar":
		class = schema.Scalar
	case "vector":
		class = schema.Vector
	case "matrix":
		class = schema.Matrix
	default:
		return nil, fmt.Errorf("unknown class %q", value)
	}
	switch c.Op {
	case "=":
		return func(sig *tlog.Signal) bool { return sig.Layout.Class == class }, nil
	case "!=":
		return func(sig *tlog.Signal) bool { return sig.Layout.Class != class }, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q for class", c.Op)
	}
}

func compileType(c *Condition) (Predicate, error) {
	value, ok := c.Value.Str()
	if !ok {
		return nil, fmt.Errorf("type condition requires a type name")
	}
	switch c.Op {
	case "=":
		return func(sig *tlog.Signal) bool { return hasType(sig, value) }, nil
	case "!=":
		return func(sig *tlog.Signal) bool { return !hasType(sig, value) }, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q for type", c.Op)
	}
}

func hasType(sig *tlog.Signal, name string) bool {
	if sig.Layout.Class == schema.Scalar {
		for _, f := range sig.Layout.Fields {
			if f.String() == name {
				return true
			}
		}
		return false
	}
	return sig.Layout.Elem.String() == name
}
