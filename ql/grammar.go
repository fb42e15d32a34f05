package ql

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

/*
This file contains a participle grammar for stream filter expressions. Filters
select streams from a decoded log by name, id, class, or element type, e.g.

    name ~ "imu" and class = vector
    type = float64 or id = 3

Conditions combine with "and" and "or"; "and" binds tighter.
*/

////////////////////////////////////////////////////////////////////////////////

var (
	Options = []participle.Option{ // nolint:gochecknoglobals
		participle.Lexer(
			lexer.MustSimple([]lexer.SimpleRule{
				{Name: "Word", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
				{Name: "QuotedString", Pattern: `"(?:\\.|[^"])*"`},
				{Name: "whitespace", Pattern: `\s+`},
				{Name: "BinaryOperator", Pattern: `!=|=|~`},
				{Name: "Integer", Pattern: `[0-9]+`},
			}),
		),
		participle.Unquote("QuotedString"),
	}
)

// Filter is the root of a filter expression.
type Filter struct {
	Or []*OrCondition `@@ ( "or" @@ )*`
}

type OrCondition struct {
	And []*Condition `@@ ( "and" @@ )*`
}

// Condition is a single field comparison.
type Condition struct {
	Field string `@("name" | "id" | "class" | "type")`
	Op    string `@BinaryOperator`
	Value Value  `@@`
}

// Value is the right-hand side of a condition.
type Value struct {
	Text    *string `@QuotedString`
	Word    *string `| @Word`
	Integer *int64  `| @Integer`
}

// Str returns the string form of the value.
func (v Value) Str() (string, bool) {
	if v.Text != nil {
		return *v.Text, true
	}
	if v.Word != nil {
		return *v.Word, true
	}
	return "", false
}

// NewParser returns a new filter parser.
func NewParser() *participle.Parser[Filter] {
	return participle.MustBuild[Filter](Options...)
}
