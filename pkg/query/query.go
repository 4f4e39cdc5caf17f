// Package query turns user input into a Query: a conjunction of clauses,
// each matching one term against the sheet name, the row content or both.
//
// The accepted syntax is deliberately small:
//
//	lease dispute           both terms must match (AND is implicit)
//	lease AND dispute       same as above
//	sheet:Bankruptcy lease  restrict a term to the sheet name
//	content:lease           restrict a term to the row content
//
// Everything else that looks like query-language syntax (quotes, grouping,
// wildcards, boosts, OR/NOT) is rejected with a *ParseError so that the
// user sees why the query was not run instead of an empty result list.
package query

import (
	"strings"
)

// Field selects which indexed column a clause is matched against.
type Field string

const (
	// FieldAny matches sheet_name or all_content.
	FieldAny        Field = ""
	FieldSheetName  Field = "sheet_name"
	FieldAllContent Field = "all_content"
)

// fieldAliases maps every accepted prefix to its field.
var fieldAliases = map[string]Field{
	"sheet_name":  FieldSheetName,
	"sheet":       FieldSheetName,
	"all_content": FieldAllContent,
	"content":     FieldAllContent,
}

// Columns returns the index columns the field covers.
func (f Field) Columns() []string {
	switch f {
	case FieldSheetName:
		return []string{string(FieldSheetName)}
	case FieldAllContent:
		return []string{string(FieldAllContent)}
	default:
		return []string{string(FieldSheetName), string(FieldAllContent)}
	}
}

// Clause is a single term restricted to a field.
type Clause struct {
	Field Field
	Term  string
	// Pos is the rune offset of the clause in the normalized query.
	Pos int
}

func (c Clause) String() string {
	if c.Field == FieldAny {
		return c.Term
	}
	return string(c.Field) + ":" + c.Term
}

// Query is a parsed, normalized query. All clauses must match.
type Query struct {
	Normalized string
	Clauses    []Clause
}

// Empty reports whether the query has nothing to search for. Callers must
// not run empty queries.
func (q Query) Empty() bool {
	return len(q.Clauses) == 0
}

// Terms returns the clause terms without field prefixes, in query order.
func (q Query) Terms() []string {
	terms := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		terms[i] = c.Term
	}
	return terms
}

func (q Query) String() string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// Normalize replaces ideographic (full-width) spaces with ASCII spaces and
// trims surrounding whitespace.
func Normalize(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "\u3000", " "))
}
