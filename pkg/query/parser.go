package query

import (
	"strings"
	"unicode"
)

// reserved are characters with a meaning in richer query languages. They
// are refused rather than silently searched for literally.
const reserved = `"()*?[]{}^~\`

var operators = map[string]string{
	"OR":     "OR is not supported, all terms must match",
	"NOT":    "NOT is not supported",
	"ANDNOT": "ANDNOT is not supported",
}

type word struct {
	text string
	pos  int
}

// Parse normalizes raw and parses it. An empty or whitespace-only input
// yields an empty Query and no error.
func Parse(raw string) (Query, error) {
	normalized := Normalize(raw)
	q := Query{Normalized: normalized}

	words := split(normalized)
	for i, w := range words {
		if w.text == "AND" {
			if i == 0 || i == len(words)-1 || words[i-1].text == "AND" {
				return Query{}, &ParseError{Token: w.text, Pos: w.pos, Reason: "AND needs a term on each side"}
			}
			continue
		}
		if reason, ok := operators[w.text]; ok {
			return Query{}, &ParseError{Token: w.text, Pos: w.pos, Reason: reason}
		}
		clause, err := parseWord(w)
		if err != nil {
			return Query{}, err
		}
		q.Clauses = append(q.Clauses, clause)
	}
	return q, nil
}

// MustParse is like Parse but panics on error.
func MustParse(raw string) Query {
	q, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return q
}

func parseWord(w word) (Clause, error) {
	if i := strings.IndexAny(w.text, reserved); i >= 0 {
		return Clause{}, &ParseError{
			Token:  w.text,
			Pos:    w.pos,
			Reason: "reserved character " + string(w.text[i]) + " is not allowed",
		}
	}

	prefix, term, found := strings.Cut(w.text, ":")
	if !found {
		return Clause{Field: FieldAny, Term: w.text, Pos: w.pos}, nil
	}
	if prefix == "" {
		return Clause{}, &ParseError{Token: w.text, Pos: w.pos, Reason: "missing field name before ':'"}
	}
	if !isIdentifier(prefix) {
		// Things like 12:30 or a URL-ish "x:/y" are plain text, not fields.
		return Clause{Field: FieldAny, Term: w.text, Pos: w.pos}, nil
	}
	field, ok := fieldAliases[strings.ToLower(prefix)]
	if !ok {
		return Clause{}, &ParseError{Token: w.text, Pos: w.pos, Reason: "unknown field " + prefix}
	}
	if term == "" {
		return Clause{}, &ParseError{Token: w.text, Pos: w.pos, Reason: "missing term after ':'"}
	}
	return Clause{Field: field, Term: term, Pos: w.pos}, nil
}

// split breaks s on whitespace, recording each word's rune offset.
func split(s string) []word {
	var (
		words []word
		cur   strings.Builder
		start int
		pos   int
	)
	for _, r := range s {
		if unicode.IsSpace(r) {
			if cur.Len() > 0 {
				words = append(words, word{text: cur.String(), pos: start})
				cur.Reset()
			}
		} else {
			if cur.Len() == 0 {
				start = pos
			}
			cur.WriteRune(r)
		}
		pos++
	}
	if cur.Len() > 0 {
		words = append(words, word{text: cur.String(), pos: start})
	}
	return words
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
