// Package highlight marks the query terms found in displayed values.
//
// Matching is literal and case-sensitive. Each value is scanned once from
// left to right; at every position the longest token that matches there is
// wrapped and the scan resumes after it (leftmost-longest), so overlapping
// tokens never produce nested markers.
package highlight

import (
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/query"
)

// Marker decides how matched and unmatched text is rendered.
type Marker struct {
	// Wrap renders a matched span.
	Wrap func(string) string
	// Escape renders text between matches. Nil leaves it unchanged.
	Escape func(string) string
}

// HTML wraps matches in <mark> and escapes everything for safe inclusion in
// a page.
var HTML = Marker{
	Wrap:   func(s string) string { return "<mark>" + html.EscapeString(s) + "</mark>" },
	Escape: html.EscapeString,
}

// Plain wraps matches in <mark> without escaping.
var Plain = Marker{
	Wrap: func(s string) string { return "<mark>" + s + "</mark>" },
}

// Terminal renders matches with style.
func Terminal(style lipgloss.Style) Marker {
	return Marker{Wrap: func(s string) string { return style.Render(s) }}
}

// Tokens derives highlight tokens from a query: whitespace separated words,
// field prefixes removed, AND dropped, duplicates removed. Longer tokens
// come first, ties sorted lexically.
func Tokens(raw string) []string {
	seen := map[string]struct{}{}
	var tokens []string
	for _, w := range strings.Fields(query.Normalize(raw)) {
		if w == "AND" {
			continue
		}
		if c, err := query.Parse(w); err == nil && len(c.Clauses) == 1 {
			w = c.Clauses[0].Term
		}
		if _, ok := seen[w]; ok || w == "" {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	return tokens
}

// Highlighter marks a fixed token set.
type Highlighter struct {
	tokens []string
	marker Marker
}

// New returns a Highlighter for tokens. Tokens are used as given; see
// Tokens to derive them from a query.
func New(tokens []string, marker Marker) *Highlighter {
	sorted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	return &Highlighter{tokens: sorted, marker: marker}
}

// ForQuery is shorthand for New(Tokens(raw), marker).
func ForQuery(raw string, marker Marker) *Highlighter {
	return New(Tokens(raw), marker)
}

// Tokens returns the tokens being highlighted, longest first.
func (h *Highlighter) Tokens() []string {
	return h.tokens
}

// String highlights every occurrence of every token in s.
func (h *Highlighter) String(s string) string {
	var (
		out   strings.Builder
		plain strings.Builder
	)
	flush := func() {
		if plain.Len() == 0 {
			return
		}
		out.WriteString(h.escape(plain.String()))
		plain.Reset()
	}

	for i := 0; i < len(s); {
		tok := h.longestAt(s[i:])
		if tok == "" {
			// Advance by whole runes so multi-byte text is never split.
			_, size := utf8.DecodeRuneInString(s[i:])
			plain.WriteString(s[i : i+size])
			i += size
			continue
		}
		flush()
		out.WriteString(h.marker.Wrap(tok))
		i += len(tok)
	}
	flush()
	return out.String()
}

func (h *Highlighter) longestAt(s string) string {
	for _, tok := range h.tokens {
		if strings.HasPrefix(s, tok) {
			return tok
		}
	}
	return ""
}

func (h *Highlighter) escape(s string) string {
	if h.marker.Escape == nil {
		return s
	}
	return h.marker.Escape(s)
}

// Field is a highlighted column of a row.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Row highlights the canonical text of every value of row, keeping column
// order. Keys are returned verbatim; escaping them is up to the renderer.
func (h *Highlighter) Row(row core.Row) []Field {
	fields := make([]Field, len(row))
	for i, f := range row {
		fields[i] = Field{Key: f.Key, Value: h.String(f.Value.String())}
	}
	return fields
}
