package index

import (
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
)

// Text is indexed as overlapping rune bigrams so that a query term matches
// anywhere inside a value, including in scripts without spaces between
// words. SQLite's unicode61 tokenizer would split on spaces and punctuation
// and fold differently, so every gram is handed to it as a hex word that it
// indexes verbatim.
//
//	"Lease" -> "le" "ea" "as" "se" + "e"
//
// The trailing single rune lets one-rune query terms, compiled to a prefix
// query, match the last character of a field too.

func fold(s string) []rune {
	// cases.Caser is not safe for concurrent use.
	return []rune(cases.Fold().String(s))
}

func gram(r []rune) string {
	return hex.EncodeToString([]byte(string(r)))
}

// IndexTokens returns the hex-encoded bigrams of text followed by its last
// rune.
func IndexTokens(text string) []string {
	runes := fold(text)
	switch len(runes) {
	case 0:
		return nil
	case 1:
		return []string{gram(runes)}
	}
	tokens := make([]string, 0, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		tokens = append(tokens, gram(runes[i:i+2]))
	}
	return append(tokens, gram(runes[len(runes)-1:]))
}

// QueryTokens returns the hex-encoded bigrams a term must match
// contiguously. A one-rune term yields its single rune, which callers turn
// into a prefix query.
func QueryTokens(term string) []string {
	runes := fold(term)
	switch len(runes) {
	case 0:
		return nil
	case 1:
		return []string{gram(runes)}
	}
	tokens := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		tokens = append(tokens, gram(runes[i:i+2]))
	}
	return tokens
}

func tokenText(text string) string {
	return strings.Join(IndexTokens(text), " ")
}
