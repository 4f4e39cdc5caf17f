package query

import "fmt"

// ParseError reports query syntax that is not supported.
type ParseError struct {
	// Token is the offending word of the query.
	Token string
	// Pos is the rune offset of Token in the normalized query.
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid query at position %d (%q): %s", e.Pos, e.Token, e.Reason)
}
