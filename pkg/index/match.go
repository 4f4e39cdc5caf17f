package index

import (
	"fmt"
	"strings"

	"github.com/rubiojr/hayao/pkg/query"
)

// MatchExpression compiles q into an FTS5 MATCH expression: one clause per
// term, a phrase of the term's bigrams restricted to the clause columns,
// joined with AND.
func MatchExpression(q query.Query) (string, error) {
	if q.Empty() {
		return "", ErrEmptyQuery
	}

	clauses := make([]string, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		tokens := QueryTokens(c.Term)
		if len(tokens) == 0 {
			return "", fmt.Errorf("term %q has no searchable characters", c.Term)
		}

		phrase := `"` + strings.Join(tokens, " ") + `"`
		if len(fold(c.Term)) == 1 {
			phrase += "*"
		}

		cols := c.Field.Columns()
		var filter string
		if len(cols) == 1 {
			filter = cols[0]
		} else {
			filter = "{" + strings.Join(cols, " ") + "}"
		}
		clauses = append(clauses, filter+" : "+phrase)
	}
	return strings.Join(clauses, " AND "), nil
}
