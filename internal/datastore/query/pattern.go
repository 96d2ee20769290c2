package query

import (
	"strings"

	"github.com/tphakala/imagecurator/internal/datastore/entities"
)

// likeEscape escapes LIKE metacharacters. '!' behaves the same in SQLite and
// MySQL string literals, unlike backslash.
const likeEscape = '!'

// Pattern is a parsed user wildcard pattern.
type Pattern struct {
	Any   bool   // bare "*": any non-empty set of rows matches
	Exact bool   // no wildcard: equality against Value
	Value string // folded with entities.FoldText; a LIKE pattern when neither Any nor Exact
}

// ParsePattern turns a user pattern into a Pattern. "*" stands for any run
// of characters; "cat*" is a prefix match, "*ing" a suffix match and "*ing*"
// a substring match. Literal % and _ are escaped. Surrounding whitespace is
// ignored.
func ParsePattern(s string) Pattern {
	s = entities.FoldText(strings.TrimSpace(s))
	if strings.Trim(s, "*") == "" && s != "" {
		return Pattern{Any: true}
	}
	if !strings.Contains(s, "*") {
		return Pattern{Exact: true, Value: s}
	}

	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '*':
			sb.WriteByte('%')
		case '%', '_', likeEscape:
			sb.WriteRune(likeEscape)
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return Pattern{Value: sb.String()}
}
