package query

import (
	"strings"
)

// Table aliases the compiled clauses refer to.
const (
	NoteAlias = "n"
	CardAlias = "c"
)

var stateSQL = map[string]string{
	"new":       "c.type = 0",
	"learn":     "c.queue = 1",
	"review":    "c.type = 2",
	"suspended": "c.queue = -1",
	"buried":    "c.queue IN (-2, -3)",
}

// SQL compiles the query to a WHERE clause over notes aliased "n" and, in
// CardMode, cards aliased "c".
func (q Query) SQL(mode Mode) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	for _, t := range q.terms {
		clause, targs := t.sql(mode)
		if t.negate {
			clause = "NOT (" + clause + ")"
		}
		clauses = append(clauses, clause)
		args = append(args, targs...)
	}
	return strings.Join(clauses, " AND "), args
}

func (t term) sql(mode Mode) (string, []any) {
	switch t.kind {
	case kindTag:
		return `EXISTS (SELECT 1 FROM json_each(n.tags) WHERE json_each.value LIKE ? ESCAPE '\')`,
			[]any{globToLike(t.value)}

	case kindState:
		cond := stateSQL[t.value]
		if mode == CardMode {
			return cond, nil
		}
		return "EXISTS (SELECT 1 FROM cards c WHERE c.nid = n.id AND " + cond + ")", nil

	case kindNoteType:
		return "n.mid = ?", []any{t.ids[0]}

	case kindNoteIDs:
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(t.ids)), ",")
		args := make([]any, len(t.ids))
		for i, id := range t.ids {
			args[i] = id
		}
		return "n.id IN (" + placeholders + ")", args

	case kindField:
		path := `$."` + t.name + `"`
		switch t.value {
		case "_*":
			return "coalesce(json_extract(n.fields, ?), '') <> ''", []any{path}
		case "*":
			return "json_extract(n.fields, ?) IS NOT NULL", []any{path}
		case "":
			return "json_extract(n.fields, ?) = ''", []any{path}
		default:
			return `json_extract(n.fields, ?) LIKE ? ESCAPE '\'`, []any{path, globToLike(t.value)}
		}

	default: // kindText
		return `EXISTS (SELECT 1 FROM json_each(n.fields) WHERE json_each.value LIKE ? ESCAPE '\')`,
			[]any{"%" + globToLike(t.value) + "%"}
	}
}

// globToLike converts a "*" wildcard pattern into a LIKE pattern, escaping
// LIKE metacharacters. LIKE is case-insensitive for ASCII in SQLite.
func globToLike(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '%', '_':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '*':
			b.WriteRune('%')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
