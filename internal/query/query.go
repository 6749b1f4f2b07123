// Package query parses the collection search language used by the cleanup
// passes and compiles it into SQLite WHERE clauses.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/starford/morphclean/internal/apperr"
)

// Mode selects how card-state terms are compiled.
type Mode int

const (
	// NoteMode matches notes; card terms hold when any card of the note matches.
	NoteMode Mode = iota
	// CardMode matches cards; card terms apply to the row's own card.
	CardMode
)

type termKind int

const (
	kindTag termKind = iota
	kindState
	kindNoteType
	kindNoteIDs
	kindField
	kindText
)

type term struct {
	kind   termKind
	negate bool
	name   string
	value  string
	ids    []int64
}

// Query is a parsed search: every term must hold.
type Query struct {
	raw   string
	terms []term
}

// String returns the source text the query was parsed from.
func (q Query) String() string { return q.raw }

// Parse parses a space separated search. Terms are ANDed, a leading "-"
// negates a term, and double quotes group text containing spaces.
func Parse(s string) (Query, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return Query{}, err
	}
	if len(tokens) == 0 {
		return Query{}, fmt.Errorf("query: empty search: %w", apperr.ErrInvalidQuery)
	}
	q := Query{raw: s}
	for _, tok := range tokens {
		t, err := parseTerm(tok)
		if err != nil {
			return Query{}, err
		}
		q.terms = append(q.terms, t)
	}
	return q, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) Query {
	q, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return q
}

type token struct {
	text   string
	negate bool
}

func tokenize(s string) ([]token, error) {
	var (
		out     []token
		cur     strings.Builder
		inQuote bool
		started bool
		negate  bool
	)
	flush := func() {
		if started {
			out = append(out, token{text: cur.String(), negate: negate})
		}
		cur.Reset()
		started, negate = false, false
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case unicode.IsSpace(r) && !inQuote:
			flush()
		case r == '-' && !inQuote && !started:
			negate = true
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("query: unterminated quote in %q: %w", s, apperr.ErrInvalidQuery)
	}
	if negate && !started {
		return nil, fmt.Errorf("query: dangling '-' in %q: %w", s, apperr.ErrInvalidQuery)
	}
	flush()
	return out, nil
}

func parseTerm(tok token) (term, error) {
	t := term{negate: tok.negate}
	key, value, hasColon := strings.Cut(tok.text, ":")
	if !hasColon {
		if tok.text == "" {
			return t, fmt.Errorf("query: empty term: %w", apperr.ErrInvalidQuery)
		}
		t.kind, t.value = kindText, tok.text
		return t, nil
	}

	switch strings.ToLower(key) {
	case "tag":
		if value == "" {
			return t, fmt.Errorf("query: tag: needs a name: %w", apperr.ErrInvalidQuery)
		}
		t.kind, t.value = kindTag, value
	case "is":
		if _, ok := stateSQL[strings.ToLower(value)]; !ok {
			return t, fmt.Errorf("query: unknown state %q: %w", value, apperr.ErrInvalidQuery)
		}
		t.kind, t.value = kindState, strings.ToLower(value)
	case "mid":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return t, fmt.Errorf("query: mid %q: %w", value, apperr.ErrInvalidQuery)
		}
		t.kind, t.ids = kindNoteType, []int64{id}
	case "nid":
		for _, part := range strings.Split(value, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return t, fmt.Errorf("query: nid %q: %w", part, apperr.ErrInvalidQuery)
			}
			t.ids = append(t.ids, id)
		}
		t.kind = kindNoteIDs
	default:
		if key == "" || strings.Contains(key, `"`) {
			return t, fmt.Errorf("query: bad field name %q: %w", key, apperr.ErrInvalidQuery)
		}
		t.kind, t.name, t.value = kindField, key, value
	}
	return t, nil
}

// NonEmptyField returns a term matching notes whose field is not empty.
func NonEmptyField(field string) string {
	return `"` + field + `:_*"`
}

// And joins search fragments into one search.
func And(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
