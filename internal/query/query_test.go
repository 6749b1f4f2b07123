package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/morphclean/internal/apperr"
)

func TestParse_TagsAndStates(t *testing.T) {
	q, err := Parse("tag:morphman is:new tag:mm_comprehension")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	where, args := q.SQL(NoteMode)
	if got := strings.Count(where, "EXISTS ("); got != 3 {
		t.Errorf("expected 3 ANDed clauses, got %d in %q", got, where)
	}
	if !strings.Contains(where, "c.nid = n.id AND c.type = 0") {
		t.Errorf("note mode should wrap card state in EXISTS: %q", where)
	}
	if diff := cmp.Diff([]any{"morphman", `mm\_comprehension`}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CardModeUsesRowCard(t *testing.T) {
	q := MustParse("is:suspended")
	where, _ := q.SQL(CardMode)
	if where != "c.queue = -1" {
		t.Errorf("where = %q", where)
	}
}

func TestParse_QuotedFieldWithSpace(t *testing.T) {
	q, err := Parse(`mid:"1598115874278" "Audio Sound:_*"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	where, args := q.SQL(NoteMode)
	if !strings.Contains(where, "n.mid = ?") || !strings.Contains(where, "<> ''") {
		t.Errorf("where = %q", where)
	}
	if diff := cmp.Diff([]any{int64(1598115874278), `$."Audio Sound"`}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Negation(t *testing.T) {
	q := MustParse("-tag:keep nid:1,2,3")
	where, args := q.SQL(NoteMode)
	if !strings.HasPrefix(where, "NOT (EXISTS") {
		t.Errorf("where = %q", where)
	}
	if diff := cmp.Diff([]any{"keep", int64(1), int64(2), int64(3)}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "is:flying", "mid:abc", `"unterminated`, "tag:", "nid:1,x", "-"} {
		if _, err := Parse(in); !errors.Is(err, apperr.ErrInvalidQuery) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidQuery", in, err)
		}
	}
}

func TestGlobToLike(t *testing.T) {
	cases := map[string]string{
		"mm_*":  `mm\_%`,
		"100%":  `100\%`,
		`a\b`:   `a\\b`,
		"plain": "plain",
		"*x*":   "%x%",
	}
	for in, want := range cases {
		if got := globToLike(in); got != want {
			t.Errorf("globToLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNonEmptyFieldRoundTrip(t *testing.T) {
	q := MustParse(And("is:new", NonEmptyField("TargetMorph"), ""))
	if q.String() != `is:new "TargetMorph:_*"` {
		t.Errorf("String() = %q", q.String())
	}
	if len(q.terms) != 2 || q.terms[1].kind != kindField || q.terms[1].name != "TargetMorph" {
		t.Errorf("terms = %+v", q.terms)
	}
}
