package actions

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/starford/morphclean/internal/cleanup"
	"github.com/starford/morphclean/internal/collection"
	"github.com/starford/morphclean/internal/testutil"
)

type recordingNotifier struct {
	actions []string
	reports []cleanup.Report
}

func (r *recordingNotifier) Notify(_ context.Context, action string, rep cleanup.Report) {
	r.actions = append(r.actions, action)
	r.reports = append(r.reports, rep)
}

// tagging simulates a recalculation that marks a note as comprehensible.
type tagging struct {
	t     *testing.T
	db    *collection.DB
	calls int
	err   error
}

func (r *tagging) Recalculate(context.Context) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	testutil.AddNote(r.t, r.db, testutil.Morph("x", "", 1, "morphman", "mm_comprehension"))
	return nil
}

func newService(t *testing.T, rc *tagging, n Notifier) (*Service, *collection.DB) {
	t.Helper()
	db := testutil.TestCollection(t)
	rc.t, rc.db = t, db
	cleaner := cleanup.New(db, cleanup.Options{
		Queries:         []string{"tag:morphman is:new tag:mm_comprehension"},
		CandidateWindow: 200,
		TargetField:     "TargetMorph",
		FrontField:      "Front",
		KnownTag:        "mm_alreadyKnown",
	})
	return NewService(db, cleaner, rc, n, nil), db
}

func TestRun_RecalculatesThenCleans(t *testing.T) {
	rc := &tagging{}
	notes := &recordingNotifier{}
	svc, db := newService(t, rc, notes)

	rep, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rc.calls != 1 {
		t.Errorf("recalc calls = %d", rc.calls)
	}
	if rep.Deleted() != 1 {
		t.Errorf("Deleted() = %d, want 1", rep.Deleted())
	}
	st, _ := db.Stats(context.Background())
	if st.Notes != 0 {
		t.Errorf("notes left = %d", st.Notes)
	}
	if len(notes.actions) != 1 || notes.actions[0] != ActionRun {
		t.Errorf("notifications = %v", notes.actions)
	}
}

func TestJustCleanUp_SkipsRecalc(t *testing.T) {
	rc := &tagging{}
	notes := &recordingNotifier{}
	svc, db := newService(t, rc, notes)
	testutil.AddNote(t, db, testutil.Morph("y", "", 1, "morphman", "mm_comprehension"))

	rep, err := svc.JustCleanUp(context.Background())
	if err != nil {
		t.Fatalf("JustCleanUp: %v", err)
	}
	if rc.calls != 0 {
		t.Errorf("recalc ran %d times", rc.calls)
	}
	if rep.Deleted() != 1 || notes.actions[0] != ActionJustCleanUp {
		t.Errorf("report = %+v, notifications = %v", rep, notes.actions)
	}
}

func TestRun_RecalcFailureSkipsCleanup(t *testing.T) {
	rc := &tagging{err: errors.New("boom")}
	notes := &recordingNotifier{}
	svc, _ := newService(t, rc, notes)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(notes.actions) != 0 {
		t.Errorf("notified after failure: %v", notes.actions)
	}
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	Notifiers{WriterNotifier{W: &buf}}.Notify(context.Background(), ActionRun, cleanup.Report{
		TagQueryDeleted:   []int64{1, 2},
		DuplicatesDeleted: []int64{3},
		NamesBuried:       []int64{4},
	})
	if got := buf.String(); got != "Deleted 3 notes\n" {
		t.Errorf("output = %q", got)
	}
}
