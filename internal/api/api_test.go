package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/morphclean/internal/actions"
	"github.com/starford/morphclean/internal/cleanup"
	"github.com/starford/morphclean/internal/collection"
	"github.com/starford/morphclean/internal/testutil"
)

// testEnv sets up a temp collection, action service and router.
// An empty token means auth is disabled.
func testEnv(t *testing.T, token string) (*collection.DB, http.Handler) {
	t.Helper()
	return testEnvFull(t, token != "", token, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*collection.DB, http.Handler) {
	t.Helper()
	db := testutil.TestCollection(t)
	cleaner := cleanup.New(db, cleanup.Options{
		Queries:         []string{"tag:morphman is:new tag:mm_comprehension"},
		CandidateWindow: 200,
		TargetField:     "TargetMorph",
		FrontField:      "Front",
		KnownTag:        "mm_alreadyKnown",
	})
	svc := actions.NewService(db, cleaner, nil, nil, nil)
	return db, NewRouter(svc, authEnabled, token, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestActionCleanup(t *testing.T) {
	db, router := testEnv(t, "")
	gone := testutil.AddNote(t, db, testutil.Morph("a", "", 1, "morphman", "mm_comprehension"))
	testutil.AddNote(t, db, testutil.Morph("b", "", 2))

	w := do(t, router, http.MethodPost, "/actions/cleanup")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ActionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Action != actions.ActionJustCleanUp || resp.Deleted != 1 || resp.Message != "Deleted 1 notes" {
		t.Errorf("response = %+v", resp)
	}
	if diff := cmp.Diff([]int64{gone}, resp.Report.TagQueryDeleted); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestActionRun_NoRecalcConfigured(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/actions/run")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ActionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Action != actions.ActionRun || resp.Deleted != 0 {
		t.Errorf("response = %+v", resp)
	}
}

func TestFindNotes(t *testing.T) {
	db, router := testEnv(t, "")
	fresh := testutil.AddNote(t, db, testutil.Morph("a", "", 1, "morphman"))
	testutil.AddNote(t, db, testutil.Morph("b", "", 2))

	w := do(t, router, http.MethodGet, "/notes?q=tag%3Amorphman")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if diff := cmp.Diff([]int64{fresh}, resp.IDs); diff != "" || resp.Total != 1 {
		t.Errorf("ids mismatch (-want +got):\n%s total=%d", diff, resp.Total)
	}
}

func TestFindNotes_EmptyResultIsArray(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/notes?q=tag%3Anothing")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var raw map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &raw)
	if ids, ok := raw["ids"].([]any); !ok || len(ids) != 0 {
		t.Errorf("ids = %v", raw["ids"])
	}
}

func TestFindNotes_BadQuery(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/notes?q=is%3Abogus"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid query = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes"); w.Code != http.StatusBadRequest {
		t.Errorf("missing query = %d, want 400", w.Code)
	}
}

func TestGetNote(t *testing.T) {
	db, router := testEnv(t, "")
	id := testutil.AddNote(t, db, testutil.Morph("taberu", "I eat", 1))

	w := do(t, router, http.MethodGet, "/notes/"+strconv.FormatInt(id, 10))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.ID != id || note.Fields["TargetMorph"] != "taberu" {
		t.Errorf("note = %+v", note)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/notes/999"); w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes/abc"); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	db, router := testEnv(t, "")
	id := testutil.AddNote(t, db, testutil.Morph("kuruma", "uniquesentence", 1))

	w := do(t, router, http.MethodGet, "/search?q=uniquesentence")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].NoteID != id {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/search"); w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	db, router := testEnv(t, "")
	testutil.AddNote(t, db, testutil.Morph("a", "", 1))
	testutil.AddNote(t, db, testutil.Morph("b", "", 2))

	w := do(t, router, http.MethodGet, "/stats")
	var st StatsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if w.Code != http.StatusOK || st.Notes != 2 || st.New != 2 {
		t.Errorf("status = %d, stats = %+v", w.Code, st)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed stats = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	if w := do(t, router, http.MethodPost, "/actions/cleanup"); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// sseStub writes headers and blocks until the request context is done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvFull(t, true, "secret", sseStub)
	if w := do(t, router, http.MethodGet, "/events"); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvFull(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}
