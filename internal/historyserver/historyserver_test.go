package historyserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"betterhist/internal/auth"
	"betterhist/internal/snapshot"
)

const testToken = "test-token-0123456789abcdef"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := snapshot.InMemory()
	if err != nil {
		t.Fatalf("InMemory() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New("mysession", store, auth.NewChecker(testToken), 10, nil)
}

func doRequest(s *Server, method, path string, body []byte, withAuth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if withAuth {
		req.Header.Set(auth.Header, testToken)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestAppendAndGetRoundTrip(t *testing.T) {
	s := newTestServer(t)

	body, _ := json.Marshal(snapshot.Snapshot{
		Timestamp:   1.0,
		Columns:     80,
		Lines:       24,
		UserView:    "ls\r",
		CommandView: "a b c",
	})
	rec := doRequest(s, http.MethodPost, "/mysession/items/", body, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST items status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var posted struct {
		Message    string `json:"message"`
		ListLength int    `json:"list_length"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &posted); err != nil {
		t.Fatalf("unmarshal POST response: %v", err)
	}
	if posted.Message == "" || posted.ListLength != 1 {
		t.Errorf("POST response = %+v, want non-empty message and list_length=1", posted)
	}

	rec = doRequest(s, http.MethodGet, "/mysession/items/0", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET items/0 status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Snapshot snapshot.Snapshot `json:"snapshot"`
		Index    int               `json:"index"`
		ListName string            `json:"list_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.Snapshot.UserView != "ls\r" || got.Snapshot.CommandView != "a b c" {
		t.Errorf("got snapshot %+v, want UserView=ls\\r CommandView=\"a b c\"", got.Snapshot)
	}
	if got.Index != 0 || got.ListName != "mysession" {
		t.Errorf("got index=%d list_name=%q, want index=0 list_name=mysession", got.Index, got.ListName)
	}
}

func TestGetUnknownIndexReturns404(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/mysession/items/5", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMissingAuthTokenReturns401(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/mysession/items/0", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWrongHistoryNameReturns404(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/othersession/items/0", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSearchRejectsBadSearchIn(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/mysession/search/?pattern=x&search_in=bogus", nil, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchReturnsMatches(t *testing.T) {
	s := newTestServer(t)
	for _, uv := range []string{"git status", "ls"} {
		body, _ := json.Marshal(snapshot.Snapshot{UserView: uv, CommandView: "out"})
		doRequest(s, http.MethodPost, "/mysession/items/", body, true)
	}

	rec := doRequest(s, http.MethodGet, "/mysession/search/?pattern=git", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Message  string            `json:"message"`
		Results  []snapshot.Result `json:"results"`
		ListName string            `json:"list_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(got.Results) != 1 || got.Results[0].Snapshot.UserView != "git status" {
		t.Errorf("results = %+v, want one match for git status", got.Results)
	}
	if got.Message == "" || got.ListName != "mysession" {
		t.Errorf("message/list_name = %+v, want non-empty message and list_name=mysession", got)
	}
}

func TestSearchAcceptsDocumentedSearchInValues(t *testing.T) {
	s := newTestServer(t)
	for _, uv := range []string{"git status", "ls"} {
		body, _ := json.Marshal(snapshot.Snapshot{UserView: uv, CommandView: "out"})
		doRequest(s, http.MethodPost, "/mysession/items/", body, true)
	}

	for _, searchIn := range []string{"user_view", "command_view", "both"} {
		rec := doRequest(s, http.MethodGet, "/mysession/search/?pattern=git&search_in="+searchIn, nil, true)
		if rec.Code != http.StatusOK {
			t.Errorf("search_in=%s status = %d, want 200", searchIn, rec.Code)
		}
	}

	for _, searchIn := range []string{"user", "command"} {
		rec := doRequest(s, http.MethodGet, "/mysession/search/?pattern=git&search_in="+searchIn, nil, true)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("search_in=%s status = %d, want 400 (legacy spelling no longer accepted)", searchIn, rec.Code)
		}
	}
}
