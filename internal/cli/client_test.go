package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"betterhist/internal/auth"
	"betterhist/internal/snapshot"
)

func TestFetchSnapshotSendsAuthHeaderAndDecodesBody(t *testing.T) {
	var gotPath, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get(auth.Header)
		json.NewEncoder(w).Encode(itemsResponse{
			Snapshot: snapshot.Snapshot{UserView: "ls\r", CommandView: "a b c"},
			Index:    -1,
			ListName: "mysession",
		})
	}))
	defer ts.Close()

	addr := strings.TrimPrefix(ts.URL, "http://")
	snap, err := fetchSnapshot(addr, "secret-token", "mysession", -1)
	if err != nil {
		t.Fatalf("fetchSnapshot() error = %v", err)
	}
	if snap.UserView != "ls\r" || snap.CommandView != "a b c" {
		t.Errorf("fetchSnapshot() = %+v, want UserView=ls\\r CommandView=\"a b c\"", snap)
	}
	if gotPath != "/mysession/items/-1" {
		t.Errorf("request path = %q, want /mysession/items/-1", gotPath)
	}
	if gotAuth != "secret-token" {
		t.Errorf("auth header = %q, want secret-token", gotAuth)
	}
}

func TestFetchSnapshotErrorsOnNonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	addr := strings.TrimPrefix(ts.URL, "http://")
	if _, err := fetchSnapshot(addr, "tok", "mysession", 0); err == nil {
		t.Fatal("fetchSnapshot() error = nil, want error for 404 response")
	}
}
