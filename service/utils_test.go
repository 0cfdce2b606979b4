package service

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
)

func TestStringSet(t *testing.T) {
	ss := StringSet{}
	ss.Push("a")
	ss.Push("b")
	ss.Push("a")
	if !ss.Exists("a") || !ss.Exists("b") || ss.Exists("c") {
		t.Fail()
	}
	sl := ss.Slice()
	sort.Strings(sl)
	if len(sl) != 2 || sl[0] != "a" || sl[1] != "b" {
		t.Errorf("expected [a b] got %v", sl)
	}
	ss.Pop("a")
	if ss.Exists("a") {
		t.Fail()
	}
}

func TestGetBodyRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(503)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := GetBodyRetry(srv.URL, 2)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if string(body) != "ok" {
		t.Errorf("expected ok got %s", body)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls got %d", calls)
	}
}

func TestGetBodyRetryClientError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(400)
	}))
	defer srv.Close()

	_, err := GetBodyRetry(srv.URL, 3)
	if err == nil {
		t.Fatal("expected an error on 4xx")
	}
	if !Fatal(err) {
		t.Error("a 4xx must be marked fatal")
	}
	if calls != 1 {
		t.Errorf("a 4xx must not be retried, got %d calls", calls)
	}
}
