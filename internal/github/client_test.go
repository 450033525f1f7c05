// SPDX-License-Identifier: MPL-2.0

package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const branchBody = `{
	"name": "123",
	"commit": {
		"commit": {
			"committer": {"date": "2024-05-01T10:00:00Z"},
			"tree": {"url": "%s/trees/abc"}
		}
	}
}`

func TestBranch_OK(t *testing.T) {
	t.Parallel()

	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/branches/123" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		fmt.Fprintf(w, branchBody, "https://api.example")
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithToken("secret"))
	br, err := client.Branch(context.Background(), "owner/repo", "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if br.Name != "123" {
		t.Errorf("name: got %q, want %q", br.Name, "123")
	}
	if br.TreeURL != "https://api.example/trees/abc" {
		t.Errorf("tree url: got %q", br.TreeURL)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if !br.CommittedAt.Equal(want) {
		t.Errorf("committed at: got %v, want %v", br.CommittedAt, want)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization header: got %q", gotAuth)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Errorf("accept header: got %q", gotAccept)
	}
}

func TestBranch_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryPolicy(5, time.Millisecond))
	_, err := client.Branch(context.Background(), "owner/repo", "999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestBranch_MissingShapeMeansAbsent(t *testing.T) {
	t.Parallel()

	// A 200 body without the commit fields is "no data", not a flaky server.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "123"}`)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryPolicy(2, time.Millisecond))
	_, err := client.Branch(context.Background(), "owner/repo", "123")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBranch_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, branchBody, "https://api.example")
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryPolicy(5, time.Millisecond))
	br, err := client.Branch(context.Background(), "owner/repo", "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if br.Name != "123" {
		t.Errorf("name: got %q", br.Name)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
}

func TestBranch_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryPolicy(3, time.Millisecond))
	_, err := client.Branch(context.Background(), "owner/repo", "123")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("transient failure must not look like NotFound: %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
}

func TestTree_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tree": [{"path": "100.manifest", "type": "blob"}, {"path": "config.vdf", "type": "blob"}]}`)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	entries, err := client.Tree(context.Background(), srv.URL+"/trees/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Path != "100.manifest" || entries[0].Type != "blob" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
}

func TestTree_MissingTreeKeyMeansAbsent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": "Not a tree"}`)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetryPolicy(2, time.Millisecond))
	_, err := client.Tree(context.Background(), srv.URL+"/trees/abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRawContent_NoTokenLeaksToRawHost(t *testing.T) {
	t.Parallel()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer apiSrv.Close()

	var gotAuth string
	rawSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/owner/repo/123/100.manifest" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte{0xde, 0xad, 0xbe, 0xef})
	}))
	defer rawSrv.Close()

	client := NewClient(WithBaseURL(apiSrv.URL), WithRawBaseURL(rawSrv.URL), WithToken("secret"))
	content, err := client.RawContent(context.Background(), "owner/repo", "123", "100.manifest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(content) != 4 || content[0] != 0xde {
		t.Errorf("unexpected content: %x", content)
	}
	if gotAuth != "" {
		t.Errorf("token leaked to raw host: %q", gotAuth)
	}
}

func TestRawContent_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithRawBaseURL(srv.URL), WithRetryPolicy(2, time.Millisecond))
	_, err := client.RawContent(context.Background(), "owner/repo", "123", "missing.manifest")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rate_limit" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"rate": {"remaining": 42, "reset": 1714557600}}`)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quota, err := client.RateLimit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quota.Remaining != 42 {
		t.Errorf("remaining: got %d, want 42", quota.Remaining)
	}
	if !quota.Reset.Equal(time.Unix(1714557600, 0)) {
		t.Errorf("reset: got %v", quota.Reset)
	}
}
