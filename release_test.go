package pbsetup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestListVersionsFiltersPrereleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"tag_name": "v0.31.0-rc1", "prerelease": true},
			{"tag_name": "v0.30.3", "prerelease": false},
			{"tag_name": "v0.30.2", "prerelease": false}
		]`)
	}))
	defer srv.Close()

	g := &GitHubReleases{APIURL: srv.URL}
	tags, err := g.ListVersions(context.Background())
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	want := []string{"v0.30.3", "v0.30.2"}
	if len(tags) != len(want) {
		t.Fatalf("got %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestListVersionsCapsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[")
		for i := 0; i < 30; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"tag_name": "v0.%d.0", "prerelease": false}`, 30-i)
		}
		fmt.Fprint(w, "]")
	}))
	defer srv.Close()

	g := &GitHubReleases{APIURL: srv.URL}
	tags, err := g.ListVersions(context.Background())
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(tags) != defaultMaxVersions {
		t.Errorf("got %d tags, want %d", len(tags), defaultMaxVersions)
	}
	if tags[0] != "v0.30.0" {
		t.Errorf("tags[0] = %q, want newest first", tags[0])
	}
}

func TestListVersionsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[{"tag_name": "v0.30.3", "prerelease": false}]`)
	}))
	defer srv.Close()

	g := &GitHubReleases{APIURL: srv.URL}
	tags, err := g.ListVersions(context.Background())
	if err != nil {
		t.Fatalf("ListVersions failed after retries: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, want 3", hits.Load())
	}
	if len(tags) != 1 || tags[0] != "v0.30.3" {
		t.Errorf("got %v", tags)
	}
}

func TestListVersionsExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := &GitHubReleases{APIURL: srv.URL}
	_, err := g.ListVersions(context.Background())
	if err == nil {
		t.Fatal("ListVersions succeeded, want error")
	}
	if !IsRetryable(err) {
		t.Errorf("error %v is not a NetworkError", err)
	}
	if hits.Load() != listAttempts {
		t.Errorf("server hit %d times, want %d", hits.Load(), listAttempts)
	}
}

func TestListVersionsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"tag_name": "v0.31.0-rc1", "prerelease": true}]`)
	}))
	defer srv.Close()

	g := &GitHubReleases{APIURL: srv.URL}
	_, err := g.ListVersions(context.Background())
	if !errors.Is(err, ErrNoVersionsAvailable) {
		t.Errorf("got %v, want ErrNoVersionsAvailable", err)
	}
}

func TestDownloadURL(t *testing.T) {
	g := &GitHubReleases{}
	p := Platform{OS: Linux, Arch: AMD64}
	got := g.DownloadURL("v0.30.3", p)
	want := "https://github.com/pocketbase/pocketbase/releases/download/v0.30.3/pocketbase_0.30.3_linux_amd64.zip"
	if got != want {
		t.Errorf("DownloadURL = %q, want %q", got, want)
	}
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		tag  string
		p    Platform
		want string
	}{
		{"v0.30.3", Platform{OS: Linux, Arch: AMD64}, "pocketbase_0.30.3_linux_amd64.zip"},
		{"v0.29.0", Platform{OS: Darwin, Arch: ARM64}, "pocketbase_0.29.0_darwin_arm64.zip"},
		{"v0.30.3", Platform{OS: Windows, Arch: AMD64}, "pocketbase_0.30.3_windows_amd64.zip"},
	}
	for _, tc := range tests {
		if got := ArtifactName(tc.tag, tc.p); got != tc.want {
			t.Errorf("ArtifactName(%s, %v) = %q, want %q", tc.tag, tc.p, got, tc.want)
		}
	}
}
