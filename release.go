package pbsetup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// ReleaseSource lists available release tags and resolves download
// URLs. It is the upstream collaborator the scaffolder consumes; tests
// substitute an httptest-backed implementation.
type ReleaseSource interface {
	// ListVersions returns stable release tags ordered newest first.
	ListVersions(ctx context.Context) ([]string, error)
	// DownloadURL returns the artifact URL for a tag and platform.
	DownloadURL(tag string, p Platform) string
}

const (
	defaultAPIURL       = "https://api.github.com/repos/pocketbase/pocketbase/releases?per_page=30"
	defaultDownloadBase = "https://github.com/pocketbase/pocketbase/releases/download"

	// Only the most recent stable releases are offered.
	defaultMaxVersions = 15

	listAttempts  = 3
	retryInterval = time.Second
)

// GitHubReleases queries the PocketBase repository on GitHub.
// The zero value is ready to use; the URL and client fields exist so
// tests can point it at a local server.
type GitHubReleases struct {
	APIURL       string
	DownloadBase string
	Client       *http.Client
	MaxVersions  int
}

func (g *GitHubReleases) apiURL() string {
	if g.APIURL != "" {
		return g.APIURL
	}
	return defaultAPIURL
}

func (g *GitHubReleases) downloadBase() string {
	if g.DownloadBase != "" {
		return g.DownloadBase
	}
	return defaultDownloadBase
}

func (g *GitHubReleases) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}

func (g *GitHubReleases) maxVersions() int {
	if g.MaxVersions > 0 {
		return g.MaxVersions
	}
	return defaultMaxVersions
}

// ListVersions returns stable release tags, newest first. Prereleases
// are filtered out. The GitHub API is flaky enough that listing is
// attempted up to three times with a short pause in between.
func (g *GitHubReleases) ListVersions(ctx context.Context) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt < listAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryInterval):
			}
		}
		tags, err := g.listOnce(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		return tags, nil
	}
	return nil, lastErr
}

func (g *GitHubReleases) listOnce(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "pbsetup/1.0")
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	// Authenticate GitHub requests to avoid rate limiting.
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client().Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "list versions", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Op: "list versions", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var releases []struct {
		TagName    string `json:"tag_name"`
		Prerelease bool   `json:"prerelease"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, &NetworkError{Op: "decode releases", Err: err}
	}

	tags := make([]string, 0, len(releases))
	for _, r := range releases {
		if r.Prerelease {
			continue
		}
		tags = append(tags, r.TagName)
	}
	if len(tags) == 0 {
		return nil, ErrNoVersionsAvailable
	}
	if len(tags) > g.maxVersions() {
		tags = tags[:g.maxVersions()]
	}
	return tags, nil
}

// DownloadURL returns the release asset URL for a tag and platform.
func (g *GitHubReleases) DownloadURL(tag string, p Platform) string {
	return fmt.Sprintf("%s/%s/%s", g.downloadBase(), tag, ArtifactName(tag, p))
}

// ArtifactName returns the release asset filename for a tag and
// platform. PocketBase names assets with the tag's leading "v"
// stripped: pocketbase_0.30.3_linux_amd64.zip.
func ArtifactName(tag string, p Platform) string {
	return fmt.Sprintf("pocketbase_%s_%s.zip", strings.TrimPrefix(tag, "v"), p)
}
