package pbsetup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Fetcher downloads release artifacts into a Cache. The artifact is
// streamed to disk and extracted inside the write handle's staging
// directory, so a failure at any point leaves the cache key absent.
type Fetcher struct {
	Source ReleaseSource
	Client *http.Client

	// Progress, when set, is called from the download loop with the
	// bytes written so far and the expected total (-1 when unknown).
	Progress func(written, total int64)
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// Fetch downloads, extracts and publishes the artifact for key.
// A transient network failure is retried once; a missing release asset
// (bad tag/platform combination) is terminal and never retried.
func (f *Fetcher) Fetch(ctx context.Context, cache *Cache, key CacheKey) error {
	if cache.Has(key) {
		return nil
	}

	err := f.fetchOnce(ctx, cache, key)
	if err != nil && IsRetryable(err) {
		err = f.fetchOnce(ctx, cache, key)
	}
	if err != nil {
		return fmt.Errorf("fetch %s for %s: %w", key.Tag, key.Platform, err)
	}
	return nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, cache *Cache, key CacheKey) error {
	h, err := cache.BeginWrite(key)
	if err != nil {
		return err
	}
	if err := f.downloadTo(ctx, key, h.Dir()); err != nil {
		cache.Abort(h)
		return err
	}
	return cache.Commit(h)
}

// downloadTo streams the release asset into destDir and extracts it
// there. The archive itself is removed after extraction; only the
// extracted content is committed.
func (f *Fetcher) downloadTo(ctx context.Context, key CacheKey, destDir string) error {
	url := f.Source.DownloadURL(key.Tag, key.Platform)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "pbsetup/1.0")
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return &NetworkError{Op: "download " + url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s has no asset for %s", ErrNotFound, key.Tag, key.Platform)
	case resp.StatusCode != http.StatusOK:
		return &NetworkError{Op: "download " + url, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	archive := filepath.Join(destDir, ArtifactName(key.Tag, key.Platform))
	out, err := os.Create(archive)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}

	body := io.Reader(resp.Body)
	if f.Progress != nil {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, fn: f.Progress}
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return &NetworkError{Op: "download " + url, Err: err}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive file: %w", err)
	}

	if err := ExtractArchive(archive, destDir); err != nil {
		return err
	}
	if err := os.Remove(archive); err != nil {
		return fmt.Errorf("remove archive: %w", err)
	}

	// The extracted binary must exist and be executable before commit.
	bin := filepath.Join(destDir, key.Platform.BinaryName())
	if _, err := os.Stat(bin); err != nil {
		return fmt.Errorf("archive for %s missing %s: %w", key.Tag, key.Platform.BinaryName(), err)
	}
	if err := os.Chmod(bin, 0o755); err != nil {
		return fmt.Errorf("chmod binary: %w", err)
	}
	return nil
}

// progressReader reports cumulative bytes read to a callback.
type progressReader struct {
	r       io.Reader
	written int64
	total   int64
	fn      func(written, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		p.fn(p.written, p.total)
	}
	return n, err
}
