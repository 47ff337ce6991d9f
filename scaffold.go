package pbsetup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pbsetup/internal/templates"
)

// ScaffoldState identifies the scaffolder's position in the setup
// flow. States advance strictly in order; a failure halts the machine
// at its current state without rolling back completed work.
type ScaffoldState int

const (
	StateInit ScaffoldState = iota
	StateVersionResolved
	StatePlatformResolved
	StateArtifactReady
	StateConfigWritten
	StateLayoutComplete
	StateDone
)

func (s ScaffoldState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateVersionResolved:
		return "version resolved"
	case StatePlatformResolved:
		return "platform resolved"
	case StateArtifactReady:
		return "artifact ready"
	case StateConfigWritten:
		return "config written"
	case StateLayoutComplete:
		return "layout complete"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Scaffolder materializes a PocketBase project directory: the resolved
// server binary, the persisted configuration, and the project
// skeleton. Every side effect is idempotent, so a failed run can
// simply be retried and resumes instead of redoing completed work.
type Scaffolder struct {
	Source ReleaseSource
	Cache  *Cache
	Input  InputSource

	// Fetcher is optional; a zero Fetcher over Source is used when nil.
	Fetcher *Fetcher

	state ScaffoldState
	err   error

	dir         string
	tag         string
	tagExplicit bool
	platform    Platform
	port        int
}

// State returns the last state the scaffolder completed.
func (s *Scaffolder) State() ScaffoldState {
	return s.state
}

// Err returns the failure that halted the scaffolder, if any.
func (s *Scaffolder) Err() error {
	return s.err
}

// ProjectDir returns the resolved project directory. Valid after Run
// has passed version resolution.
func (s *Scaffolder) ProjectDir() string {
	return s.dir
}

// Version returns the resolved concrete release tag.
func (s *Scaffolder) Version() string {
	return s.tag
}

func (s *Scaffolder) fetcher() *Fetcher {
	if s.Fetcher != nil {
		return s.Fetcher
	}
	return &Fetcher{Source: s.Source}
}

// Run drives the setup flow to completion. Version resolution strictly
// precedes platform resolution, artifact readiness, the config write
// and layout creation; no step is skipped or reordered. Errors are
// wrapped with the failing step and propagate otherwise unmodified.
func (s *Scaffolder) Run(ctx context.Context) error {
	steps := []struct {
		name string
		next ScaffoldState
		fn   func(context.Context) error
	}{
		{"resolve version", StateVersionResolved, s.resolveVersion},
		{"identify platform", StatePlatformResolved, s.resolvePlatform},
		{"prepare artifact", StateArtifactReady, s.ensureArtifact},
		{"write config", StateConfigWritten, s.writeConfig},
		{"create layout", StateLayoutComplete, s.buildLayout},
		{"install binary", StateDone, s.installBinary},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			s.err = fmt.Errorf("%s: %w", step.name, err)
			return s.err
		}
		s.state = step.next
	}
	return nil
}

// resolveVersion gathers the project directory, lists the available
// releases and resolves the requested version to a concrete tag. No
// filesystem changes happen here. When the project already carries a
// configuration and the caller did not explicitly request a version,
// the project stays pinned to its configured version.
func (s *Scaffolder) resolveVersion(ctx context.Context) error {
	dir, err := s.Input.ProjectDir()
	if err != nil {
		return err
	}
	if s.dir, err = filepath.Abs(dir); err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}

	existing, err := LoadConfig(filepath.Join(s.dir, ConfigFileName))
	if err != nil {
		return err
	}

	available, err := s.Source.ListVersions(ctx)
	if err != nil {
		return err
	}

	requested, explicit, err := s.Input.Version(available)
	if err != nil {
		return err
	}
	if !explicit && existing != nil && existing.Version != "" {
		requested = existing.Version
	}

	tag, err := ResolveVersion(requested, available)
	if err != nil {
		return err
	}
	s.tag, s.tagExplicit = tag, explicit

	Printf(ctx, "Version: %s\n", tag)
	return nil
}

func (s *Scaffolder) resolvePlatform(ctx context.Context) error {
	p, err := Identify()
	if err != nil {
		return err
	}
	s.platform = p
	Printf(ctx, "Platform: %s\n", p)
	return nil
}

// ensureArtifact makes the cache hold a valid artifact for the
// resolved (tag, platform) key. A corrupt entry is demoted and fetched
// again; this is the only error condition downgraded to a retry.
func (s *Scaffolder) ensureArtifact(ctx context.Context) error {
	key := CacheKey{Tag: s.tag, Platform: s.platform}

	if s.Cache.Has(key) {
		_, err := s.Cache.Path(key)
		switch {
		case err == nil:
			Printf(ctx, "Using cached %s\n", key)
			return nil
		case errors.Is(err, ErrCacheCorrupt):
			Printf(ctx, "Cached %s is corrupt, fetching again\n", key)
			if err := s.Cache.Demote(key); err != nil {
				return err
			}
		default:
			return err
		}
	}

	Printf(ctx, "Downloading %s\n", s.Source.DownloadURL(key.Tag, key.Platform))
	return s.fetcher().Fetch(ctx, s.Cache, key)
}

// writeConfig persists the project configuration. A pre-existing
// config is preserved: only values the caller explicitly supplied
// overwrite it.
func (s *Scaffolder) writeConfig(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}

	port, portExplicit, err := s.Input.Port()
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, ConfigFileName)
	existing, err := LoadConfig(path)
	if err != nil {
		return err
	}

	cfg := &ProjectConfig{Port: port, Version: s.tag}
	if existing != nil {
		cfg = existing
		if portExplicit {
			cfg.Port = port
		}
		if s.tagExplicit {
			cfg.Version = s.tag
		}
	}
	s.port = cfg.Port

	if err := SaveConfig(path, cfg); err != nil {
		return err
	}
	Printf(ctx, "Config: port %d, version %s\n", cfg.Port, cfg.Version)
	return nil
}

// buildLayout creates the project skeleton. Directories are created
// only if absent and template files are written only if absent, so
// user-authored content is never touched.
func (s *Scaffolder) buildLayout(ctx context.Context) error {
	dirs := []string{
		"pb_data",
		"pb_hooks",
		"pb_migration",
		"pb_public",
		filepath.Join("pb_hooks_ts", "src", "entries"),
		filepath.Join("pb_hooks_ts", "src", "types"),
		filepath.Join("pb_hooks_ts", "src", "lib"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(s.dir, dir), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	runScript, err := templates.RunScript(s.port)
	if err != nil {
		return err
	}
	readme, err := templates.Readme(s.tag, s.port)
	if err != nil {
		return err
	}

	files := []struct {
		path    string
		content string
		mode    os.FileMode
	}{
		{filepath.Join("pb_data", ".gitkeep"), "", 0o644},
		{filepath.Join("pb_hooks_ts", "package.json"), templates.PackageJSON(), 0o644},
		{filepath.Join("pb_hooks_ts", "tsconfig.json"), templates.TSConfig(), 0o644},
		{filepath.Join("pb_hooks_ts", "tsup.config.ts"), templates.TsupConfig(), 0o644},
		{filepath.Join("pb_hooks_ts", "src", "entries", "main.pb.ts"), templates.HookEntry(), 0o644},
		{filepath.Join("pb_hooks_ts", "src", "types", "pocketbase.d.ts"), templates.HookTypes(), 0o644},
		{".gitignore", templates.Gitignore(), 0o644},
		{"run.sh", runScript, 0o755},
		{"init-types.sh", templates.InitTypesScript(), 0o755},
		{"README.md", readme, 0o644},
	}
	for _, f := range files {
		if err := writeFileIfMissing(filepath.Join(s.dir, f.path), f.content, f.mode); err != nil {
			return err
		}
	}

	Printf(ctx, "Layout ready in %s\n", s.dir)
	return nil
}

// installBinary copies the cached artifact into the project root and
// marks it executable.
func (s *Scaffolder) installBinary(ctx context.Context) error {
	key := CacheKey{Tag: s.tag, Platform: s.platform}
	src, err := s.Cache.Path(key)
	if err != nil {
		return err
	}

	dst := filepath.Join(s.dir, s.platform.BinaryName())
	if err := CopyFile(src, dst, 0o755); err != nil {
		return err
	}
	Printf(ctx, "Installed %s\n", dst)
	return nil
}
