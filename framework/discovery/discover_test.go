package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// initRepo marks dir as a git worktree. Ignore loading only needs the .git
// entry and its info/exclude file.
func initRepo(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "info"), 0o755))
	writeFile(t, dir, ".git/HEAD", "ref: refs/heads/main\n")
}

func TestDiscoverIgnoredDirectoryWithOverride(t *testing.T) {
	root := t.TempDir()
	initRepo(t, root)
	writeFile(t, root, ".gitignore", "nodejs-sdk/\n")
	writeFile(t, root, "nodejs-sdk/models/Example.ts", "export class Example {}\n")

	files, err := Discover(root, []string{"nodejs-sdk/models/**"}, nil)
	require.NoError(t, err)
	require.Empty(t, files)

	files, err = Discover(root, []string{"nodejs-sdk/models/**"}, []string{"nodejs-sdk/models/**"})
	require.NoError(t, err)
	require.Equal(t, []string{"nodejs-sdk/models/Example.ts"}, files)
}

func TestDiscoverOverrideMustMatch(t *testing.T) {
	root := t.TempDir()
	initRepo(t, root)
	writeFile(t, root, ".gitignore", "vendor/\n")
	writeFile(t, root, "vendor/lib/a.ts", "")
	writeFile(t, root, "vendor/other/b.ts", "")
	writeFile(t, root, "src/c.ts", "")

	result, err := Discoverer{}.Discover(context.Background(), Request{
		Root:           root,
		Patterns:       []string{"**/*.ts"},
		IncludeIgnored: []string{"vendor/lib/**"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"src/c.ts", "vendor/lib/a.ts"}, result.Files)
	require.Equal(t, []string{"vendor/other/b.ts"}, result.Ignored)
	require.Equal(t, []string{"vendor/lib/a.ts"}, result.Retained)
}

func TestDiscoverWithoutRepository(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.ts\n")
	writeFile(t, root, "a.ts", "")
	writeFile(t, root, "b.md", "")

	files, err := Discover(root, []string{"*"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{".gitignore", "a.ts", "b.md"}, files)
}

func TestDiscoverNegationAndNestedRules(t *testing.T) {
	root := t.TempDir()
	initRepo(t, root)
	writeFile(t, root, ".gitignore", "# logs\n*.log\n!keep.log\nbuild/\n!build/keep.txt\n")
	writeFile(t, root, "debug.log", "")
	writeFile(t, root, "keep.log", "")
	writeFile(t, root, "build/keep.txt", "")
	writeFile(t, root, "sub/.gitignore", "*.tmp\n")
	writeFile(t, root, "sub/x.tmp", "")
	writeFile(t, root, "x.tmp", "")
	writeFile(t, root, ".git/info/exclude", "secret.txt\n")
	writeFile(t, root, "secret.txt", "")

	files, err := Discover(root, []string{"**"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{".gitignore", "keep.log", "sub/.gitignore", "x.tmp"}, files)
}

func TestDiscoverRootInsideRepository(t *testing.T) {
	repo := t.TempDir()
	initRepo(t, repo)
	writeFile(t, repo, ".gitignore", "generated/\n")
	writeFile(t, repo, "pkg/generated/a.ts", "")
	writeFile(t, repo, "pkg/src/b.ts", "")

	files, err := Discover(filepath.Join(repo, "pkg"), []string{"**/*.ts"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"src/b.ts"}, files)
}

func TestDiscoverDeduplicatesAndSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/guide.md", "")
	writeFile(t, root, "docs/api/index.md", "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "empty.md"), 0o755))

	files, err := Discover(root, []string{"docs/**/*.md", "**/*.md", "./docs/guide.md"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"docs/api/index.md", "docs/guide.md"}, files)
}

func TestDiscoverSkipsGitDirectory(t *testing.T) {
	root := t.TempDir()
	initRepo(t, root)
	writeFile(t, root, "main.go", "package main\n")

	files, err := Discover(root, []string{"**"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"main.go"}, files)
}

func TestDiscoverSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "real/a.ts", "")
	outside := t.TempDir()
	writeFile(t, outside, "target.ts", "")
	if err := os.Symlink(filepath.Join(outside, "target.ts"), filepath.Join(root, "link.ts")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linkdir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.ts"), filepath.Join(root, "dangling.ts")))

	files, err := Discover(root, []string{"**/*.ts"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"link.ts", "real/a.ts"}, files)
}

func TestDiscoverSymlinkedRoot(t *testing.T) {
	repo := t.TempDir()
	initRepo(t, repo)
	writeFile(t, repo, ".gitignore", "gen/\n")
	writeFile(t, repo, "gen/x.ts", "")
	writeFile(t, repo, "y.ts", "")
	link := filepath.Join(t.TempDir(), "repo")
	if err := os.Symlink(repo, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, err := Discover(link, []string{"**"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{".gitignore", "y.ts"}, files)

	dangling := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.Symlink(filepath.Join(repo, "missing"), dangling))
	_, err = Discover(dangling, []string{"**"}, nil)
	var rootErr *InvalidRootError
	require.True(t, errors.As(err, &rootErr), "unexpected error: %v", err)
	require.Equal(t, dangling, rootErr.Root)
}

func TestDiscoverMissingBaseYieldsNothing(t *testing.T) {
	root := t.TempDir()
	files, err := Discover(root, []string{"does/not/exist/**"}, nil)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestDiscoverInvalidRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.txt", "")

	for _, bad := range []string{"", filepath.Join(root, "missing"), filepath.Join(root, "file.txt")} {
		_, err := Discover(bad, []string{"**"}, nil)
		var rootErr *InvalidRootError
		require.True(t, errors.As(err, &rootErr), "root %q: %v", bad, err)
		require.Equal(t, bad, rootErr.Root)
	}
}

func TestDiscoverInvalidPattern(t *testing.T) {
	root := t.TempDir()
	cases := []struct {
		patterns []string
		include  []string
		bad      string
	}{
		{patterns: []string{"src/[abc"}, bad: "src/[abc"},
		{patterns: []string{"**/*.ts", "{a,b"}, bad: "{a,b"},
		{patterns: []string{"/abs/**"}, bad: "/abs/**"},
		{patterns: []string{"../sibling/**"}, bad: "../sibling/**"},
		{patterns: []string{""}, bad: ""},
		{patterns: []string{"**"}, include: []string{"vendor/[z"}, bad: "vendor/[z"},
	}
	for _, tc := range cases {
		_, err := Discover(root, tc.patterns, tc.include)
		var patternErr *InvalidPatternError
		require.True(t, errors.As(err, &patternErr), "patterns %v: %v", tc.patterns, err)
		require.Equal(t, tc.bad, patternErr.Pattern)
	}

	_, err := Discover(root, nil, nil)
	var patternErr *InvalidPatternError
	require.True(t, errors.As(err, &patternErr))
}

func TestDiscoverCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Discoverer{}.Discover(ctx, Request{Root: root, Patterns: []string{"**"}})
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, result)
}

func TestDiscoverUsesInjectedRules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "")
	writeFile(t, root, "b.ts", "")

	d := Discoverer{LoadRules: func(string) (*IgnoreRules, error) {
		return NewIgnoreRules("b.ts"), nil
	}}
	result, err := d.Discover(context.Background(), Request{Root: root, Patterns: []string{"*.ts"}})
	require.NoError(t, err)
	require.Equal(t, []string{"a.ts"}, result.Files)

	failing := Discoverer{LoadRules: func(string) (*IgnoreRules, error) {
		return nil, errors.New("boom")
	}}
	_, err = failing.Discover(context.Background(), Request{Root: root, Patterns: []string{"*.ts"}})
	require.EqualError(t, err, "boom")
}
