package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
)

const commentPrefix = "#"

// IgnoreRules is the effective ignore configuration for one discovery root.
// Paths handed to Ignored are relative to that root.
type IgnoreRules struct {
	matcher gitignore.Matcher
	// prefix locates the discovery root inside the worktree.
	prefix   []string
	patterns int
}

// LoadIgnoreRules reads .git/info/exclude and every .gitignore of the
// worktree enclosing root. A root outside any worktree gets empty rules.
func LoadIgnoreRules(root string) (*IgnoreRules, error) {
	worktree, ok, err := findWorktree(root)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &IgnoreRules{}, nil
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(worktree), nil)
	if err != nil {
		return nil, fmt.Errorf("read ignore rules under %s: %w", worktree, err)
	}
	rel, err := filepath.Rel(worktree, root)
	if err != nil {
		return nil, err
	}
	return newIgnoreRules(patterns, splitPath(filepath.ToSlash(rel))), nil
}

// NewIgnoreRules builds rules from gitignore lines scoped to the root.
// Blank lines and comments are skipped the way git skips them.
func NewIgnoreRules(lines ...string) *IgnoreRules {
	var patterns []gitignore.Pattern
	for _, line := range lines {
		if strings.HasPrefix(line, commentPrefix) || strings.TrimSpace(line) == "" {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return newIgnoreRules(patterns, nil)
}

func newIgnoreRules(patterns []gitignore.Pattern, prefix []string) *IgnoreRules {
	return &IgnoreRules{
		matcher:  gitignore.NewMatcher(patterns),
		prefix:   prefix,
		patterns: len(patterns),
	}
}

// Empty reports whether no ignore pattern applies.
func (r *IgnoreRules) Empty() bool {
	return r == nil || r.patterns == 0
}

// Ignored reports whether relPath is excluded. A path inside an excluded
// directory stays excluded even when a later rule negates the path itself,
// matching git.
func (r *IgnoreRules) Ignored(relPath string, isDir bool) bool {
	if r.Empty() {
		return false
	}
	parts := append(append([]string{}, r.prefix...), splitPath(relPath)...)
	if len(parts) == 0 {
		return false
	}
	for i := 1; i < len(parts); i++ {
		if r.matcher.Match(parts[:i], true) {
			return true
		}
	}
	return r.matcher.Match(parts, isDir)
}

// findWorktree walks up from dir looking for a .git entry. Linked worktrees
// and submodules use a .git file, which counts too. A .git entry that cannot
// be inspected is an error rather than a missing worktree.
func findWorktree(dir string) (string, bool, error) {
	current := filepath.Clean(dir)
	for {
		_, err := osfs.New(current).Stat(git.GitDirName)
		switch {
		case err == nil:
			return current, true, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("locate git worktree from %s: %w", dir, err)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false, nil
		}
		current = parent
	}
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}
