// Package discovery enumerates the files of a repository that are in scope
// for extraction: glob expansion rooted at the repository, filtered through
// the version-control ignore rules with an explicit allowlist to retain
// ignored paths.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v6"
)

// Request describes one discovery call. Patterns and IncludeIgnored are
// globs relative to Root using doublestar syntax (*, **, ?, [...], {a,b}).
type Request struct {
	Root           string
	Patterns       []string
	IncludeIgnored []string
}

// Result is the outcome of a discovery call. Files is what callers act on;
// Ignored and Retained are reported for diagnostics.
type Result struct {
	Files []string
	// Ignored lists matched files dropped by ignore rules.
	Ignored []string
	// Retained lists ignored files kept because IncludeIgnored matched them.
	Retained []string
}

// Discoverer runs discovery. The zero value reads ignore rules from the
// enclosing git worktree.
type Discoverer struct {
	// LoadRules replaces LoadIgnoreRules, mainly for tests.
	LoadRules func(root string) (*IgnoreRules, error)
}

// Discover is a convenience wrapper around Discoverer.Discover returning
// only the retained files.
func Discover(root string, patterns []string, includeIgnored []string) ([]string, error) {
	result, err := Discoverer{}.Discover(context.Background(), Request{
		Root:           root,
		Patterns:       patterns,
		IncludeIgnored: includeIgnored,
	})
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

// Discover expands the request against the filesystem. Paths are
// root-relative, forward-slash separated, deduplicated and sorted. Either
// the full result or an error is returned, never both.
func (d Discoverer) Discover(ctx context.Context, req Request) (*Result, error) {
	root, err := validateRoot(req.Root)
	if err != nil {
		return nil, err
	}
	if len(req.Patterns) == 0 {
		return nil, &InvalidPatternError{Reason: "at least one pattern is required"}
	}
	patterns, err := normalizePatterns(req.Patterns)
	if err != nil {
		return nil, err
	}
	overrides, err := normalizePatterns(req.IncludeIgnored)
	if err != nil {
		return nil, err
	}

	load := d.LoadRules
	if load == nil {
		load = LoadIgnoreRules
	}
	rules, err := load(root)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]bool)
	for _, base := range walkBases(patterns) {
		if err := walkCandidates(ctx, root, base, rules, len(overrides) == 0, func(rel string) {
			if matchAny(patterns, rel) {
				candidates[rel] = true
			}
		}); err != nil {
			return nil, err
		}
	}

	result := &Result{}
	for rel := range candidates {
		if !rules.Ignored(rel, false) {
			result.Files = append(result.Files, rel)
			continue
		}
		if matchAny(overrides, rel) {
			result.Files = append(result.Files, rel)
			result.Retained = append(result.Retained, rel)
			continue
		}
		result.Ignored = append(result.Ignored, rel)
	}
	sort.Strings(result.Files)
	sort.Strings(result.Ignored)
	sort.Strings(result.Retained)
	return result, nil
}

func validateRoot(root string) (string, error) {
	if root == "" {
		return "", &InvalidRootError{Root: root, Err: errors.New("root path required")}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &InvalidRootError{Root: root, Err: err}
	}
	// WalkDir does not enter a symlinked start directory.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &InvalidRootError{Root: root, Err: err}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", &InvalidRootError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return "", &InvalidRootError{Root: root}
	}
	return resolved, nil
}

func normalizePatterns(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, pattern := range raw {
		p := pattern
		for strings.HasPrefix(p, "./") {
			p = p[2:]
		}
		switch {
		case strings.TrimSpace(p) == "":
			return nil, &InvalidPatternError{Pattern: pattern, Reason: "empty pattern"}
		case strings.HasPrefix(p, "/") || filepath.IsAbs(p):
			return nil, &InvalidPatternError{Pattern: pattern, Reason: "pattern must be relative to the root"}
		case !doublestar.ValidatePattern(p):
			return nil, &InvalidPatternError{Pattern: pattern, Reason: "malformed glob syntax"}
		}
		if escapesRoot(p) {
			return nil, &InvalidPatternError{Pattern: pattern, Reason: "pattern escapes the root"}
		}
		out = append(out, p)
	}
	return out, nil
}

func escapesRoot(pattern string) bool {
	clean := path.Clean(pattern)
	return clean == ".." || strings.HasPrefix(clean, "../")
}

// walkBases returns the literal directory prefix of each pattern with
// nested prefixes collapsed into their ancestor.
func walkBases(patterns []string) []string {
	var bases []string
	for _, pattern := range patterns {
		base, _ := doublestar.SplitPattern(pattern)
		if strings.Contains(base, `\`) {
			// escaped meta characters; walk from the root and let Match decide.
			base = "."
		}
		bases = append(bases, path.Clean(base))
	}
	sort.Strings(bases)
	var out []string
	for _, base := range bases {
		covered := false
		for _, kept := range out {
			if kept == "." || base == kept || strings.HasPrefix(base, kept+"/") {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, base)
		}
	}
	return out
}

// walkCandidates visits every regular file under root/base. Symlinked files
// are followed, symlinked directories are not entered. When pruneIgnored is
// set, ignored directories are skipped entirely since nothing below them
// can be retained.
func walkCandidates(ctx context.Context, root, base string, rules *IgnoreRules, pruneIgnored bool, visit func(rel string)) error {
	start := filepath.Join(root, filepath.FromSlash(base))
	return filepath.WalkDir(start, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if p == start && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("walk %s: %w", p, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if entry.Name() == git.GitDirName {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if pruneIgnored && rel != "." && rules.Ignored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(p)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
			visit(rel)
			return nil
		}
		if entry.Type().IsRegular() {
			visit(rel)
		}
		return nil
	})
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
