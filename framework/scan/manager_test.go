package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/srcmap/framework/discovery"
	"github.com/lexcodex/srcmap/framework/language"
	"github.com/lexcodex/srcmap/persistence"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func openStore(t *testing.T, now time.Time) *persistence.MetaStore {
	t.Helper()
	store, err := persistence.OpenMetaStore(filepath.Join(t.TempDir(), "meta.db"),
		persistence.WithClock(persistence.ClockFunc(func() time.Time { return now })))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestManagerPlanLifecycle(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, root, "src/index.ts")
	writeFile(t, root, "src/util.js")
	writeFile(t, root, "README.md")
	writeFile(t, root, "assets/logo.png")
	store := openStore(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))

	manager := NewManager(store, Config{Root: root, Patterns: []string{"**"}, ExtractorVersion: "1.0.0"})
	plan, err := manager.Plan(ctx)
	require.NoError(t, err)
	require.Len(t, plan.Files, 4)
	require.Equal(t, 2, plan.Symbols)
	require.Equal(t, 1, plan.Structure)
	require.Equal(t, 1, plan.Skipped)
	require.Len(t, plan.Extractable(), 3)
	require.False(t, plan.Stale)
	require.Equal(t, ModeFull, plan.Mode, "never refreshed")

	stamp, err := manager.Complete(ctx)
	require.NoError(t, err)
	require.Equal(t, "2024-05-01T08:00:00.000Z", stamp)

	plan, err = manager.Plan(ctx)
	require.NoError(t, err)
	require.Equal(t, ModeIncremental, plan.Mode)
	require.Equal(t, stamp, *plan.Meta.LastUpdatedAt)

	upgraded := NewManager(store, Config{Root: root, Patterns: []string{"**"}, ExtractorVersion: "2.0.0"})
	plan, err = upgraded.Plan(ctx)
	require.NoError(t, err)
	require.True(t, plan.Stale)
	require.Equal(t, ModeFull, plan.Mode)
	require.Equal(t, "1.0.0", *plan.Meta.ExtractorVersion)
}

func TestManagerPathFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts")
	writeFile(t, root, "b_test.ts")
	store := openStore(t, time.Now())

	manager := NewManager(store, Config{Root: root, Patterns: []string{"*.ts"}, ExtractorVersion: "v"})
	manager.SetPathFilter(func(path string) bool { return !strings.HasSuffix(path, "_test.ts") })
	plan, err := manager.Plan(context.Background())
	require.NoError(t, err)
	require.Equal(t, []language.Info{language.Classify("a.ts")}, plan.Files)
}

func TestManagerPlanErrors(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, time.Now())

	_, err := NewManager(store, Config{Root: t.TempDir(), Patterns: []string{"**"}}).Plan(ctx)
	require.Error(t, err)

	_, err = NewManager(nil, Config{ExtractorVersion: "v"}).Plan(ctx)
	require.Error(t, err)

	_, err = NewManager(store, Config{Root: filepath.Join(t.TempDir(), "nope"), Patterns: []string{"**"}, ExtractorVersion: "v"}).Plan(ctx)
	var rootErr *discovery.InvalidRootError
	require.True(t, errors.As(err, &rootErr))

	_, err = NewManager(store, Config{Root: t.TempDir(), Patterns: []string{"[bad"}, ExtractorVersion: "v"}).Plan(ctx)
	var patternErr *discovery.InvalidPatternError
	require.True(t, errors.As(err, &patternErr))
}

type failingStore struct{}

func (failingStore) EnsureMeta(context.Context, string) (persistence.CacheMeta, error) {
	return persistence.CacheMeta{}, &persistence.StorageUnavailableError{Path: "x.db", Op: "write", Err: errors.New("readonly")}
}

func (failingStore) UpdateLastUpdated(context.Context) (string, error) {
	return "", &persistence.StorageUnavailableError{Path: "x.db", Op: "write", Err: errors.New("readonly")}
}

func TestManagerStorageFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts")
	manager := NewManager(failingStore{}, Config{Root: root, Patterns: []string{"**"}, ExtractorVersion: "v"})

	plan, err := manager.Plan(context.Background())
	require.Nil(t, plan)
	var storageErr *persistence.StorageUnavailableError
	require.True(t, errors.As(err, &storageErr))

	_, err = manager.Complete(context.Background())
	require.True(t, errors.As(err, &storageErr))
}
