package persistence

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

// Well-known metadata keys. Other keys may live in the same table.
const (
	KeyCreatedAt        = "created_at"
	KeyLastUpdatedAt    = "last_updated_at"
	KeyExtractorVersion = "extractor_version"
)

const memoryPath = ":memory:"

// CacheMeta projects the lifecycle keys. A nil field means the key has
// never been written.
type CacheMeta struct {
	CreatedAt        *string `json:"createdAt" yaml:"created_at"`
	LastUpdatedAt    *string `json:"lastUpdatedAt" yaml:"last_updated_at"`
	ExtractorVersion *string `json:"extractorVersion" yaml:"extractor_version"`
}

// Initialized reports whether the cache was ever bootstrapped.
func (m CacheMeta) Initialized() bool {
	return m.CreatedAt != nil
}

// IsStale reports whether artifacts recorded under m were produced by an
// extractor other than running. An uninitialized cache is stale.
func (m CacheMeta) IsStale(running string) bool {
	return m.ExtractorVersion == nil || *m.ExtractorVersion != running
}

// MetaStore persists cache lifecycle metadata in a SQLite key/value table.
// It assumes a single writer per database file.
type MetaStore struct {
	db    *sql.DB
	path  string
	clock Clock
}

// MetaOption customizes a MetaStore.
type MetaOption func(*MetaStore)

// WithClock replaces the wall clock used for timestamps.
func WithClock(clock Clock) MetaOption {
	return func(s *MetaStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// OpenMetaStore opens/creates the database at dbPath, creating parent
// directories as needed.
func OpenMetaStore(dbPath string, opts ...MetaOption) (*MetaStore, error) {
	if dbPath == "" {
		return nil, &StorageUnavailableError{Path: dbPath, Op: "open", Err: errors.New("database path required")}
	}
	if dbPath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, &StorageUnavailableError{Path: dbPath, Op: "create directory", Err: err}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, &StorageUnavailableError{Path: dbPath, Op: "open", Err: err}
	}
	// one connection keeps :memory: databases alive and serializes writes.
	db.SetMaxOpenConns(1)
	store := &MetaStore{db: db, path: dbPath, clock: SystemClock{}}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MetaStore) initSchema() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return s.fail("open", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return s.fail("init schema", err)
	}
	return nil
}

// Path returns the database location.
func (s *MetaStore) Path() string {
	return s.path
}

// Close releases the underlying database handle.
func (s *MetaStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetMeta returns the value stored under key. ok is false when the key is
// absent; that is not an error.
func (s *MetaStore) GetMeta(ctx context.Context, key string) (value string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, s.fail("read "+key, err)
	}
	return value, true, nil
}

// SetMeta upserts key. The write is a single statement, so the key is
// either fully replaced or untouched.
func (s *MetaStore) SetMeta(ctx context.Context, key, value string) error {
	if key == "" {
		return &InvalidArgumentError{Op: "set meta", Reason: "key required"}
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO meta (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	if err != nil {
		return s.fail("write "+key, err)
	}
	return nil
}

// setIfAbsent writes key only when no row exists yet.
func (s *MetaStore) setIfAbsent(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO meta (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO NOTHING
	`, key, value)
	if err != nil {
		return s.fail("write "+key, err)
	}
	return nil
}

// ReadMeta projects the lifecycle keys without modifying anything.
func (s *MetaStore) ReadMeta(ctx context.Context) (CacheMeta, error) {
	var meta CacheMeta
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta WHERE key IN (?, ?, ?)`,
		KeyCreatedAt, KeyLastUpdatedAt, KeyExtractorVersion)
	if err != nil {
		return meta, s.fail("read meta", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return CacheMeta{}, s.fail("read meta", err)
		}
		v := value
		switch key {
		case KeyCreatedAt:
			meta.CreatedAt = &v
		case KeyLastUpdatedAt:
			meta.LastUpdatedAt = &v
		case KeyExtractorVersion:
			meta.ExtractorVersion = &v
		}
	}
	if err := rows.Err(); err != nil {
		return CacheMeta{}, s.fail("read meta", err)
	}
	return meta, nil
}

// EnsureMeta bootstraps the lifecycle keys. created_at is fixed the first
// time it is missing and extractor_version is recorded only when absent; an
// existing version is never compared or replaced. An empty version is
// rejected before anything is written. The two writes are
// independent, so a later call fills whichever one an interrupted call
// left unset. last_updated_at is returned as stored.
func (s *MetaStore) EnsureMeta(ctx context.Context, extractorVersion string) (CacheMeta, error) {
	if extractorVersion == "" {
		return CacheMeta{}, &InvalidArgumentError{Op: "ensure meta", Reason: "extractor version required"}
	}
	now := FormatTimestamp(s.clock.Now())
	if err := s.setIfAbsent(ctx, KeyCreatedAt, now); err != nil {
		return CacheMeta{}, err
	}
	if err := s.setIfAbsent(ctx, KeyExtractorVersion, extractorVersion); err != nil {
		return CacheMeta{}, err
	}
	return s.ReadMeta(ctx)
}

// UpdateLastUpdated stamps last_updated_at with the current time and
// returns the stored value. A clock that moved backwards does not move the
// stored value backwards.
func (s *MetaStore) UpdateLastUpdated(ctx context.Context) (string, error) {
	now := s.clock.Now()
	prev, ok, err := s.GetMeta(ctx, KeyLastUpdatedAt)
	if err != nil {
		return "", err
	}
	if ok {
		if last, err := ParseTimestamp(prev); err == nil && now.Before(last) {
			now = last
		}
	}
	stamp := FormatTimestamp(now)
	if err := s.SetMeta(ctx, KeyLastUpdatedAt, stamp); err != nil {
		return "", err
	}
	return stamp, nil
}

// Keys lists every stored key, including ones written by other tools.
func (s *MetaStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM meta`)
	if err != nil {
		return nil, s.fail("list keys", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, s.fail("list keys", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list keys", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MetaStore) fail(op string, err error) error {
	return &StorageUnavailableError{Path: s.path, Op: op, Err: err}
}
