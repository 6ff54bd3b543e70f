// Package scan drives one refresh cycle: discover the in-scope files,
// classify them, and consult the cache lifecycle metadata to decide whether
// previously extracted artifacts can be reused.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/lexcodex/srcmap/framework/discovery"
	"github.com/lexcodex/srcmap/framework/language"
	"github.com/lexcodex/srcmap/persistence"
)

// Mode is the kind of extraction pass a plan calls for.
type Mode string

const (
	// ModeFull discards cached artifacts and extracts everything.
	ModeFull Mode = "full"
	// ModeIncremental reuses cached artifacts.
	ModeIncremental Mode = "incremental"
)

// LifecycleStore is the part of persistence.MetaStore the manager needs.
type LifecycleStore interface {
	EnsureMeta(ctx context.Context, extractorVersion string) (persistence.CacheMeta, error)
	UpdateLastUpdated(ctx context.Context) (string, error)
}

// Config configures the Manager.
type Config struct {
	Root             string
	Patterns         []string
	IncludeIgnored   []string
	ExtractorVersion string
}

// Plan is the outcome of discovery, classification and the lifecycle check.
type Plan struct {
	Root      string                `json:"root"`
	Files     []language.Info       `json:"files"`
	Symbols   int                   `json:"symbols"`
	Structure int                   `json:"structure"`
	Skipped   int                   `json:"skipped"`
	Meta      persistence.CacheMeta `json:"meta"`
	Stale     bool                  `json:"stale"`
	Mode      Mode                  `json:"mode"`
}

// Extractable returns the files that at least one extractor handles.
func (p *Plan) Extractable() []language.Info {
	var out []language.Info
	for _, info := range p.Files {
		if info.Extractable() {
			out = append(out, info)
		}
	}
	return out
}

// Manager orchestrates discovery and lifecycle bookkeeping.
type Manager struct {
	store      LifecycleStore
	config     Config
	mu         sync.Mutex
	pathFilter func(path string) bool
}

// NewManager builds a manager over store.
func NewManager(store LifecycleStore, config Config) *Manager {
	return &Manager{store: store, config: config}
}

// SetPathFilter installs an optional filter applied to discovered paths
// before classification. Returning false drops the path.
func (m *Manager) SetPathFilter(filter func(path string) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pathFilter = filter
}

// Plan discovers and classifies files, bootstraps the lifecycle metadata
// and reports whether the cache is stale for the running extractor.
func (m *Manager) Plan(ctx context.Context) (*Plan, error) {
	if m.store == nil {
		return nil, errors.New("lifecycle store required")
	}
	if m.config.ExtractorVersion == "" {
		return nil, errors.New("extractor version required")
	}
	m.mu.Lock()
	filter := m.pathFilter
	m.mu.Unlock()

	result, err := discovery.Discoverer{}.Discover(ctx, discovery.Request{
		Root:           m.config.Root,
		Patterns:       m.config.Patterns,
		IncludeIgnored: m.config.IncludeIgnored,
	})
	if err != nil {
		return nil, err
	}

	plan := &Plan{Root: m.config.Root}
	for _, path := range result.Files {
		if filter != nil && !filter(path) {
			continue
		}
		info := language.Classify(path)
		if info.CanExtractSymbols {
			plan.Symbols++
		}
		if info.CanExtractStructure {
			plan.Structure++
		}
		if !info.Extractable() {
			plan.Skipped++
		}
		plan.Files = append(plan.Files, info)
	}

	meta, err := m.store.EnsureMeta(ctx, m.config.ExtractorVersion)
	if err != nil {
		return nil, fmt.Errorf("ensure cache metadata: %w", err)
	}
	plan.Meta = meta
	plan.Stale = meta.IsStale(m.config.ExtractorVersion)
	switch {
	case plan.Stale:
		log.Printf("cache built by extractor %s, running %s: full extraction required",
			deref(meta.ExtractorVersion), m.config.ExtractorVersion)
		plan.Mode = ModeFull
	case meta.LastUpdatedAt == nil:
		plan.Mode = ModeFull
	default:
		plan.Mode = ModeIncremental
	}
	return plan, nil
}

// Complete records a finished refresh cycle and returns its timestamp.
func (m *Manager) Complete(ctx context.Context) (string, error) {
	if m.store == nil {
		return "", errors.New("lifecycle store required")
	}
	return m.store.UpdateLastUpdated(ctx)
}

func deref(s *string) string {
	if s == nil {
		return "<none>"
	}
	return *s
}
