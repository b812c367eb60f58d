package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/catalogrecon/backend/internal/domain"
)

// Slug index defaults
const (
	DefaultSlugTTL        = time.Hour
	DefaultSlugPageSize   = 100
	DefaultSlugMaxPages   = 50
	DefaultRebuildTimeout = 2 * time.Minute
	DefaultRetryBackoff   = 30 * time.Second
)

const rebuildKey = "slug-index"

// SlugIndexConfig holds configuration for the slug index
type SlugIndexConfig struct {
	TTL            time.Duration
	PageSize       int
	MaxPages       int
	RebuildTimeout time.Duration
	// RetryBackoff is how long a failed rebuild is trusted before the next attempt
	RetryBackoff time.Duration
}

// SlugIndex is the process-scoped cache of every catalog slug.
// Readers share one snapshot; an expired snapshot is rebuilt by exactly one
// upstream load no matter how many callers observe the expiry.
type SlugIndex struct {
	source domain.SlugSource
	config SlugIndexConfig
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	entries  []domain.SlugSummary
	loadedAt time.Time
	loaded   bool
	failedAt time.Time

	group singleflight.Group
}

// NewSlugIndex creates an empty slug index backed by source
func NewSlugIndex(source domain.SlugSource, config SlugIndexConfig, logger *zap.Logger) *SlugIndex {
	if config.TTL <= 0 {
		config.TTL = DefaultSlugTTL
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultSlugPageSize
	}
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultSlugMaxPages
	}
	if config.RebuildTimeout <= 0 {
		config.RebuildTimeout = DefaultRebuildTimeout
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultRetryBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SlugIndex{
		source: source,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the current slug snapshot, rebuilding it first when it is missing
// or older than the TTL. It never fails: on rebuild failure the stale snapshot
// (or an empty one) is returned.
func (i *SlugIndex) Get(ctx context.Context) []domain.SlugSummary {
	if entries, fresh := i.snapshot(); fresh {
		return entries
	}

	v, _, _ := i.group.Do(rebuildKey, func() (interface{}, error) {
		// A caller that saw the stale snapshot may arrive after another rebuild finished
		if entries, fresh := i.snapshot(); fresh {
			return entries, nil
		}
		return i.rebuild(ctx), nil
	})

	return v.([]domain.SlugSummary)
}

// Invalidate marks the snapshot as expired; the next Get triggers a rebuild,
// even during a failure backoff. The stale entries are kept as the fallback
// for a failing rebuild.
func (i *SlugIndex) Invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.loadedAt = time.Time{}
	i.failedAt = time.Time{}
}

// Size returns the number of slugs in the current snapshot
func (i *SlugIndex) Size() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// snapshot reports the entries and whether they may be served without a
// rebuild. After a failed rebuild the stale (or empty) snapshot is served until
// the retry backoff elapses.
func (i *SlugIndex) snapshot() ([]domain.SlugSummary, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	now := i.now()
	if i.loaded && !i.loadedAt.IsZero() && now.Sub(i.loadedAt) < i.config.TTL {
		return i.entries, true
	}
	if !i.failedAt.IsZero() && now.Sub(i.failedAt) < i.config.RetryBackoff {
		if i.entries == nil {
			return []domain.SlugSummary{}, true
		}
		return i.entries, true
	}
	return i.entries, false
}

// rebuild loads every slug page and swaps the snapshot in one step.
// The caller's cancellation is detached so one impatient request cannot fail
// the rebuild that other callers are waiting on.
func (i *SlugIndex) rebuild(ctx context.Context) []domain.SlugSummary {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.config.RebuildTimeout)
	defer cancel()

	started := i.now()
	entries, err := i.loadAll(ctx)
	if err != nil {
		i.mu.Lock()
		stale := i.entries
		i.failedAt = i.now()
		i.mu.Unlock()

		i.logger.Warn("slug index rebuild failed, serving previous snapshot",
			zap.Error(err),
			zap.Int("stale_entries", len(stale)),
			zap.Duration("retry_after", i.config.RetryBackoff),
		)
		if stale == nil {
			return []domain.SlugSummary{}
		}
		return stale
	}

	i.mu.Lock()
	i.entries = entries
	i.loadedAt = i.now()
	i.loaded = true
	i.failedAt = time.Time{}
	i.mu.Unlock()

	i.logger.Info("slug index rebuilt",
		zap.Int("entries", len(entries)),
		zap.Duration("took", i.now().Sub(started)),
	)
	return entries
}

func (i *SlugIndex) loadAll(ctx context.Context) ([]domain.SlugSummary, error) {
	entries := make([]domain.SlugSummary, 0, i.config.PageSize)
	seen := make(map[string]bool)
	skipped := 0
	cursor := ""

	for page := 0; ; page++ {
		if page >= i.config.MaxPages {
			i.logger.Warn("slug index page ceiling reached, keeping partial snapshot",
				zap.Int("max_pages", i.config.MaxPages),
				zap.Int("entries", len(entries)),
			)
			break
		}

		result, err := i.source.ListSlugs(ctx, cursor, i.config.PageSize)
		if err != nil {
			return nil, err
		}

		skipped += result.Skipped
		for _, s := range result.Slugs {
			if s.Slug == "" {
				skipped++
				continue
			}
			if seen[s.Slug] {
				continue
			}
			seen[s.Slug] = true
			entries = append(entries, s)
		}

		if !result.HasNextPage || result.EndCursor == "" {
			break
		}
		cursor = result.EndCursor
	}

	if skipped > 0 {
		i.logger.Info("slug index skipped malformed records", zap.Int("skipped", skipped))
	}
	return entries, nil
}
