package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogrecon/backend/internal/domain"
)

// fakeSlugSource serves pages by numeric cursor and counts upstream calls
type fakeSlugSource struct {
	mu      sync.Mutex
	pages   [][]domain.SlugSummary
	endless bool
	err     error
	calls   int32
	started chan struct{}
	release chan struct{}
}

func (f *fakeSlugSource) ListSlugs(ctx context.Context, after string, first int) (*domain.SlugPage, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	idx := 0
	if after != "" {
		idx, _ = strconv.Atoi(after)
	}
	if f.endless {
		return &domain.SlugPage{
			Slugs:       []domain.SlugSummary{{Slug: fmt.Sprintf("slug-%d", idx)}},
			HasNextPage: true,
			EndCursor:   strconv.Itoa(idx + 1),
		}, nil
	}
	if idx >= len(f.pages) {
		return &domain.SlugPage{}, nil
	}
	return &domain.SlugPage{
		Slugs:       f.pages[idx],
		HasNextPage: idx+1 < len(f.pages),
		EndCursor:   strconv.Itoa(idx + 1),
	}, nil
}

func (f *fakeSlugSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSlugSource) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}

// testClock is a manually advanced time source
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestIndex(source domain.SlugSource, config SlugIndexConfig) (*SlugIndex, *testClock) {
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	index := NewSlugIndex(source, config, nil)
	index.now = clock.Now
	return index, clock
}

func TestNewSlugIndex_Defaults(t *testing.T) {
	index := NewSlugIndex(&fakeSlugSource{}, SlugIndexConfig{}, nil)
	assert.Equal(t, DefaultSlugTTL, index.config.TTL)
	assert.Equal(t, DefaultSlugPageSize, index.config.PageSize)
	assert.Equal(t, DefaultSlugMaxPages, index.config.MaxPages)
	assert.Equal(t, DefaultRebuildTimeout, index.config.RebuildTimeout)
	assert.Equal(t, DefaultRetryBackoff, index.config.RetryBackoff)
	assert.Equal(t, 0, index.Size())
}

func TestSlugIndex_LoadsAllPages(t *testing.T) {
	source := &fakeSlugSource{pages: [][]domain.SlugSummary{
		{{Slug: "a", Name: "A"}, {Slug: "b", Name: "B"}},
		{{Slug: "c", Name: "C"}, {Slug: "a", Name: "A again"}, {Slug: "", Name: "broken"}},
	}}
	index, _ := newTestIndex(source, SlugIndexConfig{})

	entries := index.Get(context.Background())

	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Slug)
	assert.Equal(t, "A", entries[0].Name, "first occurrence wins")
	assert.Equal(t, "c", entries[2].Slug)
	assert.Equal(t, 2, source.callCount())
	assert.Equal(t, 3, index.Size())
}

func TestSlugIndex_ServesFromCacheWithinTTL(t *testing.T) {
	source := &fakeSlugSource{pages: [][]domain.SlugSummary{{{Slug: "a"}}}}
	index, clock := newTestIndex(source, SlugIndexConfig{TTL: time.Minute})
	ctx := context.Background()

	index.Get(ctx)
	clock.Advance(30 * time.Second)
	index.Get(ctx)
	assert.Equal(t, 1, source.callCount())

	clock.Advance(31 * time.Second)
	index.Get(ctx)
	assert.Equal(t, 2, source.callCount(), "expired snapshot should rebuild")
}

func TestSlugIndex_SingleFlight(t *testing.T) {
	source := &fakeSlugSource{
		pages:   [][]domain.SlugSummary{{{Slug: "a"}, {Slug: "b"}}},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	index, _ := newTestIndex(source, SlugIndexConfig{})

	const callers = 20
	var wg sync.WaitGroup
	results := make([][]domain.SlugSummary, callers)
	for n := 0; n < callers; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n] = index.Get(context.Background())
		}(n)
	}

	<-source.started
	// let the remaining callers pile up behind the in-flight rebuild
	time.Sleep(20 * time.Millisecond)
	close(source.release)
	wg.Wait()

	assert.Equal(t, 1, source.callCount())
	for n := 0; n < callers; n++ {
		assert.Len(t, results[n], 2)
	}
}

func TestSlugIndex_RebuildFailure(t *testing.T) {
	t.Run("cold cache returns empty snapshot", func(t *testing.T) {
		source := &fakeSlugSource{err: errors.New("upstream down")}
		index, _ := newTestIndex(source, SlugIndexConfig{})

		entries := index.Get(context.Background())
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("stale snapshot retained and retried", func(t *testing.T) {
		source := &fakeSlugSource{pages: [][]domain.SlugSummary{{{Slug: "a"}, {Slug: "b"}}}}
		index, clock := newTestIndex(source, SlugIndexConfig{TTL: time.Minute})
		ctx := context.Background()

		require.Len(t, index.Get(ctx), 2)

		source.setErr(errors.New("upstream down"))
		clock.Advance(2 * time.Minute)
		entries := index.Get(ctx)
		assert.Len(t, entries, 2)
		assert.Equal(t, 2, source.callCount())

		// the failure is trusted for the backoff, then the next read retries
		source.setErr(nil)
		index.Get(ctx)
		assert.Equal(t, 2, source.callCount())

		clock.Advance(DefaultRetryBackoff)
		require.Len(t, index.Get(ctx), 2)
		assert.Equal(t, 3, source.callCount())
	})
}

func TestSlugIndex_FailureBackoff(t *testing.T) {
	source := &fakeSlugSource{err: errors.New("upstream down")}
	index, clock := newTestIndex(source, SlugIndexConfig{RetryBackoff: 10 * time.Second})
	ctx := context.Background()

	for n := 0; n < 10; n++ {
		entries := index.Get(ctx)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	}
	assert.Equal(t, 1, source.callCount(), "reads during the backoff must not hit upstream")

	clock.Advance(9 * time.Second)
	index.Get(ctx)
	assert.Equal(t, 1, source.callCount())

	clock.Advance(time.Second)
	index.Get(ctx)
	assert.Equal(t, 2, source.callCount())

	// an explicit refresh skips the backoff
	index.Invalidate()
	index.Get(ctx)
	assert.Equal(t, 3, source.callCount())
}

func TestSlugIndex_PageCeiling(t *testing.T) {
	source := &fakeSlugSource{endless: true}
	index, _ := newTestIndex(source, SlugIndexConfig{MaxPages: 3})

	entries := index.Get(context.Background())

	assert.Len(t, entries, 3)
	assert.Equal(t, 3, source.callCount())
}

func TestSlugIndex_Invalidate(t *testing.T) {
	source := &fakeSlugSource{pages: [][]domain.SlugSummary{{{Slug: "a"}}}}
	index, _ := newTestIndex(source, SlugIndexConfig{})
	ctx := context.Background()

	index.Get(ctx)
	index.Invalidate()
	assert.Equal(t, 1, index.Size(), "entries survive invalidation")

	index.Get(ctx)
	assert.Equal(t, 2, source.callCount())
}

func TestSlugIndex_CallerCancellationDoesNotAbortRebuild(t *testing.T) {
	source := &fakeSlugSource{pages: [][]domain.SlugSummary{{{Slug: "a"}}}}
	index, _ := newTestIndex(source, SlugIndexConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Len(t, index.Get(ctx), 1)
}
