package methylomeset

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/transferase/internal/methylome"
)

func newTestSet(capacity int) *Set {
	s := New("", capacity, nil, nil)
	s.load = func(ctx context.Context, name string) (*Entry, error) {
		return &Entry{Name: name, Data: &methylome.Data{Counts: make([]methylome.Count, 10)}}, nil
	}
	return s
}

func TestGetLoadsOnce(t *testing.T) {
	s := newTestSet(3)
	ctx := context.Background()

	var calls int32
	var mu sync.Mutex
	loaded := make(map[string]bool)
	s.load = func(ctx context.Context, name string) (*Entry, error) {
		mu.Lock()
		loaded[name] = true
		calls++
		mu.Unlock()
		return &Entry{Name: name, Data: &methylome.Data{Counts: make([]methylome.Count, 1)}}, nil
	}

	e1, r1, err := s.Get(ctx, "SRX1")
	require.NoError(t, err)
	e2, r2, err := s.Get(ctx, "SRX1")
	require.NoError(t, err)
	assert.Same(t, e1, e2)
	assert.Equal(t, int32(1), calls)
	r1()
	r2()
}

func TestGetEvictsLRUWhenFull(t *testing.T) {
	s := newTestSet(2)
	ctx := context.Background()

	_, r1, err := s.Get(ctx, "a")
	require.NoError(t, err)
	_, r2, err := s.Get(ctx, "b")
	require.NoError(t, err)
	r1()
	r2() // both unreferenced now

	_, r3, err := s.Get(ctx, "c")
	require.NoError(t, err)
	defer r3()

	assert.Equal(t, 2, s.Size())
	_, _, err = s.Get(ctx, "a")
	// "a" was the LRU unreferenced entry and should have been evicted and
	// reloaded (not an error, just a fresh load).
	require.NoError(t, err)
}

func TestGetFailsWhenCacheExhausted(t *testing.T) {
	s := newTestSet(1)
	ctx := context.Background()

	_, release, err := s.Get(ctx, "a")
	require.NoError(t, err)
	defer release()

	_, _, err = s.Get(ctx, "b")
	require.Error(t, err)
}

func TestEvictionSkipsReferencedEntries(t *testing.T) {
	s := newTestSet(2)
	ctx := context.Background()

	_, releaseA, err := s.Get(ctx, "a")
	require.NoError(t, err)
	defer releaseA()
	_, releaseB, err := s.Get(ctx, "b")
	require.NoError(t, err)
	releaseB() // "b" is now unreferenced, "a" is still held

	// "a" is the LRU entry by push order, but it's referenced, so "b"
	// (the only unreferenced entry) must be evicted instead.
	_, releaseC, err := s.Get(ctx, "c")
	require.NoError(t, err)
	defer releaseC()

	assert.Equal(t, 2, s.Size())
	names := s.tracker.Names()
	assert.Contains(t, names, "a")
	assert.Contains(t, names, "c")
	assert.NotContains(t, names, "b")
}
