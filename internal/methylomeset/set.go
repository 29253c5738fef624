// Package methylomeset implements the bounded, in-memory cache of loaded
// methylomes described in spec.md §4.5: LRU eviction keyed by methylome
// name, at-most-one concurrent disk load per name, and reference-counted
// entries so an eviction can never invalidate a reader holding one.
package methylomeset

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/log"
	"github.com/grailbio/transferase/internal/catalog"
	"github.com/grailbio/transferase/internal/cpgidx"
	"github.com/grailbio/transferase/internal/lru"
	"github.com/grailbio/transferase/internal/methylome"
	"github.com/grailbio/transferase/internal/xfrerr"
)

const (
	dataExt = ".mcount"
	metaExt = ".json"
)

// Entry is a loaded methylome shared read-only between the set and every
// in-flight query holding a reference to it. It is immutable after
// publish; only refCount changes, via atomic ops.
type Entry struct {
	Name     string
	Meta     methylome.Metadata
	Data     *methylome.Data
	refCount int32
}

// Release is returned by Get and must be called exactly once when the
// caller is done reading the entry.
type Release func()

// loadSlot coordinates at-most-one concurrent disk load per name: the
// first caller for a given name performs the load and fulfills the slot;
// every other concurrent caller for the same name waits on done.
type loadSlot struct {
	done  chan struct{}
	entry *Entry
	err   error
}

// Set is the bounded methylome cache.
type Set struct {
	dir      string
	capacity int
	registry *cpgidx.Registry
	catalog  *catalog.Catalog

	mu      sync.Mutex
	tracker *lru.Tracker
	entries map[string]*Entry
	loading map[string]*loadSlot

	// load performs the actual methylome load for a cache miss. It
	// defaults to (*Set).loadFromDisk; tests substitute a fake so the LRU
	// and reference-counting logic can be exercised without real files.
	load func(ctx context.Context, name string) (*Entry, error)
}

// New returns an empty Set that loads methylome files from dir, validates
// names against cat, and resolves each methylome's owning CpG index via
// registry. capacity bounds the number of simultaneously resident
// methylomes.
func New(dir string, capacity int, registry *cpgidx.Registry, cat *catalog.Catalog) *Set {
	s := &Set{
		dir:      dir,
		capacity: capacity,
		registry: registry,
		catalog:  cat,
		tracker:  lru.NewTracker(capacity),
		entries:  make(map[string]*Entry),
		loading:  make(map[string]*loadSlot),
	}
	s.load = s.loadFromDisk
	return s
}

// Get resolves name to a loaded methylome, loading it from disk on first
// reference. The returned Release must be called when the caller is done
// with the entry; until then, the entry is ineligible for eviction.
func (s *Set) Get(ctx context.Context, name string) (*Entry, Release, error) {
	s.mu.Lock()
	if e, ok := s.entries[name]; ok {
		s.tracker.MoveToFront(name)
		atomic.AddInt32(&e.refCount, 1)
		s.mu.Unlock()
		return e, releaseFunc(e), nil
	}
	if slot, ok := s.loading[name]; ok {
		s.mu.Unlock()
		<-slot.done
		if slot.err != nil {
			return nil, nil, slot.err
		}
		atomic.AddInt32(&slot.entry.refCount, 1)
		return slot.entry, releaseFunc(slot.entry), nil
	}
	slot := &loadSlot{done: make(chan struct{})}
	s.loading[name] = slot
	s.mu.Unlock()

	entry, err := s.load(ctx, name)

	s.mu.Lock()
	delete(s.loading, name)
	if err != nil {
		slot.err = err
		s.mu.Unlock()
		close(slot.done)
		return nil, nil, err
	}
	if s.tracker.Full() {
		if !s.evictUnreferencedLocked() {
			cacheErr := xfrerr.New(xfrerr.CacheExhausted, "every cached methylome is pinned by other readers")
			slot.err = cacheErr
			s.mu.Unlock()
			close(slot.done)
			return nil, nil, cacheErr
		}
	}
	s.entries[name] = entry
	s.tracker.Push(name)
	atomic.AddInt32(&entry.refCount, 1)
	slot.entry = entry
	s.mu.Unlock()
	close(slot.done)
	return entry, releaseFunc(entry), nil
}

func releaseFunc(e *Entry) Release {
	return func() { atomic.AddInt32(&e.refCount, -1) }
}

// evictUnreferencedLocked evicts the least recently used entry with a zero
// reference count, scanning backward from the LRU end until it finds one.
// It must be called with s.mu held. It returns false if every resident
// entry is currently referenced.
func (s *Set) evictUnreferencedLocked() bool {
	names := s.tracker.Names() // most-recently-used first
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		e := s.entries[name]
		if atomic.LoadInt32(&e.refCount) == 0 {
			s.tracker.Remove(name)
			delete(s.entries, name)
			return true
		}
	}
	return false
}

// loadFromDisk performs the actual methylome load: it is called with no
// lock held, so disk I/O never blocks unrelated Get calls.
func (s *Set) loadFromDisk(ctx context.Context, name string) (*Entry, error) {
	genome, ok := s.catalog.GenomeFor(name)
	if !ok {
		return nil, xfrerr.New(xfrerr.InvalidMethylomeName, "unknown methylome name "+name)
	}
	idx, ok := s.registry.Get(genome)
	if !ok {
		return nil, xfrerr.New(xfrerr.InvalidMethylomeName, "no CpG index loaded for genome "+genome)
	}

	dataPath := filepath.Join(s.dir, name+dataExt)
	metaPath := filepath.Join(s.dir, name+metaExt)
	data, meta, err := methylome.Load(ctx, dataPath, metaPath, idx.Hash(), idx.NCpGs())
	if err != nil {
		// methylome.Load already classifies the failure (missing file vs.
		// index mismatch); propagate its kind unchanged.
		return nil, err
	}
	log.Printf("methylomeset: loaded %q (%d CpGs)", name, data.Size())
	return &Entry{Name: name, Meta: meta, Data: data}, nil
}

// IndexFor resolves name's genome via the catalog and returns that
// genome's loaded CpG index. It does not load the methylome itself, so
// callers building a bins-form query can do so before paying for a cache
// slot.
func (s *Set) IndexFor(name string) (*cpgidx.Index, bool) {
	genome, ok := s.catalog.GenomeFor(name)
	if !ok {
		return nil, false
	}
	return s.registry.Get(genome)
}

// Size returns the number of currently resident methylomes.
func (s *Set) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Size()
}
