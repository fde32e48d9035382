package analyzer

import (
	"io"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ParseFunc decodes a snapshot read from r.
type ParseFunc func(source string, r io.Reader) (*Snapshot, error)

// OpenFunc opens the raw bytes behind a source identifier.
type OpenFunc func(source string) (io.ReadCloser, error)

// Loader reads snapshots and caches them by source identifier.
type Loader struct {
	open  OpenFunc
	parse ParseFunc

	mu    sync.RWMutex
	cache map[string]*Snapshot
	group singleflight.Group
}

// NewLoader returns a Loader. Nil functions select OpenSource and ParseSnapshot.
func NewLoader(open OpenFunc, parse ParseFunc) *Loader {
	if open == nil {
		open = OpenSource
	}
	if parse == nil {
		parse = ParseSnapshot
	}
	return &Loader{
		open:  open,
		parse: parse,
		cache: make(map[string]*Snapshot),
	}
}

// Load returns the snapshot for source, parsing it on first use only.
// Concurrent first loads of the same source share a single parse.
func (l *Loader) Load(source string) (*Snapshot, error) {
	if snap, ok := l.cached(source); ok {
		log.Printf("Using cached snapshot: %s", source)
		return snap, nil
	}

	v, err, _ := l.group.Do(source, func() (interface{}, error) {
		if snap, ok := l.cached(source); ok {
			return snap, nil
		}

		log.Printf("Loading snapshot: %s", source)
		rc, err := l.open(source)
		if err != nil {
			return nil, &LoadError{Source: source, Err: err}
		}
		defer rc.Close()

		snap, err := l.parse(source, rc)
		if err != nil {
			return nil, &LoadError{Source: source, Err: err}
		}
		if snap == nil {
			snap = &Snapshot{Source: source}
		}

		l.mu.Lock()
		l.cache[source] = snap
		l.mu.Unlock()

		log.Printf("Loaded snapshot '%s': %d nodes, %d strings", source, snap.NodeCount(), len(snap.Strings))
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (l *Loader) cached(source string) (*Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snap, ok := l.cache[source]
	return snap, ok
}

// ClearCache drops every cached snapshot. Snapshots already handed out stay valid.
func (l *Loader) ClearCache() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.cache)
	l.cache = make(map[string]*Snapshot)
	return n
}

// Len reports how many snapshots are cached.
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}
