package analyzer

import (
	"log"
	"sync"
)

// EventKind names a notification emitted by the Analyzer.
type EventKind string

const (
	EventAnalysisStarted   EventKind = "analysis-started"
	EventAnalysisCompleted EventKind = "analysis-completed"
	EventAnalysisError     EventKind = "analysis-error"
	EventCacheCleared      EventKind = "cache-cleared"
	EventAnalysisExported  EventKind = "analysis-exported"
	EventExportError       EventKind = "export-error"
)

// Event carries the payload for one notification. Only the fields relevant
// to Kind are set.
type Event struct {
	Kind         EventKind
	BaselinePath string
	CurrentPath  string
	ExportPath   string
	Analysis     *Analysis
	Err          error
}

// Listener receives events synchronously on the emitting goroutine.
type Listener func(Event)

type listenerSet struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]Listener
}

func (s *listenerSet) add(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]Listener)
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *listenerSet) emit(ev Event) {
	s.mu.Lock()
	fns := make([]Listener, 0, len(s.fns))
	// 按注册顺序调用
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		callListener(fn, ev)
	}
}

func callListener(fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: listener for %s event panicked: %v", ev.Kind, r)
		}
	}()
	fn(ev)
}
