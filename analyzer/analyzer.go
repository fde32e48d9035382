package analyzer

import (
	"log"
	"sync"
	"time"
)

// Analyzer compares heap snapshots. It owns a snapshot cache and an
// in-memory history of completed analyses; both are private to the instance.
type Analyzer struct {
	loader       *Loader
	thresholds   Thresholds
	historyLimit int
	now          func() time.Time

	listeners listenerSet

	mu      sync.Mutex
	history []Analysis
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithThresholds replaces the default detection thresholds.
func WithThresholds(th Thresholds) Option {
	return func(a *Analyzer) { a.thresholds = th }
}

// WithLoader replaces the default snapshot loader.
func WithLoader(l *Loader) Option {
	return func(a *Analyzer) { a.loader = l }
}

// WithHistoryLimit keeps at most n analyses, dropping the oldest first.
// Zero or less keeps everything.
func WithHistoryLimit(n int) Option {
	return func(a *Analyzer) { a.historyLimit = n }
}

// WithClock sets the time source used for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer returns an Analyzer with its own empty cache and history.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		thresholds: DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.loader == nil {
		a.loader = NewLoader(nil, nil)
	}
	return a
}

// Thresholds returns the detection settings in use.
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Subscribe registers fn for every event and returns a function that
// removes it. A panicking listener is logged and otherwise ignored.
func (a *Analyzer) Subscribe(fn Listener) (unsubscribe func()) {
	return a.listeners.add(fn)
}

// CompareSnapshots loads both snapshots, compares them and records the
// result in the history.
func (a *Analyzer) CompareSnapshots(baselinePath, currentPath string) (*Analysis, error) {
	a.listeners.emit(Event{Kind: EventAnalysisStarted, BaselinePath: baselinePath, CurrentPath: currentPath})
	log.Printf("Comparing snapshots: baseline=%s current=%s", baselinePath, currentPath)

	baseline, err := a.loader.Load(baselinePath)
	if err != nil {
		a.failed(baselinePath, currentPath, err)
		return nil, err
	}
	current, err := a.loader.Load(currentPath)
	if err != nil {
		a.failed(baselinePath, currentPath, err)
		return nil, err
	}

	analysis := a.Analyze(baseline, current)

	a.mu.Lock()
	a.history = append(a.history, cloneAnalysis(*analysis))
	if a.historyLimit > 0 && len(a.history) > a.historyLimit {
		a.history = append([]Analysis(nil), a.history[len(a.history)-a.historyLimit:]...)
	}
	a.mu.Unlock()

	log.Printf("Analysis complete: growth %s (%.2f%%), %d leak candidates, %d traces",
		FormatBytes(analysis.GrowthBytes), analysis.GrowthPercentage, len(analysis.Candidates), len(analysis.Traces))
	a.listeners.emit(Event{Kind: EventAnalysisCompleted, BaselinePath: baselinePath, CurrentPath: currentPath, Analysis: analysis})
	return analysis, nil
}

func (a *Analyzer) failed(baselinePath, currentPath string, err error) {
	log.Printf("Analysis failed: %v", err)
	a.listeners.emit(Event{Kind: EventAnalysisError, BaselinePath: baselinePath, CurrentPath: currentPath, Err: err})
}

// Analyze compares two already loaded snapshots without touching the cache
// or history.
func (a *Analyzer) Analyze(baseline, current *Snapshot) *Analysis {
	for _, snap := range []*Snapshot{baseline, current} {
		if reason := snap.Malformed(); reason != "" {
			source := ""
			if snap != nil {
				source = snap.Source
			}
			log.Printf("Warning: snapshot '%s': %s; missing records are treated as empty", source, reason)
		}
	}

	baseObjs := ExtractObjects(baseline)
	curObjs := ExtractObjects(current)

	growth := ComputeGrowth(baseObjs, curObjs)
	candidates := DetectLeakCandidates(baseObjs, curObjs, a.thresholds)
	traces := GenerateRetentionTraces(current, candidates, a.thresholds.MaxTraces)

	analysis := &Analysis{
		BaselineObjects:  int(ObjectCount(baseObjs)),
		CurrentObjects:   int(ObjectCount(curObjs)),
		BaselineSize:     growth.BaselineBytes,
		CurrentSize:      growth.CurrentBytes,
		GrowthBytes:      growth.Bytes,
		GrowthPercentage: growth.Percentage,
		Candidates:       candidates,
		Traces:           traces,
		Summary:          Summarize(curObjs, candidates, a.thresholds),
	}
	if baseline != nil {
		analysis.BaselineSource = baseline.Source
	}
	if current != nil {
		analysis.CurrentSource = current.Source
	}
	return analysis
}

// ExportAnalysis writes analysis with a timestamp and tool metadata to path.
func (a *Analyzer) ExportAnalysis(analysis *Analysis, path string) error {
	if err := WriteExport(analysis, path, a.now()); err != nil {
		log.Printf("Export failed: %v", err)
		a.listeners.emit(Event{Kind: EventExportError, ExportPath: path, Analysis: analysis, Err: err})
		return err
	}
	log.Printf("Analysis exported to %s", path)
	a.listeners.emit(Event{Kind: EventAnalysisExported, ExportPath: path, Analysis: analysis})
	return nil
}

// History returns a copy of the recorded analyses, oldest first.
func (a *Analyzer) History() []Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Analysis, len(a.history))
	for i, h := range a.history {
		out[i] = cloneAnalysis(h)
	}
	return out
}

// ClearCache drops cached snapshots. History is kept.
func (a *Analyzer) ClearCache() {
	n := a.loader.ClearCache()
	log.Printf("Snapshot cache cleared (%d entries)", n)
	a.listeners.emit(Event{Kind: EventCacheCleared})
}

func cloneAnalysis(a Analysis) Analysis {
	candidates := make([]LeakCandidate, len(a.Candidates))
	copy(candidates, a.Candidates)
	for i := range candidates {
		if id := candidates[i].ObjectID; id != nil {
			v := *id
			candidates[i].ObjectID = &v
		}
	}
	a.Candidates = candidates

	traces := make([]RetentionTrace, len(a.Traces))
	for i, t := range a.Traces {
		path := make([]TraceHop, len(t.Path))
		copy(path, t.Path)
		t.Path = path
		traces[i] = t
	}
	a.Traces = traces

	recs := make([]string, len(a.Summary.Recommendations))
	copy(recs, a.Summary.Recommendations)
	a.Summary.Recommendations = recs
	return a
}
