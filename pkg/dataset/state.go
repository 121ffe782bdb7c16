// CLAUDE:SUMMARY Session dataset state: one resolved source with its shard cache, year switching, availability flags and cancellation.
package dataset

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hazyhaar/energle/pkg/energy"
)

// SampleAdvisory is reported when only the compiled-in sample could be loaded.
const SampleAdvisory = "published datasets are unreachable; showing built-in sample data"

// View is a read-only snapshot of the dataset state.
type View struct {
	Dataset      *energy.Dataset `json:"-"`
	Years        []int           `json:"years"`
	SelectedYear int             `json:"selectedYear"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
	Advisory     string          `json:"advisory,omitempty"`
	Source       Candidate       `json:"source"`
	Available    map[string]bool `json:"available"`
}

// State owns the loaded source, its shard cache and the active dataset for
// one session. It never leaves the active dataset undefined.
type State struct {
	opts   Options
	cache  *Cache
	loaded *Loaded

	mu           sync.RWMutex
	dataset      *energy.Dataset
	selectedYear int
	loading      bool
	lastErr      string
	advisory     string
	available    map[string]bool
	gen          uint64

	cancelled atomic.Bool
	stopProbe context.CancelFunc
	probeWG   sync.WaitGroup
}

// Open resolves a dataset source with a fresh cache and starts the
// background availability probe. It always returns a usable State.
func Open(ctx context.Context, opts Options) *State {
	opts = opts.withDefaults()
	cache := NewCache()
	loaded, outcomes := Resolve(ctx, opts, cache)

	s := &State{
		opts:         opts,
		cache:        cache,
		loaded:       loaded,
		dataset:      loaded.Dataset,
		selectedYear: loaded.Dataset.Year,
		available:    make(map[string]bool, len(opts.Families)),
	}
	if loaded.Candidate.Family != "" {
		s.available[loaded.Candidate.Family] = true
	}
	if loaded.Candidate.Kind == KindEmbedded {
		s.advisory = SampleAdvisory
		opts.Logger.Warn("all dataset candidates failed, using embedded sample", "attempts", len(outcomes))
	} else {
		opts.Logger.Info("dataset loaded",
			"source", loaded.Candidate.String(),
			"path", loaded.Candidate.Path,
			"year", s.selectedYear,
			"profiles", len(s.dataset.Profiles),
			"skipped", len(outcomes)-1,
		)
	}

	probeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopProbe = cancel
	s.probeWG.Add(1)
	go s.probe(probeCtx)
	return s
}

func (s *State) probe(ctx context.Context) {
	defer s.probeWG.Done()
	avail := NewProber(s.opts.Fetcher, s.opts.Logger).ProbeAll(ctx, s.opts.Families)

	s.mu.Lock()
	if !s.cancelled.Load() {
		for id, ok := range avail {
			// The loaded family is known to be reachable.
			s.available[id] = ok || id == s.loaded.Candidate.Family
		}
	}
	s.mu.Unlock()
}

// WaitProbe blocks until the availability probe has finished.
func (s *State) WaitProbe() {
	s.probeWG.Wait()
}

// Close marks the state cancelled: in-flight loads stop mutating it and the
// probe is stopped. Close is idempotent.
func (s *State) Close() {
	s.cancelled.Store(true)
	s.stopProbe()
	s.probeWG.Wait()
}

// Snapshot returns the current view.
func (s *State) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Dataset:      s.dataset,
		Years:        slices.Clone(s.loaded.Years()),
		SelectedYear: s.selectedYear,
		Loading:      s.loading,
		Error:        s.lastErr,
		Advisory:     s.advisory,
		Source:       s.loaded.Candidate,
		Available:    maps.Clone(s.available),
	}
}

// Dataset returns the active dataset.
func (s *State) Dataset() *energy.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Cache exposes the shard cache of this source selection.
func (s *State) Cache() *Cache {
	return s.cache
}

// SetYear switches the active dataset to year, or to the default year when
// year is unknown. For grouped sources preferredEconomy picks the shard
// group. Failures are logged and leave the previous dataset active; a newer
// SetYear or Close supersedes a slower one.
func (s *State) SetYear(ctx context.Context, year int, preferredEconomy string) View {
	if s.cancelled.Load() {
		return s.Snapshot()
	}
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.loading = true
	s.mu.Unlock()

	d, err := s.loaded.Load(ctx, year, preferredEconomy)

	s.mu.Lock()
	if s.cancelled.Load() || s.gen != gen {
		s.mu.Unlock()
		return s.Snapshot()
	}
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.opts.Logger.Warn("year switch failed, keeping previous year",
			"requested", year, "current", s.currentYear(), "source", s.loaded.Candidate.String(), "error", err)
		return s.Snapshot()
	}
	s.dataset = d
	s.selectedYear = d.Year
	s.lastErr = ""
	s.mu.Unlock()

	if s.opts.Debug {
		s.opts.Logger.Info("year switched", "requested", year, "year", d.Year, "economy", preferredEconomy,
			"cached_shards", s.cache.Len())
	}
	return s.Snapshot()
}

func (s *State) currentYear() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedYear
}
