// CLAUDE:SUMMARY Ordered dataset source resolution: candidate list per family preference, one pure attempt per candidate, left fold to the first success.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hazyhaar/energle/pkg/energy"
)

// Kind is the storage layout a candidate is expected to use.
type Kind string

const (
	KindIndex    Kind = "index"
	KindFile     Kind = "file"
	KindSample   Kind = "sample"
	KindEmbedded Kind = "embedded"
)

// Candidate is one place a dataset may be loaded from.
type Candidate struct {
	Family string `json:"family,omitempty"`
	Kind   Kind   `json:"kind"`
	Path   string `json:"path,omitempty"`
}

func (c Candidate) String() string {
	if c.Family == "" {
		return string(c.Kind)
	}
	return c.Family + ":" + string(c.Kind)
}

// Candidates builds the ordered attempt list: the preferred family's index
// then monolithic file, the other families likewise, then the bundled sample.
func Candidates(opts Options) []Candidate {
	opts = opts.withDefaults()
	families := slices.Clone(opts.Families)
	if i := slices.IndexFunc(families, func(f Family) bool { return f.ID == opts.Preferred }); i > 0 {
		pref := families[i]
		families = append(families[:i], families[i+1:]...)
		families = append([]Family{pref}, families...)
	}

	var out []Candidate
	for _, f := range families {
		if f.Index != "" {
			out = append(out, Candidate{Family: f.ID, Kind: KindIndex, Path: f.Index})
		}
		if f.File != "" {
			out = append(out, Candidate{Family: f.ID, Kind: KindFile, Path: f.File})
		}
	}
	if opts.SampleFile != "" {
		out = append(out, Candidate{Kind: KindSample, Path: opts.SampleFile})
	}
	return out
}

// backend serves datasets by year for one loaded source.
type backend interface {
	years() []int
	defaultYear() int
	// load resolves unknown years to the default year.
	load(ctx context.Context, year int, economy string) (*energy.Dataset, error)
}

// Loaded is a successfully resolved source.
type Loaded struct {
	Candidate Candidate
	Dataset   *energy.Dataset
	backend   backend
}

// Years lists the years the source can serve.
func (l *Loaded) Years() []int { return l.backend.years() }

// DefaultYear is the year served when an unknown year is requested.
func (l *Loaded) DefaultYear() int { return l.backend.defaultYear() }

// Load returns the dataset for year (or the default year), going through the
// source's shard cache.
func (l *Loaded) Load(ctx context.Context, year int, economy string) (*energy.Dataset, error) {
	return l.backend.load(ctx, year, economy)
}

// Outcome is the result of one attempt: Loaded on success, Err otherwise.
type Outcome struct {
	Candidate Candidate
	Loaded    *Loaded
	Err       error
}

// Attempt tries a single candidate. It performs I/O through f but touches
// no shared state other than the cache.
func Attempt(ctx context.Context, f Fetcher, c Candidate, cache *Cache, year int, economy string) Outcome {
	out := Outcome{Candidate: c}
	data, err := f.Fetch(ctx, c.Path)
	if err != nil {
		out.Err = err
		return out
	}
	b, err := newBackend(f, c.Path, data, cache)
	if err != nil {
		out.Err = fmt.Errorf("%s: %w", c.Path, err)
		return out
	}
	d, err := b.load(ctx, year, economy)
	if err != nil {
		out.Err = fmt.Errorf("%s: initial shard: %w", c.Path, err)
		return out
	}
	out.Loaded = &Loaded{Candidate: c, Dataset: d, backend: b}
	return out
}

// Resolve folds Attempt over the candidates strictly in order and returns
// the first success. When every candidate fails the embedded sample is
// returned; the outcomes of all attempts made are returned alongside.
func Resolve(ctx context.Context, opts Options, cache *Cache) (*Loaded, []Outcome) {
	opts = opts.withDefaults()
	var outcomes []Outcome
	for _, c := range Candidates(opts) {
		if ctx.Err() != nil {
			break
		}
		o := Attempt(ctx, opts.Fetcher, c, cache, opts.Year, opts.Economy)
		outcomes = append(outcomes, o)
		if opts.Debug {
			logAttempt(opts.Logger, o)
		}
		if o.Loaded != nil {
			return o.Loaded, outcomes
		}
	}
	return embeddedLoaded(cache, opts.Year), outcomes
}

func logAttempt(logger *slog.Logger, o Outcome) {
	if o.Err != nil {
		logger.Info("dataset candidate failed", "candidate", o.Candidate.String(), "path", o.Candidate.Path, "error", o.Err)
		return
	}
	logger.Info("dataset candidate loaded", "candidate", o.Candidate.String(), "path", o.Candidate.Path,
		"year", o.Loaded.Dataset.Year, "profiles", len(o.Loaded.Dataset.Profiles))
}

func newBackend(f Fetcher, docPath string, data []byte, cache *Cache) (backend, error) {
	shape, err := energy.DetectShape(data)
	if err != nil {
		return nil, err
	}
	switch shape {
	case energy.ShapeIndex:
		ix, err := DecodeIndex(data)
		if err != nil {
			return nil, err
		}
		return &indexBackend{fetcher: f, indexPath: docPath, index: ix, cache: cache}, nil
	case energy.ShapeMultiYear:
		m, err := energy.DecodeMultiYear(data)
		if err != nil {
			return nil, err
		}
		return &multiBackend{m: m, cache: cache}, nil
	case energy.ShapeDataset:
		d, err := energy.DecodeDataset(data)
		if err != nil {
			return nil, err
		}
		return &multiBackend{m: singleYear(d), cache: cache}, nil
	}
	return nil, energy.ErrUnknownShape
}

func singleYear(d *energy.Dataset) *energy.MultiYear {
	return &energy.MultiYear{
		Years:       []int{d.Year},
		DefaultYear: d.Year,
		Scenario:    d.Scenario,
		Datasets:    map[int]*energy.Dataset{d.Year: d},
	}
}

// indexBackend loads shards lazily through the cache.
type indexBackend struct {
	fetcher   Fetcher
	indexPath string
	index     *ShardIndex
	cache     *Cache
}

func (b *indexBackend) years() []int     { return b.index.Years }
func (b *indexBackend) defaultYear() int { return b.index.DefaultYear }

func (b *indexBackend) load(ctx context.Context, year int, economy string) (*energy.Dataset, error) {
	ref, err := b.index.Resolve(b.indexPath, year, economy)
	if err != nil {
		return nil, err
	}
	return b.cache.Get(ctx, CacheKey{Year: ref.Year, Group: ref.Group}, func(ctx context.Context) (*energy.Dataset, error) {
		data, err := b.fetcher.Fetch(ctx, ref.Path)
		if err != nil {
			return nil, err
		}
		return decodeShard(data, ref.Year)
	})
}

var errShardShape = errors.New("shard is not a dataset")

// decodeShard accepts a single-year dataset or a container holding the year.
func decodeShard(data []byte, year int) (*energy.Dataset, error) {
	shape, err := energy.DetectShape(data)
	if err != nil {
		return nil, err
	}
	switch shape {
	case energy.ShapeDataset:
		d, err := energy.DecodeDataset(data)
		if err != nil {
			return nil, err
		}
		if d.Year == 0 {
			d.Year = year
		}
		return d, nil
	case energy.ShapeMultiYear:
		m, err := energy.DecodeMultiYear(data)
		if err != nil {
			return nil, err
		}
		d, ok := m.Datasets[year]
		if !ok {
			return nil, fmt.Errorf("shard container: year %d: %w", year, ErrUnknownYear)
		}
		return d, nil
	}
	return nil, errShardShape
}

// multiBackend serves an in-memory, already normalized container.
type multiBackend struct {
	m     *energy.MultiYear
	cache *Cache
}

func (b *multiBackend) years() []int     { return b.m.Years }
func (b *multiBackend) defaultYear() int { return b.m.DefaultYear }

func (b *multiBackend) load(ctx context.Context, year int, _ string) (*energy.Dataset, error) {
	year = b.m.ResolveYear(year)
	return b.cache.Get(ctx, CacheKey{Year: year, Group: AllGroups}, func(context.Context) (*energy.Dataset, error) {
		d, ok := b.m.Datasets[year]
		if !ok {
			return nil, fmt.Errorf("year %d: %w", year, ErrUnknownYear)
		}
		return d, nil
	})
}
