// CLAUDE:SUMMARY Round service: owns the session dataset state, picks targets, resolves and scores guesses, persists them per round.
package game

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hazyhaar/energle/pkg/dataset"
	"github.com/hazyhaar/energle/pkg/energy"
	"github.com/hazyhaar/energle/pkg/score"
)

var (
	// ErrUnknownGuess means the input names no profile of the active dataset.
	// The guess is rejected without consuming an attempt.
	ErrUnknownGuess = errors.New("unknown economy")
	// ErrDuplicateGuess means the economy was already guessed this round.
	ErrDuplicateGuess = errors.New("economy already guessed")
	// ErrRoundSolved means the round's target has already been found.
	ErrRoundSolved = errors.New("round already solved")
	// ErrUnknownFamily means no dataset family has the requested ID.
	ErrUnknownFamily = errors.New("unknown dataset family")
	// ErrNoTarget means the active dataset has no profiles.
	ErrNoTarget = errors.New("dataset has no profiles")
)

// Config configures a Service.
type Config struct {
	// Dataset holds the resolution options; Preferred selects the family.
	Dataset  dataset.Options
	Strategy score.Strategy
	Aliases  map[string]string
	Location *time.Location
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service runs rounds against one dataset selection at a time.
type Service struct {
	cfg     Config
	history *History
	logger  *slog.Logger

	// switchMu serializes source changes and guards preferred.
	switchMu  sync.Mutex
	preferred string
	guessMu   sync.Mutex

	mu       sync.Mutex
	state    *dataset.State
	prepared map[*energy.Dataset]*prepared
}

// prepared holds per-dataset derived data. Datasets are immutable once
// cached, so it is computed once per dataset.
type prepared struct {
	params  score.Params
	lookup  *Lookup
	edition string
}

// NewService resolves the initial dataset and returns a ready Service.
func NewService(ctx context.Context, cfg Config, history *History) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Dataset.Logger == nil {
		cfg.Dataset.Logger = cfg.Logger
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Strategy == "" {
		cfg.Strategy = score.StrategyTotalEnergy
	}
	if cfg.Aliases == nil {
		cfg.Aliases = DefaultAliases()
	}
	return &Service{
		cfg:       cfg,
		preferred: cfg.Dataset.Preferred,
		history:   history,
		logger:    cfg.Logger,
		state:     dataset.Open(ctx, cfg.Dataset),
		prepared:  map[*energy.Dataset]*prepared{},
	}
}

// Close stops the active dataset state.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Close()
}

func (s *Service) current() *dataset.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Today is the daily round key for the current time.
func (s *Service) Today() string {
	return DaySeed(s.cfg.Now(), s.cfg.Location)
}

// Dataset returns the active dataset view.
func (s *Service) Dataset() dataset.View {
	return s.current().Snapshot()
}

// Strategy is the scoring strategy reported as each guess's score.
func (s *Service) Strategy() score.Strategy {
	return s.cfg.Strategy
}

// Families lists the configured families in order.
func (s *Service) Families() []dataset.Family {
	if s.cfg.Dataset.Families == nil {
		return dataset.DefaultFamilies()
	}
	return slices.Clone(s.cfg.Dataset.Families)
}

// SetYear switches the active year. Failures keep the previous year.
func (s *Service) SetYear(ctx context.Context, year int, preferredEconomy string) dataset.View {
	return s.current().SetYear(ctx, year, preferredEconomy)
}

// SwitchFamily re-resolves the dataset with family preferred. The new
// selection gets its own shard cache; the old state is closed.
func (s *Service) SwitchFamily(ctx context.Context, family string) (dataset.View, error) {
	if _, ok := s.cfg.Dataset.Family(family); !ok {
		return dataset.View{}, fmt.Errorf("%q: %w", family, ErrUnknownFamily)
	}
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	s.preferred = family
	v := s.reopen(ctx)
	s.logger.Info("dataset family switched", "family", family, "source", v.Source.String())
	return v, nil
}

// Reload re-resolves the dataset with the current preference, picking up
// republished files.
func (s *Service) Reload(ctx context.Context) dataset.View {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	return s.reopen(ctx)
}

func (s *Service) reopen(ctx context.Context) dataset.View {
	opts := s.cfg.Dataset
	opts.Preferred = s.preferred
	opts.Year = s.current().Snapshot().SelectedYear
	next := dataset.Open(ctx, opts)

	s.mu.Lock()
	prev := s.state
	s.state = next
	s.prepared = map[*energy.Dataset]*prepared{}
	s.mu.Unlock()

	prev.Close()
	return next.Snapshot()
}

func (s *Service) prepare(d *energy.Dataset) *prepared {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.prepared[d]; ok {
		return p
	}
	p := &prepared{
		params:  score.ParamsFor(d, s.cfg.Strategy),
		lookup:  NewLookup(d, s.cfg.Aliases),
		edition: edition(d),
	}
	s.prepared[d] = p
	return p
}

// edition names a dataset by year and economy set. Guesses recorded under
// another edition were scored against a different target.
func edition(d *energy.Dataset) string {
	h := fnv.New32a()
	for i := range d.Profiles {
		h.Write([]byte(d.Profiles[i].Economy))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%d-%08x", d.Year, h.Sum32())
}

// Clue is what the player sees of the target.
type Clue struct {
	Year       int                                     `json:"year"`
	Sectors    []score.SectorLine                      `json:"sectors"`
	Fuels      map[energy.SectorKey][]energy.FuelValue `json:"fuels"`
	NetByFuel  []energy.FuelValue                      `json:"netImportsByFuel"`
	Total      float64                                 `json:"total"`
	NetImports float64                                 `json:"netImports"`
	ChartImage string                                  `json:"chartImage,omitempty"`
}

// Round is the public state of one round.
type Round struct {
	Key      string         `json:"key"`
	Clue     Clue           `json:"clue"`
	Guesses  []score.Guess  `json:"guesses"`
	Solved   bool           `json:"solved"`
	Strategy score.Strategy `json:"strategy"`
	Advisory string         `json:"advisory,omitempty"`
}

// Target returns the target profile of round key on the active dataset.
func (s *Service) Target(key string) (*energy.Profile, error) {
	d := s.current().Dataset()
	p, ok := DailyTarget(d, s.seed(key))
	if !ok {
		return nil, ErrNoTarget
	}
	return p, nil
}

func (s *Service) seed(key string) string {
	if key == "" {
		return s.Today()
	}
	return key
}

// Round returns the clue and recorded guesses for key. An empty key is
// today's daily round.
func (s *Service) Round(ctx context.Context, key string) (Round, error) {
	key = s.seed(key)
	view := s.current().Snapshot()
	target, ok := DailyTarget(view.Dataset, key)
	if !ok {
		return Round{}, ErrNoTarget
	}
	all, err := s.history.Load(ctx, key)
	if err != nil {
		return Round{}, err
	}
	guesses := ofEdition(all, s.prepare(view.Dataset).edition)
	fuels := make(map[energy.SectorKey][]energy.FuelValue, len(target.Sectors))
	for k, fvs := range target.Sectors {
		fuels[k] = slices.Clone(fvs)
	}
	return Round{
		Key: key,
		Clue: Clue{
			Year:       view.Dataset.Year,
			Sectors:    score.SectorTotals(target),
			Fuels:      fuels,
			NetByFuel:  score.NetImportsByFuel(target),
			Total:      score.TotalEnergy(target),
			NetImports: score.NetImports(target),
			ChartImage: target.ChartImage,
		},
		Guesses:  guesses,
		Solved:   solved(guesses),
		Strategy: s.cfg.Strategy,
		Advisory: view.Advisory,
	}, nil
}

// NewPractice returns the key of a fresh practice round.
func (s *Service) NewPractice() string {
	return PracticeSeed(s.Today())
}

// Guess resolves input against the active dataset, scores it against the
// round's target and records it.
func (s *Service) Guess(ctx context.Context, key, input string) (score.Guess, error) {
	key = s.seed(key)
	d := s.current().Dataset()
	target, ok := DailyTarget(d, key)
	if !ok {
		return score.Guess{}, ErrNoTarget
	}
	prep := s.prepare(d)
	guessed, ok := prep.lookup.Find(input)
	if !ok {
		return score.Guess{}, fmt.Errorf("%q: %w", input, ErrUnknownGuess)
	}

	s.guessMu.Lock()
	defer s.guessMu.Unlock()
	all, err := s.history.Load(ctx, key)
	if err != nil {
		return score.Guess{}, err
	}
	prior := ofEdition(all, prep.edition)
	if solved(prior) {
		return score.Guess{}, ErrRoundSolved
	}
	if slices.ContainsFunc(prior, func(g score.Guess) bool { return g.Economy == guessed.Economy }) {
		return score.Guess{}, fmt.Errorf("%s: %w", guessed.Name, ErrDuplicateGuess)
	}

	g := score.Evaluate(guessed, target, prep.params)
	g.Edition = prep.edition
	if _, err := s.history.Append(ctx, key, g); err != nil {
		return score.Guess{}, err
	}
	s.logger.Debug("guess recorded", "round", key, "economy", g.Economy, "score", g.Score, "exact", g.Exact)
	return g, nil
}

// Guesses returns every guess recorded for key, across dataset editions.
func (s *Service) Guesses(ctx context.Context, key string) ([]score.Guess, error) {
	return s.history.Load(ctx, s.seed(key))
}

// Suggestions lists answers of the active dataset matching query.
func (s *Service) Suggestions(query string, limit int) []Suggestion {
	return s.prepare(s.current().Dataset()).lookup.Suggestions(query, limit)
}

// MaxDistance is the normalization range of the active dataset.
func (s *Service) MaxDistance() float64 {
	return s.prepare(s.current().Dataset()).params.MaxDistance
}

// ofEdition keeps the guesses scored against edition.
func ofEdition(guesses []score.Guess, edition string) []score.Guess {
	out := make([]score.Guess, 0, len(guesses))
	for _, g := range guesses {
		if g.Edition == edition {
			out = append(out, g)
		}
	}
	return out
}

func solved(guesses []score.Guess) bool {
	return slices.ContainsFunc(guesses, func(g score.Guess) bool { return g.Exact })
}
