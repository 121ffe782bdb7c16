package score

import (
	"fmt"
	"math"
	"slices"

	"github.com/hazyhaar/energle/pkg/energy"
)

// Strategy names the metric reported as a guess's primary score.
type Strategy string

const (
	// StrategyProfileDistance scores on the whole-profile distance against
	// the dataset's largest pairwise distance.
	StrategyProfileDistance Strategy = "profile-distance"
	// StrategyTotalEnergy scores on the total-energy difference against the
	// dataset's total-energy range.
	StrategyTotalEnergy Strategy = "total-energy"
)

// ParseStrategy validates a configured strategy name. Empty selects
// StrategyTotalEnergy.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case "":
		return StrategyTotalEnergy, nil
	case StrategyProfileDistance, StrategyTotalEnergy:
		return s, nil
	}
	return "", fmt.Errorf("unknown scoring strategy %q", name)
}

// Params carries the dataset-wide normalization ranges.
type Params struct {
	Strategy    Strategy
	MaxDistance float64
	TotalRange  float64
}

// ParamsFor computes both ranges for d.
func ParamsFor(d *energy.Dataset, s Strategy) Params {
	return Params{Strategy: s, MaxDistance: MaxDistance(d), TotalRange: TotalRange(d)}
}

// SectorLine is one sector's total as shown next to a guess.
type SectorLine struct {
	Sector energy.SectorKey `json:"sector"`
	Total  float64          `json:"total"`
}

// Guess is the record kept for one submitted guess. Evaluate builds it;
// the caller recording it stamps Edition once, before storing.
type Guess struct {
	Name           string       `json:"name"`
	Economy        string       `json:"economy"`
	Distance       float64      `json:"distance"`
	Proximity      int          `json:"proximity"`
	Total          float64      `json:"total"`
	TotalDiff      float64      `json:"totalDiff"`
	TotalProximity int          `json:"totalProximity"`
	Score          int          `json:"score"`
	NetImports     float64      `json:"netImports"`
	Sectors        []SectorLine `json:"sectors"`
	Exact          bool         `json:"exact"`
	// Edition identifies the dataset the guess was scored against; set by
	// the caller that records it.
	Edition        string       `json:"edition,omitempty"`
}

// Evaluate scores guess against target. A guess naming the target (same
// economy code or same sanitized name) scores 100 on both metrics.
func Evaluate(guess, target *energy.Profile, p Params) Guess {
	total := TotalEnergy(guess)
	g := Guess{
		Name:       guess.Name,
		Economy:    guess.Economy,
		Distance:   Distance(guess, target),
		Total:      total,
		TotalDiff:  math.Abs(total - TotalEnergy(target)),
		NetImports: NetImports(guess),
		Sectors:    SectorTotals(guess),
		Exact:      sameEconomy(guess, target),
	}
	if g.Exact {
		g.Proximity, g.TotalProximity = 100, 100
	} else {
		g.Proximity = ProximityFromDistance(g.Distance, p.MaxDistance)
		g.TotalProximity = ProximityFromDistance(g.TotalDiff, p.TotalRange)
	}
	g.Score = g.TotalProximity
	if p.Strategy == StrategyProfileDistance {
		g.Score = g.Proximity
	}
	return g
}

func sameEconomy(a, b *energy.Profile) bool {
	if a.Economy != "" && a.Economy == b.Economy {
		return true
	}
	return energy.SanitizeName(a.Name) != "" && energy.SanitizeName(a.Name) == energy.SanitizeName(b.Name)
}

// SectorTotals lists every sector total of p ordered by sector key.
func SectorTotals(p *energy.Profile) []SectorLine {
	keys := make([]energy.SectorKey, 0, len(p.Sectors))
	for k := range p.Sectors {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]SectorLine, 0, len(keys))
	for _, k := range keys {
		out = append(out, SectorLine{Sector: k, Total: SectorTotal(p, k)})
	}
	return out
}
