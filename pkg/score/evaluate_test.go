package score

import (
	"testing"

	"github.com/hazyhaar/energle/pkg/energy"
)

func TestEvaluate_EndToEnd(t *testing.T) {
	aus := profile("AUS", "Australia", supply(100))
	jpn := profile("JPN", "Japan", supply(900))
	d := &energy.Dataset{Profiles: []energy.Profile{aus, jpn}}
	p := ParamsFor(d, StrategyTotalEnergy)
	if p.MaxDistance != 800 {
		t.Fatalf("MaxDistance = %v, want 800", p.MaxDistance)
	}

	g := Evaluate(&aus, &jpn, p)
	if g.TotalDiff != 800 || g.TotalProximity != 0 || g.Proximity != 0 || g.Score != 0 {
		t.Errorf("AUS vs JPN = %+v, want totalDiff 800 and proximity 0", g)
	}
	if g.Exact {
		t.Error("AUS vs JPN marked exact")
	}

	g = Evaluate(&jpn, &jpn, p)
	if !g.Exact || g.Proximity != 100 || g.TotalProximity != 100 || g.Score != 100 {
		t.Errorf("JPN vs JPN = %+v, want exact 100", g)
	}
}

func TestEvaluate_ExactOverridesNumericDistance(t *testing.T) {
	target := profile("20_USA", "United States", supply(5000, 10))
	// Same economy under a differently formatted name and diverging numbers.
	guess := profile("", "united-states", supply(1, 1))
	g := Evaluate(&guess, &target, Params{MaxDistance: 1, TotalRange: 1})
	if !g.Exact || g.Proximity != 100 || g.TotalProximity != 100 {
		t.Errorf("Evaluate = %+v, want exact override", g)
	}
}

func TestEvaluate_StrategySelectsScore(t *testing.T) {
	a := profile("A", "A", supply(0, 100))
	b := profile("B", "B", supply(100, 0))
	p := Params{MaxDistance: 400, TotalRange: 100}

	p.Strategy = StrategyProfileDistance
	g := Evaluate(&a, &b, p)
	if g.Distance != 200 || g.Proximity != 50 || g.Score != 50 {
		t.Errorf("profile-distance = %+v, want distance 200 proximity 50", g)
	}
	p.Strategy = StrategyTotalEnergy
	g = Evaluate(&a, &b, p)
	if g.TotalDiff != 0 || g.TotalProximity != 100 || g.Score != 100 {
		t.Errorf("total-energy = %+v, want totalProximity 100", g)
	}
}

func TestEvaluate_Sectors(t *testing.T) {
	p := profile("JPN", "Japan", map[energy.SectorKey][]energy.FuelValue{
		energy.SectorPrimarySupply: {{Fuel: "coal", Value: 3}},
		energy.SectorImports:       {{Fuel: "coal", Value: 5}},
		energy.SectorExports:       {{Fuel: "coal", Value: -1}},
	})
	g := Evaluate(&p, &p, Params{})
	want := []energy.SectorKey{energy.SectorImports, energy.SectorExports, energy.SectorPrimarySupply}
	if len(g.Sectors) != len(want) {
		t.Fatalf("Sectors = %v", g.Sectors)
	}
	for i, k := range want {
		if g.Sectors[i].Sector != k {
			t.Errorf("Sectors[%d] = %s, want %s", i, g.Sectors[i].Sector, k)
		}
	}
	if g.NetImports != 4 {
		t.Errorf("NetImports = %v, want 4", g.NetImports)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyTotalEnergy, false},
		{"total-energy", StrategyTotalEnergy, false},
		{"profile-distance", StrategyProfileDistance, false},
		{"euclid", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, %v", tt.in, got, err)
		}
	}
}
