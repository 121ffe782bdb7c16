package score

import (
	"math"
	"testing"

	"github.com/hazyhaar/energle/pkg/energy"
)

func profile(economy, name string, sectors map[energy.SectorKey][]energy.FuelValue) energy.Profile {
	return energy.Profile{Economy: economy, Name: name, Sectors: sectors}
}

func supply(vals ...float64) map[energy.SectorKey][]energy.FuelValue {
	fuels := []string{"coal", "oil", "gas"}
	var fvs []energy.FuelValue
	for i, v := range vals {
		fvs = append(fvs, energy.FuelValue{Fuel: fuels[i], Value: v})
	}
	return map[energy.SectorKey][]energy.FuelValue{energy.SectorPrimarySupply: fvs}
}

func TestSectorTotalAndTotalEnergy(t *testing.T) {
	p := profile("AUS", "Australia", map[energy.SectorKey][]energy.FuelValue{
		energy.SectorPrimarySupply: {{Fuel: "coal", Value: 10}, {Fuel: "gas", Value: 5}},
		energy.SectorFinalUse:      {{Fuel: "oil", Value: 2.5}},
	})
	if got := SectorTotal(&p, energy.SectorPrimarySupply); got != 15 {
		t.Errorf("SectorTotal = %v, want 15", got)
	}
	if got := SectorTotal(&p, energy.SectorElectricity); got != 0 {
		t.Errorf("absent sector total = %v, want 0", got)
	}
	if got := TotalEnergy(&p); got != 17.5 {
		t.Errorf("TotalEnergy = %v, want 17.5", got)
	}
}

func TestNetImports(t *testing.T) {
	p := profile("JPN", "Japan", map[energy.SectorKey][]energy.FuelValue{
		energy.SectorImports: {{Fuel: "coal", Value: 100}, {Fuel: "oil", Value: 50}},
		energy.SectorExports: {{Fuel: "coal", Value: -30}, {Fuel: "gas", Value: 20}},
	})
	// 150 imported minus |-30 + 20| exported.
	if got := NetImports(&p); got != 140 {
		t.Errorf("NetImports = %v, want 140", got)
	}
	got := NetImportsByFuel(&p)
	want := []energy.FuelValue{{Fuel: "coal", Value: 70}, {Fuel: "oil", Value: 50}, {Fuel: "gas", Value: -20}}
	if len(got) != len(want) {
		t.Fatalf("NetImportsByFuel = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NetImportsByFuel[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	// Per-fuel positions take each export's magnitude, so they differ from
	// the aggregate.
	var perFuel float64
	for _, fv := range got {
		perFuel += fv.Value
	}
	if perFuel != 100 {
		t.Errorf("sum of per-fuel positions = %v, want 100", perFuel)
	}
}

func TestDistance(t *testing.T) {
	a := profile("A", "A", supply(10, 5))
	b := profile("B", "B", supply(4, 5, 3))
	c := profile("C", "C", map[energy.SectorKey][]energy.FuelValue{
		energy.SectorFinalUse: {{Fuel: "coal", Value: 7}},
	})

	tests := []struct {
		name string
		x, y *energy.Profile
		want float64
	}{
		{"self", &a, &a, 0},
		{"missing fuel counts as zero", &a, &b, 6 + 0 + 3},
		{"disjoint sectors", &a, &c, 10 + 5 + 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.x, tt.y); got != tt.want {
				t.Errorf("Distance = %v, want %v", got, tt.want)
			}
			if got := Distance(tt.y, tt.x); got != tt.want {
				t.Errorf("Distance reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistance_ZeroOnlyWhenIdentical(t *testing.T) {
	a := profile("A", "A", supply(1, 2))
	b := profile("B", "B", supply(1, 2, 0))
	if got := Distance(&a, &b); got != 0 {
		t.Errorf("explicit zero fuel: Distance = %v, want 0", got)
	}
	b.Sectors[energy.SectorPrimarySupply][2].Value = 0.001
	if got := Distance(&a, &b); got == 0 {
		t.Error("Distance = 0 for differing profiles")
	}
}

func TestProximityFromDistance(t *testing.T) {
	tests := []struct {
		d, max float64
		want   int
	}{
		{0, 800, 100},
		{800, 800, 0},
		{400, 800, 50},
		{1200, 800, 0},
		{-5, 800, 100},
		{0, 0, 100},
		{1, 0, 0},
		{1, 3, 67},
		{math.NaN(), 10, 0},
	}
	for _, tt := range tests {
		if got := ProximityFromDistance(tt.d, tt.max); got != tt.want {
			t.Errorf("ProximityFromDistance(%v, %v) = %d, want %d", tt.d, tt.max, got, tt.want)
		}
	}
	for d := 0.0; d <= 37; d += 0.5 {
		if got := ProximityFromDistance(d, 37); got < 0 || got > 100 {
			t.Fatalf("ProximityFromDistance(%v, 37) = %d out of range", d, got)
		}
	}
}

func TestMaxDistanceAndTotalRange(t *testing.T) {
	d := &energy.Dataset{Profiles: []energy.Profile{
		profile("AUS", "Australia", supply(100)),
		profile("JPN", "Japan", supply(900)),
		profile("NZ", "New Zealand", supply(300)),
	}}
	if got := MaxDistance(d); got != 800 {
		t.Errorf("MaxDistance = %v, want 800", got)
	}
	if got := TotalRange(d); got != 800 {
		t.Errorf("TotalRange = %v, want 800", got)
	}

	single := &energy.Dataset{Profiles: d.Profiles[:1]}
	if got := MaxDistance(single); got != 1 {
		t.Errorf("single profile MaxDistance = %v, want 1", got)
	}
	same := &energy.Dataset{Profiles: []energy.Profile{d.Profiles[0], d.Profiles[0]}}
	if got := MaxDistance(same); got != 1 {
		t.Errorf("identical profiles MaxDistance = %v, want 1", got)
	}
	if got := TotalRange(&energy.Dataset{}); got != 1 {
		t.Errorf("empty TotalRange = %v, want 1", got)
	}
}

func TestDistance_FractionalValuesAreStable(t *testing.T) {
	a := profile("A", "A", map[energy.SectorKey][]energy.FuelValue{
		"s": {{Fuel: "f1", Value: 0.1}, {Fuel: "f2", Value: 0.2}, {Fuel: "f3", Value: 0.3}},
	})
	b := profile("B", "B", map[energy.SectorKey][]energy.FuelValue{"s": {}})
	want := 0.1
	want += 0.2
	want += 0.3

	for i := 0; i < 500; i++ {
		ab, ba := Distance(&a, &b), Distance(&b, &a)
		if math.Float64bits(ab) != math.Float64bits(want) || math.Float64bits(ba) != math.Float64bits(want) {
			t.Fatalf("call %d: Distance(a,b) = %v, Distance(b,a) = %v, want %v", i, ab, ba, want)
		}
	}
}

func TestTotalEnergy_FractionalValuesAreStable(t *testing.T) {
	p := profile("P", "P", map[energy.SectorKey][]energy.FuelValue{
		"z": {{Fuel: "coal", Value: 0.3}},
		"x": {{Fuel: "coal", Value: 0.1}},
		"y": {{Fuel: "coal", Value: 0.2}},
	})
	want := 0.1
	want += 0.2
	want += 0.3

	for i := 0; i < 500; i++ {
		if got := TotalEnergy(&p); math.Float64bits(got) != math.Float64bits(want) {
			t.Fatalf("call %d: TotalEnergy = %v, want %v", i, got, want)
		}
	}
}
