// CLAUDE:SUMMARY Profile scoring: sector totals, net imports, whole-profile distance, bounded proximity and dataset normalization ranges.
package score

import (
	"maps"
	"math"
	"slices"

	"github.com/hazyhaar/energle/pkg/energy"
)

// SectorTotal sums a sector's fuel values. Absent sectors total 0.
func SectorTotal(p *energy.Profile, key energy.SectorKey) float64 {
	var sum float64
	for _, fv := range p.Sectors[key] {
		sum += fv.Value
	}
	return sum
}

// TotalEnergy sums every sector total of p, in sector key order.
func TotalEnergy(p *energy.Profile) float64 {
	var sum float64
	for _, key := range slices.Sorted(maps.Keys(p.Sectors)) {
		sum += SectorTotal(p, key)
	}
	return sum
}

// NetImports is imports minus the magnitude of exports.
func NetImports(p *energy.Profile) float64 {
	return SectorTotal(p, energy.SectorImports) - math.Abs(SectorTotal(p, energy.SectorExports))
}

// NetImportsByFuel returns the signed net position per fuel, in the order
// fuels first appear in imports then exports.
func NetImportsByFuel(p *energy.Profile) []energy.FuelValue {
	var out []energy.FuelValue
	at := map[string]int{}
	add := func(fuel string, v float64) {
		if i, ok := at[fuel]; ok {
			out[i].Value += v
			return
		}
		at[fuel] = len(out)
		out = append(out, energy.FuelValue{Fuel: fuel, Value: v})
	}
	for _, fv := range p.Sectors[energy.SectorImports] {
		add(fv.Fuel, fv.Value)
	}
	for _, fv := range p.Sectors[energy.SectorExports] {
		add(fv.Fuel, -math.Abs(fv.Value))
	}
	return out
}

// Distance is the sum of absolute differences over the union of sector and
// fuel keys of a and b. A missing entry counts as 0. Terms are added in key
// order, so Distance(a, b) and Distance(b, a) are bit-identical.
func Distance(a, b *energy.Profile) float64 {
	var sum float64
	for _, key := range unionKeys(a.Sectors, b.Sectors) {
		sum += sectorDistance(fuelMap(a.Sectors[key]), fuelMap(b.Sectors[key]))
	}
	return sum
}

func sectorDistance(av, bv map[string]float64) float64 {
	var sum float64
	for _, fuel := range unionKeys(av, bv) {
		sum += math.Abs(av[fuel] - bv[fuel])
	}
	return sum
}

// unionKeys returns the sorted union of the keys of a and b.
func unionKeys[V any](a, b map[string]V) []string {
	keys := slices.Collect(maps.Keys(a))
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

func fuelMap(fvs []energy.FuelValue) map[string]float64 {
	m := make(map[string]float64, len(fvs))
	for _, fv := range fvs {
		m[fv.Fuel] += fv.Value
	}
	return m
}

// ProximityFromDistance maps distance onto [0, 100], 100 meaning identical.
// maxDistance below 1 is treated as 1.
func ProximityFromDistance(distance, maxDistance float64) int {
	maxDistance = math.Max(maxDistance, 1)
	d := math.Min(math.Max(distance, 0), maxDistance)
	if math.IsNaN(d) {
		d = maxDistance
	}
	return int(math.Round((maxDistance - d) / maxDistance * 100))
}

// MaxDistance is the largest pairwise distance between profiles of d, or 1
// when there are fewer than two profiles or all distances are zero.
func MaxDistance(d *energy.Dataset) float64 {
	var m float64
	for i := range d.Profiles {
		for j := i + 1; j < len(d.Profiles); j++ {
			m = math.Max(m, Distance(&d.Profiles[i], &d.Profiles[j]))
		}
	}
	if m <= 0 {
		return 1
	}
	return m
}

// TotalRange is max minus min of the profiles' total energy, at least 1.
func TotalRange(d *energy.Dataset) float64 {
	if len(d.Profiles) == 0 {
		return 1
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range d.Profiles {
		t := TotalEnergy(&d.Profiles[i])
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	return math.Max(hi-lo, 1)
}
