// CLAUDE:SUMMARY Profile normalizer: coerces every fuel value of raw parsed profiles into finite numbers, merging duplicate fuels.
package energy

import (
	"slices"
	"strings"
)

// RawFuelValue is a fuel entry as parsed from JSON; Value may be a number,
// a comma-formatted string, or garbage.
type RawFuelValue struct {
	Fuel  string `json:"fuel"`
	Value any    `json:"value"`
}

// RawProfile is a profile as parsed from JSON, before normalization.
type RawProfile struct {
	Economy    string                       `json:"economy"`
	Name       string                       `json:"name"`
	ChartImage string                       `json:"chartImage,omitempty"`
	Source     string                       `json:"source,omitempty"`
	Sectors    map[SectorKey][]RawFuelValue `json:"sectors"`
}

// RawDataset is a single-year dataset as parsed from JSON.
type RawDataset struct {
	Year     any          `json:"year"`
	Scenario string       `json:"scenario"`
	Sectors  []SectorKey  `json:"sectors"`
	Profiles []RawProfile `json:"profiles"`
}

// NormalizeProfile returns a new profile whose values all passed through
// Number. Duplicate fuel keys within one sector are summed, keeping the
// position of their first occurrence.
func NormalizeProfile(raw RawProfile) Profile {
	p := Profile{
		Economy:    strings.TrimSpace(raw.Economy),
		Name:       strings.TrimSpace(raw.Name),
		ChartImage: raw.ChartImage,
		Source:     raw.Source,
		Sectors:    make(map[SectorKey][]FuelValue, len(raw.Sectors)),
	}
	if p.Name == "" {
		p.Name = p.Economy
	}
	for key, fuels := range raw.Sectors {
		out := make([]FuelValue, 0, len(fuels))
		pos := make(map[string]int, len(fuels))
		for _, f := range fuels {
			v := Number(f.Value)
			if i, ok := pos[f.Fuel]; ok {
				out[i].Value += v
				continue
			}
			pos[f.Fuel] = len(out)
			out = append(out, FuelValue{Fuel: f.Fuel, Value: v})
		}
		p.Sectors[key] = out
	}
	return p
}

// NormalizeDataset normalizes every profile of a raw dataset. fallbackYear
// is used when the document does not carry a usable year of its own.
func NormalizeDataset(raw RawDataset, fallbackYear int) *Dataset {
	d := &Dataset{
		Year:     int(Number(raw.Year)),
		Scenario: raw.Scenario,
		Sectors:  raw.Sectors,
		Profiles: make([]Profile, 0, len(raw.Profiles)),
	}
	if d.Year == 0 {
		d.Year = fallbackYear
	}
	seen := make(map[string]bool, len(raw.Profiles))
	for _, rp := range raw.Profiles {
		p := NormalizeProfile(rp)
		if p.Economy == "" || seen[p.Economy] {
			continue
		}
		seen[p.Economy] = true
		d.Profiles = append(d.Profiles, p)
	}
	if len(d.Sectors) == 0 {
		d.Sectors = sectorsOf(d.Profiles)
	}
	return d
}

func sectorsOf(profiles []Profile) []SectorKey {
	seen := make(map[SectorKey]bool)
	var keys []SectorKey
	for _, p := range profiles {
		for k := range p.Sectors {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}
