// CLAUDE:SUMMARY Energy-balance data model: fuel values, economy profiles, single-year datasets and multi-year containers.
package energy

// SectorKey identifies a category of energy flow (e.g. 07_total_primary_energy_supply).
type SectorKey = string

// Sector keys produced by the data-preparation pipeline.
const (
	SectorImports        SectorKey = "02_imports"
	SectorExports        SectorKey = "03_exports"
	SectorPrimarySupply  SectorKey = "07_total_primary_energy_supply"
	SectorTransformation SectorKey = "09_total_transformation_sector"
	SectorFinalUse       SectorKey = "12_total_final_consumption"
	SectorElectricity    SectorKey = "18_electricity_output_in_gwh"
	SectorNetImports     SectorKey = "net_imports"
)

// FuelValue is one fuel's value inside a sector. Value may be negative.
type FuelValue struct {
	Fuel  string  `json:"fuel"`
	Value float64 `json:"value"`
}

// Profile is the energy balance of one economy for one year.
type Profile struct {
	Economy    string                    `json:"economy"`
	Name       string                    `json:"name"`
	ChartImage string                    `json:"chartImage,omitempty"`
	Source     string                    `json:"source,omitempty"`
	Sectors    map[SectorKey][]FuelValue `json:"sectors"`
}

// Dataset is one year/scenario snapshot.
type Dataset struct {
	Year     int         `json:"year"`
	Scenario string      `json:"scenario"`
	Sectors  []SectorKey `json:"sectors"`
	Profiles []Profile   `json:"profiles"`
}

// Profile returns the profile for an economy code.
func (d *Dataset) Profile(economy string) (*Profile, bool) {
	for i := range d.Profiles {
		if d.Profiles[i].Economy == economy {
			return &d.Profiles[i], true
		}
	}
	return nil, false
}

// HasEconomy reports whether the dataset carries a profile for economy.
func (d *Dataset) HasEconomy(economy string) bool {
	_, ok := d.Profile(economy)
	return ok
}

// MultiYear is a monolithic multi-year payload keyed by year.
type MultiYear struct {
	Years       []int
	DefaultYear int
	Scenario    string
	Datasets    map[int]*Dataset
}

// ResolveYear returns year when it is known, the default year otherwise.
func (m *MultiYear) ResolveYear(year int) int {
	if _, ok := m.Datasets[year]; ok {
		return year
	}
	return m.DefaultYear
}
