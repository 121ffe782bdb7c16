package dataset

import (
	"log/slog"
)

// Family is one dataset family with its sharded index and monolithic file.
type Family struct {
	ID    string `yaml:"id" json:"id"`
	Index string `yaml:"index" json:"index"`
	File  string `yaml:"file" json:"file"`
}

// Well-known family identifiers.
const (
	FamilyAPEC  = "apec"
	FamilyWorld = "world"
)

// DefaultFamilies mirrors the paths written by the data-preparation scripts.
func DefaultFamilies() []Family {
	return []Family{
		{ID: FamilyAPEC, Index: "data/energy-profiles-apec.index.json", File: "data/energy-profiles-apec.json"},
		{ID: FamilyWorld, Index: "data/energy-profiles-un-ei.index.json", File: "data/energy-profiles-un-ei.json"},
	}
}

// DefaultSampleFile is the bundled sample published next to the datasets.
const DefaultSampleFile = "data/energy-profiles.json"

// Options configure dataset resolution. Nothing is read from globals.
type Options struct {
	Fetcher Fetcher
	// Families in configured order; the first is the primary family.
	Families []Family
	// Preferred is the family tried first; empty means the primary family.
	Preferred string
	// SampleFile is the last fetched candidate before the embedded sample.
	SampleFile string
	// Year and Economy select the initial shard; zero year means default.
	Year    int
	Economy string
	Logger  *slog.Logger
	// Debug logs every candidate outcome.
	Debug bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Families == nil {
		o.Families = DefaultFamilies()
	}
	if o.SampleFile == "" {
		o.SampleFile = DefaultSampleFile
	}
	return o
}

// Family returns the configured family with the given ID.
func (o Options) Family(id string) (Family, bool) {
	for _, f := range o.withDefaults().Families {
		if f.ID == id {
			return f, true
		}
	}
	return Family{}, false
}
