// CLAUDE:SUMMARY Shard index documents (legacy per-year files or year-grouped shards) and resolution of (year, economy) to a shard path.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"

	"github.com/hazyhaar/energle/pkg/energy"
)

// ErrUnknownYear is returned when an index has no shard for a year, even
// after substituting its default year.
var ErrUnknownYear = errors.New("no shard for year")

// AllGroups is the cache group identity for legacy, ungrouped shards.
const AllGroups = "all"

// ShardGroup is one physical shard of a year-grouped index.
type ShardGroup struct {
	ID        string   `json:"id"`
	File      string   `json:"file"`
	Economies []string `json:"economies"`
}

// HasEconomy reports whether the group carries the economy code.
func (g ShardGroup) HasEconomy(economy string) bool {
	return slices.Contains(g.Economies, economy)
}

// ShardIndex describes which physical shard holds which (year, group).
// Exactly one of Files (legacy) or Groups (year-grouped) is populated.
type ShardIndex struct {
	Years       []int
	DefaultYear int
	Files       map[int]string
	Groups      map[int][]ShardGroup
}

// Grouped reports whether the index uses the year-grouped form.
func (ix *ShardIndex) Grouped() bool {
	return ix.Groups != nil
}

// ShardRef addresses one shard file.
type ShardRef struct {
	Year  int
	Group string
	Path  string
}

type rawIndex struct {
	Years       []any                   `json:"years"`
	DefaultYear any                     `json:"defaultYear"`
	Files       map[string]string       `json:"files"`
	YearGroups  map[string][]ShardGroup `json:"year_groups"`
}

// DecodeIndex parses a shard index document in either form.
func DecodeIndex(data []byte) (*ShardIndex, error) {
	var raw rawIndex
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse shard index: %w", err)
	}
	ix := &ShardIndex{DefaultYear: int(energy.Number(raw.DefaultYear))}

	switch {
	case raw.YearGroups != nil:
		ix.Groups = make(map[int][]ShardGroup, len(raw.YearGroups))
		for key, groups := range raw.YearGroups {
			year, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("parse shard index: year key %q: %w", key, err)
			}
			ix.Groups[year] = groups
		}
	case raw.Files != nil:
		ix.Files = make(map[int]string, len(raw.Files))
		for key, file := range raw.Files {
			year, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("parse shard index: year key %q: %w", key, err)
			}
			ix.Files[year] = file
		}
	default:
		return nil, errors.New("parse shard index: neither files nor year_groups present")
	}

	for _, y := range raw.Years {
		if year := int(energy.Number(y)); year != 0 && !slices.Contains(ix.Years, year) {
			ix.Years = append(ix.Years, year)
		}
	}
	if len(ix.Years) == 0 {
		for year := range ix.Files {
			ix.Years = append(ix.Years, year)
		}
		for year := range ix.Groups {
			ix.Years = append(ix.Years, year)
		}
	}
	slices.Sort(ix.Years)
	if len(ix.Years) == 0 {
		return nil, errors.New("parse shard index: no years")
	}
	if !slices.Contains(ix.Years, ix.DefaultYear) {
		ix.DefaultYear = ix.Years[0]
	}
	return ix, nil
}

// ResolveYear substitutes the default year for a year the index does not list.
func (ix *ShardIndex) ResolveYear(year int) int {
	if slices.Contains(ix.Years, year) {
		return year
	}
	return ix.DefaultYear
}

// Resolve maps (year, preferred economy) to a shard path. indexPath is the
// path of the index document; shard files are siblings of it.
//
// For grouped indices the first group containing preferredEconomy wins,
// otherwise the first group of the year. Legacy indices look the year up
// directly.
func (ix *ShardIndex) Resolve(indexPath string, year int, preferredEconomy string) (ShardRef, error) {
	year = ix.ResolveYear(year)
	dir := path.Dir(indexPath)

	if ix.Grouped() {
		groups := ix.Groups[year]
		if len(groups) == 0 {
			return ShardRef{}, fmt.Errorf("year %d: %w", year, ErrUnknownYear)
		}
		chosen := groups[0]
		if preferredEconomy != "" {
			for _, g := range groups {
				if g.HasEconomy(preferredEconomy) {
					chosen = g
					break
				}
			}
		}
		id := chosen.ID
		if id == "" {
			id = chosen.File
		}
		return ShardRef{Year: year, Group: id, Path: path.Join(dir, chosen.File)}, nil
	}

	file, ok := ix.Files[year]
	if !ok || file == "" {
		return ShardRef{}, fmt.Errorf("year %d: %w", year, ErrUnknownYear)
	}
	return ShardRef{Year: year, Group: AllGroups, Path: path.Join(dir, file)}, nil
}
