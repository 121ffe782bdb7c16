package energy

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// Shape identifies which of the published document layouts a payload uses.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeDataset
	ShapeMultiYear
	ShapeIndex
)

func (s Shape) String() string {
	switch s {
	case ShapeDataset:
		return "dataset"
	case ShapeMultiYear:
		return "multi-year"
	case ShapeIndex:
		return "index"
	default:
		return "unknown"
	}
}

// ErrUnknownShape is returned for JSON documents that match no known layout.
var ErrUnknownShape = errors.New("unrecognized document shape")

// DetectShape inspects the top-level keys of a JSON document.
func DetectShape(data []byte) (Shape, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return ShapeUnknown, fmt.Errorf("parse document: %w", err)
	}
	switch {
	case top["year_groups"] != nil || top["files"] != nil:
		return ShapeIndex, nil
	case top["datasets"] != nil:
		return ShapeMultiYear, nil
	case top["profiles"] != nil:
		return ShapeDataset, nil
	}
	return ShapeUnknown, ErrUnknownShape
}

// DecodeDataset parses and normalizes a single-year dataset document.
func DecodeDataset(data []byte) (*Dataset, error) {
	var raw RawDataset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if raw.Profiles == nil {
		return nil, fmt.Errorf("parse dataset: %w", ErrUnknownShape)
	}
	return NormalizeDataset(raw, 0), nil
}

type rawMultiYear struct {
	Years       []any                 `json:"years"`
	DefaultYear any                   `json:"defaultYear"`
	Scenario    string                `json:"scenario"`
	Datasets    map[string]RawDataset `json:"datasets"`
}

// DecodeMultiYear parses and normalizes a monolithic multi-year container.
// Years missing from the "years" list but present in "datasets" are added;
// a default year outside the container falls back to the first year.
func DecodeMultiYear(data []byte) (*MultiYear, error) {
	var raw rawMultiYear
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse multi-year container: %w", err)
	}
	if len(raw.Datasets) == 0 {
		return nil, errors.New("parse multi-year container: no datasets")
	}

	m := &MultiYear{
		Scenario: raw.Scenario,
		Datasets: make(map[int]*Dataset, len(raw.Datasets)),
	}
	for key, rd := range raw.Datasets {
		year, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("parse multi-year container: year key %q: %w", key, err)
		}
		d := NormalizeDataset(rd, year)
		d.Year = year
		if d.Scenario == "" {
			d.Scenario = raw.Scenario
		}
		m.Datasets[year] = d
	}

	for _, y := range raw.Years {
		year := int(Number(y))
		if _, ok := m.Datasets[year]; ok && !slices.Contains(m.Years, year) {
			m.Years = append(m.Years, year)
		}
	}
	for year := range m.Datasets {
		if !slices.Contains(m.Years, year) {
			m.Years = append(m.Years, year)
		}
	}
	slices.Sort(m.Years)

	m.DefaultYear = int(Number(raw.DefaultYear))
	if _, ok := m.Datasets[m.DefaultYear]; !ok {
		m.DefaultYear = m.Years[0]
	}
	return m, nil
}
