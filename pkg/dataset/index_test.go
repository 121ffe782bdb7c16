package dataset

import (
	"errors"
	"testing"
)

func groupedIndex(t *testing.T) *ShardIndex {
	t.Helper()
	ix, err := DecodeIndex([]byte(`{
		"years": [2020, 2025],
		"defaultYear": 2025,
		"year_groups": {
			"2020": [
				{"id": "g1", "file": "a.json", "economies": ["AUS"]},
				{"id": "g2", "file": "b.json", "economies": ["JPN", "USA"]}
			],
			"2025": [
				{"id": "g1", "file": "c.json", "economies": ["AUS", "JPN"]}
			]
		}
	}`))
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	return ix
}

func TestResolve_Grouped(t *testing.T) {
	ix := groupedIndex(t)
	tests := []struct {
		name      string
		year      int
		economy   string
		wantYear  int
		wantGroup string
		wantPath  string
	}{
		{"preferred economy", 2020, "AUS", 2020, "g1", "data/a.json"},
		{"preferred economy second group", 2020, "USA", 2020, "g2", "data/b.json"},
		{"absent economy falls back to first group", 2020, "ZZZ", 2020, "g1", "data/a.json"},
		{"no preference", 2020, "", 2020, "g1", "data/a.json"},
		{"unknown year uses default", 1999, "JPN", 2025, "g1", "data/c.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ix.Resolve("data/apec.index.json", tt.year, tt.economy)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if ref.Year != tt.wantYear || ref.Group != tt.wantGroup || ref.Path != tt.wantPath {
				t.Errorf("Resolve = %+v, want year %d group %s path %s", ref, tt.wantYear, tt.wantGroup, tt.wantPath)
			}
		})
	}
}

func TestResolve_SingleGroupPreferred(t *testing.T) {
	ix, err := DecodeIndex([]byte(`{"years":[2020],"year_groups":{"2020":[{"id":"g1","file":"a.json","economies":["AUS"]}]}}`))
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	ref, err := ix.Resolve("idx.json", 2020, "AUS")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ref.Path != "a.json" {
		t.Errorf("Path = %q, want a.json", ref.Path)
	}
	if ix.DefaultYear != 2020 {
		t.Errorf("DefaultYear = %d, want 2020 (first year when absent)", ix.DefaultYear)
	}
}

func TestResolve_Legacy(t *testing.T) {
	ix, err := DecodeIndex([]byte(`{"years":["2020",2025],"defaultYear":2025,"files":{"2020":"p-2020.json"}}`))
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if ix.Grouped() {
		t.Fatal("Grouped() = true for legacy index")
	}

	ref, err := ix.Resolve("data/p.index.json", 2020, "AUS")
	if err != nil {
		t.Fatalf("Resolve 2020: %v", err)
	}
	if ref.Path != "data/p-2020.json" || ref.Group != AllGroups {
		t.Errorf("Resolve 2020 = %+v", ref)
	}

	// 1990 -> default 2025, which has no file.
	if _, err := ix.Resolve("data/p.index.json", 1990, ""); !errors.Is(err, ErrUnknownYear) {
		t.Errorf("Resolve 1990: err = %v, want ErrUnknownYear", err)
	}
}

func TestResolve_GroupedYearWithoutGroups(t *testing.T) {
	ix, err := DecodeIndex([]byte(`{"years":[2020,2025],"defaultYear":2025,"year_groups":{"2020":[]}}`))
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if _, err := ix.Resolve("i.json", 2025, ""); !errors.Is(err, ErrUnknownYear) {
		t.Errorf("err = %v, want ErrUnknownYear", err)
	}
}

func TestDecodeIndex_Errors(t *testing.T) {
	for _, doc := range []string{
		`{not json`,
		`{"years":[2020]}`,
		`{"files":{}}`,
		`{"files":{"abc":"x.json"}}`,
		`{"year_groups":{"20x":[]}}`,
	} {
		if _, err := DecodeIndex([]byte(doc)); err == nil {
			t.Errorf("DecodeIndex(%s): err = nil, want error", doc)
		}
	}
}

func TestDecodeIndex_YearsFromFiles(t *testing.T) {
	ix, err := DecodeIndex([]byte(`{"files":{"2025":"b.json","2020":"a.json"}}`))
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if len(ix.Years) != 2 || ix.Years[0] != 2020 || ix.Years[1] != 2025 {
		t.Errorf("Years = %v, want [2020 2025]", ix.Years)
	}
	if ix.DefaultYear != 2020 {
		t.Errorf("DefaultYear = %d, want 2020", ix.DefaultYear)
	}
}
