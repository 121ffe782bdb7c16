package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/hazyhaar/energle/pkg/dataset"
	"github.com/hazyhaar/energle/pkg/game"
	"github.com/hazyhaar/energle/pkg/score"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureDataset(t *testing.T, year int, profiles ...[2]any) []byte {
	t.Helper()
	var ps []map[string]any
	for _, p := range profiles {
		ps = append(ps, map[string]any{
			"economy": p[0],
			"name":    p[1],
			"sectors": map[string]any{
				"07_total_primary_energy_supply": []map[string]any{{"fuel": "coal", "value": float64(len(ps)+1) * 100}},
			},
		})
	}
	data, err := json.Marshal(map[string]any{"year": year, "profiles": ps})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}

func newTestService(t *testing.T) *game.Service {
	t.Helper()
	fsys := fstest.MapFS{
		"data/energy-profiles-apec.json": {Data: fixtureDataset(t, 2020,
			[2]any{"01_AUS", "Australia"}, [2]any{"08_JPN", "Japan"}, [2]any{"12_NZ", "New Zealand"})},
		"data/energy-profiles-un-ei.json": {Data: fixtureDataset(t, 2020,
			[2]any{"FRA", "France"}, [2]any{"DEU", "Germany"})},
	}
	hist, err := game.OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	svc := game.NewService(context.Background(), game.Config{
		Dataset:  dataset.Options{Fetcher: dataset.FSFetcher{FS: fsys}},
		Strategy: score.StrategyProfileDistance,
		Logger:   quietLogger(),
		Now:      func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) },
	}, hist)
	t.Cleanup(svc.Close)
	return svc
}
