package dataset

import (
	"context"
	"testing"
	"testing/fstest"
	"time"
)

func openGrouped(t *testing.T, f Fetcher) *State {
	t.Helper()
	s := Open(context.Background(), Options{Fetcher: f, Logger: quietLogger()})
	t.Cleanup(s.Close)
	return s
}

func TestState_OpenAndAvailability(t *testing.T) {
	fsys := groupedFS(t)
	s := openGrouped(t, FSFetcher{FS: fsys})
	s.WaitProbe()

	v := s.Snapshot()
	if v.Source.String() != "apec:index" {
		t.Errorf("source = %s, want apec:index", v.Source)
	}
	if v.SelectedYear != 2020 {
		t.Errorf("SelectedYear = %d, want 2020", v.SelectedYear)
	}
	if !v.Available[FamilyAPEC] {
		t.Error("apec not available")
	}
	if v.Available[FamilyWorld] {
		t.Error("world available although nothing is published")
	}
	if v.Advisory != "" {
		t.Errorf("Advisory = %q, want empty", v.Advisory)
	}
}

func TestState_ProbeReportsOtherFamily(t *testing.T) {
	fsys := groupedFS(t)
	fsys["data/energy-profiles-un-ei.index.json"] = &fstest.MapFile{Data: []byte(`{}`)}
	s := openGrouped(t, FSFetcher{FS: fsys})
	s.WaitProbe()

	v := s.Snapshot()
	if !v.Available[FamilyWorld] {
		t.Error("world not reported available")
	}
	if v.Source.Family != FamilyAPEC {
		t.Errorf("probe changed the loaded family to %s", v.Source.Family)
	}
}

func TestState_SetYearLoadsAndCaches(t *testing.T) {
	f := &countingFetcher{Fetcher: FSFetcher{FS: groupedFS(t)}}
	s := openGrouped(t, f)

	v := s.SetYear(context.Background(), 2025, "USA")
	if v.SelectedYear != 2025 || !v.Dataset.HasEconomy("USA") {
		t.Fatalf("SetYear(2025, USA): year %d, has USA %v", v.SelectedYear, v.Dataset.HasEconomy("USA"))
	}
	if v.Loading {
		t.Error("Loading still set after switch")
	}

	s.SetYear(context.Background(), 2020, "")
	s.SetYear(context.Background(), 2025, "USA")
	if n := f.count("data/apec-2025-g2.json"); n != 1 {
		t.Errorf("2025/g2 fetched %d times, want 1", n)
	}
	if s.Cache().Len() != 2 {
		t.Errorf("cache len = %d, want 2", s.Cache().Len())
	}
}

func TestState_SetYearUnknownUsesDefault(t *testing.T) {
	s := openGrouped(t, FSFetcher{FS: groupedFS(t)})
	s.SetYear(context.Background(), 2025, "")

	v := s.SetYear(context.Background(), 1850, "")
	if v.SelectedYear != 2020 {
		t.Errorf("SelectedYear = %d, want default 2020", v.SelectedYear)
	}
}

func TestState_SetYearFailureKeepsPreviousYear(t *testing.T) {
	fsys := groupedFS(t)
	delete(fsys, "data/apec-2025-g1.json")
	s := openGrouped(t, FSFetcher{FS: fsys})

	v := s.SetYear(context.Background(), 2025, "")
	if v.SelectedYear != 2020 {
		t.Errorf("SelectedYear = %d, want 2020 after failed switch", v.SelectedYear)
	}
	if v.Error == "" {
		t.Error("Error not reported")
	}
	if v.Dataset == nil || !v.Dataset.HasEconomy("AUS") {
		t.Error("previous dataset lost")
	}
}

func TestState_StaleLoadDoesNotClobber(t *testing.T) {
	bf := &blockingFetcher{
		Fetcher: FSFetcher{FS: groupedFS(t)},
		path:    "data/apec-2025-g1.json",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := openGrouped(t, bf)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.SetYear(context.Background(), 2025, "")
	}()
	<-bf.started

	if v := s.SetYear(context.Background(), 2020, "USA"); !v.Dataset.HasEconomy("USA") {
		t.Fatal("newer selection not applied")
	}
	close(bf.release)
	<-done

	v := s.Snapshot()
	if v.SelectedYear != 2020 || !v.Dataset.HasEconomy("USA") {
		t.Errorf("stale 2025 load clobbered state: year %d", v.SelectedYear)
	}
}

func TestState_ClosedIgnoresLateLoad(t *testing.T) {
	bf := &blockingFetcher{
		Fetcher: FSFetcher{FS: groupedFS(t)},
		path:    "data/apec-2025-g1.json",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := Open(context.Background(), Options{Fetcher: bf, Logger: quietLogger()})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.SetYear(context.Background(), 2025, "")
	}()
	<-bf.started
	s.Close()
	close(bf.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("SetYear did not return")
	}
	if y := s.Snapshot().SelectedYear; y != 2020 {
		t.Errorf("SelectedYear = %d after close, want 2020", y)
	}
	s.SetYear(context.Background(), 2025, "")
	if y := s.Snapshot().SelectedYear; y != 2020 {
		t.Errorf("SetYear after Close mutated state: %d", y)
	}
}

func TestState_EmbeddedAdvisory(t *testing.T) {
	s := openGrouped(t, failingFetcher{})
	v := s.Snapshot()
	if v.Source.Kind != KindEmbedded {
		t.Fatalf("source = %s, want embedded", v.Source)
	}
	if v.Advisory != SampleAdvisory {
		t.Errorf("Advisory = %q", v.Advisory)
	}
	if v.Dataset == nil {
		t.Fatal("dataset undefined")
	}
	// Unknown year on the sample resolves to its only year.
	if got := s.SetYear(context.Background(), 2050, ""); got.SelectedYear != v.SelectedYear {
		t.Errorf("SelectedYear = %d, want %d", got.SelectedYear, v.SelectedYear)
	}
}

func TestState_FreshCachePerOpen(t *testing.T) {
	f := &countingFetcher{Fetcher: FSFetcher{FS: groupedFS(t)}}
	a := openGrouped(t, f)
	b := openGrouped(t, f)
	if a.Cache() == b.Cache() {
		t.Fatal("states share a cache")
	}
	if n := f.count("data/apec-2020-g1.json"); n != 2 {
		t.Errorf("initial shard fetched %d times, want 2 (one per source selection)", n)
	}
}
