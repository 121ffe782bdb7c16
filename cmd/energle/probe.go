// CLAUDE:SUMMARY CLI subcommands that inspect dataset resolution: candidate availability, resolution outcomes and the daily target.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hazyhaar/energle/pkg/dataset"
	"github.com/hazyhaar/energle/pkg/game"
	"github.com/hazyhaar/energle/pkg/score"
)

func cmdProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	prefer := fs.String("prefer", "", "family to try first (e.g. apec, world)")
	cfg, logger := setup(fs, args)
	if *prefer != "" {
		cfg.Preference = *prefer
	}

	opts, err := cfg.datasetOptions(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "energle: %v\n", err)
		os.Exit(1)
	}
	families := opts.Families
	if len(families) == 0 {
		families = dataset.DefaultFamilies()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("Families:")
	avail := dataset.NewProber(opts.Fetcher, logger).ProbeAll(ctx, families)
	for _, f := range families {
		status := "missing"
		if avail[f.ID] {
			status = "available"
		}
		fmt.Printf("  %-8s  %-10s  index=%s  file=%s\n", f.ID, status, f.Index, f.File)
	}

	fmt.Println()
	fmt.Println("Resolution:")
	loaded, outcomes := dataset.Resolve(ctx, opts, dataset.NewCache())
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("  %-12s  FAILED  %v\n", o.Candidate, o.Err)
			continue
		}
		fmt.Printf("  %-12s  OK      %s\n", o.Candidate, o.Candidate.Path)
	}
	if loaded.Candidate.Kind == dataset.KindEmbedded {
		fmt.Printf("  %-12s  OK      (compiled-in sample)\n", loaded.Candidate)
	}

	fmt.Println()
	fmt.Printf("Source:    %s\n", loaded.Candidate)
	fmt.Printf("Years:     %v (default %d)\n", loaded.Years(), loaded.DefaultYear())
	fmt.Printf("Year:      %d\n", loaded.Dataset.Year)
	fmt.Printf("Profiles:  %d\n", len(loaded.Dataset.Profiles))
}

func cmdDaily(args []string) {
	fs := flag.NewFlagSet("daily", flag.ExitOnError)
	date := fs.String("date", "", "round date YYYY-MM-DD (default: today in the configured timezone)")
	year := fs.Int("year", 0, "dataset year (default: the source's default year)")
	practice := fs.Bool("practice", false, "derive a practice round key instead")
	cfg, logger := setup(fs, args)
	cfg.HistoryDB = "" // nothing is recorded

	ctx := context.Background()
	svc, closeSvc := openService(ctx, cfg, logger)
	defer closeSvc()

	if *year != 0 {
		svc.SetYear(ctx, *year, "")
	}
	key := *date
	if key == "" {
		key = svc.Today()
	} else if _, err := time.Parse(time.DateOnly, key); err != nil {
		fmt.Fprintf(os.Stderr, "energle: -date: %v\n", err)
		os.Exit(1)
	}
	if *practice {
		key = game.PracticeSeed(key)
	}

	target, err := svc.Target(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "energle: %v\n", err)
		os.Exit(1)
	}
	v := svc.Dataset()
	fmt.Printf("Round:     %s\n", key)
	fmt.Printf("Source:    %s (year %d)\n", v.Source, v.SelectedYear)
	fmt.Printf("Target:    %s (%s)\n", target.Name, target.Economy)
	fmt.Printf("Total:     %.1f\n", score.TotalEnergy(target))
	fmt.Printf("Net imp.:  %.1f\n", score.NetImports(target))
	fmt.Printf("Max dist.: %.1f\n", svc.MaxDistance())
	if v.Advisory != "" {
		fmt.Printf("Note:      %s\n", v.Advisory)
	}
}
