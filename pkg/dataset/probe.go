package dataset

import (
	"context"
	"log/slog"
)

// Prober checks which dataset families are reachable without loading them.
type Prober struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewProber creates a Prober over f.
func NewProber(f Fetcher, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{fetcher: f, logger: logger}
}

// ProbeAll reports, per family ID, whether its index or monolithic file exists.
func (p *Prober) ProbeAll(ctx context.Context, families []Family) map[string]bool {
	avail := make(map[string]bool, len(families))
	var ok, missing int
	for _, f := range families {
		if ctx.Err() != nil {
			return avail
		}
		found := p.probeOne(ctx, f)
		avail[f.ID] = found
		if found {
			ok++
		} else {
			missing++
			p.logger.Debug("dataset family unavailable", "family", f.ID, "index", f.Index, "file", f.File)
		}
	}
	p.logger.Debug("family probe complete", "total", ok+missing, "available", ok, "missing", missing)
	return avail
}

func (p *Prober) probeOne(ctx context.Context, f Family) bool {
	if f.Index != "" && p.fetcher.Exists(ctx, f.Index) {
		return true
	}
	return f.File != "" && p.fetcher.Exists(ctx, f.File)
}
