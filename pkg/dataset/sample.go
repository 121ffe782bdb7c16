package dataset

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/hazyhaar/energle/pkg/energy"
)

//go:embed sample/energy-profiles.json
var sampleJSON []byte

var (
	sampleOnce sync.Once
	sample     *energy.Dataset
)

// EmbeddedCandidate describes the sample compiled into the binary.
var EmbeddedCandidate = Candidate{Kind: KindEmbedded}

// Sample returns the dataset compiled into the binary. It is shared and
// must not be mutated.
func Sample() *energy.Dataset {
	sampleOnce.Do(func() {
		d, err := energy.DecodeDataset(sampleJSON)
		if err != nil {
			panic(fmt.Sprintf("embedded sample dataset: %v", err))
		}
		sample = d
	})
	return sample
}

func embeddedLoaded(cache *Cache, year int) *Loaded {
	b := &multiBackend{m: singleYear(Sample()), cache: cache}
	d, _ := b.load(context.Background(), year, "")
	return &Loaded{Candidate: EmbeddedCandidate, Dataset: d, backend: b}
}
