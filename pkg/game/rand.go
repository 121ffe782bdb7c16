// CLAUDE:SUMMARY Deterministic target selection: string-seeded PRNG, index picking, daily and practice seeds.
package game

import (
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/energle/pkg/energy"
)

// Rand yields uniform floats in [0, 1).
type Rand interface {
	Next() float64
}

type seededRand struct {
	r *rand.Rand
}

func (s *seededRand) Next() float64 { return s.r.Float64() }

// SeededRand returns a generator fully determined by seed.
func SeededRand(seed string) Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	sum := h.Sum64()
	return &seededRand{r: rand.New(rand.NewPCG(sum, sum^0x9e3779b97f4a7c15))}
}

// PickIndex draws an index in [0, n). It returns -1 when n is not positive.
func PickIndex(r Rand, n int) int {
	if n <= 0 {
		return -1
	}
	i := int(r.Next() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// DailyTarget picks the target profile of d for seed. The same seed and
// profile ordering always give the same profile.
func DailyTarget(d *energy.Dataset, seed string) (*energy.Profile, bool) {
	i := PickIndex(SeededRand(seed), len(d.Profiles))
	if i < 0 {
		return nil, false
	}
	return &d.Profiles[i], true
}

// DaySeed is the calendar date of t in loc, formatted YYYY-MM-DD.
func DaySeed(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}

// PracticeSeed derives a one-off round seed from day.
func PracticeSeed(day string) string {
	return day + "#" + uuid.NewString()
}
