package analyzer

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// Bracket is one row of the magnitude table. A percentage falls into the
// first bracket whose Above bound it exceeds.
type Bracket struct {
	Above float64
	Min   float64
	Max   float64
}

// Brackets is ordered from the highest red percentage down; the last entry
// catches everything at or below 0.75.
var Brackets = []Bracket{
	{Above: 2, Min: 8.0, Max: 8.50},
	{Above: 1.4, Min: 7.5, Max: 7.99},
	{Above: 1.25, Min: 7.0, Max: 7.49},
	{Above: 1, Min: 6.0, Max: 6.99},
	{Above: 0.75, Min: 5.76, Max: 5.99},
	{Above: math.Inf(-1), Min: 5.5, Max: 5.75},
}

// BracketFor returns the bracket a red percentage maps to.
func BracketFor(redPercentage float64) Bracket {
	for _, b := range Brackets {
		if redPercentage > b.Above {
			return b
		}
	}
	return Brackets[len(Brackets)-1]
}

// clamp keeps a value rounded to tenths inside [Min, Max].
func (b Bracket) clamp(v float64) float64 {
	lo := math.Ceil(b.Min*10-1e-9) / 10
	hi := math.Floor(b.Max*10+1e-9) / 10
	return math.Max(lo, math.Min(hi, v))
}

// Sampler draws magnitudes from its random source. It is safe for
// concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a sampler over an explicit random source.
func NewSampler(src rand.Source) *Sampler {
	return &Sampler{rng: rand.New(src)}
}

// NewSeededSampler creates a sampler seeded with seed, or with the clock when seed is 0.
func NewSeededSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSampler(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Sample picks a value uniformly from the percentage's bracket, rounded to
// one decimal place.
func (s *Sampler) Sample(redPercentage float64) float64 {
	b := BracketFor(redPercentage)

	s.mu.Lock()
	u := s.rng.Float64()
	s.mu.Unlock()

	return b.clamp(roundTenth(b.Min + u*(b.Max-b.Min)))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
