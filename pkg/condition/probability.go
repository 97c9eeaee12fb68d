package condition

import (
	"fmt"
	"math/rand/v2"
)

// Probability allows a request with a fixed percentage chance.
//
// 0 always denies and 100 always allows, neither draws a sample. With
// UseSeed the sequence of draws is reproducible and ResetSeed rewinds it.
type Probability struct {
	Percent float64 `yaml:"percent"`
	UseSeed bool    `yaml:"use_seed"`
	Seed    uint64  `yaml:"seed"`

	rng *rand.Rand
}

// NewProbability returns an always-allow probability.
func NewProbability() *Probability {
	return &Probability{Percent: 100}
}

func (p *Probability) Name() string { return ProbabilityID }

func (p *Probability) Description() string {
	return fmt.Sprintf("probability: %g%%", p.Percent)
}

// Evaluate implements Condition.
func (p *Probability) Evaluate(*Context) bool {
	if p.Percent >= 100 {
		return true
	}
	if p.Percent <= 0 {
		return false
	}
	return p.roll() < p.Percent
}

// roll returns a sample in [0,100).
func (p *Probability) roll() float64 {
	if !p.UseSeed {
		return rand.Float64() * 100
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(p.Seed, p.Seed))
	}
	return p.rng.Float64() * 100
}

// ResetSeed discards the seeded generator so the next draw restarts the
// sequence from Seed.
func (p *Probability) ResetSeed() {
	p.rng = nil
}

func (p *Probability) OnPlayStart(*Context) {}
func (p *Probability) OnPlayStop(*Context)  {}
