package catalog

import (
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/cadence/pkg/device"
)

// Parameter bounds enforced by Clamp.
const (
	MinPitch    = 0.1
	MaxPitch    = 3.0
	MinPriority = 0
	MaxPriority = 256
)

// Parameters controls how a clip is played.
//
// Priority follows the audio convention where 0 is the most important and
// 256 the least.
type Parameters struct {
	Volume       float64       `yaml:"volume"`
	Pitch        float64       `yaml:"pitch"`
	FadeIn       time.Duration `yaml:"fade_in"`
	FadeOut      time.Duration `yaml:"fade_out"`
	Loop         bool          `yaml:"loop"`
	SpatialBlend float64       `yaml:"spatial_blend"`
	MinDistance  float64       `yaml:"min_distance"`
	MaxDistance  float64       `yaml:"max_distance"`
	Doppler      float64       `yaml:"doppler"`
	Spread       float64       `yaml:"spread"`
	Priority     int           `yaml:"priority"`
	IgnorePause  bool          `yaml:"ignore_pause"`
}

// DefaultParameters returns the global defaults used when neither an entry
// nor its bank supplies parameters.
func DefaultParameters() Parameters {
	return Parameters{
		Volume:      1,
		Pitch:       1,
		MinDistance: 1,
		MaxDistance: 500,
		Doppler:     1,
		Priority:    128,
	}
}

// UnmarshalYAML decodes on top of DefaultParameters so a partial mapping
// only overrides the fields it names.
func (p *Parameters) UnmarshalYAML(value *yaml.Node) error {
	type plain Parameters
	out := plain(DefaultParameters())
	if err := value.Decode(&out); err != nil {
		return err
	}
	*p = Parameters(out)
	return nil
}

// Clamp forces every field into its valid range and keeps MinDistance at
// or below MaxDistance.
func (p Parameters) Clamp() Parameters {
	p.Volume = clamp(p.Volume, 0, 1)
	p.SpatialBlend = clamp(p.SpatialBlend, 0, 1)
	p.Pitch = clamp(p.Pitch, MinPitch, MaxPitch)
	if p.Priority < MinPriority {
		p.Priority = MinPriority
	}
	if p.Priority > MaxPriority {
		p.Priority = MaxPriority
	}
	if p.FadeIn < 0 {
		p.FadeIn = 0
	}
	if p.FadeOut < 0 {
		p.FadeOut = 0
	}
	if p.MinDistance < 0 {
		p.MinDistance = 0
	}
	if p.MaxDistance < p.MinDistance {
		p.MaxDistance = p.MinDistance
	}
	if p.Spread < 0 {
		p.Spread = 0
	}
	return p
}

// Spatial returns the voice-level spatial parameters.
func (p Parameters) Spatial() device.Spatial {
	return device.Spatial{
		Blend:       p.SpatialBlend,
		MinDistance: p.MinDistance,
		MaxDistance: p.MaxDistance,
		Doppler:     p.Doppler,
		Spread:      p.Spread,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
