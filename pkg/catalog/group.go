package catalog

// Group is a named set of banks sharing a volume, a mute switch and an
// optional cap on simultaneously playing instances.
type Group struct {
	Name string

	// Volume scales the volume of every instance from the group's banks.
	Volume float64

	Mute bool

	// MaxConcurrent caps playing instances across the group. Zero or less
	// means unlimited.
	MaxConcurrent int

	// Banks lists member bank names.
	Banks []string
}

// EffectiveVolume returns the multiplier applied to member instances.
func (g *Group) EffectiveVolume() float64 {
	if g == nil {
		return 1
	}
	if g.Mute {
		return 0
	}
	return clamp(g.Volume, 0, 1)
}

// HasBank reports whether bank is a member.
func (g *Group) HasBank(bank string) bool {
	if g == nil {
		return false
	}
	for _, b := range g.Banks {
		if b == bank {
			return true
		}
	}
	return false
}
