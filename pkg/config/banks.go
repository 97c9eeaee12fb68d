package config

import (
	"fmt"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/condition"
	"mercator-hq/cadence/pkg/playgroup"
)

// BuildBanks converts bank configuration into catalog banks, creating each
// clip's conditions through reg. A nil reg uses condition.Default().
//
// Clip parameters are clamped into their valid ranges. A clip that repeats
// a name within its bank replaces the earlier entry.
func BuildBanks(cfgs []BankConfig, reg *condition.Registry) ([]*catalog.Bank, error) {
	if reg == nil {
		reg = condition.Default()
	}

	banks := make([]*catalog.Bank, 0, len(cfgs))
	for _, bc := range cfgs {
		bank, err := bc.Build(reg)
		if err != nil {
			return nil, err
		}
		banks = append(banks, bank)
	}
	return banks, nil
}

// Build converts one bank configuration.
func (bc BankConfig) Build(reg *condition.Registry) (*catalog.Bank, error) {
	var defaults *catalog.Parameters
	if bc.DefaultParameters != nil {
		p := bc.DefaultParameters.Clamp()
		defaults = &p
	}

	bank := catalog.NewBank(bc.Name, bc.CacheType, defaults)
	for _, cc := range bc.Clips {
		entry, err := cc.Build(reg)
		if err != nil {
			return nil, fmt.Errorf("bank %q: %w", bc.Name, err)
		}
		bank.Add(entry)
	}
	return bank, nil
}

// Build converts one clip configuration into a catalog entry.
func (cc ClipConfig) Build(reg *condition.Registry) (*catalog.Entry, error) {
	op, err := condition.ParseOperator(cc.Operator)
	if err != nil {
		return nil, fmt.Errorf("clip %q: %w", cc.Name, err)
	}

	entry := &catalog.Entry{
		ClipName:  cc.Name,
		AssetPath: cc.Asset,
		EventName: cc.Event,
		PlayGroup: cc.PlayGroup,
		Operator:  op,
	}
	if cc.Parameters != nil {
		p := cc.Parameters.Clamp()
		entry.CustomParameters = &p
	}

	for i := range cc.Conditions {
		cond := &cc.Conditions[i]
		c, err := reg.Create(cond.Type, &cond.Params)
		if err != nil {
			return nil, fmt.Errorf("clip %q: %w", cc.Name, err)
		}
		entry.Conditions = append(entry.Conditions, c)
	}
	return entry, nil
}

// Build converts a mixer group configuration.
func (gc GroupConfig) Build() *catalog.Group {
	volume := 1.0
	if gc.Volume != nil {
		volume = *gc.Volume
	}
	return &catalog.Group{
		Name:          gc.Name,
		Volume:        volume,
		Mute:          gc.Mute,
		MaxConcurrent: gc.MaxConcurrent,
		Banks:         append([]string(nil), gc.Banks...),
	}
}

// Build converts a play group configuration.
func (pc PlayGroupConfig) Build() *playgroup.Group {
	return playgroup.NewGroup(pc.Name, pc.Mode, pc.ExclusiveBehavior)
}

// BuildPlayGroups registers every configured play group in a new Settings.
func BuildPlayGroups(cfgs []PlayGroupConfig) *playgroup.Settings {
	settings := playgroup.NewSettings()
	for _, pc := range cfgs {
		settings.Add(pc.Build())
	}
	return settings
}
