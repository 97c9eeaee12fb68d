package main

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/config"
	"mercator-hq/cadence/pkg/engine"
	"mercator-hq/cadence/pkg/server"
)

// catalogChange summarizes what applyCatalog did.
type catalogChange struct {
	Registered int
	Removed    int
	Groups     int
	PlayGroups int
}

// applyCatalog brings the engine's banks, mixer groups and play groups in
// line with cfg. Banks and groups missing from cfg are removed, the rest
// are registered again so edits take effect. Play groups whose mode and
// behavior did not change are kept with their sequence cursor.
//
// Everything is built before the engine is touched, so an invalid bank
// leaves the engine as it was. It must run on the engine goroutine.
func applyCatalog(e *engine.Engine, cfg *config.Config) (catalogChange, error) {
	var change catalogChange

	banks, err := config.BuildBanks(cfg.Banks, nil)
	if err != nil {
		return change, err
	}
	groups := make([]*catalog.Group, 0, len(cfg.Groups))
	for _, gc := range cfg.Groups {
		groups = append(groups, gc.Build())
	}

	keep := make(map[string]bool, len(banks))
	for _, b := range banks {
		keep[b.Name()] = true
	}
	for _, b := range e.Banks() {
		if !keep[b.Name()] && e.UnregisterBank(b.Name()) {
			change.Removed++
		}
	}
	for _, b := range banks {
		if err := e.RegisterBank(b); err != nil {
			return change, fmt.Errorf("register bank %q: %w", b.Name(), err)
		}
		change.Registered++
	}

	keepGroups := make(map[string]bool, len(groups))
	for _, g := range groups {
		keepGroups[g.Name] = true
		if err := e.RegisterGroup(g); err != nil {
			return change, err
		}
		change.Groups++
	}
	for _, g := range e.Groups() {
		if !keepGroups[g.Name] {
			e.UnregisterGroup(g.Name)
		}
	}

	settings := e.PlayGroups()
	keepPlay := make(map[string]bool, len(cfg.PlayGroups))
	for _, pc := range cfg.PlayGroups {
		keepPlay[pc.Name] = true
		change.PlayGroups++
		if cur := settings.Get(pc.Name); cur != nil && cur.Mode == pc.Mode && cur.Exclusive == pc.ExclusiveBehavior {
			continue
		}
		settings.Remove(pc.Name)
		settings.Add(pc.Build())
	}
	for _, name := range settings.Names() {
		if !keepPlay[name] {
			settings.Remove(name)
		}
	}
	return change, nil
}

// reloader re-reads the configuration file and applies its catalog to a
// running engine.
type reloader struct {
	path   string
	ctl    server.Controller
	logger *slog.Logger
}

// reload is the watch callback. A file that fails to load or validate is
// reported and the engine keeps its current catalog.
func (r *reloader) reload(ctx context.Context) error {
	cfg, err := config.LoadConfigWithEnvOverrides(r.path)
	if err != nil {
		return err
	}

	var change catalogChange
	err = r.ctl.Do(ctx, func(e *engine.Engine) error {
		var err error
		change, err = applyCatalog(e, cfg)
		return err
	})
	if err != nil {
		return err
	}

	r.logger.Info("configuration reloaded",
		"path", r.path,
		"banks", change.Registered,
		"removed_banks", change.Removed,
		"groups", change.Groups,
		"play_groups", change.PlayGroups,
	)
	return nil
}
