package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/loader"
)

// RegisterBank adds bank to the catalog and rebuilds the clip, event and
// play group indices.
//
// Names are resolved in registration order and a later bank wins a
// collision with an earlier one. Collisions are logged and counted. A bank
// with the name of a registered bank replaces it. Preload and persistent
// banks load all their clips before RegisterBank returns; a load failure is
// logged and does not undo the registration.
func (e *Engine) RegisterBank(bank *catalog.Bank) error {
	if bank == nil || bank.Name() == "" {
		return fmt.Errorf("engine: bank must have a name")
	}

	name := bank.Name()
	old := e.banks[name]
	if old != nil {
		e.bankOrder = slices.DeleteFunc(e.bankOrder, func(n string) bool { return n == name })
	}
	e.banks[name] = bank
	e.bankOrder = append(e.bankOrder, name)

	e.rebuild(name)
	if old != nil {
		e.unloadOrphans(old)
	}
	e.metrics.SetBanks(len(e.banks))

	e.logger.Info("bank registered",
		"bank", name,
		"clips", bank.Count(),
		"cache_type", bank.CacheType(),
		"replaced", old != nil,
	)

	if bank.CacheType() != catalog.OnDemand {
		for _, entry := range bank.Entries() {
			if _, err := e.loader.LoadSync(context.Background(), entry.Key()); err != nil {
				e.logger.Warn("bank preload failed",
					"bank", name,
					"clip", entry.ClipName,
					"error", err,
				)
			}
		}
	}
	return nil
}

// UnregisterBank removes a bank, rebuilds the indices and unloads clips no
// remaining entry refers to. Live instances keep playing.
func (e *Engine) UnregisterBank(name string) bool {
	bank, ok := e.banks[name]
	if !ok {
		return false
	}

	delete(e.banks, name)
	e.bankOrder = slices.DeleteFunc(e.bankOrder, func(n string) bool { return n == name })
	e.rebuild("")
	e.unloadOrphans(bank)
	e.metrics.SetBanks(len(e.banks))

	e.logger.Info("bank unregistered", "bank", name, "clips", bank.Count())
	return true
}

// Bank returns a registered bank.
func (e *Engine) Bank(name string) (*catalog.Bank, bool) {
	b, ok := e.banks[name]
	return b, ok
}

// Banks returns the registered banks in registration order.
func (e *Engine) Banks() []*catalog.Bank {
	out := make([]*catalog.Bank, 0, len(e.bankOrder))
	for _, name := range e.bankOrder {
		out = append(out, e.banks[name])
	}
	return out
}

// Lookup resolves a clip or event name to its entry. Event names take
// precedence.
func (e *Engine) Lookup(name string) (*catalog.Entry, *catalog.Bank, bool) {
	b, ok := e.lookup(name)
	return b.entry, b.bank, ok
}

func (e *Engine) lookup(name string) (binding, bool) {
	if b, ok := e.eventIndex[name]; ok {
		return b, true
	}
	b, ok := e.clipIndex[name]
	return b, ok
}

// HasAudio reports whether name is a registered clip or event.
func (e *Engine) HasAudio(name string) bool {
	_, ok := e.lookup(name)
	return ok
}

// Members returns the clips that belong to a play group, in registration
// order.
func (e *Engine) Members(group string) []string {
	return slices.Clone(e.groupMembers[group])
}

// rebuild recomputes every index from the registered banks. Collisions
// caused by the bank named logFor are reported.
func (e *Engine) rebuild(logFor string) {
	clips := make(map[string]binding)
	events := make(map[string]binding)

	for _, name := range e.bankOrder {
		bank := e.banks[name]
		for _, entry := range bank.Entries() {
			b := binding{entry: entry, bank: bank}

			if prev, ok := clips[entry.ClipName]; ok && name == logFor {
				e.collision("clip", entry.ClipName, prev.bank.Name(), name)
			}
			clips[entry.ClipName] = b

			if entry.HasEvent() {
				if prev, ok := events[entry.EventName]; ok && name == logFor {
					e.collision("event", entry.EventName, prev.bank.Name(), name)
				}
				events[entry.EventName] = b
			}
		}
	}

	members := make(map[string][]string)
	for _, name := range e.bankOrder {
		for _, entry := range e.banks[name].Entries() {
			if entry.PlayGroup == "" || clips[entry.ClipName].entry != entry {
				continue
			}
			members[entry.PlayGroup] = append(members[entry.PlayGroup], entry.ClipName)
		}
	}

	e.clipIndex = clips
	e.eventIndex = events
	e.groupMembers = members
}

func (e *Engine) collision(kind, key, previous, bank string) {
	e.metrics.RecordCollision(kind)
	e.logger.Warn("catalog name collision, later registration wins",
		"kind", kind,
		"name", key,
		"previous_bank", previous,
		"bank", bank,
	)
}

// unloadOrphans unloads the clips of bank that no indexed entry uses.
func (e *Engine) unloadOrphans(bank *catalog.Bank) {
	referenced := make(map[string]bool, len(e.clipIndex))
	for _, b := range e.clipIndex {
		referenced[b.entry.Key()] = true
	}
	for _, entry := range bank.Entries() {
		key := entry.Key()
		if referenced[key] || !e.loader.IsLoaded(key) {
			continue
		}
		e.loader.Unload(key)
		if e.debugLog {
			e.logger.Debug("unloaded clip", "bank", bank.Name(), "key", key)
		}
	}
}

// Preload loads the clips of the named clips or events synchronously.
func (e *Engine) Preload(ctx context.Context, names ...string) error {
	var errs []error
	for _, name := range names {
		b, ok := e.lookup(name)
		if !ok {
			errs = append(errs, playErr(name, ErrNotFound, nil))
			continue
		}
		if _, err := e.loader.LoadSync(ctx, b.entry.Key()); err != nil {
			errs = append(errs, playErr(name, ErrLoadFailure, err))
		}
	}
	return errors.Join(errs...)
}

// PreloadAsync loads a clip in the background. done runs on the tick
// goroutine and may be nil.
func (e *Engine) PreloadAsync(name string, done func(error)) {
	b, ok := e.lookup(name)
	if !ok {
		if done != nil {
			done(playErr(name, ErrNotFound, nil))
		}
		return
	}

	e.pending++
	e.loader.LoadAsync(b.entry.Key(), func(_ loader.Clip, err error) {
		e.mailbox.post(func() {
			e.pending--
			if done == nil {
				return
			}
			if err != nil {
				done(playErr(name, ErrLoadFailure, err))
				return
			}
			done(nil)
		})
	})
}

// UnloadUnused unloads every clip that is neither in use by a live
// instance nor owned by a persistent bank. It returns the number of clips
// unloaded.
func (e *Engine) UnloadUnused() int {
	keep := make(map[string]bool)
	for _, a := range e.byID {
		keep[a.entry.Key()] = true
	}
	for _, bank := range e.banks {
		if bank.CacheType() != catalog.Persistent {
			continue
		}
		for _, entry := range bank.Entries() {
			keep[entry.Key()] = true
		}
	}

	n := 0
	for _, b := range e.clipIndex {
		key := b.entry.Key()
		if keep[key] || !e.loader.IsLoaded(key) {
			continue
		}
		e.loader.Unload(key)
		keep[key] = true
		n++
	}
	if n > 0 {
		e.logger.Debug("unloaded unused clips", "count", n)
	}
	return n
}

// RegisterGroup adds or replaces a mixer group. Live instances from its
// banks pick up the new volume.
func (e *Engine) RegisterGroup(g *catalog.Group) error {
	if g == nil || g.Name == "" {
		return fmt.Errorf("engine: group must have a name")
	}
	if _, ok := e.groups[g.Name]; !ok {
		e.groupOrder = append(e.groupOrder, g.Name)
	}
	e.groups[g.Name] = g
	e.applyGains()
	return nil
}

// UnregisterGroup removes a mixer group.
func (e *Engine) UnregisterGroup(name string) bool {
	if _, ok := e.groups[name]; !ok {
		return false
	}
	delete(e.groups, name)
	e.groupOrder = slices.DeleteFunc(e.groupOrder, func(n string) bool { return n == name })
	e.applyGains()
	return true
}

// Group returns a mixer group.
func (e *Engine) Group(name string) (*catalog.Group, bool) {
	g, ok := e.groups[name]
	return g, ok
}

// Groups returns the mixer groups in registration order.
func (e *Engine) Groups() []*catalog.Group {
	out := make([]*catalog.Group, 0, len(e.groupOrder))
	for _, name := range e.groupOrder {
		out = append(out, e.groups[name])
	}
	return out
}

// SetGroupVolume changes a group's volume.
func (e *Engine) SetGroupVolume(name string, volume float64) bool {
	g, ok := e.groups[name]
	if !ok {
		return false
	}
	g.Volume = volume
	e.applyGains()
	return true
}

// SetGroupMute mutes or unmutes a group.
func (e *Engine) SetGroupMute(name string, mute bool) bool {
	g, ok := e.groups[name]
	if !ok {
		return false
	}
	g.Mute = mute
	e.applyGains()
	return true
}

// groupOf returns the first registered group that contains bank.
func (e *Engine) groupOf(bank string) *catalog.Group {
	for _, name := range e.groupOrder {
		if g := e.groups[name]; g.HasBank(bank) {
			return g
		}
	}
	return nil
}

// gain returns the volume multiplier for instances of bank.
func (e *Engine) gain(bank string) (float64, bool) {
	g := e.groupOf(bank)
	if g == nil {
		return 1, false
	}
	v := g.EffectiveVolume()
	return v, v == 0
}

func (e *Engine) applyGains() {
	for _, a := range e.byID {
		a.inst.SetGain(e.gain(a.bank.Name()))
	}
}

// groupPlaying counts live instances across the banks of g.
func (e *Engine) groupPlaying(g *catalog.Group) int {
	n := 0
	for _, a := range e.byID {
		if g.HasBank(a.bank.Name()) {
			n++
		}
	}
	return n
}
