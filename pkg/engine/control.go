package engine

import (
	"slices"
	"time"

	"mercator-hq/cadence/pkg/playback"
)

// clipOf maps an event name to its clip. Other names are returned as is.
func (e *Engine) clipOf(name string) string {
	if b, ok := e.eventIndex[name]; ok {
		return b.entry.ClipName
	}
	return name
}

// InstancesOf returns the live instances of a clip or event in start
// order.
func (e *Engine) InstancesOf(name string) []*playback.Instance {
	return slices.Clone(e.byClip[e.clipOf(name)])
}

// ActiveInstances returns every live instance in start order.
func (e *Engine) ActiveInstances() []*playback.Instance {
	return e.instances()
}

// Instance returns the live instance with id.
func (e *Engine) Instance(id uint64) (*playback.Instance, bool) {
	a, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	return a.inst, true
}

// IsPlaying reports whether any instance of a clip or event is producing
// sound. Paused instances do not count.
func (e *Engine) IsPlaying(name string) bool {
	return e.playingCount(e.clipOf(name)) > 0
}

// PlayingCount returns the number of instances of a clip or event that are
// producing sound. Paused instances do not count.
func (e *Engine) PlayingCount(name string) int {
	return e.playingCount(e.clipOf(name))
}

func (e *Engine) playingCount(clip string) int {
	n := 0
	for _, inst := range e.byClip[clip] {
		if inst.IsPlaying() {
			n++
		}
	}
	return n
}

// Stop stops every instance of a clip or event, fading out over each
// instance's fade-out time when fadeOut is set. It returns the number of
// instances stopped or set fading.
func (e *Engine) Stop(name string, fadeOut bool) int {
	list := e.InstancesOf(name)
	for _, inst := range list {
		inst.Stop(fadeOut)
	}
	return len(list)
}

// StopFade fades every instance of a clip or event out over d.
func (e *Engine) StopFade(name string, d time.Duration) int {
	list := e.InstancesOf(name)
	for _, inst := range list {
		inst.StopFade(d)
	}
	return len(list)
}

// StopAll stops every instance, or only looping ones when onlyLooping is
// set.
func (e *Engine) StopAll(fadeOut, onlyLooping bool) int {
	n := 0
	for _, inst := range e.instances() {
		if onlyLooping && !inst.Loop() {
			continue
		}
		inst.Stop(fadeOut)
		n++
	}
	return n
}

// StopAllImmediate stops every instance without fading.
func (e *Engine) StopAllImmediate() int {
	list := e.instances()
	for _, inst := range list {
		inst.StopImmediate()
	}
	return len(list)
}

// StopInstance stops one instance.
func (e *Engine) StopInstance(id uint64, fadeOut bool) bool {
	a, ok := e.byID[id]
	if !ok {
		return false
	}
	a.inst.Stop(fadeOut)
	return true
}

// Pause pauses every instance of a clip or event.
func (e *Engine) Pause(name string) int {
	list := e.InstancesOf(name)
	for _, inst := range list {
		inst.Pause()
	}
	return len(list)
}

// Resume resumes every paused instance of a clip or event.
func (e *Engine) Resume(name string) int {
	list := e.InstancesOf(name)
	for _, inst := range list {
		inst.Resume()
	}
	return len(list)
}

// PauseAll pauses every instance except those with IgnorePause set.
func (e *Engine) PauseAll() int {
	n := 0
	for _, inst := range e.instances() {
		if inst.Parameters().IgnorePause {
			continue
		}
		inst.Pause()
		n++
	}
	return n
}

// ResumeAll resumes every paused instance.
func (e *Engine) ResumeAll() int {
	n := 0
	for _, inst := range e.instances() {
		if !inst.IsPaused() {
			continue
		}
		inst.Resume()
		n++
	}
	return n
}
