package device

import (
	"sync"
	"time"
)

// Headless is a Device that produces no output.
//
// Voice positions advance only when Advance is called, which makes the
// device deterministic. It backs the "headless" device backend and every
// test in the repository.
type Headless struct {
	mu     sync.Mutex
	nextID uint64
	voices []*HeadlessVoice
	closed bool
}

// NewHeadless creates an empty headless device.
func NewHeadless() *Headless {
	return &Headless{}
}

// NewVoice implements Device.
func (h *Headless) NewVoice() (Voice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrDeviceClosed
	}

	h.nextID++
	v := &HeadlessVoice{
		id:      h.nextID,
		device:  h,
		volume:  1,
		pitch:   1,
		spatial: DefaultSpatial(),
		prio:    128,
	}
	h.voices = append(h.voices, v)
	return v, nil
}

// Advance moves every playing voice forward by dt, scaled by its pitch.
// Non-looping voices stop when they reach the end of their clip; looping
// voices wrap around.
func (h *Headless) Advance(dt time.Duration) {
	h.mu.Lock()
	voices := append([]*HeadlessVoice(nil), h.voices...)
	h.mu.Unlock()

	for _, v := range voices {
		v.advance(dt)
	}
}

// Voices returns the voices that have been created and not closed.
func (h *Headless) Voices() []*HeadlessVoice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*HeadlessVoice(nil), h.voices...)
}

// Created returns the number of live voices.
func (h *Headless) Created() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.voices)
}

// Close implements Device.
func (h *Headless) Close() error {
	h.mu.Lock()
	h.closed = true
	voices := h.voices
	h.voices = nil
	h.mu.Unlock()

	for _, v := range voices {
		v.mu.Lock()
		v.closed = true
		v.playing = false
		v.mu.Unlock()
	}
	return nil
}

func (h *Headless) remove(v *HeadlessVoice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, cur := range h.voices {
		if cur == v {
			h.voices = append(h.voices[:i], h.voices[i+1:]...)
			return
		}
	}
}

// HeadlessVoice is the Voice implementation of the headless device.
type HeadlessVoice struct {
	mu      sync.Mutex
	id      uint64
	device  *Headless
	clip    Clip
	playing bool
	paused  bool
	closed  bool
	pos     time.Duration
	volume  float64
	pitch   float64
	loop    bool
	prio    int
	ignore  bool
	spatial Spatial
	emitter *Vec3
}

func (v *HeadlessVoice) ID() uint64 { return v.id }

func (v *HeadlessVoice) SetClip(c Clip) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clip = c
	v.pos = 0
}

func (v *HeadlessVoice) Clip() Clip {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.clip
}

func (v *HeadlessVoice) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.clip == nil {
		return
	}
	v.playing = true
	v.paused = false
	v.pos = 0
}

func (v *HeadlessVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
	v.paused = false
	v.pos = 0
}

func (v *HeadlessVoice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing {
		v.playing = false
		v.paused = true
	}
}

func (v *HeadlessVoice) Resume() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.paused {
		v.playing = true
		v.paused = false
	}
}

func (v *HeadlessVoice) IsPlaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

func (v *HeadlessVoice) Position() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos
}

func (v *HeadlessVoice) Volume() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume
}

func (v *HeadlessVoice) SetVolume(vol float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = vol
}

func (v *HeadlessVoice) Pitch() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pitch
}

func (v *HeadlessVoice) SetPitch(p float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pitch = p
}

func (v *HeadlessVoice) Loop() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loop
}

func (v *HeadlessVoice) SetLoop(loop bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loop = loop
}

func (v *HeadlessVoice) Priority() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.prio
}

func (v *HeadlessVoice) SetPriority(p int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prio = p
}

func (v *HeadlessVoice) SetIgnorePause(ignore bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ignore = ignore
}

// IgnorePause reports the flag set by SetIgnorePause.
func (v *HeadlessVoice) IgnorePause() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ignore
}

func (v *HeadlessVoice) Spatial() Spatial {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.spatial
}

func (v *HeadlessVoice) SetSpatial(s Spatial) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spatial = s
}

func (v *HeadlessVoice) SetEmitter(pos *Vec3) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pos == nil {
		v.emitter = nil
		return
	}
	p := *pos
	v.emitter = &p
}

func (v *HeadlessVoice) Emitter() *Vec3 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.emitter == nil {
		return nil
	}
	p := *v.emitter
	return &p
}

// Finish marks the voice as having reached the end of its clip. Tests use
// it to simulate natural completion without advancing the clock.
func (v *HeadlessVoice) Finish() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = false
	v.paused = false
	if v.clip != nil {
		v.pos = v.clip.Duration()
	}
}

// SetPosition moves the playback head. Tests use it to arrange elapsed
// times for recycling.
func (v *HeadlessVoice) SetPosition(pos time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pos = pos
}

// Closed reports whether Close was called.
func (v *HeadlessVoice) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *HeadlessVoice) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.playing = false
	v.paused = false
	v.mu.Unlock()

	v.device.remove(v)
	return nil
}

func (v *HeadlessVoice) advance(dt time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.playing || v.clip == nil {
		return
	}

	v.pos += time.Duration(float64(dt) * v.pitch)
	length := v.clip.Duration()
	if length <= 0 || v.pos < length {
		return
	}
	if v.loop {
		v.pos %= length
		return
	}
	v.pos = length
	v.playing = false
}

// StaticClip is a Clip with a fixed duration and no sample data.
type StaticClip struct {
	Length time.Duration
	Rate   int
}

// Duration implements Clip.
func (c StaticClip) Duration() time.Duration { return c.Length }

// SampleRate implements Clip.
func (c StaticClip) SampleRate() int {
	if c.Rate <= 0 {
		return 44100
	}
	return c.Rate
}
