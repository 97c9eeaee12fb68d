package oto

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"mercator-hq/cadence/pkg/device"
)

// Voice plays one clip through its own oto player.
//
// Pitch and spatial settings are stored and reported but not rendered.
type Voice struct {
	id     uint64
	device *Device
	stream *stream

	mu          sync.Mutex
	player      *oto.Player
	clip        device.Clip
	paused      bool
	closed      bool
	volume      float64
	pitch       float64
	loop        bool
	priority    int
	ignorePause bool
	spatial     device.Spatial
	emitter     *device.Vec3
}

func (v *Voice) ID() uint64 { return v.id }

// SetClip binds c and rewinds. A clip without sample data is logged and
// plays as silence of zero length.
func (v *Voice) SetClip(c device.Clip) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopLocked()
	v.clip = c
	if c == nil {
		v.stream.reset(nil)
		return
	}
	src, err := v.device.source(c)
	if err != nil {
		v.device.logger.Warn("voice cannot stream clip", "voice", v.id, "error", err)
		v.stream.reset(nil)
		return
	}
	v.stream.reset(src)
}

func (v *Voice) Clip() device.Clip {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.clip
}

// Play starts the clip from the beginning on a fresh player.
func (v *Voice) Play() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || v.clip == nil {
		return
	}
	v.stopLocked()
	v.stream.mu.Lock()
	src := v.stream.src
	v.stream.mu.Unlock()
	v.stream.reset(src)

	v.player = v.device.ctx.NewPlayer(v.stream)
	v.player.SetVolume(v.volume)
	v.player.Play()
	v.paused = false
}

func (v *Voice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
}

func (v *Voice) stopLocked() {
	if v.player != nil {
		v.player.Pause()
		_ = v.player.Close()
		v.player = nil
	}
	v.paused = false
}

func (v *Voice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.player != nil && v.player.IsPlaying() {
		v.player.Pause()
		v.paused = true
	}
}

func (v *Voice) Resume() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.player != nil && v.paused {
		v.player.Play()
		v.paused = false
	}
}

// IsPlaying reports whether the player is still producing sound. A
// non-looping clip stops once its last buffered frame has played.
func (v *Voice) IsPlaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.player != nil && v.player.IsPlaying()
}

// Position subtracts what oto still holds in its buffer from what the
// stream has handed over.
func (v *Voice) Position() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()

	buffered := 0
	if v.player != nil {
		buffered = v.player.BufferedSize()
	}
	return frameDuration(v.device.rate, playedFrames(v.stream.position(), buffered, v.stream.bytesPerFrame()))
}

// playedFrames is the number of frames heard within the current pass.
// Right after a loop wrap the buffer still holds the end of the previous
// pass and can exceed what the new pass handed over, so the result is
// clamped at zero.
func playedFrames(handed, bufferedBytes, bytesPerFrame int) int {
	if bytesPerFrame > 0 {
		handed -= bufferedBytes / bytesPerFrame
	}
	return max(handed, 0)
}

func (v *Voice) Volume() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume
}

func (v *Voice) SetVolume(vol float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = min(max(vol, 0), 1)
	if v.player != nil {
		v.player.SetVolume(v.volume)
	}
}

func (v *Voice) Pitch() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pitch
}

func (v *Voice) SetPitch(p float64) {
	v.mu.Lock()
	v.pitch = p
	v.mu.Unlock()
}

func (v *Voice) Loop() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loop
}

func (v *Voice) SetLoop(loop bool) {
	v.mu.Lock()
	v.loop = loop
	v.mu.Unlock()
	v.stream.setLoop(loop)
}

func (v *Voice) Priority() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.priority
}

func (v *Voice) SetPriority(p int) {
	v.mu.Lock()
	v.priority = p
	v.mu.Unlock()
}

func (v *Voice) SetIgnorePause(ignore bool) {
	v.mu.Lock()
	v.ignorePause = ignore
	v.mu.Unlock()
}

func (v *Voice) IgnorePause() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ignorePause
}

func (v *Voice) Spatial() device.Spatial {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.spatial
}

func (v *Voice) SetSpatial(s device.Spatial) {
	v.mu.Lock()
	v.spatial = s
	v.mu.Unlock()
}

func (v *Voice) SetEmitter(pos *device.Vec3) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if pos == nil {
		v.emitter = nil
		return
	}
	p := *pos
	v.emitter = &p
}

func (v *Voice) Emitter() *device.Vec3 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.emitter == nil {
		return nil
	}
	p := *v.emitter
	return &p
}

// Close stops the player and removes the voice from its device.
func (v *Voice) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.stopLocked()
	v.clip = nil
	v.mu.Unlock()

	v.stream.reset(nil)
	v.device.remove(v)
	return nil
}
