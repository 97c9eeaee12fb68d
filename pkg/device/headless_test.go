package device

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestVec3_Distance(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 3}
	if got := a.Distance(b); math.Abs(got-5) > 1e-9 {
		t.Errorf("Distance() = %v, want 5", got)
	}
	if got := a.Distance(a); got != 0 {
		t.Errorf("Distance() to self = %v, want 0", got)
	}
}

func TestHeadless_NewVoiceDefaults(t *testing.T) {
	h := NewHeadless()
	v, err := h.NewVoice()
	if err != nil {
		t.Fatalf("NewVoice() error = %v", err)
	}

	if v.Volume() != 1 || v.Pitch() != 1 {
		t.Errorf("volume/pitch = %v/%v, want 1/1", v.Volume(), v.Pitch())
	}
	if v.Priority() != 128 {
		t.Errorf("Priority() = %d, want 128", v.Priority())
	}
	if v.Spatial() != DefaultSpatial() {
		t.Errorf("Spatial() = %+v, want defaults", v.Spatial())
	}
	if v.IsPlaying() {
		t.Error("new voice should not be playing")
	}
	if h.Created() != 1 {
		t.Errorf("Created() = %d, want 1", h.Created())
	}
}

func TestHeadless_PlayRequiresClip(t *testing.T) {
	h := NewHeadless()
	v, _ := h.NewVoice()

	v.Play()
	if v.IsPlaying() {
		t.Error("voice without clip should not start")
	}

	v.SetClip(StaticClip{Length: time.Second})
	v.Play()
	if !v.IsPlaying() {
		t.Error("voice with clip should start")
	}
}

func TestHeadless_AdvanceCompletesNonLooping(t *testing.T) {
	h := NewHeadless()
	v, _ := h.NewVoice()
	v.SetClip(StaticClip{Length: time.Second})
	v.Play()

	h.Advance(400 * time.Millisecond)
	if got := v.Position(); got != 400*time.Millisecond {
		t.Errorf("Position() = %v, want 400ms", got)
	}
	if !v.IsPlaying() {
		t.Fatal("voice stopped too early")
	}

	h.Advance(time.Second)
	if v.IsPlaying() {
		t.Error("non-looping voice should stop at clip end")
	}
	if got := v.Position(); got != time.Second {
		t.Errorf("Position() = %v, want 1s", got)
	}
}

func TestHeadless_AdvanceWrapsLooping(t *testing.T) {
	h := NewHeadless()
	v, _ := h.NewVoice()
	v.SetClip(StaticClip{Length: time.Second})
	v.SetLoop(true)
	v.Play()

	h.Advance(1500 * time.Millisecond)
	if !v.IsPlaying() {
		t.Fatal("looping voice should keep playing")
	}
	if got := v.Position(); got != 500*time.Millisecond {
		t.Errorf("Position() = %v, want 500ms", got)
	}
}

func TestHeadless_AdvanceScalesWithPitch(t *testing.T) {
	h := NewHeadless()
	v, _ := h.NewVoice()
	v.SetClip(StaticClip{Length: 10 * time.Second})
	v.SetPitch(2)
	v.Play()

	h.Advance(time.Second)
	if got := v.Position(); got != 2*time.Second {
		t.Errorf("Position() = %v, want 2s", got)
	}
}

func TestHeadless_PauseResume(t *testing.T) {
	h := NewHeadless()
	v, _ := h.NewVoice()
	v.SetClip(StaticClip{Length: time.Second})

	v.Resume()
	if v.IsPlaying() {
		t.Error("Resume() on stopped voice should be a no-op")
	}

	v.Play()
	v.Pause()
	if v.IsPlaying() {
		t.Error("paused voice reports playing")
	}
	h.Advance(500 * time.Millisecond)
	if v.Position() != 0 {
		t.Error("paused voice should not advance")
	}

	v.Resume()
	if !v.IsPlaying() {
		t.Error("resumed voice should play")
	}
}

func TestHeadless_EmitterIsCopied(t *testing.T) {
	h := NewHeadless()
	v, _ := h.NewVoice()

	pos := Vec3{X: 1}
	v.SetEmitter(&pos)
	pos.X = 99

	if got := v.Emitter(); got == nil || got.X != 1 {
		t.Errorf("Emitter() = %v, want X=1", got)
	}

	v.SetEmitter(nil)
	if v.Emitter() != nil {
		t.Error("nil emitter should detach")
	}
}

func TestHeadless_CloseVoiceAndDevice(t *testing.T) {
	h := NewHeadless()
	a, _ := h.NewVoice()
	b, _ := h.NewVoice()

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if h.Created() != 1 {
		t.Errorf("Created() = %d after closing one voice, want 1", h.Created())
	}

	h.Close()
	if !b.(*HeadlessVoice).Closed() {
		t.Error("device close should close remaining voices")
	}
	if _, err := h.NewVoice(); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("NewVoice() after close error = %v, want ErrDeviceClosed", err)
	}
}

func TestStaticClip_DefaultSampleRate(t *testing.T) {
	if got := (StaticClip{}).SampleRate(); got != 44100 {
		t.Errorf("SampleRate() = %d, want 44100", got)
	}
	if got := (StaticClip{Rate: 48000}).SampleRate(); got != 48000 {
		t.Errorf("SampleRate() = %d, want 48000", got)
	}
}
