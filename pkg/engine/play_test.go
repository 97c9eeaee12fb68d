package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/condition"
	"mercator-hq/cadence/pkg/config"
	"mercator-hq/cadence/pkg/device"
	"mercator-hq/cadence/pkg/history"
	"mercator-hq/cadence/pkg/playback"
	"mercator-hq/cadence/pkg/playgroup"
	"mercator-hq/cadence/pkg/telemetry/logging"
	"mercator-hq/cadence/pkg/telemetry/metrics"
	"mercator-hq/cadence/pkg/telemetry/tracing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPlayRegistersOnce(t *testing.T) {
	h := newHarness(t, Options{MaxChannels: 4, WarmupChannels: 2})
	cond := &countingCondition{}
	entry := clip("laser")
	entry.Conditions = []condition.Condition{cond}
	h.register("sfx", catalog.OnDemand, entry)

	inst := h.play("laser")

	if got := h.eng.InstancesOf("laser"); len(got) != 1 || got[0] != inst {
		t.Errorf("InstancesOf(laser) = %v, want [instance %d]", got, inst.ID())
	}
	if got, ok := h.eng.Instance(inst.ID()); !ok || got != inst {
		t.Errorf("Instance(%d) = %v, %v", inst.ID(), got, ok)
	}
	if stats := h.eng.PoolStats(); stats.Idle != 1 || stats.Lent != 1 {
		t.Errorf("PoolStats() = %+v, want idle 1 lent 1", stats)
	}
	if inst.State() != playback.Playing || !voiceOf(t, inst).IsPlaying() {
		t.Error("instance is not playing")
	}
	if inst.BankName() != "sfx" || inst.StartTime() != 0 {
		t.Errorf("instance bank/start = %q/%v", inst.BankName(), inst.StartTime())
	}
	if cond.starts != 1 || cond.stops != 0 {
		t.Errorf("condition starts/stops = %d/%d, want 1/0", cond.starts, cond.stops)
	}
	checkIndices(t, h.eng)
}

func TestCompletionReturnsVoiceOnce(t *testing.T) {
	tests := []struct {
		name       string
		finish     func(h *harness, inst *playback.Instance)
		wantReason playback.StopReason
	}{
		{
			name: "natural end",
			finish: func(h *harness, inst *playback.Instance) {
				voiceOf(h.t, inst).Finish()
				h.eng.Tick(frame)
			},
			wantReason: playback.ReasonCompleted,
		},
		{
			name: "clip runs out",
			finish: func(h *harness, inst *playback.Instance) {
				for i := 0; i < 70; i++ {
					h.eng.Tick(frame)
				}
			},
			wantReason: playback.ReasonCompleted,
		},
		{
			name: "explicit stop",
			finish: func(h *harness, inst *playback.Instance) {
				h.eng.Stop("laser", false)
			},
			wantReason: playback.ReasonStopped,
		},
		{
			name: "stop instance",
			finish: func(h *harness, inst *playback.Instance) {
				h.eng.StopInstance(inst.ID(), false)
			},
			wantReason: playback.ReasonStopped,
		},
		{
			name: "fade out",
			finish: func(h *harness, inst *playback.Instance) {
				h.eng.StopFade("laser", 3*frame)
				for i := 0; i < 3; i++ {
					h.eng.Tick(frame)
				}
			},
			wantReason: playback.ReasonFaded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			h := newHarness(t, Options{MaxChannels: 4, WarmupChannels: 2, Metrics: metrics.NewCollector(nil, reg)})
			cond := &countingCondition{}
			entry := clip("laser")
			entry.Conditions = []condition.Condition{cond}
			h.register("sfx", catalog.OnDemand, entry)

			completed := 0
			inst, err := h.eng.PlayRequest(context.Background(),
				NewRequest("laser").WithOnComplete(func(*playback.Instance) { completed++ }))
			if err != nil {
				t.Fatalf("PlayRequest() error = %v", err)
			}

			tt.finish(h, inst)

			// A second stop and more ticks must not release again.
			inst.StopImmediate()
			h.eng.Tick(frame)

			if completed != 1 {
				t.Errorf("OnComplete ran %d times, want 1", completed)
			}
			if inst.StopReason() != tt.wantReason {
				t.Errorf("StopReason() = %q, want %q", inst.StopReason(), tt.wantReason)
			}
			if h.eng.IsPlaying("laser") || len(h.eng.ActiveInstances()) != 0 {
				t.Error("instance still registered")
			}
			if _, ok := h.eng.Instance(inst.ID()); ok {
				t.Error("instance still in by-id index")
			}
			if stats := h.eng.PoolStats(); stats.Idle != 2 || stats.Lent != 0 {
				t.Errorf("PoolStats() = %+v, want idle 2 lent 0", stats)
			}
			if n := len(h.dev.Voices()); n != 2 {
				t.Errorf("device voices = %d, want 2", n)
			}
			if cond.stops != 1 {
				t.Errorf("condition stops = %d, want 1", cond.stops)
			}

			expected := `
# HELP cadence_pool_invalid_releases_total Total number of releases of voices that were not lent
# TYPE cadence_pool_invalid_releases_total counter
cadence_pool_invalid_releases_total 0
`
			if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cadence_pool_invalid_releases_total"); err != nil {
				t.Errorf("unexpected metrics: %v", err)
			}
			checkIndices(t, h.eng)
		})
	}
}

func TestFadeOutThroughEngine(t *testing.T) {
	h := newHarness(t, Options{})
	h.register("sfx", catalog.OnDemand, withParams(clip("laser"), func(p *catalog.Parameters) {
		p.FadeOut = 100 * time.Millisecond
	}))

	inst := h.play("laser")
	v := voiceOf(t, inst)

	h.eng.Stop("laser", true)
	if !approx(v.Volume(), 1) || !inst.IsFadingOut() {
		t.Fatalf("at t=0 volume = %v fading = %v, want 1 and fading", v.Volume(), inst.IsFadingOut())
	}

	h.eng.Tick(50 * time.Millisecond)
	if !approx(v.Volume(), 0.5) {
		t.Errorf("at t=d/2 volume = %v, want 0.5", v.Volume())
	}
	if !h.eng.IsPlaying("laser") {
		t.Error("instance removed before the fade finished")
	}

	h.eng.Tick(50 * time.Millisecond)
	if h.eng.IsPlaying("laser") {
		t.Error("instance still registered after the fade")
	}
	if inst.StopReason() != playback.ReasonFaded {
		t.Errorf("StopReason() = %q, want faded", inst.StopReason())
	}
}

func TestZeroFadeStopsImmediately(t *testing.T) {
	h := newHarness(t, Options{})
	h.register("sfx", catalog.OnDemand, clip("laser"))

	inst := h.play("laser")
	if n := h.eng.StopFade("laser", 0); n != 1 {
		t.Errorf("StopFade() = %d, want 1", n)
	}
	if !inst.Done() || h.eng.IsPlaying("laser") {
		t.Error("zero fade did not stop immediately")
	}
}

func TestConcurrentLimit(t *testing.T) {
	t.Run("dont play", func(t *testing.T) {
		h := newHarness(t, Options{})
		entry := clip("laser")
		entry.Conditions = []condition.Condition{&condition.ConcurrentLimit{Max: 2, OverLimit: condition.DontPlay}}
		h.register("sfx", catalog.OnDemand, entry)

		first := h.play("laser")
		h.play("laser")

		if _, err := h.eng.Play(context.Background(), "laser"); !errors.Is(err, ErrBlocked) {
			t.Fatalf("third Play() error = %v, want ErrBlocked", err)
		}
		if n := h.eng.PlayingCount("laser"); n != 2 {
			t.Errorf("PlayingCount() = %d, want 2", n)
		}

		h.eng.StopInstance(first.ID(), false)
		if _, err := h.eng.Play(context.Background(), "laser"); err != nil {
			t.Errorf("Play() after a stop error = %v", err)
		}
		checkIndices(t, h.eng)
	})

	t.Run("stop oldest", func(t *testing.T) {
		h := newHarness(t, Options{})
		entry := clip("laser")
		entry.Conditions = []condition.Condition{&condition.ConcurrentLimit{Max: 2, OverLimit: condition.StopOldest}}
		h.register("sfx", catalog.OnDemand, entry)

		first := h.play("laser")
		h.eng.Tick(frame)
		second := h.play("laser")
		h.eng.Tick(frame)
		third := h.play("laser")

		if !first.Done() || second.Done() || third.Done() {
			t.Errorf("done = %v/%v/%v, want only the first stopped", first.Done(), second.Done(), third.Done())
		}
		if n := h.eng.PlayingCount("laser"); n != 2 {
			t.Errorf("PlayingCount() = %d, want 2", n)
		}
		checkIndices(t, h.eng)
	})

	t.Run("stop lowest priority", func(t *testing.T) {
		h := newHarness(t, Options{})
		entry := clip("laser")
		entry.Conditions = []condition.Condition{&condition.ConcurrentLimit{Max: 2, OverLimit: condition.StopLowestPriority}}
		h.register("sfx", catalog.OnDemand, entry)

		withPriority := func(p int) Request {
			params := catalog.DefaultParameters()
			params.Priority = p
			return NewRequest("laser").WithParameters(params)
		}

		important, _ := h.eng.PlayRequest(context.Background(), withPriority(10))
		minor, _ := h.eng.PlayRequest(context.Background(), withPriority(200))
		if _, err := h.eng.PlayRequest(context.Background(), withPriority(128)); err != nil {
			t.Fatalf("third PlayRequest() error = %v", err)
		}

		if important.Done() || !minor.Done() {
			t.Errorf("important done = %v, minor done = %v; want the 200 priority stopped", important.Done(), minor.Done())
		}
	})

	t.Run("paused instances do not count", func(t *testing.T) {
		h := newHarness(t, Options{})
		entry := clip("hit")
		entry.Conditions = []condition.Condition{&condition.ConcurrentLimit{Max: 1, OverLimit: condition.DontPlay}}
		h.register("sfx", catalog.OnDemand, entry)

		paused := h.play("hit")
		h.eng.Tick(frame)
		h.eng.Pause("hit")

		inst, err := h.eng.Play(context.Background(), "hit")
		if err != nil {
			t.Fatalf("Play() with only a paused instance error = %v", err)
		}
		if paused.Done() || !paused.IsPaused() {
			t.Error("paused instance was disturbed by the new play")
		}
		if n := h.eng.PlayingCount("hit"); n != 1 || !inst.IsPlaying() {
			t.Errorf("PlayingCount() = %d, want 1", n)
		}
		checkIndices(t, h.eng)
	})
}

func TestCooldownUsesEngineTime(t *testing.T) {
	h := newHarness(t, Options{})
	entry := clip("laser")
	entry.Conditions = []condition.Condition{&condition.Cooldown{Duration: 100 * time.Millisecond}}
	h.register("sfx", catalog.OnDemand, entry)

	h.play("laser")
	if _, err := h.eng.Play(context.Background(), "laser"); !errors.Is(err, ErrBlocked) {
		t.Errorf("Play() inside cooldown error = %v, want ErrBlocked", err)
	}

	h.eng.Tick(100 * time.Millisecond)
	if _, err := h.eng.Play(context.Background(), "laser"); err != nil {
		t.Errorf("Play() after cooldown error = %v", err)
	}
}

func TestSequentialPlayGroup(t *testing.T) {
	settings := playgroup.NewSettings()
	settings.Add(playgroup.NewGroup("steps", playgroup.Sequential, playgroup.DontPlay))
	h := newHarness(t, Options{PlayGroups: settings})
	h.register("sfx", catalog.OnDemand, grouped("A", "steps"), grouped("B", "steps"), grouped("C", "steps"))

	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, h.play("steps").ClipName())
	}
	if strings.Join(got, ",") != "A,B,C,A" {
		t.Errorf("unprompted sequence = %v, want A,B,C,A", got)
	}

	// An explicit member request jumps the cursor past itself.
	if name := h.play("A").ClipName(); name != "A" {
		t.Errorf("explicit Play(A) played %q", name)
	}
	if name := h.play("steps").ClipName(); name != "B" {
		t.Errorf("after explicit A got %q, want B", name)
	}
}

func TestSequentialPlayGroupEventAlias(t *testing.T) {
	settings := playgroup.NewSettings()
	settings.Add(playgroup.NewGroup("steps", playgroup.Sequential, playgroup.DontPlay))
	h := newHarness(t, Options{PlayGroups: settings})
	h.register("sfx", catalog.OnDemand,
		&catalog.Entry{ClipName: "A", EventName: "footstep", PlayGroup: "steps"},
		grouped("B", "steps"),
		grouped("C", "steps"))

	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, h.play("footstep").ClipName())
	}
	if strings.Join(got, ",") != "A,B,C,A" {
		t.Errorf("sequence through event alias = %v, want A,B,C,A", got)
	}
}

func TestExclusivePlayGroupIgnoresPausedMember(t *testing.T) {
	settings := playgroup.NewSettings()
	settings.Add(playgroup.NewGroup("music", playgroup.Exclusive, playgroup.DontPlay))
	h := newHarness(t, Options{PlayGroups: settings})
	h.register("bgm", catalog.OnDemand, grouped("A", "music"), grouped("B", "music"))

	a := h.play("A")
	h.eng.Pause("A")

	b, err := h.eng.Play(context.Background(), "B")
	if err != nil {
		t.Fatalf("Play(B) with A paused error = %v", err)
	}
	if a.Done() || b.ClipName() != "B" {
		t.Errorf("A done = %v, played %q; want A kept paused and B playing", a.Done(), b.ClipName())
	}

	if _, err := h.eng.Play(context.Background(), "A"); !errors.Is(err, ErrBlocked) {
		t.Errorf("Play(A) while B plays error = %v, want ErrBlocked", err)
	}
}

func TestExclusivePlayGroup(t *testing.T) {
	tests := []struct {
		name      string
		behavior  playgroup.ExclusiveBehavior
		wantErr   error
		wantAStop bool
		wantAFade bool
	}{
		{name: "stop old", behavior: playgroup.StopOld, wantAStop: true},
		{name: "fade out old", behavior: playgroup.FadeOutOld, wantAFade: true},
		{name: "dont play", behavior: playgroup.DontPlay, wantErr: ErrBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := playgroup.NewSettings()
			settings.Add(playgroup.NewGroup("music", playgroup.Exclusive, tt.behavior))
			h := newHarness(t, Options{PlayGroups: settings})
			fade := func(p *catalog.Parameters) { p.FadeOut = 200 * time.Millisecond }
			h.register("bgm", catalog.OnDemand,
				withParams(grouped("A", "music"), fade),
				withParams(grouped("B", "music"), fade))

			a := h.play("A")
			b, err := h.eng.Play(context.Background(), "B")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Play(B) error = %v, want %v", err, tt.wantErr)
			}

			if a.Done() != tt.wantAStop {
				t.Errorf("A done = %v, want %v", a.Done(), tt.wantAStop)
			}
			if a.IsFadingOut() != tt.wantAFade {
				t.Errorf("A fading = %v, want %v", a.IsFadingOut(), tt.wantAFade)
			}
			if tt.wantErr == nil && (b == nil || b.ClipName() != "B") {
				t.Errorf("Play(B) = %v, want an instance of B", b)
			}

			active := 0
			for _, inst := range h.eng.ActiveInstances() {
				if inst.PlayGroup() == "music" && inst.State() != playback.FadingOut {
					active++
				}
			}
			if active != 1 {
				t.Errorf("non-fading members playing = %d, want 1", active)
			}
			checkIndices(t, h.eng)
		})
	}
}

func TestPoolForceRecycle(t *testing.T) {
	loop := func(p *catalog.Parameters) { p.Loop = true }

	tests := []struct {
		name       string
		a, b       *catalog.Entry
		posA, posB time.Duration
		wantGone   string
		wantVoices int
	}{
		{
			name: "least elapsed non-looping",
			a:    clip("a"), b: clip("b"),
			posA: 500 * time.Millisecond, posB: 200 * time.Millisecond,
			wantGone: "b", wantVoices: 2,
		},
		{
			name: "looping voice is never taken",
			a:    withParams(clip("a"), loop), b: clip("b"),
			posA: 100 * time.Millisecond, posB: 600 * time.Millisecond,
			wantGone: "b", wantVoices: 2,
		},
		{
			name: "all looping over-allocates",
			a:    withParams(clip("a"), loop), b: withParams(clip("b"), loop),
			wantGone: "", wantVoices: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{MaxChannels: 2})
			h.register("sfx", catalog.OnDemand, tt.a, tt.b, clip("c"))

			completed := make(map[string]int)
			onDone := func(inst *playback.Instance) { completed[inst.ClipName()]++ }

			a, _ := h.eng.PlayRequest(context.Background(), NewRequest("a").WithOnComplete(onDone))
			b, _ := h.eng.PlayRequest(context.Background(), NewRequest("b").WithOnComplete(onDone))
			voiceOf(t, a).SetPosition(tt.posA)
			voiceOf(t, b).SetPosition(tt.posB)
			bVoice := b.Voice()

			c := h.play("c")

			if len(h.dev.Voices()) != tt.wantVoices {
				t.Errorf("device voices = %d, want %d", len(h.dev.Voices()), tt.wantVoices)
			}
			for name, inst := range map[string]*playback.Instance{"a": a, "b": b} {
				gone := name == tt.wantGone
				if inst.Done() != gone {
					t.Errorf("%s done = %v, want %v", name, inst.Done(), gone)
				}
				if gone {
					if inst.StopReason() != playback.ReasonRecycled || completed[name] != 1 {
						t.Errorf("%s reason = %q completed = %d", name, inst.StopReason(), completed[name])
					}
				}
			}
			if tt.wantGone == "b" && c.Voice() != bVoice {
				t.Error("new instance did not receive the recycled voice")
			}
			if !c.IsPlaying() {
				t.Error("new instance is not playing")
			}
			checkIndices(t, h.eng)

			// The recycled instance must not release the voice its
			// successor now owns.
			h.eng.StopAllImmediate()
			if stats := h.eng.PoolStats(); stats.Lent != 0 || stats.Idle != tt.wantVoices {
				t.Errorf("PoolStats() after stop = %+v", stats)
			}
		})
	}
}

func TestFailedPlayHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness)
		request string
		want    error
	}{
		{name: "empty name", request: "", want: ErrInvalidRequest},
		{name: "unknown clip", request: "missing", want: ErrNotFound},
		{
			name:    "condition denies",
			request: "laser",
			setup: func(h *harness) {
				entry, _, _ := h.eng.Lookup("laser")
				entry.Conditions = append(entry.Conditions, &condition.Probability{Percent: 0})
			},
			want: ErrBlocked,
		},
		{
			name:    "load failure",
			request: "laser",
			setup: func(h *harness) {
				h.ld.Fail("laser", errors.New("disk on fire"))
			},
			want: ErrLoadFailure,
		},
		{
			name:    "group cap",
			request: "laser",
			setup: func(h *harness) {
				h.eng.RegisterGroup(&catalog.Group{Name: "fx", Volume: 1, MaxConcurrent: 1, Banks: []string{"sfx"}})
				h.play("other")
			},
			want: ErrBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{MaxChannels: 4, WarmupChannels: 2})
			cond := &countingCondition{}
			entry := clip("laser")
			entry.Conditions = []condition.Condition{cond}
			h.register("sfx", catalog.OnDemand, entry, clip("other"))
			if tt.setup != nil {
				tt.setup(h)
			}

			before := h.eng.PoolStats()
			liveBefore := len(h.eng.ActiveInstances())

			inst, err := h.eng.Play(context.Background(), tt.request)
			if inst != nil {
				t.Errorf("Play() returned instance %d", inst.ID())
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Play() error = %v, want %v", err, tt.want)
			}
			var playErr *PlayError
			if !errors.As(err, &playErr) || playErr.Clip != tt.request {
				t.Errorf("error = %#v, want *PlayError for %q", err, tt.request)
			}

			if after := h.eng.PoolStats(); after.Idle != before.Idle || after.Lent != before.Lent {
				t.Errorf("pool changed: before %+v after %+v", before, after)
			}
			if n := len(h.eng.ActiveInstances()); n != liveBefore {
				t.Errorf("live instances = %d, want %d", n, liveBefore)
			}
			if cond.starts != 0 {
				t.Errorf("condition OnPlayStart ran %d times", cond.starts)
			}
			if _, ok := h.eng.lastPlay["laser"]; ok {
				t.Error("last play time recorded for a failed play")
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: metrics.ResultPlayed},
		{err: playErr("x", ErrInvalidRequest, nil), want: metrics.ResultInvalid},
		{err: playErr("x", ErrNotFound, errStale), want: metrics.ResultNotFound},
		{err: playErr("x", ErrBlocked, nil), want: metrics.ResultBlocked},
		{err: playErr("x", ErrLoadFailure, errors.New("io")), want: metrics.ResultFailed},
		{err: playErr("x", ErrClosed, nil), want: "closed"},
		{err: playErr("x", ErrDevice, errors.New("no audio")), want: "device_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestPlayAsync(t *testing.T) {
	h := newHarness(t, Options{})
	h.register("sfx", catalog.OnDemand, clip("laser"))
	h.ld.SetDeferred(true)

	var got *playback.Instance
	calls := 0
	h.eng.PlayAsync("laser", func(inst *playback.Instance, err error) {
		calls++
		if err != nil {
			t.Errorf("PlayAsync() error = %v", err)
		}
		got = inst
	})

	if h.eng.PendingLoads() != 1 || h.eng.IsPlaying("laser") {
		t.Fatal("async play started before its load completed")
	}

	h.ld.Complete()
	if calls != 0 {
		t.Fatal("completion ran off the tick goroutine")
	}

	h.eng.Tick(frame)
	if calls != 1 || got == nil || !got.IsPlaying() {
		t.Fatalf("after Tick calls = %d instance = %v", calls, got)
	}
	if h.eng.PendingLoads() != 0 {
		t.Errorf("PendingLoads() = %d, want 0", h.eng.PendingLoads())
	}
	checkIndices(t, h.eng)
}

func TestPlayAsyncFailures(t *testing.T) {
	t.Run("unknown clip fails immediately", func(t *testing.T) {
		h := newHarness(t, Options{})
		var gotErr error
		h.eng.PlayAsync("missing", func(_ *playback.Instance, err error) { gotErr = err })
		if !errors.Is(gotErr, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", gotErr)
		}
	})

	t.Run("load failure", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.register("sfx", catalog.OnDemand, clip("laser"))
		h.ld.Fail("laser", errors.New("corrupt"))

		var gotErr error
		h.eng.PlayAsync("laser", func(_ *playback.Instance, err error) { gotErr = err })
		h.eng.Tick(frame)
		if !errors.Is(gotErr, ErrLoadFailure) {
			t.Errorf("error = %v, want ErrLoadFailure", gotErr)
		}
		if stats := h.eng.PoolStats(); stats.Lent != 0 {
			t.Errorf("voices lent after a failed load: %+v", stats)
		}
	})
}

func TestStaleAsyncLoadIsDiscarded(t *testing.T) {
	tests := []struct {
		name   string
		change func(h *harness)
	}{
		{
			name:   "bank unregistered",
			change: func(h *harness) { h.eng.UnregisterBank("sfx") },
		},
		{
			name: "bank replaced",
			change: func(h *harness) {
				replacement := catalog.NewBank("sfx", catalog.OnDemand, nil)
				replacement.Add(&catalog.Entry{ClipName: "laser", AssetPath: "laser-v2"})
				h.ld.Add("laser-v2", device.StaticClip{Length: time.Second})
				h.eng.RegisterBank(replacement)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			h := newHarness(t, Options{Metrics: metrics.NewCollector(nil, reg)})
			h.register("sfx", catalog.OnDemand, clip("laser"))
			h.ld.SetDeferred(true)

			var gotErr error
			var gotInst *playback.Instance
			h.eng.PlayAsync("laser", func(inst *playback.Instance, err error) {
				gotInst, gotErr = inst, err
			})

			tt.change(h)
			h.ld.Complete()
			h.eng.Tick(frame)

			if gotInst != nil {
				t.Errorf("stale load started instance %d", gotInst.ID())
			}
			if !errors.Is(gotErr, ErrNotFound) || !errors.Is(gotErr, errStale) {
				t.Errorf("error = %v, want ErrNotFound wrapping errStale", gotErr)
			}
			if h.ld.IsLoaded("laser") {
				t.Error("discarded clip still loaded")
			}
			if h.eng.IsPlaying("laser") {
				t.Error("stale load is playing")
			}

			expected := `
# HELP cadence_loader_stale_loads_total Total number of async loads discarded because their entry was unregistered
# TYPE cadence_loader_stale_loads_total counter
cadence_loader_stale_loads_total 1
`
			if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cadence_loader_stale_loads_total"); err != nil {
				t.Errorf("unexpected metrics: %v", err)
			}
		})
	}
}

func TestParameterPrecedence(t *testing.T) {
	engineDefault := catalog.DefaultParameters()
	engineDefault.Volume = 0.1
	bankDefault := catalog.DefaultParameters()
	bankDefault.Volume = 0.2

	h := newHarness(t, Options{DefaultParameters: &engineDefault})

	plain := catalog.NewBank("plain", catalog.OnDemand, nil)
	plain.Add(clip("engine-default"))
	withDefaults := catalog.NewBank("defaults", catalog.OnDemand, &bankDefault)
	withDefaults.Add(clip("bank-default"))
	withDefaults.Add(withParams(clip("custom"), func(p *catalog.Parameters) { p.Volume = 0.3 }))
	for _, b := range []*catalog.Bank{plain, withDefaults} {
		for _, e := range b.Entries() {
			h.ld.Add(e.Key(), device.StaticClip{Length: time.Second})
		}
		h.eng.RegisterBank(b)
	}

	override := catalog.DefaultParameters()
	override.Volume = 0.4

	tests := []struct {
		name string
		req  Request
		want float64
	}{
		{name: "engine default", req: NewRequest("engine-default"), want: 0.1},
		{name: "bank default", req: NewRequest("bank-default"), want: 0.2},
		{name: "custom", req: NewRequest("custom"), want: 0.3},
		{name: "override", req: NewRequest("custom").WithParameters(override), want: 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := h.eng.PlayRequest(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("PlayRequest() error = %v", err)
			}
			if !approx(inst.Parameters().Volume, tt.want) {
				t.Errorf("volume = %v, want %v", inst.Parameters().Volume, tt.want)
			}
		})
	}
}

func TestParametersAreCopiedOnPlay(t *testing.T) {
	h := newHarness(t, Options{})
	entry := withParams(clip("laser"), func(p *catalog.Parameters) { p.Volume = 0.5 })
	h.register("sfx", catalog.OnDemand, entry)

	inst := h.play("laser")
	entry.CustomParameters.Volume = 0.9

	if !approx(inst.Parameters().Volume, 0.5) {
		t.Errorf("live instance volume = %v after catalog edit, want 0.5", inst.Parameters().Volume)
	}
}

func TestEventAlias(t *testing.T) {
	h := newHarness(t, Options{})
	h.register("sfx", catalog.OnDemand, &catalog.Entry{ClipName: "laser_01", EventName: "shoot"})

	inst := h.play("shoot")
	if inst.ClipName() != "laser_01" {
		t.Errorf("ClipName() = %q, want laser_01", inst.ClipName())
	}
	if !h.eng.IsPlaying("shoot") || h.eng.PlayingCount("laser_01") != 1 {
		t.Error("event alias and clip name disagree")
	}
	if n := h.eng.Stop("shoot", false); n != 1 {
		t.Errorf("Stop(shoot) = %d, want 1", n)
	}
}

func TestPlayAtAndFollow(t *testing.T) {
	h := newHarness(t, Options{})
	h.register("sfx", catalog.OnDemand, clip("laser"))

	at, err := h.eng.PlayAt(context.Background(), "laser", device.Vec3{X: 1, Y: 2, Z: 3})
	if err != nil {
		t.Fatalf("PlayAt() error = %v", err)
	}
	if pos := voiceOf(t, at).Emitter(); pos == nil || *pos != (device.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("PlayAt emitter = %v", pos)
	}

	target := device.Vec3{X: 5}
	alive := true
	follow := playback.FollowFunc(func() (device.Vec3, bool) { return target, alive })

	inst, err := h.eng.PlayFollow(context.Background(), "laser", follow)
	if err != nil {
		t.Fatalf("PlayFollow() error = %v", err)
	}
	v := voiceOf(t, inst)
	if pos := v.Emitter(); pos == nil || pos.X != 5 {
		t.Errorf("spawn emitter = %v, want X=5", pos)
	}

	target = device.Vec3{X: 9}
	h.eng.Tick(frame)
	if pos := v.Emitter(); pos == nil || pos.X != 9 {
		t.Errorf("emitter after move = %v, want X=9", pos)
	}

	alive = false
	target = device.Vec3{X: 100}
	h.eng.Tick(frame)
	if pos := v.Emitter(); pos == nil || pos.X != 9 {
		t.Errorf("emitter after target vanished = %v, want X=9", pos)
	}
}

func TestGroupGain(t *testing.T) {
	h := newHarness(t, Options{})
	h.register("sfx", catalog.OnDemand, clip("laser"))
	h.eng.RegisterGroup(&catalog.Group{Name: "effects", Volume: 0.5, Banks: []string{"sfx"}})

	inst := h.play("laser")
	v := voiceOf(t, inst)
	if !approx(v.Volume(), 0.5) {
		t.Errorf("volume = %v, want 0.5", v.Volume())
	}

	h.eng.SetGroupMute("effects", true)
	if v.Volume() != 0 {
		t.Errorf("muted volume = %v, want 0", v.Volume())
	}

	h.eng.SetGroupMute("effects", false)
	h.eng.SetGroupVolume("effects", 0.25)
	if !approx(v.Volume(), 0.25) {
		t.Errorf("volume = %v, want 0.25", v.Volume())
	}

	h.eng.UnregisterGroup("effects")
	if !approx(v.Volume(), 1) {
		t.Errorf("volume without group = %v, want 1", v.Volume())
	}
	if h.eng.SetGroupVolume("effects", 1) {
		t.Error("SetGroupVolume() on removed group = true")
	}
}

func TestPlayRecordsHistory(t *testing.T) {
	backend := history.NewMemoryBackend()
	rec := history.NewRecorder(backend, history.RecorderConfig{})
	h := newHarness(t, Options{History: rec})
	h.register("sfx", catalog.OnDemand, &catalog.Entry{ClipName: "laser", EventName: "shoot"})

	inst := h.play("shoot")
	h.eng.StopInstance(inst.ID(), false)
	h.eng.Play(context.Background(), "missing")

	rec.Close()

	events, err := backend.Query(context.Background(), history.Query{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	want := []struct {
		kind    history.Kind
		clip    string
		outcome string
	}{
		{history.KindStart, "laser", ""},
		{history.KindStop, "laser", "stopped"},
		{history.KindDenied, "missing", metrics.ResultNotFound},
	}
	if len(events) != len(want) {
		t.Fatalf("recorded %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, w := range want {
		ev := events[i]
		if ev.Kind != w.kind || ev.Clip != w.clip || ev.Outcome != w.outcome {
			t.Errorf("event[%d] = %s/%s/%s, want %s/%s/%s", i, ev.Kind, ev.Clip, ev.Outcome, w.kind, w.clip, w.outcome)
		}
		if ev.Session != h.eng.Session() {
			t.Errorf("event[%d] session = %q, want %q", i, ev.Session, h.eng.Session())
		}
	}
	if events[0].Requested != "shoot" || events[0].Instance != inst.ID() {
		t.Errorf("start event = %+v", events[0])
	}
}

func TestPlayLogCarriesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := newHarness(t, Options{Logger: logger, PlayLog: true})
	h.register("sfx", catalog.OnDemand, &catalog.Entry{ClipName: "laser", EventName: "shoot"})

	ctx := logging.WithRequestID(context.Background(), "req-7")
	inst, err := h.eng.Play(ctx, "shoot")
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "msg=play ") {
			line = l
		}
	}
	for _, want := range []string{
		"component=engine",
		"session=" + h.eng.Session(),
		"request_id=req-7",
		"bank=sfx",
		"clip=laser",
		"requested=shoot",
		fmt.Sprintf("instance=%d", inst.ID()),
	} {
		if !strings.Contains(line, want) {
			t.Errorf("play log %q missing %q", line, want)
		}
	}

	buf.Reset()
	h.eng.Play(ctx, "missing")
	if !strings.Contains(buf.String(), "request_id=req-7") || strings.Contains(buf.String(), "clip=missing") {
		t.Errorf("unresolved request log = %q", buf.String())
	}
}

func TestPlayTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.New(&config.TracingConfig{
		Enabled:     true,
		Sampler:     tracing.SamplerAlways,
		SampleRatio: 1,
		Endpoint:    "localhost:4317",
		ServiceName: "cadence-test",
		Insecure:    true,
	}, tracing.WithExporter(exporter), tracing.WithoutGlobal())
	if err != nil {
		t.Fatalf("tracing.New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	h := newHarness(t, Options{Tracer: tracer})
	h.register("sfx", catalog.OnDemand, clip("laser"))

	h.play("laser")
	h.eng.Play(context.Background(), "missing")

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}

	results := make([]string, 0, len(spans))
	for _, s := range spans {
		if s.Name != "engine.play" {
			t.Errorf("span name = %q, want engine.play", s.Name)
		}
		for _, kv := range s.Attributes {
			if string(kv.Key) == tracing.AttrResult {
				results = append(results, kv.Value.AsString())
			}
		}
	}
	if strings.Join(results, ",") != "played,not_found" {
		t.Errorf("results = %v, want played,not_found", results)
	}
}
