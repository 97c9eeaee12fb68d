package playgroup

import (
	"testing"
)

type fakeConflict struct {
	clip      string
	immediate int
	faded     int
}

func (f *fakeConflict) ClipName() string { return f.clip }
func (f *fakeConflict) StopImmediate()   { f.immediate++ }
func (f *fakeConflict) Stop(fade bool) {
	if fade {
		f.faded++
		return
	}
	f.immediate++
}

type fakeHost struct {
	playing map[string]*fakeConflict
	asked   []string
}

func (h *fakeHost) FindPlaying(group string) Conflict {
	h.asked = append(h.asked, group)
	if c, ok := h.playing[group]; ok {
		return c
	}
	return nil
}

func TestGroup_SequentialCycles(t *testing.T) {
	g := NewGroup("steps", Sequential, DontPlay)
	members := []string{"A", "B", "C"}

	want := []string{"A", "B", "C", "A", "B"}
	for i, w := range want {
		got, ok := g.Select(members, "")
		if !ok || got != w {
			t.Errorf("select %d = %q, %v, want %q", i, got, ok, w)
		}
	}
}

func TestGroup_SequentialExplicitJump(t *testing.T) {
	g := NewGroup("steps", Sequential, DontPlay)
	members := []string{"A", "B", "C"}

	if got, _ := g.Select(members, "B"); got != "B" {
		t.Fatalf("explicit request = %q, want B", got)
	}
	if g.Cursor() != 2 {
		t.Errorf("Cursor() = %d, want 2", g.Cursor())
	}
	if got, _ := g.Select(members, ""); got != "C" {
		t.Errorf("next = %q, want C", got)
	}
	if got, _ := g.Select(members, "X"); got != "A" {
		t.Errorf("non-member request = %q, want A (cursor wraps)", got)
	}

	g.ResetSequence()
	if got, _ := g.Select(members, ""); got != "A" {
		t.Errorf("after reset = %q, want A", got)
	}
}

func TestGroup_TrivialMembers(t *testing.T) {
	for _, mode := range []Mode{Random, Sequential, Exclusive} {
		g := NewGroup("g", mode, DontPlay)

		if _, ok := g.Select(nil, "A"); ok {
			t.Errorf("%s: zero members should deny", mode)
		}
		got, ok := g.Select([]string{"only"}, "other")
		if !ok || got != "only" {
			t.Errorf("%s: single member = %q, %v", mode, got, ok)
		}
		if g.Cursor() != 0 {
			t.Errorf("%s: single member must not move the cursor", mode)
		}
	}
}

func TestGroup_RandomStaysInMembers(t *testing.T) {
	g := NewGroup("hits", Random, DontPlay).WithSeed(7)
	members := []string{"A", "B", "C"}

	seen := map[string]int{}
	for i := 0; i < 300; i++ {
		got, ok := g.Select(members, "")
		if !ok {
			t.Fatal("random select denied")
		}
		seen[got]++
	}
	for _, m := range members {
		if seen[m] == 0 {
			t.Errorf("member %q never selected in 300 draws", m)
		}
	}
	if len(seen) != 3 {
		t.Errorf("selected outside members: %v", seen)
	}
}

func TestGroup_ExclusiveSelection(t *testing.T) {
	g := NewGroup("music", Exclusive, StopOld)
	members := []string{"A", "B"}

	if got, _ := g.Select(members, "B"); got != "B" {
		t.Errorf("requested member = %q, want B", got)
	}
	if got, _ := g.Select(members, "Z"); got != "A" {
		t.Errorf("non-member = %q, want first member", got)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Random, false},
		{"Sequential", Sequential, false},
		{"exclusive", Exclusive, false},
		{"shuffle", Random, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}

	if b, err := ParseExclusiveBehavior("fade_out_old"); err != nil || b != FadeOutOld {
		t.Errorf("ParseExclusiveBehavior(fade_out_old) = %v, %v", b, err)
	}
	if _, err := ParseExclusiveBehavior("explode"); err == nil {
		t.Error("unknown behavior should fail")
	}
}

func TestSettings(t *testing.T) {
	s := NewSettings()
	a := NewGroup("a", Sequential, DontPlay)
	s.Add(a)
	s.Add(NewGroup("b", Random, DontPlay))
	s.Add(nil)
	s.Add(&Group{})

	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}
	if names := s.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v", names)
	}

	a.Select([]string{"x", "y"}, "")
	s.ResetAllSequences()
	if a.Cursor() != 0 {
		t.Error("ResetAllSequences should rewind cursors")
	}

	replacement := NewGroup("a", Exclusive, StopOld)
	s.Add(replacement)
	if s.Get("a") != replacement || s.Count() != 2 {
		t.Error("duplicate name should replace in place")
	}

	s.Remove("a")
	if s.Has("a") || len(s.Names()) != 1 {
		t.Error("Remove(a) did not remove")
	}
	if s.Get("") != nil {
		t.Error("empty name should not resolve")
	}
}

func TestResolver_PassThrough(t *testing.T) {
	r := NewResolver(NewSettings(), false)

	if got, ok := r.Resolve("", nil, "clip", nil); !ok || got != "clip" {
		t.Errorf("no group = %q, %v", got, ok)
	}
	if got, ok := r.Resolve("unknown", []string{"a", "b"}, "clip", nil); !ok || got != "clip" {
		t.Errorf("unconfigured group = %q, %v", got, ok)
	}

	r.Settings().Add(NewGroup("g", Sequential, DontPlay))
	if got, ok := r.Resolve("g", nil, "clip", nil); !ok || got != "clip" {
		t.Errorf("no members indexed = %q, %v", got, ok)
	}
}

func TestResolver_Exclusive(t *testing.T) {
	tests := []struct {
		name          string
		behavior      ExclusiveBehavior
		wantOK        bool
		wantImmediate int
		wantFaded     int
	}{
		{"dont play blocks", DontPlay, false, 0, 0},
		{"stop old", StopOld, true, 1, 0},
		{"fade out old", FadeOutOld, true, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings()
			s.Add(NewGroup("music", Exclusive, tt.behavior))
			r := NewResolver(s, true)

			old := &fakeConflict{clip: "A"}
			host := &fakeHost{playing: map[string]*fakeConflict{"music": old}}

			got, ok := r.Resolve("music", []string{"A", "B"}, "B", host)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != "B" {
				t.Errorf("Resolve() = %q, want B", got)
			}
			if old.immediate != tt.wantImmediate || old.faded != tt.wantFaded {
				t.Errorf("stops = %d immediate, %d faded", old.immediate, old.faded)
			}
		})
	}
}

func TestResolver_ExclusiveWithoutConflict(t *testing.T) {
	s := NewSettings()
	s.Add(NewGroup("music", Exclusive, DontPlay))
	r := NewResolver(s, false)
	host := &fakeHost{}

	got, ok := r.Resolve("music", []string{"A", "B"}, "B", host)
	if !ok || got != "B" {
		t.Errorf("Resolve() = %q, %v, want B", got, ok)
	}
	if len(host.asked) != 1 || host.asked[0] != "music" {
		t.Errorf("host queried for %v", host.asked)
	}
}

func TestResolver_NonExclusiveIgnoresHost(t *testing.T) {
	s := NewSettings()
	s.Add(NewGroup("steps", Sequential, DontPlay))
	r := NewResolver(s, false)
	host := &fakeHost{playing: map[string]*fakeConflict{"steps": {clip: "A"}}}

	if got, ok := r.Resolve("steps", []string{"A", "B"}, "", host); !ok || got != "A" {
		t.Errorf("Resolve() = %q, %v", got, ok)
	}
	if len(host.asked) != 0 {
		t.Error("non-exclusive groups must not scan active instances")
	}
}
