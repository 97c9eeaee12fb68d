package config

import (
	"errors"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/condition"
	"mercator-hq/cadence/pkg/playgroup"
)

func TestBuildBanks(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	banks, err := BuildBanks(cfg.Banks, nil)
	if err != nil {
		t.Fatalf("BuildBanks: %v", err)
	}
	if len(banks) != 1 {
		t.Fatalf("expected 1 bank, got %d", len(banks))
	}

	bank := banks[0]
	if bank.Name() != "ui" || bank.CacheType() != catalog.Preload {
		t.Errorf("unexpected bank %q cache %v", bank.Name(), bank.CacheType())
	}
	if bank.Count() != 2 {
		t.Fatalf("expected 2 entries, got %d", bank.Count())
	}

	click, ok := bank.Entry("click")
	if !ok {
		t.Fatal("expected click entry")
	}
	if click.Key() != "ui/click.wav" || click.EventName != "button_press" {
		t.Errorf("unexpected click entry %+v", click)
	}
	if len(click.Conditions) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(click.Conditions))
	}
	cd, ok := click.Conditions[0].(*condition.Cooldown)
	if !ok {
		t.Fatalf("expected *condition.Cooldown, got %T", click.Conditions[0])
	}
	if cd.Duration != 50*time.Millisecond {
		t.Errorf("expected cooldown 50ms, got %v", cd.Duration)
	}

	hover, _ := bank.Entry("hover")
	if hover.Operator != condition.Or {
		t.Errorf("expected or operator, got %v", hover.Operator)
	}
	if hover.Key() != "hover" {
		t.Errorf("expected asset key to fall back to clip name, got %q", hover.Key())
	}

	params := hover.EffectiveParameters(bank.DefaultParameters())
	if params.Volume != 0.8 || params.Priority != 10 {
		t.Errorf("expected bank defaults, got %+v", params)
	}
}

func TestBuildBanks_ClampsParameters(t *testing.T) {
	loud := catalog.DefaultParameters()
	loud.Volume = 4
	loud.Pitch = 0

	banks, err := BuildBanks([]BankConfig{{
		Name:  "sfx",
		Clips: []ClipConfig{{Name: "boom", Parameters: &loud}},
	}}, nil)
	if err != nil {
		t.Fatalf("BuildBanks: %v", err)
	}

	boom, _ := banks[0].Entry("boom")
	if boom.CustomParameters.Volume != 1 {
		t.Errorf("expected clamped volume 1, got %v", boom.CustomParameters.Volume)
	}
	if boom.CustomParameters.Pitch != catalog.MinPitch {
		t.Errorf("expected clamped pitch %v, got %v", catalog.MinPitch, boom.CustomParameters.Pitch)
	}
}

func TestBuildBanks_UnknownCondition(t *testing.T) {
	_, err := BuildBanks([]BankConfig{{
		Name: "sfx",
		Clips: []ClipConfig{{
			Name:       "boom",
			Conditions: []ConditionConfig{{Type: "loudness"}},
		}},
	}}, condition.NewBuiltinRegistry())
	if !errors.Is(err, condition.ErrUnknownCondition) {
		t.Errorf("expected ErrUnknownCondition, got %v", err)
	}
}

func TestBuildBanks_ConditionParams(t *testing.T) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte("max: 3\nover_limit: stop_oldest\n"), &node); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	banks, err := BuildBanks([]BankConfig{{
		Name: "sfx",
		Clips: []ClipConfig{{
			Name:       "boom",
			Conditions: []ConditionConfig{{Type: condition.ConcurrentLimitID, Params: *node.Content[0]}},
		}},
	}}, nil)
	if err != nil {
		t.Fatalf("BuildBanks: %v", err)
	}

	boom, _ := banks[0].Entry("boom")
	limit := boom.Conditions[0].(*condition.ConcurrentLimit)
	if limit.Max != 3 || limit.OverLimit != condition.StopOldest {
		t.Errorf("unexpected limit %+v", limit)
	}
}

func TestGroupConfig_Build(t *testing.T) {
	half := 0.5
	g := GroupConfig{Name: "sfx", Volume: &half, MaxConcurrent: 2, Banks: []string{"a"}}.Build()

	if g.Name != "sfx" || g.Volume != 0.5 || g.MaxConcurrent != 2 || !g.HasBank("a") {
		t.Errorf("unexpected group %+v", g)
	}

	unset := GroupConfig{Name: "music"}.Build()
	if unset.Volume != 1 {
		t.Errorf("expected volume 1 for unset group volume, got %v", unset.Volume)
	}
}

func TestBuildPlayGroups(t *testing.T) {
	settings := BuildPlayGroups([]PlayGroupConfig{
		{Name: "steps", Mode: playgroup.Sequential},
		{Name: "music", Mode: playgroup.Exclusive, ExclusiveBehavior: playgroup.StopOld},
	})

	if settings.Count() != 2 {
		t.Fatalf("expected 2 play groups, got %d", settings.Count())
	}
	music := settings.Get("music")
	if music == nil || music.Mode != playgroup.Exclusive || music.Exclusive != playgroup.StopOld {
		t.Errorf("unexpected music group %+v", music)
	}
}
