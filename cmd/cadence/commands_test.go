package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/cli"
	"mercator-hq/cadence/pkg/config"
	"mercator-hq/cadence/pkg/device"
	"mercator-hq/cadence/pkg/loader"
)

// execute runs the root command with args and returns its output. Flag
// variables are reset first since cobra keeps them between runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, verbose, logLevel, outputFmt = "cadence.yaml", false, "error", "text"
	validateFlags.assets = false
	playFlags.device, playFlags.volume, playFlags.pitch, playFlags.duration = "", -1, 0, 0

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeWAV writes frames of stereo silence at 44.1kHz to path.
func writeWAV(t *testing.T, path string, frames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	silence := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		clear(samples)
		return len(samples), true
	})
	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Take(frames, silence), format); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = writeFile(t, dir, "cadence.yaml", `
loader:
  root: "`+filepath.ToSlash(dir)+`"
engine:
  tick_rate: 200
banks:
  - name: "ui"
    clips:
      - name: "blip"
        asset: "blip.wav"
        event: "notify"
      - name: "missing"
        asset: "missing.wav"
`)
	return dir, path
}

func TestValidateCommand(t *testing.T) {
	dir, path := testConfig(t)
	writeWAV(t, filepath.Join(dir, "blip.wav"), 441)

	out, err := execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	for _, want := range []string{"✓ Configuration valid", "Banks: 1 (2 clips, 1 events)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "validate", "--config", path, "--assets")
	if err == nil {
		t.Fatal("validate --assets succeeded with a missing asset")
	}
	if cli.ExitCode(err) != cli.ExitFailure {
		t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitFailure)
	}
	if !strings.Contains(out, "✗ missing") {
		t.Errorf("output does not report the missing asset:\n%s", out)
	}
}

func TestValidateCommandBadConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cadence.yaml", "engine:\n  max_channels: -1\n")

	_, err := execute(t, "validate", "--config", path)
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode(%v) = %d, want %d", err, cli.ExitCode(err), cli.ExitConfig)
	}
}

func TestBanksCommand(t *testing.T) {
	_, path := testConfig(t)

	out, err := execute(t, "banks", "--config", path, "--output", "csv")
	if err != nil {
		t.Fatalf("banks error = %v", err)
	}
	want := "BANK,CACHE,CLIP,EVENT,PLAY_GROUP,ASSET,CONDITIONS\n" +
		"ui,on_demand,blip,notify,,blip.wav,0\n" +
		"ui,on_demand,missing,,,missing.wav,0\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	if _, err := execute(t, "banks", "--config", path, "--output", "xml"); cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("unknown output format error = %v", err)
	}
}

func TestPlayCommand(t *testing.T) {
	dir, path := testConfig(t)
	writeWAV(t, filepath.Join(dir, "blip.wav"), 2205)

	out, err := execute(t, "play", "notify", "--config", path)
	if err != nil {
		t.Fatalf("play error = %v\n%s", err, out)
	}
	for _, want := range []string{"▶ notify: clip blip from bank ui", "50ms", "✓ blip completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPlayCommandFailures(t *testing.T) {
	_, path := testConfig(t)

	tests := []struct {
		name string
		clip string
		want int
	}{
		{name: "unknown clip", clip: "nothing", want: cli.ExitNotFound},
		{name: "missing asset", clip: "missing", want: cli.ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "play", tt.clip, "--config", path)
			if got := cli.ExitCode(err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, tt.want)
			}
		})
	}
}

func TestDecodeAll(t *testing.T) {
	ld := loader.NewMemoryLoader()
	ld.Fail("bad", errors.New("corrupt header"))

	bank := catalog.NewBank("sfx", catalog.OnDemand, nil)
	bank.Add(&catalog.Entry{ClipName: "good"})
	bank.Add(&catalog.Entry{ClipName: "bad"})
	ld.Add("good", device.StaticClip{Length: time.Second})

	var buf bytes.Buffer
	failed := decodeAll(context.Background(), ld, []*catalog.Bank{bank}, cli.NewProgressReporter(&buf))
	if failed != 1 {
		t.Errorf("decodeAll() = %d failures, want 1", failed)
	}
	if !strings.Contains(buf.String(), "bad: ") || !strings.Contains(buf.String(), "2/2 clips") {
		t.Errorf("progress output = %q", buf.String())
	}
}

func TestBankTable(t *testing.T) {
	banks, err := config.BuildBanks([]config.BankConfig{{
		Name:      "music",
		CacheType: catalog.Persistent,
		Clips:     []config.ClipConfig{{Name: "theme", PlayGroup: "score"}},
	}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	table := bankTable(banks)
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %v", table.Rows)
	}
	if row := table.Rows[0]; row[1] != "persistent" || row[4] != "score" || row[5] != "theme" {
		t.Errorf("row = %v", row)
	}
}
