package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/cadence/pkg/cli"
	"mercator-hq/cadence/pkg/engine"
	"mercator-hq/cadence/pkg/playback"
)

var playFlags struct {
	device   string
	volume   float64
	pitch    float64
	duration time.Duration
}

var playCmd = &cobra.Command{
	Use:   "play <name>",
	Short: "Play one clip and wait for it to finish",
	Long: `Play a clip, event or play group from the configured banks and wait
until the instance completes.

Looping clips play until --duration elapses or the command is interrupted,
then fade out with their configured fade-out time.

Examples:
  # Play through the speakers
  cadence play explosion --device oto

  # Play a looping ambience for ten seconds at half volume
  cadence play rain --duration 10s --volume 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: playClip,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playFlags.device, "device", "", "override device backend (headless, oto)")
	playCmd.Flags().Float64Var(&playFlags.volume, "volume", -1, "override volume (0-1)")
	playCmd.Flags().Float64Var(&playFlags.pitch, "pitch", 0, "override pitch")
	playCmd.Flags().DurationVar(&playFlags.duration, "duration", 0, "stop after this long (0 waits for the end)")
}

func playClip(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if playFlags.device != "" {
		cfg.Device.Backend = playFlags.device
	}
	logger, err := setupLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	st, err := newStack(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("play", err)
	}
	defer st.close(context.Background())

	var finished *playback.Instance
	req := engine.NewRequest(args[0]).WithOnComplete(func(inst *playback.Instance) {
		finished = inst
	})
	inst, err := st.engine.PlayRequest(ctx, req)
	if err != nil {
		return cli.NewCommandError("play", err)
	}
	if playFlags.volume >= 0 {
		inst.SetVolume(playFlags.volume)
	}
	if playFlags.pitch > 0 {
		inst.SetPitch(playFlags.pitch)
	}

	out := cmd.OutOrStdout()
	length := "looping"
	if !inst.Loop() {
		length = inst.Duration().Round(time.Millisecond).String()
	}
	fmt.Fprintf(out, "▶ %s: clip %s from bank %s (instance %d, %s)\n",
		args[0], inst.ClipName(), inst.BankName(), inst.ID(), length)

	wait(ctx, st.engine, cfg.Engine.TickRate, playFlags.duration, func() bool { return finished != nil })

	fmt.Fprintf(out, "✓ %s %s after %s\n", inst.ClipName(), inst.StopReason(), st.engine.Time().Round(time.Millisecond))
	return nil
}

// wait ticks e at rate Hz until finished reports true. When ctx ends or
// limit elapses every instance is faded out and ticking continues until
// the fades complete.
func wait(ctx context.Context, e *engine.Engine, rate int, limit time.Duration, finished func() bool) {
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	var deadline <-chan time.Time
	if limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		deadline = timer.C
	}

	done := ctx.Done()
	last := time.Now()
	for !finished() {
		select {
		case <-done:
			done = nil
			deadline = nil
			e.StopAll(true, false)
		case <-deadline:
			done = nil
			deadline = nil
			e.StopAll(true, false)
		case now := <-ticker.C:
			e.Tick(now.Sub(last))
			last = now
		}
	}
}
