package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/cli"
	"mercator-hq/cadence/pkg/config"
	"mercator-hq/cadence/pkg/loader"
)

var validateFlags struct {
	assets bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and its assets",
	Long: `Check the configuration file and build every bank it declares.

With --assets every clip is decoded from the loader root, so missing or
corrupt files are found before the engine runs.

Examples:
  # Check configuration only
  cadence validate --config cadence.yaml

  # Also decode every asset
  cadence validate --assets`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.assets, "assets", false, "decode every clip asset")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := setupLogging(cfg, os.Stderr); err != nil {
		return err
	}

	banks, err := config.BuildBanks(cfg.Banks, nil)
	if err != nil {
		return cli.NewConfigError("banks", err.Error())
	}

	out := cmd.OutOrStdout()
	clips, events := 0, 0
	for _, b := range banks {
		clips += b.Count()
		for _, e := range b.Entries() {
			if e.HasEvent() {
				events++
			}
		}
	}
	fmt.Fprintln(out, "✓ Configuration valid")
	fmt.Fprintf(out, "  Banks: %d (%d clips, %d events)\n", len(banks), clips, events)
	fmt.Fprintf(out, "  Mixer groups: %d\n", len(cfg.Groups))
	fmt.Fprintf(out, "  Play groups: %d\n", len(cfg.PlayGroups))

	if !validateFlags.assets {
		return nil
	}

	ld := loader.NewFileLoader(cfg.Loader,
		loader.WithTimeout(cfg.Engine.LoadTimeout),
		loader.WithRetries(0),
	)
	defer ld.UnloadAll()

	progress := cli.NewProgressReporter(cmd.ErrOrStderr())
	failed := decodeAll(cmd.Context(), ld, banks, progress)
	if failed > 0 {
		return cli.NewCommandError("validate", fmt.Errorf("%d of %d assets failed to decode", failed, clips))
	}
	fmt.Fprintf(out, "✓ All %d assets decoded\n", clips)
	return nil
}

// decodeAll loads every entry of banks once, reporting progress and
// failures, and returns the number of failures.
func decodeAll(ctx context.Context, ld loader.Loader, banks []*catalog.Bank, progress cli.ProgressReporter) int {
	var entries []*catalog.Entry
	for _, b := range banks {
		entries = append(entries, b.Entries()...)
	}

	failed := 0
	progress.Start(int64(len(entries)))
	for i, e := range entries {
		if _, err := ld.LoadSync(ctx, e.Key()); err != nil {
			failed++
			progress.Error(fmt.Errorf("%s: %w", e.ClipName, err))
		}
		progress.Update(int64(i + 1))
	}
	progress.Finish()
	return failed
}
