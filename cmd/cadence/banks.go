package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/cli"
	"mercator-hq/cadence/pkg/config"
)

var banksCmd = &cobra.Command{
	Use:   "banks",
	Short: "List the configured banks and their clips",
	Long: `Print one row per clip of every configured bank.

Examples:
  cadence banks
  cadence banks --output csv > clips.csv`,
	RunE: listBanks,
}

func init() {
	rootCmd.AddCommand(banksCmd)
}

func listBanks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := formatter()
	if err != nil {
		return err
	}

	banks, err := config.BuildBanks(cfg.Banks, nil)
	if err != nil {
		return cli.NewConfigError("banks", err.Error())
	}
	return f.FormatTo(cmd.OutOrStdout(), bankTable(banks))
}

func bankTable(banks []*catalog.Bank) *cli.Table {
	t := cli.NewTable("BANK", "CACHE", "CLIP", "EVENT", "PLAY_GROUP", "ASSET", "CONDITIONS")
	for _, b := range banks {
		for _, e := range b.Entries() {
			t.Append(b.Name(), b.CacheType(), e.ClipName, e.EventName, e.PlayGroup, e.Key(), len(e.Conditions))
		}
	}
	return t
}
