package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/cadence/pkg/cli"
	"mercator-hq/cadence/pkg/history"
)

var historyFlags struct {
	clip    string
	kind    string
	session string
	since   time.Duration
	limit   int
	stats   bool
	prune   bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the play history",
	Long: `Print recorded play events from the configured history backend.

Only the sqlite backend outlives the engine process, so this command is
useful with history.backend set to "sqlite".

Examples:
  # Last 50 events
  cadence history

  # Denied plays of one clip in the last hour, as CSV
  cadence history --clip explosion --kind denied --since 1h --output csv

  # Most played clips today
  cadence history --stats --since 24h

  # Apply the retention period now
  cadence history --prune`,
	RunE: queryHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.clip, "clip", "", "only events for this clip")
	historyCmd.Flags().StringVar(&historyFlags.kind, "kind", "", "only events of this kind (start, stop, denied)")
	historyCmd.Flags().StringVar(&historyFlags.session, "session", "", "only events from this engine session")
	historyCmd.Flags().DurationVar(&historyFlags.since, "since", 0, "only events newer than this (e.g. 1h)")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 50, "maximum number of events")
	historyCmd.Flags().BoolVar(&historyFlags.stats, "stats", false, "print totals instead of events")
	historyCmd.Flags().BoolVar(&historyFlags.prune, "prune", false, "delete events older than history.retention")
}

func queryHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := formatter()
	if err != nil {
		return err
	}

	switch history.Kind(historyFlags.kind) {
	case "", history.KindStart, history.KindStop, history.KindDenied:
	default:
		return cli.NewConfigError("kind", fmt.Sprintf("unknown event kind %q", historyFlags.kind))
	}

	backend, err := history.Open(cfg.History)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer backend.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if historyFlags.prune {
		if cfg.History.Retention <= 0 {
			return cli.NewConfigError("history.retention", "no retention period configured")
		}
		n, err := backend.Prune(ctx, time.Now().Add(-cfg.History.Retention))
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		fmt.Fprintf(out, "✓ Pruned %d events older than %s\n", n, cfg.History.Retention)
		return nil
	}

	var since time.Time
	if historyFlags.since > 0 {
		since = time.Now().Add(-historyFlags.since)
	}

	if historyFlags.stats {
		stats, err := backend.Stats(ctx, since)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		return f.FormatTo(out, statsTable(stats))
	}

	events, err := backend.Query(ctx, history.Query{
		Clip:    historyFlags.clip,
		Session: historyFlags.session,
		Kind:    history.Kind(historyFlags.kind),
		Since:   since,
		Limit:   historyFlags.limit,
	})
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	return f.FormatTo(out, eventTable(events))
}

func eventTable(events []history.Event) *cli.Table {
	t := cli.NewTable("TIME", "KIND", "CLIP", "REQUESTED", "BANK", "INSTANCE", "OUTCOME")
	for _, ev := range events {
		instance := ""
		if ev.Instance != 0 {
			instance = fmt.Sprint(ev.Instance)
		}
		t.Append(ev.Time.UTC().Format(time.RFC3339), ev.Kind, ev.Clip, ev.Requested, ev.Bank, instance, ev.Outcome)
	}
	return t
}

func statsTable(stats history.Stats) *cli.Table {
	t := cli.NewTable("METRIC", "VALUE")
	t.Append("total", stats.Total)
	for _, kind := range []history.Kind{history.KindStart, history.KindStop, history.KindDenied} {
		t.Append(kind, stats.ByKind[kind])
	}
	for _, c := range stats.TopClips {
		t.Append("plays:"+c.Clip, c.Plays)
	}
	return t
}
