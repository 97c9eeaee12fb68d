/*
Package cli provides helpers shared by the cadence commands.

Output Formatting:

Commands render results as a Table and print it in the format the user
asked for (text, JSON or CSV):

	table := cli.NewTable("BANK", "CLIP", "EVENT")
	table.Append("sfx", "laser", "shoot")
	if err := cli.NewFormatter(cli.FormatText).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Non-table values are printed with %v in text mode and encoded as JSON in
JSON mode.

Progress Reporting:

Decoding a whole asset tree can take a while:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(keys)))
	for i, key := range keys {
		load(key)
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps command errors to process exit codes, so scripts can tell a
configuration problem from a failed play.
*/
package cli
