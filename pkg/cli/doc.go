/*
Package cli provides command-line utilities shared by the shield commands.

Output Formatting:

Results print as aligned text, JSON or CSV. Tabular results implement Table:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, results)

Progress Reporting:

	progress := cli.NewProgress(os.Stderr, "files", int64(len(files)), showProgress)
	for i, f := range files {
		// Do work
		progress.Set(int64(i+1), f)
	}
	progress.Done()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ExitCode maps command errors to exit codes; configuration errors exit with 2.
*/
package cli
