/*
Package cli provides shared helpers for the ganymede command.

Error Types:

Commands wrap failures in typed errors so the entry point can report
them uniformly and exit non-zero:

	if err := buildModel(); err != nil {
		return cli.NewCommandError("lint", err)
	}

Output Formatting:

Commands that support --format parse the flag up front, so unknown
formats fail before any work happens, and route structured results
through a formatter:

	format, err := cli.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return (&cli.JSONFormatter{Indent: true}).FormatTo(os.Stdout, report)
	}

Signal Handling:

Long-running commands (validate --watch) derive their lifetime from a
context cancelled on SIGINT or SIGTERM:

	ctx := cli.SetupSignalHandler()
	return watcher.Watch(ctx, rebuild)
*/
package cli
