package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/script"
)

func replayCmd() *cobra.Command {
	var (
		asJSON  bool
		quiet   bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "replay <script>",
		Short: "Replay a scripted store session",
		Long: `Replay a store session described in a .json, .yaml or .toml file.

The script declares the initial state, the paths to watch and the
commits to apply. Every watcher callback and commit is printed as it
happens; expectations on the final state are checked at the end.

Built-in mutations: set, delete, increment, push, pop, splice.

Examples:
  vstore replay session.yaml
  vstore replay session.toml --json
  vstore replay session.json --quiet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runReplay(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], asJSON, quiet, verbose)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print failures")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log store internals to stderr")

	return cmd
}

func runReplay(ctx context.Context, out, errOut io.Writer, path string, asJSON, quiet, verbose bool) error {
	sc, err := script.Load(path)
	if err != nil {
		return err
	}

	opts := script.RunOptions{Logger: cliLogger(errOut, verbose)}
	if !asJSON && !quiet {
		opts.OnEvent = func(ev script.Event) { printEvent(out, ev) }
	}

	res, err := script.Run(ctx, sc, opts)
	if err != nil {
		return err
	}

	if asJSON {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		for _, e := range res.Errors {
			errorMsg(out, "%s", e)
		}
		for _, f := range res.Failed {
			errorMsg(out, "expect %s: want %v, got %v", f.Path, f.Want, f.Got)
		}
		if res.OK() && !quiet {
			success(out, "%s: %d commits, %d events", sc.Name, len(sc.Commits), len(res.Events))
		}
	}

	if !res.OK() {
		return errors.Newf(errors.CategoryCLI, "replay of %s failed: %d commit errors, %d failed expectations",
			path, len(res.Errors), len(res.Failed))
	}
	return nil
}

func printEvent(w io.Writer, ev script.Event) {
	switch ev.Kind {
	case script.EventWatch:
		info(w, "watch  %-16s %v -> %v", ev.Path, ev.Old, ev.New)
	case script.EventCommit:
		if ev.Err != "" {
			errorMsg(w, "commit #%d %s: %s", ev.Step, ev.Type, ev.Err)
			return
		}
		success(w, "commit #%d %s", ev.Step, ev.Type)
	}
}

// cliLogger logs store internals only when asked to.
func cliLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
