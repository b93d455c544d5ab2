package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsAggregator/internal/app"
	"NewsAggregator/internal/config"
	"NewsAggregator/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, c := newRootCmd()
	err := root.ExecuteContext(ctx)
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli owns the application built for the running command. cobra skips
// post-run hooks when RunE fails, so main closes it after Execute.
type cli struct {
	application *app.Application
}

func (c *cli) close() {
	if c.application != nil {
		c.application.Close()
		c.application = nil
	}
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:           "newsaggregator",
		Short:         "News ingestion, AI enrichment and read API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			c.application = app.New(cfg, logging.New(cfg.Logging.Level))
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the article read API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.application.Serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "worker",
			Short: "Consume enrichment jobs from the queue",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.application.Work(cmd.Context())
			},
		},
		newIngestCmd(&c.application),
		newScriptCmd(&c.application),
	)
	return root, c
}

func newIngestCmd(application **app.Application) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch latest news on schedule and enqueue it for enrichment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*application).Ingest(cmd.Context(), once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run a single ingestion pass and exit")
	return cmd
}

func newScriptCmd(application **app.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Operator maintenance scripts",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List available scripts",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				for _, s := range (*application).Scripts() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", s.Name, s.Description)
				}
			},
		},
		&cobra.Command{
			Use:   "run <name>",
			Short: "Run a script by name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return (*application).RunScript(cmd.Context(), args[0], cmd.OutOrStdout())
			},
		},
	)
	return cmd
}
