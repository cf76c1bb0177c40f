package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"eremore/pkg/eremore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	loggingLevel string
	logFormat    string
	stderr       io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOptions{stderr: stderr}
	root := &cobra.Command{
		Use:           "eremore",
		Short:         "Develop raw sensor mosaics into viewable images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.loggingLevel, "logging-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(newDevelopCommand(g), newBatchCommand(g), newEnginesCommand())
	return root
}

func (g *globalOptions) logger() (*logrus.Logger, error) {
	switch g.logFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", g.logFormat)
	}
	log, err := eremore.NewLogger(g.stderr, g.loggingLevel, g.logFormat == "json")
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}
	return log, nil
}
