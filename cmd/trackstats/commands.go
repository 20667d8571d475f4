package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/trackstats/internal/config"
	"github.com/gyaneshwarpardhi/trackstats/internal/engine"
	"github.com/gyaneshwarpardhi/trackstats/internal/report"
)

var (
	cfgPath  string
	logLevel string
	verbose  bool
	addr     string

	rootCmd = &cobra.Command{
		Use:           "trackstats",
		Short:         "Count who confirmed, verified, filed or closed bugs and issues",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List the reports defined in the config file",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	runCmd = &cobra.Command{
		Use:   "run [report-id]",
		Short: "Run one report and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve reports and metrics over HTTP, reloading the config on change",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in serve.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "configs/reports.yaml", "Path to reports YAML config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every bug in bug_attributes reports")
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")

	rootCmd.AddCommand(listCmd, runCmd, serveCmd)
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

func loadConfig() (*config.Loader, error) {
	loader, err := config.NewLoader(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(loader.Config()); err != nil {
		return nil, err
	}
	return loader, nil
}

func runList(cmd *cobra.Command, args []string) error {
	loader, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range loader.Config().Reports {
		fmt.Fprintf(out, "%-24s %-15s %s\n", r.ID, r.Kind, r.Description)
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	loader, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := loader.Config()

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(cfg)
	rep, err := eng.Run(ctx, args[0], engine.RunOptions{KeepEntities: verbose})
	if rep != nil {
		// Identities finished before a failure are still valid output.
		report.Print(cmd.OutOrStdout(), rep, report.PrintOptions{
			LinkPrefix: cfg.Bugzilla.ShowBugURL,
			Verbose:    verbose,
		})
	}
	return err
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
