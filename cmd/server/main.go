// Command wardbudget serves the ward proposal and budget engine over HTTP
// JSON-RPC or MCP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ganot/wardbudget/internal/config"
	"github.com/ganot/wardbudget/internal/domain/budget"
	"github.com/ganot/wardbudget/internal/domain/report"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "0.1.0"

const appName = "wardbudget"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		mode       string
	)

	load := func() (config.Config, error) {
		cfg, err := config.LoadPath(configPath)
		if err != nil {
			return config.Config{}, err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if mode != "" {
			cfg.Server.Mode = mode
		}
		return cfg, cfg.Validate()
	}

	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		return runServe(cmd.Context(), cfg)
	}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Ward proposal lifecycle and budget engine",
		Long: `wardbudget lets citizens submit and support infrastructure proposals for a
municipal ward and lets administrators move them through
Pending → Approved → Funded → Completed against the ward budget.

Proposals persist to a local SQLite database, or to a shared NATS JetStream
bucket when sync is enabled.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("WARDBUDGET_CONFIG_PATH"), "Config file path (YAML, JSON or JSONC)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&mode, "transport", "", "Transport mode (http, stdio)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the server (default)",
		RunE:  serve,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	var wardID string
	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Print a ward's budget figures and top proposals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return runDashboard(cmd.Context(), cfg, wardID, cmd)
		},
	}
	dashboard.Flags().StringVarP(&wardID, "ward", "w", "", "Ward identifier")
	_ = dashboard.MarkFlagRequired("ward")
	cmd.AddCommand(dashboard)

	return cmd
}

func runDashboard(ctx context.Context, cfg config.Config, wardID string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}))

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	proposals, err := a.storage.LoadProposals(ctx, strings.TrimSpace(wardID))
	if err != nil {
		return fmt.Errorf("load ward %s: %w", wardID, err)
	}

	m := budget.Compute(proposals)
	d := m.Display()
	summary := report.Summarize(proposals)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ward %s (%s)\n\n", wardID, a.mode)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total budget\t%s\n", d.Total)
	fmt.Fprintf(tw, "Spent\t%s\n", d.Spent)
	fmt.Fprintf(tw, "Remaining\t%s\n", d.Remaining)
	fmt.Fprintf(tw, "Utilization\t%s\n", d.Utilization)
	fmt.Fprintf(tw, "Proposals\t%d (%d pending, %d completed)\n", summary.Total, summary.Pending, summary.Completed)
	fmt.Fprintf(tw, "Votes\t%s\n", humanize.Comma(int64(summary.TotalVotes)))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nTrending")
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, p := range report.Trending(proposals, 3) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s votes\t%s\n", humanize.Ordinal(i+1), p.Title, p.Status, humanize.Comma(int64(p.Votes)), p.Cost)
	}
	return tw.Flush()
}
