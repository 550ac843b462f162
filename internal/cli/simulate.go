package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/fantasyfamily/internal/simulate"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Log random events against a running server and verify scores",
		Long: `Simulate submits life events concurrently to a running server, replaying
some Idempotency-Key values, then checks that every player's score moved by
exactly the points of the entries that were accepted.`,
		Args: cobra.NoArgs,
		RunE: runSimulate,
	}
	f := cmd.Flags()
	f.String("url", "http://localhost:9080", "Base URL of the league server")
	f.IntP("events", "n", 200, "Number of submissions")
	f.IntP("workers", "w", 8, "Concurrent workers")
	f.Duration("timeout", 10*time.Second, "HTTP request timeout")
	f.Float64("dup-rate", 0.1, "Share of submissions that replay an earlier key")
	f.Uint64("seed", 0, "Random seed (0 picks one)")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	cfg := &simulate.Config{}
	cfg.BaseURL, _ = f.GetString("url")
	cfg.NumEvents, _ = f.GetInt("events")
	cfg.Workers, _ = f.GetInt("workers")
	cfg.Timeout, _ = f.GetDuration("timeout")
	cfg.DuplicateRate, _ = f.GetFloat64("dup-rate")
	cfg.Seed, _ = f.GetUint64("seed")

	stats, err := simulate.Run(cmd.Context(), cfg)
	if stats != nil {
		fmt.Fprintf(cmd.OutOrStdout(),
			"submitted=%d logged=%d duplicates=%d failed=%d players=%d members=%d duration=%s\n",
			stats.Submitted, stats.Logged, stats.Duplicates, stats.Failed,
			stats.Players, stats.Members, stats.Duration.Round(time.Millisecond))
	}
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Scores verified.")
	return nil
}
