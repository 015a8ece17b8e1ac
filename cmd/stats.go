package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/slackconsole/internal/config"
	"github.com/ca-srg/slackconsole/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cumulative invocation counters",
	Long: `Print the cumulative number of post, reply, channel-list, and
auth.test invocations recorded in the local stats database.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := metrics.Init(cfg.StatsDBPath); err != nil {
		return fmt.Errorf("failed to open stats store: %w", err)
	}
	defer func() { _ = metrics.Close() }()

	stats := metrics.GetStats()
	if stats == nil {
		return fmt.Errorf("stats store unavailable")
	}

	fmt.Println("OPERATION\tTOTAL")
	for _, op := range []metrics.Operation{
		metrics.OpPostMessage,
		metrics.OpPostReply,
		metrics.OpListChannels,
		metrics.OpAuthTest,
	} {
		fmt.Printf("%s\t%d\n", op, stats[op])
	}
	return nil
}
