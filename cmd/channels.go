package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/slackconsole/internal/config"
	"github.com/ca-srg/slackconsole/internal/metrics"
)

var channelsToken string

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the channels visible to a token",
	Long: `List the public channels, private channels, and direct messages the
token can see, one per line with ID, name, and membership.`,
	RunE: runChannels,
}

func init() {
	channelsCmd.Flags().StringVar(&channelsToken, "token", "",
		"Slack bot token (default from SLACK_TOKEN)")
}

func runChannels(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	token, err := resolveToken(channelsToken, cfg)
	if err != nil {
		return err
	}

	svc := newCLIService(token, cfg)
	channels, err := svc.ListChannels(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}
	recordCLIInvocation(cfg, metrics.OpListChannels)

	fmt.Println("ID\tNAME\tMEMBER")
	for _, ch := range channels {
		fmt.Printf("%s\t%s\t%t\n", ch.ID, ch.Name, ch.IsMember)
	}
	return nil
}
