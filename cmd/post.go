package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/slackconsole/internal/config"
	"github.com/ca-srg/slackconsole/internal/metrics"
)

var (
	postToken   string
	postChannel string
	postText    string
	postThread  string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a message or threaded reply to a channel",
	Long: `Post a message to a channel by ID. With --thread, the message is
posted as a reply into that thread instead.

Example:
  slackconsole post --channel C0123456789 --text "hello"
  slackconsole post --channel C0123456789 --thread 1700000000.000100 --text "following up"`,
	RunE: runPost,
}

func init() {
	postCmd.Flags().StringVar(&postToken, "token", "",
		"Slack bot token (default from SLACK_TOKEN)")
	postCmd.Flags().StringVarP(&postChannel, "channel", "c", "",
		"Channel ID to post to (required)")
	postCmd.Flags().StringVarP(&postText, "text", "t", "",
		"Message text (required)")
	postCmd.Flags().StringVar(&postThread, "thread", "",
		"Thread timestamp to reply to")
	_ = postCmd.MarkFlagRequired("channel")
	_ = postCmd.MarkFlagRequired("text")
}

func runPost(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	token, err := resolveToken(postToken, cfg)
	if err != nil {
		return err
	}

	svc := newCLIService(token, cfg)

	if postThread != "" {
		result, err := svc.PostReply(cmd.Context(), postChannel, postThread, postText)
		if err != nil {
			return fmt.Errorf("failed to post reply: %w", err)
		}
		recordCLIInvocation(cfg, metrics.OpPostReply)
		fmt.Printf("Replied in %s at %s (thread %s)\n", result.ChannelID, result.Timestamp, result.ThreadTS)
		return nil
	}

	result, err := svc.PostMessage(cmd.Context(), postChannel, postText)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	recordCLIInvocation(cfg, metrics.OpPostMessage)
	fmt.Printf("Posted to %s at %s\n", result.ChannelID, result.Timestamp)
	return nil
}
