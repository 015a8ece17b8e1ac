package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slackconsole",
	Short: "Local web console for posting Slack messages and threaded replies",
	Long: `slackconsole runs a small local web UI for trying out the Slack Web API:
paste a bot token, list the channels it can see, post messages and threaded
replies, and watch the session's activity update live.

Tokens are validated against auth.test and kept in memory only; nothing is
persisted besides invocation counters.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(authTestCmd)
	rootCmd.AddCommand(statsCmd)
}
