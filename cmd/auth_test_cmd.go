package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/slackconsole/internal/config"
	"github.com/ca-srg/slackconsole/internal/metrics"
)

var authTestToken string

var authTestCmd = &cobra.Command{
	Use:   "auth-test",
	Short: "Validate a token against auth.test",
	Long: `Call auth.test with the given token and print the team and bot user
it authenticates as.`,
	RunE: runAuthTest,
}

func init() {
	authTestCmd.Flags().StringVar(&authTestToken, "token", "",
		"Slack bot token (default from SLACK_TOKEN)")
}

func runAuthTest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	token, err := resolveToken(authTestToken, cfg)
	if err != nil {
		return err
	}

	svc := newCLIService(token, cfg)
	info, err := svc.AuthTest(cmd.Context())
	if err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}
	recordCLIInvocation(cfg, metrics.OpAuthTest)

	fmt.Printf("Team: %s (%s)\n", info.TeamName, info.TeamID)
	fmt.Printf("User: %s (%s)\n", info.UserName, info.UserID)
	fmt.Printf("URL:  %s\n", info.URL)
	return nil
}
