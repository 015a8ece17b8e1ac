package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/ca-srg/slackconsole/internal/config"
	"github.com/ca-srg/slackconsole/internal/metrics"
	"github.com/ca-srg/slackconsole/internal/slackservice"
)

// resolveToken prefers the --token flag, then SLACK_TOKEN.
func resolveToken(flagValue string, cfg *config.Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.SlackToken != "" {
		return cfg.SlackToken, nil
	}
	return "", fmt.Errorf("no token provided: pass --token or set SLACK_TOKEN")
}

// newCLIService builds a Slack service for one-shot CLI calls.
func newCLIService(token string, cfg *config.Config) *slackservice.Service {
	return slackservice.New(token,
		slackservice.WithHTTPClient(&http.Client{Timeout: cfg.SlackAPITimeout}),
		slackservice.WithDebug(cfg.SlackDebug),
		slackservice.WithLogger(log.New(os.Stderr, "[slackconsole] ", log.LstdFlags)),
	)
}

// recordCLIInvocation bumps the on-disk counter, best effort.
func recordCLIInvocation(cfg *config.Config, op metrics.Operation) {
	if err := metrics.Init(cfg.StatsDBPath); err != nil {
		return
	}
	metrics.RecordInvocation(op)
}
