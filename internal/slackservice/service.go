package slackservice

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// conversationsPageSize is the per-page limit for conversations.list.
	conversationsPageSize = 200

	defaultHTTPTimeout = 30 * time.Second
)

// conversationTypes lists the conversation kinds the console can post to.
var conversationTypes = []string{"public_channel", "private_channel", "im"}

// SlackAPI abstracts the slack-go client methods used by the service.
type SlackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Service wraps a Slack Web API client with the console's operations.
type Service struct {
	api    SlackAPI
	logger *log.Logger
}

// Option configures a Service.
type Option func(*options)

type options struct {
	api        SlackAPI
	logger     *log.Logger
	httpClient *http.Client
	debug      bool
}

// WithAPI replaces the slack-go client, typically with a mock in tests.
func WithAPI(api SlackAPI) Option {
	return func(o *options) {
		o.api = api
	}
}

// WithLogger sets the logger used for warnings and debug output.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used for Slack API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithDebug enables slack-go request/response logging.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// New creates a Service for the given token.
func New(token string, opts ...Option) *Service {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = log.New(os.Stdout, "[slackservice] ", log.LstdFlags)
	}

	api := o.api
	if api == nil {
		httpClient := o.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: defaultHTTPTimeout}
		}
		clientOpts := []slack.Option{slack.OptionHTTPClient(httpClient)}
		if o.debug {
			clientOpts = append(clientOpts, slack.OptionDebug(true), slack.OptionLog(o.logger))
		}
		api = slack.New(token, clientOpts...)
	}

	return &Service{
		api:    api,
		logger: o.logger,
	}
}

// AuthTest validates the token via auth.test and returns the caller identity.
func (s *Service) AuthTest(ctx context.Context) (*AuthInfo, error) {
	ctx, span := slackTracer.Start(ctx, "slackservice.auth_test")
	defer span.End()

	start := time.Now()
	resp, err := s.api.AuthTestContext(ctx)
	recordAPICall(ctx, "auth_test", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "auth_test_failed")
		return nil, fmt.Errorf("slack api error during auth test: %w", err)
	}

	span.SetAttributes(
		attribute.String("slack.team_id", resp.TeamID),
		attribute.String("slack.user_id", resp.UserID),
	)

	return &AuthInfo{
		TeamName: resp.Team,
		TeamID:   resp.TeamID,
		UserName: resp.User,
		UserID:   resp.UserID,
		URL:      resp.URL,
	}, nil
}

// ListChannels returns every conversation the token can see, following
// cursor pagination until exhausted. Channels come back as "#name",
// direct messages as "@" plus the counterpart's display name.
func (s *Service) ListChannels(ctx context.Context) ([]Channel, error) {
	ctx, span := slackTracer.Start(ctx, "slackservice.list_channels")
	defer span.End()

	var channels []Channel
	cursor := ""
	pages := 0

	for {
		params := &slack.GetConversationsParameters{
			Cursor:          cursor,
			ExcludeArchived: true,
			Limit:           conversationsPageSize,
			Types:           conversationTypes,
		}

		start := time.Now()
		page, nextCursor, err := s.api.GetConversationsContext(ctx, params)
		recordAPICall(ctx, "list_channels", time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "conversations_list_failed")
			return nil, fmt.Errorf("slack api error during conversations list: %w", err)
		}

		pages++
		span.AddEvent("page_fetched", trace.WithAttributes(
			attribute.Int("slack.page_size", len(page)),
		))

		for _, conv := range page {
			channels = append(channels, s.describeConversation(ctx, conv))
		}

		if nextCursor == "" {
			span.SetAttributes(
				attribute.Int("slack.pages", pages),
				attribute.Int("slack.channel_count", len(channels)),
			)
			return channels, nil
		}
		cursor = nextCursor
	}
}

// describeConversation maps a raw conversation to the console's view of it.
func (s *Service) describeConversation(ctx context.Context, conv slack.Channel) Channel {
	switch {
	case conv.IsIM:
		return Channel{
			ID:   conv.ID,
			Name: s.imDisplayName(ctx, conv.User),
			Type: "im",
			// A bot can always post to its own DM conversations.
			IsMember: true,
		}
	case conv.IsPrivate || conv.IsGroup:
		return Channel{
			ID:       conv.ID,
			Name:     "#" + conv.Name,
			Type:     "private_channel",
			IsMember: conv.IsMember,
		}
	default:
		return Channel{
			ID:       conv.ID,
			Name:     "#" + conv.Name,
			Type:     "public_channel",
			IsMember: conv.IsMember,
		}
	}
}

// imDisplayName resolves the human-readable name for a DM counterpart.
// Lookup failures degrade to a placeholder so listing can continue.
func (s *Service) imDisplayName(ctx context.Context, userID string) string {
	user, err := s.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		s.logger.Printf("Warning: failed to resolve user %s: %v", userID, err)
		return "@user_" + userID
	}
	if user.RealName != "" {
		return "@" + user.RealName
	}
	if user.Name != "" {
		return "@" + user.Name
	}
	return "@user_" + userID
}

// PostMessage posts text to a channel and returns the new message's timestamp.
func (s *Service) PostMessage(ctx context.Context, channelID, text string) (*PostResult, error) {
	ctx, span := slackTracer.Start(ctx, "slackservice.post_message", trace.WithAttributes(
		attribute.String("slack.channel_id", channelID),
		attribute.String("slack.text_hash", contentFingerprint(text)),
	))
	defer span.End()

	start := time.Now()
	channel, ts, err := s.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	recordAPICall(ctx, "post_message", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "post_message_failed")
		return nil, fmt.Errorf("slack api error during post message: %w", err)
	}

	span.SetAttributes(attribute.String("slack.message_ts", ts))

	return &PostResult{
		ChannelID: channel,
		Timestamp: ts,
	}, nil
}

// PostReply posts text into the thread rooted at threadTS.
func (s *Service) PostReply(ctx context.Context, channelID, threadTS, text string) (*PostResult, error) {
	ctx, span := slackTracer.Start(ctx, "slackservice.post_reply", trace.WithAttributes(
		attribute.String("slack.channel_id", channelID),
		attribute.String("slack.thread_ts", threadTS),
		attribute.String("slack.text_hash", contentFingerprint(text)),
	))
	defer span.End()

	opt := slack.MsgOptionCompose(
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	)

	start := time.Now()
	channel, ts, err := s.api.PostMessageContext(ctx, channelID, opt)
	recordAPICall(ctx, "post_reply", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "post_reply_failed")
		return nil, fmt.Errorf("slack api error during post reply: %w", err)
	}

	span.SetAttributes(attribute.String("slack.message_ts", ts))

	return &PostResult{
		ChannelID: channel,
		Timestamp: ts,
		ThreadTS:  threadTS,
	}, nil
}
