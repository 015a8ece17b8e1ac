package webui

import (
	"time"

	"github.com/ca-srg/slackconsole/internal/slackservice"
)

// SSE Event types
const (
	EventTypeConnected     = "connected"
	EventTypeHeartbeat     = "heartbeat"
	EventTypeTokenAdded    = "token_added"
	EventTypeMessagePosted = "message_posted"
	EventTypeReplyPosted   = "reply_posted"
	EventTypeConsoleError  = "console_error"
)

// TokenRecord is a registered access token plus the identity auth.test
// reported for it. The raw token never leaves the process.
type TokenRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"-"`
	TeamName  string    `json:"team_name"`
	UserName  string    `json:"user_name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// ActivityEntry is one message posted through the console this session.
type ActivityEntry struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	Text        string    `json:"text"`
	Timestamp   string    `json:"ts"`
	ThreadTS    string    `json:"thread_ts,omitempty"`
	UserID      string    `json:"user_id"`
	PostedAt    time.Time `json:"posted_at"`
}

// IsThreadReply reports whether the entry was posted into a thread.
func (e ActivityEntry) IsThreadReply() bool {
	return e.ThreadTS != ""
}

// ConsoleError is a failed operation kept for display and SSE broadcast.
type ConsoleError struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
}

// FlashMessage is a one-shot notice shown on the next page load.
type FlashMessage struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// SSEEvent represents a Server-Sent Event
type SSEEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// HomePageData is the template context for the home page.
type HomePageData struct {
	Flashes        []FlashMessage
	Tokens         []TokenRecord
	Activity       []ActivityEntry
	Errors         []ConsoleError
	CurrentTokenID string
}

// ChannelsResponse is the JSON body of GET /channels/.
type ChannelsResponse struct {
	Channels []slackservice.Channel `json:"channels"`
}

// MessagesResponse is the JSON body of GET /messages/.
type MessagesResponse struct {
	Messages []ActivityEntry `json:"messages"`
}

// ErrorResponse is the JSON error shape shared by the API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the JSON body of GET /api/status.
type StatusResponse struct {
	Uptime      string           `json:"uptime"`
	Tokens      int              `json:"tokens"`
	Activity    int              `json:"activity"`
	Errors      int              `json:"errors"`
	SSEClients  int              `json:"sse_clients"`
	Invocations map[string]int64 `json:"invocations"`
}
