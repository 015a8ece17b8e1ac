package slackservice

// AuthInfo holds the identity returned by auth.test for a token.
type AuthInfo struct {
	TeamName string
	TeamID   string
	UserName string
	UserID   string
	URL      string
}

// Channel is a messaging destination as presented to the console:
// public and private channels render as "#name", direct messages as
// "@RealName". Values come verbatim from conversations.list.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsMember bool   `json:"is_member"`
}

// PostResult is the outcome of a chat.postMessage call.
type PostResult struct {
	ChannelID string
	Timestamp string
	// ThreadTS is set when the message was posted as a thread reply.
	ThreadTS string
}
