package webui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/slackconsole/internal/metrics"
	"github.com/ca-srg/slackconsole/internal/slackservice"
)

type fakeSlackService struct {
	authTestFunc     func(ctx context.Context) (*slackservice.AuthInfo, error)
	listChannelsFunc func(ctx context.Context) ([]slackservice.Channel, error)
	postMessageFunc  func(ctx context.Context, channelID, text string) (*slackservice.PostResult, error)
	postReplyFunc    func(ctx context.Context, channelID, threadTS, text string) (*slackservice.PostResult, error)
}

func (f *fakeSlackService) AuthTest(ctx context.Context) (*slackservice.AuthInfo, error) {
	if f.authTestFunc != nil {
		return f.authTestFunc(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeSlackService) ListChannels(ctx context.Context) ([]slackservice.Channel, error) {
	if f.listChannelsFunc != nil {
		return f.listChannelsFunc(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeSlackService) PostMessage(ctx context.Context, channelID, text string) (*slackservice.PostResult, error) {
	if f.postMessageFunc != nil {
		return f.postMessageFunc(ctx, channelID, text)
	}
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeSlackService) PostReply(ctx context.Context, channelID, threadTS, text string) (*slackservice.PostResult, error) {
	if f.postReplyFunc != nil {
		return f.postReplyFunc(ctx, channelID, threadTS, text)
	}
	return nil, fmt.Errorf("not implemented")
}

// newTestConsole builds a Server with a fake Slack backend and an
// isolated metrics store.
func newTestConsole(t *testing.T, svc SlackService) *Server {
	t.Helper()

	store, err := metrics.NewStoreWithPath(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	metrics.SetStoreForTesting(store)
	t.Cleanup(metrics.ResetForTesting)

	server, err := NewServer(DefaultServerConfig(), log.New(io.Discard, "", 0))
	require.NoError(t, err)
	server.SetServiceFactory(func(token string) SlackService { return svc })
	return server
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func flashesFromResponse(t *testing.T, resp *http.Response) []FlashMessage {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name != flashCookieName || c.Value == "" {
			continue
		}
		data, err := base64.URLEncoding.DecodeString(c.Value)
		require.NoError(t, err)
		var flashes []FlashMessage
		require.NoError(t, json.Unmarshal(data, &flashes))
		return flashes
	}
	return nil
}

func cookieFromResponse(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Home page

func TestHandleHome(t *testing.T) {
	server := newTestConsole(t, &fakeSlackService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	server.handleHome(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Slack Console")
	assert.Contains(t, string(body), "No tokens yet")
}

func TestHandleHomeNonRootPath(t *testing.T) {
	server := newTestConsole(t, &fakeSlackService{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()

	server.handleHome(w, req)

	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestHandleHomeMethodNotAllowed(t *testing.T) {
	server := newTestConsole(t, &fakeSlackService{})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()

	server.handleHome(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Result().StatusCode)
}

func TestHandleHomeRendersFlashesAndClearsCookie(t *testing.T) {
	server := newTestConsole(t, &fakeSlackService{})

	flashes := []FlashMessage{{Level: "success", Message: "Token added successfully for team: Acme"}}
	data, err := json.Marshal(flashes)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookieName, Value: base64.URLEncoding.EncodeToString(data)})
	w := httptest.NewRecorder()

	server.handleHome(w, req)

	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Token added successfully for team: Acme")

	cleared := cookieFromResponse(resp, flashCookieName)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

// Add token

func TestHandleAddToken(t *testing.T) {
	svc := &fakeSlackService{
		authTestFunc: func(ctx context.Context) (*slackservice.AuthInfo, error) {
			return &slackservice.AuthInfo{TeamName: "Acme", UserName: "consolebot", UserID: "U123"}, nil
		},
	}
	server := newTestConsole(t, svc)

	req := postForm("/token/", url.Values{"name": {"Work"}, "token": {"xoxb-secret"}})
	w := httptest.NewRecorder()

	server.handleAddToken(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	tokens := server.state.Tokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, "Work", tokens[0].Name)
	assert.Equal(t, "Acme", tokens[0].TeamName)

	selected := cookieFromResponse(resp, currentTokenCookie)
	require.NotNil(t, selected)
	assert.Equal(t, tokens[0].ID, selected.Value)

	flashes := flashesFromResponse(t, resp)
	require.Len(t, flashes, 1)
	assert.Equal(t, "success", flashes[0].Level)
	assert.Equal(t, "Token added successfully for team: Acme", flashes[0].Message)

	assert.Equal(t, int64(1), metrics.GetTotalForOperation(metrics.OpAuthTest))
}

func TestHandleAddTokenDefaultName(t *testing.T) {
	svc := &fakeSlackService{
		authTestFunc: func(ctx context.Context) (*slackservice.AuthInfo, error) {
			return &slackservice.AuthInfo{TeamName: "Acme"}, nil
		},
	}
	server := newTestConsole(t, svc)

	req := postForm("/token/", url.Values{"token": {"xoxb-secret"}})
	w := httptest.NewRecorder()

	server.handleAddToken(w, req)

	tokens := server.state.Tokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, "Token 1", tokens[0].Name)
}

func TestHandleAddTokenEmpty(t *testing.T) {
	server := newTestConsole(t, &fakeSlackService{})

	req := postForm("/token/", url.Values{"token": {"   "}})
	w := httptest.NewRecorder()

	server.handleAddToken(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Zero(t, server.state.TokenCount())

	flashes := flashesFromResponse(t, resp)
	require.Len(t, flashes, 1)
	assert.Equal(t, "error", flashes[0].Level)
	assert.Equal(t, "Token is required", flashes[0].Message)
}

func TestHandleAddTokenInvalid(t *testing.T) {
	svc := &fakeSlackService{
		authTestFunc: func(ctx context.Context) (*slackservice.AuthInfo, error) {
			return nil, fmt.Errorf("invalid_auth")
		},
	}
	server := newTestConsole(t, svc)

	req := postForm("/token/", url.Values{"token": {"xoxb-bad"}})
	w := httptest.NewRecorder()

	server.handleAddToken(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Zero(t, server.state.TokenCount())

	flashes := flashesFromResponse(t, resp)
	require.Len(t, flashes, 1)
	assert.Contains(t, flashes[0].Message, "Invalid token: invalid_auth")

	errors := server.state.RecentErrors(0)
	require.Len(t, errors, 1)
	assert.Equal(t, "auth_test", errors[0].Operation)

	assert.Equal(t, int64(0), metrics.GetTotalForOperation(metrics.OpAuthTest))
}

func TestHandleAddTokenMethodNotAllowed(t *testing.T) {
	server := newTestConsole(t, &fakeSlackService{})

	req := httptest.NewRequest(http.MethodGet, "/token/", nil)
	w := httptest.NewRecorder()

	server.handleAddToken(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Result().StatusCode)
}

// Post message

func TestHandlePostMessage(t *testing.T) {
	svc := &fakeSlackService{
		postMessageFunc: func(ctx context.Context, channelID, text string) (*slackservice.PostResult, error) {
			return &slackservice.PostResult{ChannelID: channelID, Timestamp: "1700000000.000100"}, nil
		},
	}
	server := newTestConsole(t, svc)
	rec := server.state.AddToken("Work", "xoxb-secret", "Acme", "consolebot", "U123")

	req := postForm("/post-message/", url.Values{
		"token_id":     {rec.ID},
		"channel_id":   {"C123"},
		"channel_name": {"#general"},
		"message_text": {"hello world"},
	})
	w := httptest.NewRecorder()

	server.handlePostMessage(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	entries := server.state.RecentActivity(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "C123", entries[0].ChannelID)
	assert.Equal(t, "#general", entries[0].ChannelName)
	assert.Equal(t, "hello world", entries[0].Text)
	assert.Equal(t, "1700000000.000100", entries[0].Timestamp)
	assert.Equal(t, "U123", entries[0].UserID)
	assert.False(t, entries[0].IsThreadReply())

	flashes := flashesFromResponse(t, resp)
	require.Len(t, flashes, 1)
	assert.Equal(t, "Message posted to #general", flashes[0].Message)

	// Posting marks the token as used
	used, ok := server.state.TokenByID(rec.ID)
	require.True(t, ok)
	assert.False(t, used.LastUsed.IsZero())

	assert.Equal(t, int64(1), metrics.GetTotalForOperation(metrics.OpPostMessage))
}

func TestHandlePostMessageChannelNameFallback(t *testing.T) {
	svc := &fakeSlackService{
		postMessageFunc: func(ctx context.Context, channelID, text string) (*slackservice.PostResult, error) {
			return &slackservice.PostResult{ChannelID: channelID, Timestamp: "1.1"}, nil
		},
	}
	server := newTestConsole(t, svc)
	rec := server.state.AddToken("Work", "xoxb-secret", "Acme", "bot", "")

	req := postForm("/post-message/", url.Values{
		"token_id":     {rec.ID},
		"channel_id":   {"C123"},
		"message_text": {"hello"},
	})
	w := httptest.NewRecorder()

	server.handlePostMessage(w, req)

	entries := server.state.RecentActivity(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "Channel C123", entries[0].ChannelName)
	assert.Equal(t, "bot", entries[0].UserID)
}

func TestHandlePostMessageMissingFields(t *testing.T) {
	server := newTestConsole(t, &fakeSlackService{})

	req := postForm("/post-message/", url.Values{"channel_id": {"C123"}})
	w := httptest.NewRecorder()

	server.handlePostMessage(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Zero(t, server.state.ActivityCount())

	flashes := flashesFromResponse(t, resp)
	require.Len(t, flashes, 1)
	assert.Equal(t, "Missing required fields", flashes[0].Message)
}

func TestHandlePostMessageInvalidToken(t *testing.T) {
	server := newTestConsole(t, &fakeSlackService{})

	req := postForm("/post-message/", url.Values{
		"token_id":     {"missing"},
		"channel_id":   {"C123"},
		"message_text": {"hello"},
	})
	w := httptest.NewRecorder()

	server.handlePostMessage(w, req)

	flashes := flashesFromResponse(t, w.Result())
	require.Len(t, flashes, 1)
	assert.Equal(t, "Invalid token", flashes[0].Message)
}

func TestHandlePostMessageSlackError(t *testing.T) {
	svc := &fakeSlackService{
		postMessageFunc: func(ctx context.Context, channelID, text string) (*slackservice.PostResult, error) {
			return nil, fmt.Errorf("channel_not_found")
		},
	}
	server := newTestConsole(t, svc)
	rec := server.state.AddToken("Work", "xoxb-secret", "Acme", "bot", "U1")

	req := postForm("/post-message/", url.Values{
		"token_id":     {rec.ID},
		"channel_id":   {"C404"},
		"message_text": {"hello"},
	})
	w := httptest.NewRecorder()

	server.handlePostMessage(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Zero(t, server.state.ActivityCount())

	flashes := flashesFromResponse(t, resp)
	require.Len(t, flashes, 1)
	assert.Contains(t, flashes[0].Message, "Failed to post message: channel_not_found")

	errors := server.state.RecentErrors(0)
	require.Len(t, errors, 1)
	assert.Equal(t, "post_message", errors[0].Operation)

	assert.Equal(t, int64(0), metrics.GetTotalForOperation(metrics.OpPostMessage))
}

// Post reply

func TestHandlePostReply(t *testing.T) {
	svc := &fakeSlackService{
		postReplyFunc: func(ctx context.Context, channelID, threadTS, text string) (*slackservice.PostResult, error) {
			return &slackservice.PostResult{ChannelID: channelID, Timestamp: "1700000001.000200", ThreadTS: threadTS}, nil
		},
	}
	server := newTestConsole(t, svc)
	rec := server.state.AddToken("Work", "xoxb-secret", "Acme", "consolebot", "U123")

	req := postForm("/post-reply/", url.Values{
		"token_id":     {rec.ID},
		"channel_id":   {"C123"},
		"channel_name": {"#general"},
		"thread_ts":    {"1700000000.000100"},
		"reply_text":   {"following up"},
	})
	w := httptest.NewRecorder()

	server.handlePostReply(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	entries := server.state.RecentActivity(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "following up", entries[0].Text)
	assert.Equal(t, "1700000000.000100", entries[0].ThreadTS)
	assert.True(t, entries[0].IsThreadReply())

	flashes := flashesFromResponse(t, resp)
	require.Len(t, flashes, 1)
	assert.Equal(t, "Reply posted to #general", flashes[0].Message)

	assert.Equal(t, int64(1), metrics.GetTotalForOperation(metrics.OpPostReply))
}

func TestHandlePostReplyMissingThread(t *testing.T) {
	server := newTestConsole(t, &fakeSlackService{})
	rec := server.state.AddToken("Work", "xoxb-secret", "Acme", "bot", "U1")

	req := postForm("/post-reply/", url.Values{
		"token_id":   {rec.ID},
		"channel_id": {"C123"},
		"reply_text": {"following up"},
	})
	w := httptest.NewRecorder()

	server.handlePostReply(w, req)

	flashes := flashesFromResponse(t, w.Result())
	require.Len(t, flashes, 1)
	assert.Equal(t, "Missing required fields", flashes[0].Message)
	assert.Zero(t, server.state.ActivityCount())
}

func TestHandlePostReplySlackError(t *testing.T) {
	svc := &fakeSlackService{
		postReplyFunc: func(ctx context.Context, channelID, threadTS, text string) (*slackservice.PostResult, error) {
			return nil, fmt.Errorf("thread_not_found")
		},
	}
	server := newTestConsole(t, svc)
	rec := server.state.AddToken("Work", "xoxb-secret", "Acme", "bot", "U1")

	req := postForm("/post-reply/", url.Values{
		"token_id":   {rec.ID},
		"channel_id": {"C123"},
		"thread_ts":  {"1.1"},
		"reply_text": {"following up"},
	})
	w := httptest.NewRecorder()

	server.handlePostReply(w, req)

	flashes := flashesFromResponse(t, w.Result())
	require.Len(t, flashes, 1)
	assert.Contains(t, flashes[0].Message, "Failed to post reply: thread_not_found")

	errors := server.state.RecentErrors(0)
	require.Len(t, errors, 1)
	assert.Equal(t, "post_reply", errors[0].Operation)
}
