package webui

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ca-srg/slackconsole/internal/metrics"
)

const (
	flashCookieName    = "slackconsole_flash"
	currentTokenCookie = "current_token_id"
)

// handleHome serves the console page
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := &HomePageData{
		Flashes:  s.popFlashes(w, r),
		Tokens:   s.state.Tokens(),
		Activity: s.state.RecentActivity(20),
		Errors:   s.state.RecentErrors(10),
	}
	if c, err := r.Cookie(currentTokenCookie); err == nil {
		data.CurrentTokenID = c.Value
	}

	if err := s.templates.Render(w, "index.html", data); err != nil {
		s.logger.Printf("Error rendering console page: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleAddToken validates a submitted token against auth.test and
// stores it in the registry
func (s *Server) handleAddToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	token := strings.TrimSpace(r.FormValue("token"))
	if token == "" {
		s.addFlash(w, r, "error", "Token is required")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	svc := s.serviceFactory(token)
	auth, err := svc.AuthTest(r.Context())
	if err != nil {
		s.state.AddError("auth_test", err.Error())
		s.addFlash(w, r, "error", fmt.Sprintf("Invalid token: %v", err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	rec := s.state.AddToken(name, token, auth.TeamName, auth.UserName, auth.UserID)
	metrics.RecordInvocation(metrics.OpAuthTest)

	http.SetCookie(w, &http.Cookie{
		Name:     currentTokenCookie,
		Value:    rec.ID,
		Path:     "/",
		HttpOnly: true,
	})
	s.addFlash(w, r, "success", fmt.Sprintf("Token added successfully for team: %s", auth.TeamName))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handlePostMessage posts a new message to the selected channel
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tokenID := r.FormValue("token_id")
	channelID := r.FormValue("channel_id")
	channelName := r.FormValue("channel_name")
	text := strings.TrimSpace(r.FormValue("message_text"))

	if tokenID == "" || channelID == "" || text == "" {
		s.addFlash(w, r, "error", "Missing required fields")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	rec, ok := s.state.TokenByID(tokenID)
	if !ok {
		s.addFlash(w, r, "error", "Invalid token")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.state.TouchToken(rec.ID)

	svc := s.serviceFactory(rec.Token)
	result, err := svc.PostMessage(r.Context(), channelID, text)
	if err != nil {
		s.state.AddError("post_message", err.Error())
		s.addFlash(w, r, "error", fmt.Sprintf("Failed to post message: %v", err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if channelName == "" {
		channelName = fmt.Sprintf("Channel %s", channelID)
	}
	s.state.AddActivity(ActivityEntry{
		ChannelID:   channelID,
		ChannelName: channelName,
		Text:        text,
		Timestamp:   result.Timestamp,
		UserID:      postingUserID(rec),
		PostedAt:    time.Now(),
	})
	metrics.RecordInvocation(metrics.OpPostMessage)

	s.addFlash(w, r, "success", fmt.Sprintf("Message posted to %s", channelName))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handlePostReply posts a threaded reply to a previously posted message
func (s *Server) handlePostReply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tokenID := r.FormValue("token_id")
	channelID := r.FormValue("channel_id")
	channelName := r.FormValue("channel_name")
	threadTS := r.FormValue("thread_ts")
	text := strings.TrimSpace(r.FormValue("reply_text"))

	if tokenID == "" || channelID == "" || threadTS == "" || text == "" {
		s.addFlash(w, r, "error", "Missing required fields")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	rec, ok := s.state.TokenByID(tokenID)
	if !ok {
		s.addFlash(w, r, "error", "Invalid token")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.state.TouchToken(rec.ID)

	svc := s.serviceFactory(rec.Token)
	result, err := svc.PostReply(r.Context(), channelID, threadTS, text)
	if err != nil {
		s.state.AddError("post_reply", err.Error())
		s.addFlash(w, r, "error", fmt.Sprintf("Failed to post reply: %v", err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if channelName == "" {
		channelName = fmt.Sprintf("Channel %s", channelID)
	}
	s.state.AddActivity(ActivityEntry{
		ChannelID:   channelID,
		ChannelName: channelName,
		Text:        text,
		Timestamp:   result.Timestamp,
		ThreadTS:    result.ThreadTS,
		UserID:      postingUserID(rec),
		PostedAt:    time.Now(),
	})
	metrics.RecordInvocation(metrics.OpPostReply)

	s.addFlash(w, r, "success", fmt.Sprintf("Reply posted to %s", channelName))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// postingUserID returns the token's bot user id for activity entries.
func postingUserID(rec TokenRecord) string {
	if rec.UserID != "" {
		return rec.UserID
	}
	return "bot"
}

// addFlash queues a one-shot message for the next page render.
func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, level, message string) {
	flashes := readFlashes(r)
	flashes = append(flashes, FlashMessage{Level: level, Message: message})

	data, err := json.Marshal(flashes)
	if err != nil {
		s.logger.Printf("Error encoding flash messages: %v", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.URLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
	})
}

// popFlashes returns pending flash messages and clears the cookie.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []FlashMessage {
	flashes := readFlashes(r)
	if len(flashes) == 0 {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return flashes
}

func readFlashes(r *http.Request) []FlashMessage {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	data, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var flashes []FlashMessage
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}
