package webui

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ca-srg/slackconsole/internal/metrics"
	"github.com/ca-srg/slackconsole/internal/slackservice"
)

// handleChannels lists the channels visible to the selected token.
// Errors go out as 200s with an "error" field; the in-page script
// keys off the field, not the status code.
func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tokenID := r.URL.Query().Get("token_id")
	if tokenID == "" {
		if c, err := r.Cookie(currentTokenCookie); err == nil {
			tokenID = c.Value
		}
	}
	if tokenID == "" {
		s.writeJSON(w, http.StatusOK, ErrorResponse{Error: "No token selected"})
		return
	}

	rec, ok := s.state.TokenByID(tokenID)
	if !ok {
		s.writeJSON(w, http.StatusOK, ErrorResponse{Error: "Invalid token"})
		return
	}
	s.state.TouchToken(rec.ID)

	svc := s.serviceFactory(rec.Token)
	channels, err := svc.ListChannels(r.Context())
	if err != nil {
		s.state.AddError("list_channels", err.Error())
		s.writeJSON(w, http.StatusOK, ErrorResponse{Error: err.Error()})
		return
	}
	metrics.RecordInvocation(metrics.OpListChannels)

	if channels == nil {
		channels = []slackservice.Channel{}
	}
	s.writeJSON(w, http.StatusOK, ChannelsResponse{Channels: channels})
}

// handleMessages returns the session's activity for one channel. The
// bot is not a member of the channels it posts to, so Slack history is
// unavailable and the feed is served from console state.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tokenID := r.URL.Query().Get("token_id")
	channelID := r.URL.Query().Get("channel_id")
	if tokenID == "" || channelID == "" {
		s.writeJSON(w, http.StatusOK, ErrorResponse{Error: "Missing parameters"})
		return
	}

	if _, ok := s.state.TokenByID(tokenID); !ok {
		s.writeJSON(w, http.StatusOK, ErrorResponse{Error: "Invalid token"})
		return
	}

	msgs := s.state.ActivityForChannel(channelID, 10)
	if msgs == nil {
		msgs = []ActivityEntry{}
	}
	s.writeJSON(w, http.StatusOK, MessagesResponse{Messages: msgs})
}

// handleAPIStatus reports console counters
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	invocations := make(map[string]int64)
	for op, count := range metrics.GetStats() {
		invocations[string(op)] = count
	}

	status := StatusResponse{
		Uptime:      time.Since(s.state.StartedAt()).Round(time.Second).String(),
		Tokens:      s.state.TokenCount(),
		Activity:    s.state.ActivityCount(),
		Errors:      s.state.ErrorCount(),
		SSEClients:  s.sseManager.GetClientCount(),
		Invocations: invocations,
	}
	s.writeJSON(w, http.StatusOK, status)
}

// handlePartialActivity renders the activity feed fragment for
// in-place refreshes
func (s *Server) handlePartialActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.templates.Render(w, "activity.html", s.state.RecentActivity(20)); err != nil {
		s.logger.Printf("Error rendering activity fragment: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}
