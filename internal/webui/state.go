package webui

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	maxActivitySize = 100
	maxErrorsSize   = 50
)

// ConsoleState holds the session-scoped console data: the token
// registry, the recent-activity feed, and the error log. Nothing here
// survives a process restart.
type ConsoleState struct {
	mu         sync.RWMutex
	tokens     []TokenRecord
	activity   []ActivityEntry
	errors     []ConsoleError
	startedAt  time.Time
	sseManager *SSEManager
}

// NewConsoleState creates a new ConsoleState
func NewConsoleState(sse *SSEManager) *ConsoleState {
	return &ConsoleState{
		tokens:     make([]TokenRecord, 0),
		activity:   make([]ActivityEntry, 0, maxActivitySize),
		errors:     make([]ConsoleError, 0, maxErrorsSize),
		startedAt:  time.Now(),
		sseManager: sse,
	}
}

// AddToken registers a validated token and returns the stored record.
// An empty name gets the default "Token N" where N counts existing
// tokens plus one.
func (s *ConsoleState) AddToken(name, token, teamName, userName, userID string) TokenRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("Token %d", len(s.tokens)+1)
	}

	record := TokenRecord{
		ID:        uuid.New().String(),
		Name:      name,
		Token:     token,
		TeamName:  teamName,
		UserName:  userName,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	s.tokens = append([]TokenRecord{record}, s.tokens...)

	if s.sseManager != nil {
		// The record marshals without the raw token.
		s.sseManager.SendEvent(EventTypeTokenAdded, record)
	}

	return record
}

// TokenByID looks up a registered token.
func (s *ConsoleState) TokenByID(id string) (TokenRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.tokens {
		if record.ID == id {
			return record, true
		}
	}
	return TokenRecord{}, false
}

// Tokens returns the registry newest-first.
func (s *ConsoleState) Tokens() []TokenRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]TokenRecord, len(s.tokens))
	copy(result, s.tokens)
	return result
}

// TokenCount returns the number of registered tokens.
func (s *ConsoleState) TokenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// TouchToken sets the token's last-used timestamp to now.
func (s *ConsoleState) TouchToken(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tokens {
		if s.tokens[i].ID == id {
			s.tokens[i].LastUsed = time.Now()
			return
		}
	}
}

// AddActivity prepends a posted message to the activity feed and
// broadcasts it. Replies emit reply_posted, everything else
// message_posted.
func (s *ConsoleState) AddActivity(entry ActivityEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activity = append([]ActivityEntry{entry}, s.activity...)
	if len(s.activity) > maxActivitySize {
		s.activity = s.activity[:maxActivitySize]
	}

	if s.sseManager != nil {
		eventType := EventTypeMessagePosted
		if entry.IsThreadReply() {
			eventType = EventTypeReplyPosted
		}
		s.sseManager.SendEvent(eventType, entry)
	}
}

// RecentActivity returns up to n entries, newest first. n <= 0 returns all.
func (s *ConsoleState) RecentActivity(n int) []ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.activity) {
		n = len(s.activity)
	}
	result := make([]ActivityEntry, n)
	copy(result, s.activity[:n])
	return result
}

// ActivityForChannel returns up to n entries posted to the given
// channel, newest first.
func (s *ConsoleState) ActivityForChannel(channelID string, n int) []ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ActivityEntry, 0, n)
	for _, entry := range s.activity {
		if entry.ChannelID != channelID {
			continue
		}
		result = append(result, entry)
		if n > 0 && len(result) >= n {
			break
		}
	}
	return result
}

// ActivityCount returns the number of entries in the activity feed.
func (s *ConsoleState) ActivityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activity)
}

// AddError prepends an error to the error log and broadcasts it.
func (s *ConsoleState) AddError(operation string, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	consoleErr := ConsoleError{
		Timestamp: time.Now(),
		Operation: operation,
		Message:   message,
	}

	s.errors = append([]ConsoleError{consoleErr}, s.errors...)
	if len(s.errors) > maxErrorsSize {
		s.errors = s.errors[:maxErrorsSize]
	}

	if s.sseManager != nil {
		s.sseManager.SendEvent(EventTypeConsoleError, consoleErr)
	}
}

// RecentErrors returns up to n errors, newest first. n <= 0 returns all.
func (s *ConsoleState) RecentErrors(n int) []ConsoleError {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.errors) {
		n = len(s.errors)
	}
	result := make([]ConsoleError, n)
	copy(result, s.errors[:n])
	return result
}

// ErrorCount returns the number of entries in the error log.
func (s *ConsoleState) ErrorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.errors)
}

// StartedAt returns when this state was created.
func (s *ConsoleState) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}
