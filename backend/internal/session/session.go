package session

import (
	"sort"
	"time"

	"continuum/backend/internal/constants"
	"continuum/backend/internal/graph"
	"github.com/google/uuid"
)

// Do runs fn with exclusive access to the session graph
func (s *Session) Do(fn func(g *graph.KnowledgeGraph)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	fn(s.graph)
}

// View runs fn with exclusive access to the session graph without
// counting as activity for idle expiry
func (s *Session) View(fn func(g *graph.KnowledgeGraph)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.graph)
}

// Update changes the current task when task is non-nil and appends
// activities
func (s *Session) Update(task *string, activities []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task != nil {
		s.currentTask = *task
	}
	s.activities = append(s.activities, activities...)
	s.lastActive = s.now()
}

// SetConversation replaces the chat history
func (s *Session) SetConversation(history []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversation = append([]Message{}, history...)
	s.lastActive = s.now()
}

// AppendConversation adds chat turns to the history
func (s *Session) AppendConversation(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversation = append(s.conversation, msgs...)
	s.lastActive = s.now()
}

// RecentConversation returns a copy of at most the last n chat turns
func (s *Session) RecentConversation(n int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.conversation) - n
	if start < 0 {
		start = 0
	}
	return append([]Message{}, s.conversation[start:]...)
}

// Info returns a copy of the session fields and current graph counts
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities := make([]string, len(s.activities))
	copy(activities, s.activities)

	info := Info{
		ID:                  s.ID,
		UserID:              s.UserID,
		CurrentTask:         s.currentTask,
		StartTime:           s.StartTime,
		Activities:          activities,
		ConversationHistory: append([]Message{}, s.conversation...),
		Stats:               s.graph.Stats(),
	}
	if !s.endTime.IsZero() {
		end := s.endTime
		info.EndTime = &end
	}
	return info
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Start creates and registers a new session with an empty graph
func (s *Store) Start(userID, currentTask string) *Session {
	if userID == "" {
		userID = constants.DefaultUserID
	}

	now := s.now()
	id := constants.SessionIDPrefix + uuid.New().String()
	sess := &Session{
		ID:           id,
		UserID:       userID,
		StartTime:    now,
		currentTask:  currentTask,
		activities:   []string{},
		conversation: []Message{},
		lastActive:   now,
		graph:        graph.New(id),
		now:          s.now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return sess
}

// Get returns a live session
func (s *Store) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// End removes a session from the store and stamps its end time. The
// returned session keeps its graph so the caller can summarize or archive it.
func (s *Store) End(sessionID string) (*Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return nil, false
	}

	sess.mu.Lock()
	sess.endTime = s.now()
	sess.mu.Unlock()

	return sess, true
}

// List returns the live sessions ordered by start time
func (s *Store) List() []*Session {
	s.mu.RLock()
	list := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].StartTime.Equal(list[j].StartTime) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartTime.Before(list[j].StartTime)
	})
	return list
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep ends every session idle for longer than maxIdle and returns them.
// A non-positive maxIdle disables expiry.
func (s *Store) Sweep(maxIdle time.Duration) []*Session {
	if maxIdle <= 0 {
		return nil
	}

	cutoff := s.now().Add(-maxIdle)
	var expired []*Session
	for _, sess := range s.List() {
		if sess.idleSince().Before(cutoff) {
			if ended, ok := s.End(sess.ID); ok {
				expired = append(expired, ended)
			}
		}
	}
	return expired
}
