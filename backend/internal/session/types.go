package session

import (
	"sync"
	"time"

	"continuum/backend/internal/graph"
)

// Session is one focus session and the knowledge graph built during it.
//
// The graph is not safe for concurrent use; every access goes through Do
// or View, which hold mu.
type Session struct {
	ID        string
	UserID    string
	StartTime time.Time

	mu           sync.Mutex
	currentTask  string
	activities   []string
	conversation []Message
	endTime      time.Time
	lastActive   time.Time
	graph        *graph.KnowledgeGraph
	now          func() time.Time
}

// Chat message types
const (
	MessageTypeUser = "user"
	MessageTypeAI   = "ai"
)

// Message is one turn of the companion chat. Type is "user" for the person
// and anything else for the assistant.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// IsUser reports whether the message was written by the person
func (m Message) IsUser() bool {
	return m.Type == MessageTypeUser
}

// Info is a point-in-time copy of a session's fields
type Info struct {
	ID                  string      `json:"id"`
	UserID              string      `json:"userId"`
	CurrentTask         string      `json:"currentTask"`
	StartTime           time.Time   `json:"startTime"`
	EndTime             *time.Time  `json:"endTime,omitempty"`
	Activities          []string    `json:"activities"`
	ConversationHistory []Message   `json:"conversationHistory"`
	Stats               graph.Stats `json:"stats"`
}

// Store holds the live sessions of this process
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}
