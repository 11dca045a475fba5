package constants

import "time"

// Session constants
const (
	// DefaultUserID is used when a session is started without a user
	DefaultUserID = "default"

	// SessionIDPrefix is prepended to the uuid of every session id
	SessionIDPrefix = "session_"
)

// Server constants
const (
	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 5 * time.Second

	// FinalizeTimeout bounds summarizing and archiving an expired session
	FinalizeTimeout = 30 * time.Second
)

// Companion constants
const (
	// ChatHistoryWindow is how many stored chat turns accompany a message
	ChatHistoryWindow = 5

	// ChatKnownConcepts is how many graph topics are offered as known concepts
	ChatKnownConcepts = 5

	// RecentActivityWindow is how many session activities are offered as context
	RecentActivityWindow = 5
)
