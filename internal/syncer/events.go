package syncer

import "watchmate/internal/compare"

// Stage identifies where a sync session currently is.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageOwnWatchlist Stage = "own-watchlist"
	StageFriends      Stage = "friends"
	StageComparing    Stage = "comparing"
	StageDone         Stage = "done"
	StageCancelled    Stage = "cancelled"
	StageFailed       Stage = "failed"
)

// EventType classifies events published during a session.
type EventType string

const (
	EventStageChanged EventType = "stage-changed"
	EventProgress     EventType = "progress"
	EventFriendSynced EventType = "friend-synced"
	EventFriendFailed EventType = "friend-failed"
	EventCompleted    EventType = "completed"
	EventCancelled    EventType = "cancelled"
	EventFailed       EventType = "failed"
)

// Event is a progress or lifecycle update from a running session.
type Event struct {
	Type      EventType
	SessionID string
	Stage     Stage
	Friend    string
	// Fraction is overall session progress in [0, 1].
	Fraction float64
	Message  string
	Err      error
	Results  []compare.Result
}
