package models

import (
	"fmt"
	"time"
)

// QueueEntry represents one user's current wait for a match
type QueueEntry struct {
	ID         string    `json:"id" cql:"id"`
	UserID     string    `json:"user_id" cql:"user_id"`
	Username   string    `json:"username" cql:"username"`
	SkillLevel string    `json:"skill_level" cql:"skill_level"`
	GameMode   string    `json:"game_mode" cql:"game_mode"`
	Status     string    `json:"status" cql:"status"`
	CreatedAt  time.Time `json:"created_at" cql:"created_at"`
	MatchedAt  time.Time `json:"matched_at,omitempty" cql:"matched_at"`
	LeftAt     time.Time `json:"left_at,omitempty" cql:"left_at"`
	MatchID    string    `json:"match_id,omitempty" cql:"match_id"`

	// Preferences
	MaxWaitTime        int      `json:"max_wait_time,omitempty" cql:"max_wait_time"`
	PreferredOpponents []string `json:"preferred_opponents,omitempty" cql:"preferred_opponents"`
	AvoidOpponents     []string `json:"avoid_opponents,omitempty" cql:"avoid_opponents"`
}

// QueueEntry status constants
const (
	QueueStatusWaiting = "waiting"
	QueueStatusClaimed = "claimed"
	QueueStatusMatched = "matched"
	QueueStatusLeft    = "left"
)

// Skill level constants
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
	SkillExpert       = "expert"
)

// DefaultGameMode is used when a join request omits the game mode
const DefaultGameMode = "classic"

// SkillLevels lists all valid skill levels in ascending order
var SkillLevels = []string{SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert}

// ValidSkillLevel checks whether the given skill level is known
func ValidSkillLevel(level string) bool {
	for _, s := range SkillLevels {
		if s == level {
			return true
		}
	}
	return false
}

// WaitTime returns the elapsed wait in seconds at the given instant.
// For entries that already left or matched, the wait stops at that transition.
func (e *QueueEntry) WaitTime(now time.Time) int {
	end := now
	switch e.Status {
	case QueueStatusMatched:
		if !e.MatchedAt.IsZero() {
			end = e.MatchedAt
		}
	case QueueStatusLeft:
		if !e.LeftAt.IsZero() {
			end = e.LeftAt
		}
	}
	secs := int(end.Sub(e.CreatedAt).Seconds())
	if secs < 0 {
		secs = 0
	}
	return secs
}

// Avoids reports whether this entry's avoid list contains the given user
func (e *QueueEntry) Avoids(userID string) bool {
	for _, id := range e.AvoidOpponents {
		if id == userID {
			return true
		}
	}
	return false
}

// JoinQueueRequest represents the request body for joining the queue
type JoinQueueRequest struct {
	UserID             string   `json:"user_id"`
	Username           string   `json:"username"`
	SkillLevel         string   `json:"skill_level"`
	GameMode           string   `json:"game_mode"`
	MaxWaitTime        int      `json:"max_wait_time"`
	PreferredOpponents []string `json:"preferred_opponents"`
	AvoidOpponents     []string `json:"avoid_opponents"`
}

// Validate checks the required join fields
func (r *JoinQueueRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if !ValidSkillLevel(r.SkillLevel) {
		return fmt.Errorf("skill_level must be one of %v", SkillLevels)
	}
	return nil
}

// QueueStatusResponse is the queue-status view returned to clients
type QueueStatusResponse struct {
	InQueue    bool      `json:"in_queue"`
	EntryID    string    `json:"entry_id,omitempty"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	SkillLevel string    `json:"skill_level,omitempty"`
	GameMode   string    `json:"game_mode,omitempty"`
	Status     string    `json:"status,omitempty"`
	WaitTime   int       `json:"wait_time"`
	MatchID    string    `json:"match_id,omitempty"`
	JoinedAt   time.Time `json:"joined_at,omitempty"`
}

// NewQueueStatusResponse builds the status view for an entry with the
// wait recomputed. The transient claimed state is reported as waiting;
// it is an internal matchmaker detail and never surfaced to clients.
func NewQueueStatusResponse(e *QueueEntry, now time.Time) QueueStatusResponse {
	status := e.Status
	if status == QueueStatusClaimed {
		status = QueueStatusWaiting
	}
	return QueueStatusResponse{
		InQueue:    status == QueueStatusWaiting,
		EntryID:    e.ID,
		UserID:     e.UserID,
		Username:   e.Username,
		SkillLevel: e.SkillLevel,
		GameMode:   e.GameMode,
		Status:     status,
		WaitTime:   e.WaitTime(now),
		MatchID:    e.MatchID,
		JoinedAt:   e.CreatedAt,
	}
}

// QueueStatsResponse is the aggregate view returned by the stats endpoint
type QueueStatsResponse struct {
	Waiting      int            `json:"waiting"`
	BySkillLevel map[string]int `json:"by_skill_level"`
	ByGameMode   map[string]int `json:"by_game_mode"`
	AvgWaitTime  float64        `json:"avg_wait_time"`
	MaxWaitTime  int            `json:"max_wait_time"`
	MatchesToday int64          `json:"matches_today"`
	Timestamp    string         `json:"timestamp"`
}
