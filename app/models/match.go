package models

import (
	"time"
)

// Match represents a committed pairing between queued players
type Match struct {
	ID              string    `json:"id" bson:"id"`
	PlayerIDs       []string  `json:"player_ids" bson:"player_ids"`
	PlayerUsernames []string  `json:"player_usernames" bson:"player_usernames"`
	Status          string    `json:"status" bson:"status"`
	GameMode        string    `json:"game_mode" bson:"game_mode"`
	SkillLevel      string    `json:"skill_level" bson:"skill_level"`
	AverageWaitTime float64   `json:"average_wait_time" bson:"average_wait_time"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	StartedAt       time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt     time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Match status constants. Lifecycle beyond pending is owned by the
// downstream game-session component; this subsystem only ever creates
// matches in the pending state.
const (
	MatchStatusPending   = "pending"
	MatchStatusActive    = "active"
	MatchStatusCompleted = "completed"
	MatchStatusCancelled = "cancelled"
)

// MatchResponse is the match view returned to clients
type MatchResponse struct {
	ID              string    `json:"id"`
	PlayerIDs       []string  `json:"player_ids"`
	PlayerUsernames []string  `json:"player_usernames"`
	Status          string    `json:"status"`
	GameMode        string    `json:"game_mode"`
	SkillLevel      string    `json:"skill_level"`
	AverageWaitTime float64   `json:"average_wait_time"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewMatchResponse builds the client view of a match
func NewMatchResponse(m *Match) MatchResponse {
	return MatchResponse{
		ID:              m.ID,
		PlayerIDs:       m.PlayerIDs,
		PlayerUsernames: m.PlayerUsernames,
		Status:          m.Status,
		GameMode:        m.GameMode,
		SkillLevel:      m.SkillLevel,
		AverageWaitTime: m.AverageWaitTime,
		CreatedAt:       m.CreatedAt,
	}
}
