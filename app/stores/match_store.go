package stores

import (
	"time"

	"questmatch/app/models"
)

// MatchStore is the durable set of created matches.
type MatchStore interface {
	Insert(match *models.Match) error

	// Delete removes a match row; used only to roll back a partially
	// committed match.
	Delete(id string) error

	// FindByID returns the match or models.ErrMatchNotFound.
	FindByID(id string) (*models.Match, error)

	// CountCreatedSince counts matches created at or after the given time.
	CountCreatedSince(t time.Time) (int64, error)
}
