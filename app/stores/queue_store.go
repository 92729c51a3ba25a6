package stores

import (
	"time"

	"questmatch/app/models"
)

// QueueStore is the durable set of queue entries. Implementations must
// provide conditional-write semantics for the claim/leave transitions:
// two concurrent callers can never both move the same entry out of
// waiting, which is the invariant the matchmaker relies on.
type QueueStore interface {
	// Insert stores a new waiting entry. Returns models.ErrAlreadyQueued
	// if the user already has a waiting entry.
	Insert(entry *models.QueueEntry) error

	// FindWaitingByUser returns the user's current waiting (or claimed)
	// entry, or nil if the user is not queued.
	FindWaitingByUser(userID string) (*models.QueueEntry, error)

	// GetByID returns the entry with the given id, or nil if absent.
	GetByID(id string) (*models.QueueEntry, error)

	// ListWaiting returns all waiting entries ordered by join time,
	// oldest first.
	ListWaiting() ([]models.QueueEntry, error)

	// ClaimPair conditionally transitions both entries from waiting to
	// claimed. If either entry is no longer waiting the claim fails with
	// models.ErrClaimConflict and neither entry is left claimed.
	ClaimPair(a, b *models.QueueEntry) error

	// ReleasePair reverts claimed entries back to waiting.
	ReleasePair(entries ...*models.QueueEntry) error

	// FinalizeMatched transitions claimed entries to matched, stamping
	// the match id and matched-at time.
	FinalizeMatched(matchID string, matchedAt time.Time, entries ...*models.QueueEntry) error

	// MarkLeft conditionally transitions the user's waiting entry to
	// left. Returns models.ErrNotQueued if the user has no waiting
	// entry, including when the entry was claimed or matched
	// concurrently.
	MarkLeft(userID string, leftAt time.Time) (*models.QueueEntry, error)

	// PurgeLeftBefore deletes left entries whose left-at time is before
	// the cutoff and returns the number deleted.
	PurgeLeftBefore(cutoff time.Time) (int, error)
}
