package stores

import (
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"questmatch/app/models"
)

// CassandraQueueStore persists queue entries in Cassandra. The claim,
// leave and finalize transitions are lightweight transactions so the
// conditional-write guarantee holds at the storage layer even with
// multiple server processes sharing one keyspace.
type CassandraQueueStore struct {
	session *gocql.Session
}

// NewCassandraQueueStore creates a queue store backed by the given session
func NewCassandraQueueStore(session *gocql.Session) *CassandraQueueStore {
	return &CassandraQueueStore{session: session}
}

const queueEntryColumns = `id, user_id, username, skill_level, game_mode, status, created_at, matched_at, left_at, match_id, max_wait_time, preferred_opponents, avoid_opponents`

// Insert stores a new waiting entry. The queue_waiting_by_user guard
// table is written with IF NOT EXISTS first, which enforces at most one
// waiting entry per user even when two joins race. A guard row left
// behind by a failed cleanup is detected and replaced, so a user is
// never permanently locked out of the queue.
func (s *CassandraQueueStore) Insert(entry *models.QueueEntry) error {
	prev := map[string]interface{}{}
	applied, err := s.session.Query(`
		INSERT INTO queue_waiting_by_user (user_id, entry_id)
		VALUES (?, ?) IF NOT EXISTS
	`, entry.UserID, entry.ID).MapScanCAS(prev)
	if err != nil {
		return fmt.Errorf("failed to reserve queue slot for user %s: %v", entry.UserID, err)
	}
	if !applied {
		if err := s.reclaimStaleSlot(entry, prev); err != nil {
			return err
		}
	}

	err = s.session.Query(`
		INSERT INTO queue_entries (`+queueEntryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.Username, entry.SkillLevel, entry.GameMode,
		entry.Status, entry.CreatedAt, entry.MatchedAt, entry.LeftAt, entry.MatchID,
		entry.MaxWaitTime, entry.PreferredOpponents, entry.AvoidOpponents).Exec()
	if err != nil {
		// Release the guard row so the user is not locked out of the queue
		s.deleteGuard(entry.UserID, entry.ID)
		return fmt.Errorf("failed to insert queue entry %s: %v", entry.ID, err)
	}
	return nil
}

// reclaimStaleSlot handles a guard-table hit during Insert. A guard row
// normally means the user already has a waiting entry, but a crash or a
// failed delete between an entry's matched/left transition and its
// guard cleanup can strand a row pointing at a terminal or missing
// entry. Such a row is replaced with the new entry id under the same
// LWT guarantee, keeping the one-waiting-entry-per-user invariant.
func (s *CassandraQueueStore) reclaimStaleSlot(entry *models.QueueEntry, prev map[string]interface{}) error {
	staleID, _ := prev["entry_id"].(string)
	existing, err := s.GetByID(staleID)
	if err != nil {
		return err
	}
	if !guardSlotStale(existing) {
		return models.ErrAlreadyQueued
	}

	applied, err := s.session.Query(`
		UPDATE queue_waiting_by_user SET entry_id = ? WHERE user_id = ? IF entry_id = ?
	`, entry.ID, entry.UserID, staleID).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("failed to reclaim queue slot for user %s: %v", entry.UserID, err)
	}
	if !applied {
		// A concurrent join replaced the stale row first
		return models.ErrAlreadyQueued
	}
	return nil
}

// guardSlotStale reports whether the entry a guard row points at no
// longer represents an active queue presence. A missing entry counts as
// stale: the guard was written but the entry insert never landed.
func guardSlotStale(entry *models.QueueEntry) bool {
	if entry == nil {
		return true
	}
	return entry.Status == models.QueueStatusMatched || entry.Status == models.QueueStatusLeft
}

// deleteGuard frees the user's queue slot, but only while it still
// points at the given entry, so a slot already reclaimed by a newer
// join is never deleted from under it. A failed delete is tolerated:
// the next Insert for the user reclaims the stale row.
func (s *CassandraQueueStore) deleteGuard(userID, entryID string) {
	_, _ = s.session.Query(`
		DELETE FROM queue_waiting_by_user WHERE user_id = ? IF entry_id = ?
	`, userID, entryID).MapScanCAS(map[string]interface{}{})
}

// FindWaitingByUser resolves the user's active entry through the guard table
func (s *CassandraQueueStore) FindWaitingByUser(userID string) (*models.QueueEntry, error) {
	var entryID string
	err := s.session.Query(`
		SELECT entry_id FROM queue_waiting_by_user WHERE user_id = ?
	`, userID).Scan(&entryID)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up queue slot for user %s: %v", userID, err)
	}
	return s.GetByID(entryID)
}

// GetByID returns the entry with the given id, or nil if absent
func (s *CassandraQueueStore) GetByID(id string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.session.Query(`
		SELECT `+queueEntryColumns+` FROM queue_entries WHERE id = ?
	`, id).Scan(&entry.ID, &entry.UserID, &entry.Username, &entry.SkillLevel,
		&entry.GameMode, &entry.Status, &entry.CreatedAt, &entry.MatchedAt,
		&entry.LeftAt, &entry.MatchID, &entry.MaxWaitTime,
		&entry.PreferredOpponents, &entry.AvoidOpponents)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry %s: %v", id, err)
	}
	return &entry, nil
}

// ListWaiting returns all waiting entries ordered oldest first
func (s *CassandraQueueStore) ListWaiting() ([]models.QueueEntry, error) {
	iter := s.session.Query(`
		SELECT `+queueEntryColumns+` FROM queue_entries
		WHERE status = ? LIMIT 10000 ALLOW FILTERING
	`, models.QueueStatusWaiting).Iter()

	var entries []models.QueueEntry
	var entry models.QueueEntry
	for iter.Scan(&entry.ID, &entry.UserID, &entry.Username, &entry.SkillLevel,
		&entry.GameMode, &entry.Status, &entry.CreatedAt, &entry.MatchedAt,
		&entry.LeftAt, &entry.MatchID, &entry.MaxWaitTime,
		&entry.PreferredOpponents, &entry.AvoidOpponents) {
		entries = append(entries, entry)
		entry = models.QueueEntry{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list waiting entries: %v", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// claimOne moves a single entry waiting -> claimed via LWT
func (s *CassandraQueueStore) claimOne(id string) (bool, error) {
	applied, err := s.session.Query(`
		UPDATE queue_entries SET status = ? WHERE id = ? IF status = ?
	`, models.QueueStatusClaimed, id, models.QueueStatusWaiting).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, fmt.Errorf("failed to claim queue entry %s: %v", id, err)
	}
	return applied, nil
}

// ClaimPair claims both entries, releasing the first again if the
// second claim loses its race.
func (s *CassandraQueueStore) ClaimPair(a, b *models.QueueEntry) error {
	applied, err := s.claimOne(a.ID)
	if err != nil {
		return err
	}
	if !applied {
		return models.ErrClaimConflict
	}

	applied, err = s.claimOne(b.ID)
	if err != nil {
		_ = s.ReleasePair(a)
		return err
	}
	if !applied {
		if relErr := s.ReleasePair(a); relErr != nil {
			return relErr
		}
		return models.ErrClaimConflict
	}
	return nil
}

// ReleasePair reverts claimed entries back to waiting
func (s *CassandraQueueStore) ReleasePair(entries ...*models.QueueEntry) error {
	for _, e := range entries {
		_, err := s.session.Query(`
			UPDATE queue_entries SET status = ? WHERE id = ? IF status = ?
		`, models.QueueStatusWaiting, e.ID, models.QueueStatusClaimed).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return fmt.Errorf("failed to release queue entry %s: %v", e.ID, err)
		}
	}
	return nil
}

// FinalizeMatched transitions claimed entries to matched and frees each
// user's queue slot so they can join again.
func (s *CassandraQueueStore) FinalizeMatched(matchID string, matchedAt time.Time, entries ...*models.QueueEntry) error {
	for _, e := range entries {
		applied, err := s.session.Query(`
			UPDATE queue_entries SET status = ?, match_id = ?, matched_at = ?
			WHERE id = ? IF status = ?
		`, models.QueueStatusMatched, matchID, matchedAt, e.ID,
			models.QueueStatusClaimed).MapScanCAS(map[string]interface{}{})
		if err != nil {
			return fmt.Errorf("failed to finalize queue entry %s: %v", e.ID, err)
		}
		if !applied {
			return fmt.Errorf("failed to finalize queue entry %s: entry is no longer claimed", e.ID)
		}
		s.deleteGuard(e.UserID, e.ID)
	}
	return nil
}

// MarkLeft transitions the user's waiting entry to left. The LWT
// condition makes leave and claim mutually exclusive: a concurrently
// claimed or matched entry fails the condition and the caller observes
// ErrNotQueued instead of a silent success.
func (s *CassandraQueueStore) MarkLeft(userID string, leftAt time.Time) (*models.QueueEntry, error) {
	entry, err := s.FindWaitingByUser(userID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, models.ErrNotQueued
	}

	applied, err := s.session.Query(`
		UPDATE queue_entries SET status = ?, left_at = ? WHERE id = ? IF status = ?
	`, models.QueueStatusLeft, leftAt, entry.ID, models.QueueStatusWaiting).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("failed to mark queue entry %s as left: %v", entry.ID, err)
	}
	if !applied {
		return nil, models.ErrNotQueued
	}

	s.deleteGuard(userID, entry.ID)

	entry.Status = models.QueueStatusLeft
	entry.LeftAt = leftAt
	return entry, nil
}

// PurgeLeftBefore deletes left entries older than the cutoff
func (s *CassandraQueueStore) PurgeLeftBefore(cutoff time.Time) (int, error) {
	iter := s.session.Query(`
		SELECT id, left_at FROM queue_entries
		WHERE status = ? LIMIT 10000 ALLOW FILTERING
	`, models.QueueStatusLeft).Iter()

	var ids []string
	var id string
	var leftAt time.Time
	for iter.Scan(&id, &leftAt) {
		if leftAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("failed to scan left entries: %v", err)
	}

	purged := 0
	for _, id := range ids {
		if err := s.session.Query(`DELETE FROM queue_entries WHERE id = ?`, id).Exec(); err == nil {
			purged++
		}
	}
	return purged, nil
}
