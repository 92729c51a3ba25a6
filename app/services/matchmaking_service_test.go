package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questmatch/app/models"
	"questmatch/app/stores"
)

func newTestMatchmaker(t *testing.T) (*MatchmakingService, *stores.MemoryQueueStore, *stores.MemoryMatchStore) {
	t.Helper()
	queueStore := stores.NewMemoryQueueStore()
	matchStore := stores.NewMemoryMatchStore()
	return NewMatchmakingService(queueStore, matchStore, testLongWait), queueStore, matchStore
}

func mustInsert(t *testing.T, store stores.QueueStore, e models.QueueEntry) models.QueueEntry {
	t.Helper()
	require.NoError(t, store.Insert(&e))
	return e
}

func TestProcessMatchesSameBucketPair(t *testing.T) {
	m, queueStore, matchStore := newTestMatchmaker(t)
	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second))
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillBeginner, "classic", 5*time.Second))

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches := matchStore.All()
	require.Len(t, matches, 1)
	match := matches[0]
	assert.ElementsMatch(t, []string{"user1", "user2"}, match.PlayerIDs)
	assert.Equal(t, models.MatchStatusPending, match.Status)
	assert.Equal(t, "classic", match.GameMode)
	assert.Equal(t, models.SkillBeginner, match.SkillLevel)
	assert.InDelta(t, 7.5, match.AverageWaitTime, 1.5)

	for _, userID := range []string{"user1", "user2"} {
		entry, err := queueStore.FindWaitingByUser(userID)
		require.NoError(t, err)
		assert.Nil(t, entry, "matched user %s must no longer be waiting", userID)
	}
}

func TestProcessNoOpBelowTwoWaiting(t *testing.T) {
	m, queueStore, matchStore := newTestMatchmaker(t)
	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second))

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, matchStore.All())
}

func TestProcessKeepsSkillLevelsApart(t *testing.T) {
	m, queueStore, matchStore := newTestMatchmaker(t)
	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second))
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillExpert, "classic", 10*time.Second))

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, matchStore.All())
}

func TestProcessKeepsGameModesApart(t *testing.T) {
	m, queueStore, matchStore := newTestMatchmaker(t)
	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second))
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillBeginner, "blitz", 10*time.Second))

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, matchStore.All())
}

func TestProcessCrossSkillAfterLongWait(t *testing.T) {
	m, queueStore, matchStore := newTestMatchmaker(t)
	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 200*time.Second))
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillExpert, "classic", 180*time.Second))

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches := matchStore.All()
	require.Len(t, matches, 1)
	assert.Equal(t, SkillMixed, matches[0].SkillLevel)
	assert.ElementsMatch(t, []string{"user1", "user2"}, matches[0].PlayerIDs)
}

func TestProcessMatchesOldestPairFirst(t *testing.T) {
	m, queueStore, matchStore := newTestMatchmaker(t)
	mustInsert(t, queueStore, waitingEntry("oldest", models.SkillBeginner, "classic", 30*time.Second))
	mustInsert(t, queueStore, waitingEntry("older", models.SkillBeginner, "classic", 20*time.Second))
	mustInsert(t, queueStore, waitingEntry("newest", models.SkillBeginner, "classic", 10*time.Second))

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches := matchStore.All()
	require.Len(t, matches, 1)
	assert.ElementsMatch(t, []string{"oldest", "older"}, matches[0].PlayerIDs)

	entry, err := queueStore.FindWaitingByUser("newest")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.QueueStatusWaiting, entry.Status)
}

func TestProcessRespectsAvoidLists(t *testing.T) {
	m, queueStore, matchStore := newTestMatchmaker(t)
	blocker := waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second)
	blocker.AvoidOpponents = []string{"user2"}
	mustInsert(t, queueStore, blocker)
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillBeginner, "classic", 5*time.Second))

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, matchStore.All())

	// Both entries must be back to waiting after the released claim
	for _, userID := range []string{"user1", "user2"} {
		entry, err := queueStore.FindWaitingByUser(userID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, models.QueueStatusWaiting, entry.Status)
	}
}

func TestProcessSkipsLeftEntries(t *testing.T) {
	m, queueStore, matchStore := newTestMatchmaker(t)
	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second))
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillBeginner, "classic", 5*time.Second))

	_, err := queueStore.MarkLeft("user1", time.Now().UTC())
	require.NoError(t, err)

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, matchStore.All())
}

func TestProcessNeverDoubleMatchesAcrossGroups(t *testing.T) {
	m, queueStore, matchStore := newTestMatchmaker(t)
	// Both beginners also qualify for the classic cross-skill group
	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 300*time.Second))
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillBeginner, "classic", 250*time.Second))
	mustInsert(t, queueStore, waitingEntry("user3", models.SkillExpert, "classic", 200*time.Second))

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	seen := make(map[string]int)
	for _, match := range matchStore.All() {
		for _, id := range match.PlayerIDs {
			seen[id]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "user %s appeared in %d matches", id, n)
	}
}

// conflictingQueueStore fails the first ClaimPair call, mimicking a
// concurrent pass winning the claim race. The sentinel is wrapped the
// way a store implementation would wrap it.
type conflictingQueueStore struct {
	stores.QueueStore
	conflicts int
}

func (s *conflictingQueueStore) ClaimPair(a, b *models.QueueEntry) error {
	if s.conflicts > 0 {
		s.conflicts--
		return fmt.Errorf("claim pair %s/%s: %w", a.ID, b.ID, models.ErrClaimConflict)
	}
	return s.QueueStore.ClaimPair(a, b)
}

func TestProcessSkipsCandidateOnClaimConflict(t *testing.T) {
	queueStore := stores.NewMemoryQueueStore()
	matchStore := stores.NewMemoryMatchStore()
	conflicted := &conflictingQueueStore{QueueStore: queueStore, conflicts: 1}
	m := NewMatchmakingService(conflicted, matchStore, testLongWait)

	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second))
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillBeginner, "classic", 5*time.Second))

	// The conflict is expected and handled, not an error
	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, matchStore.All())

	// The next pass wins the claim
	count, err = m.ProcessMatchmaking()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// failingMatchStore rejects inserts, mimicking a persistence failure
// during the commit step.
type failingMatchStore struct {
	stores.MatchStore
}

func (s *failingMatchStore) Insert(match *models.Match) error {
	return fmt.Errorf("simulated persistence failure")
}

func TestProcessRollsBackClaimsOnCommitFailure(t *testing.T) {
	queueStore := stores.NewMemoryQueueStore()
	matchStore := &failingMatchStore{MatchStore: stores.NewMemoryMatchStore()}
	m := NewMatchmakingService(queueStore, matchStore, testLongWait)

	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second))
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillBeginner, "classic", 5*time.Second))

	_, err := m.ProcessMatchmaking()
	require.Error(t, err)

	// No entry may be left claimed after the failed commit
	for _, userID := range []string{"user1", "user2"} {
		entry, err := queueStore.FindWaitingByUser(userID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, models.QueueStatusWaiting, entry.Status)
	}
}

// recordingNotifier captures match-found notifications.
type recordingNotifier struct {
	matches []models.Match
}

func (n *recordingNotifier) NotifyMatchFound(match models.Match) {
	n.matches = append(n.matches, match)
}

func TestProcessNotifiesCommittedMatches(t *testing.T) {
	m, queueStore, _ := newTestMatchmaker(t)
	notifier := &recordingNotifier{}
	m.SetNotifier(notifier)

	mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second))
	mustInsert(t, queueStore, waitingEntry("user2", models.SkillBeginner, "classic", 5*time.Second))

	count, err := m.ProcessMatchmaking()
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.Len(t, notifier.matches, 1)
	assert.ElementsMatch(t, []string{"user1", "user2"}, notifier.matches[0].PlayerIDs)
}

func TestCleanupLeftEntriesKeepsRecentAndActive(t *testing.T) {
	m, queueStore, _ := newTestMatchmaker(t)

	old := mustInsert(t, queueStore, waitingEntry("user1", models.SkillBeginner, "classic", 10*time.Second))
	_, err := queueStore.MarkLeft(old.UserID, time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)

	recent := mustInsert(t, queueStore, waitingEntry("user2", models.SkillBeginner, "classic", 10*time.Second))
	_, err = queueStore.MarkLeft(recent.UserID, time.Now().UTC())
	require.NoError(t, err)

	mustInsert(t, queueStore, waitingEntry("user3", models.SkillBeginner, "classic", 10*time.Second))

	purged, err := m.CleanupLeftEntries(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	waiting, err := queueStore.ListWaiting()
	require.NoError(t, err)
	assert.Len(t, waiting, 1)
}
