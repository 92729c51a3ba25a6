package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"questmatch/app/models"
	"questmatch/app/stores"
)

// MatchNotifier delivers match-found events to a downstream component.
// Delivery is best-effort; it never affects the outcome of a pass.
type MatchNotifier interface {
	NotifyMatchFound(match models.Match)
}

// MatchCounter tracks the number of matches created per calendar day.
type MatchCounter interface {
	IncrementDailyMatches(day time.Time) error
}

// MatchmakingService runs reconciliation passes over the waiting pool:
// group, claim, filter, commit.
type MatchmakingService struct {
	queueStore stores.QueueStore
	matchStore stores.MatchStore
	longWait   time.Duration
	notifier   MatchNotifier
	counter    MatchCounter
}

// NewMatchmakingService creates a new matchmaking service instance.
// The notifier and counter are optional and wired separately.
func NewMatchmakingService(queueStore stores.QueueStore, matchStore stores.MatchStore, longWait time.Duration) *MatchmakingService {
	return &MatchmakingService{
		queueStore: queueStore,
		matchStore: matchStore,
		longWait:   longWait,
	}
}

// SetNotifier wires the downstream match notification sink
func (m *MatchmakingService) SetNotifier(notifier MatchNotifier) {
	m.notifier = notifier
}

// SetMatchCounter wires the daily match counter
func (m *MatchmakingService) SetMatchCounter(counter MatchCounter) {
	m.counter = counter
}

// ProcessMatchmaking runs one reconciliation pass to completion and
// returns the number of matches committed. Passes may overlap: the
// conditional claim in the store guarantees that only one of two
// concurrent passes wins any given entry; the loser observes the claim
// conflict and skips the candidate.
func (m *MatchmakingService) ProcessMatchmaking() (int, error) {
	now := time.Now().UTC()

	waiting, err := m.queueStore.ListWaiting()
	if err != nil {
		return 0, err
	}
	if len(waiting) < 2 {
		return 0, nil
	}

	groups := BuildGroups(waiting, m.longWait, now)

	matched := make(map[string]bool)
	matchCount := 0
	for _, group := range groups {
		members := make([]models.QueueEntry, 0, len(group.Entries))
		for _, e := range group.Entries {
			if !matched[e.ID] {
				members = append(members, e)
			}
		}
		if len(members) < 2 {
			continue
		}

		// One attempt per group: the two oldest members
		a, b := members[0], members[1]

		err := m.queueStore.ClaimPair(&a, &b)
		if errors.Is(err, models.ErrClaimConflict) {
			// Lost the race to a concurrent pass or a leave; skip
			continue
		}
		if err != nil {
			return matchCount, err
		}

		if !Compatible([]models.QueueEntry{a, b}) {
			// Incompatible pair is discarded for the rest of this pass;
			// no alternate pairing is attempted within the same group.
			if err := m.queueStore.ReleasePair(&a, &b); err != nil {
				return matchCount, err
			}
			continue
		}

		match, err := m.commitMatch(group, &a, &b, now)
		if err != nil {
			return matchCount, err
		}

		matched[a.ID] = true
		matched[b.ID] = true
		matchCount++

		if m.counter != nil {
			if err := m.counter.IncrementDailyMatches(now); err != nil {
				log.Printf("⚠️ Failed to increment daily match counter: %v", err)
			}
		}
		if m.notifier != nil {
			m.notifier.NotifyMatchFound(*match)
		}
	}

	return matchCount, nil
}

// commitMatch creates the match row and finalizes both claimed entries.
// Any persistence failure rolls both entries back to waiting so no
// entry is ever left claimed.
func (m *MatchmakingService) commitMatch(group CandidateGroup, a, b *models.QueueEntry, now time.Time) (*models.Match, error) {
	match := &models.Match{
		ID:              uuid.NewString(),
		PlayerIDs:       []string{a.UserID, b.UserID},
		PlayerUsernames: []string{a.Username, b.Username},
		Status:          models.MatchStatusPending,
		GameMode:        group.GameMode,
		SkillLevel:      group.SkillLevel,
		AverageWaitTime: float64(a.WaitTime(now)+b.WaitTime(now)) / 2,
		CreatedAt:       now,
	}

	if err := m.matchStore.Insert(match); err != nil {
		if relErr := m.queueStore.ReleasePair(a, b); relErr != nil {
			log.Printf("❌ Failed to release claimed entries after match insert failure: %v", relErr)
		}
		return nil, fmt.Errorf("failed to create match: %v", err)
	}

	if err := m.queueStore.FinalizeMatched(match.ID, now, a, b); err != nil {
		if delErr := m.matchStore.Delete(match.ID); delErr != nil {
			log.Printf("❌ Failed to delete match %s during rollback: %v", match.ID, delErr)
		}
		if relErr := m.queueStore.ReleasePair(a, b); relErr != nil {
			log.Printf("❌ Failed to release claimed entries during rollback: %v", relErr)
		}
		return nil, fmt.Errorf("failed to finalize matched entries: %v", err)
	}

	return match, nil
}

// GetMatchmakingStats returns statistics about the matchmaking process
func (m *MatchmakingService) GetMatchmakingStats() (map[string]interface{}, error) {
	waiting, err := m.queueStore.ListWaiting()
	if err != nil {
		return nil, err
	}

	matchesToday, err := m.matchStore.CountCreatedSince(startOfDayUTC(time.Now().UTC()))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"waiting_players": len(waiting),
		"matches_today":   matchesToday,
		"last_run":        time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// CleanupLeftEntries purges left entries older than the retention
// window. Waiting and matched entries are never touched.
func (m *MatchmakingService) CleanupLeftEntries(retention time.Duration) (int, error) {
	return m.queueStore.PurgeLeftBefore(time.Now().UTC().Add(-retention))
}

func startOfDayUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
