package services

import (
	"time"

	"github.com/google/uuid"

	"questmatch/app/models"
	"questmatch/app/stores"
)

// DailyMatchReader reads the created-match counter for a calendar day.
type DailyMatchReader interface {
	DailyMatches(day time.Time) (int64, error)
}

// StatsCache holds a short-lived copy of the stats aggregate so bursts
// of stats requests do not rescan the waiting pool. A GetStats error
// means a miss; SetStats failures are tolerated.
type StatsCache interface {
	GetStats(dest *models.QueueStatsResponse) error
	SetStats(stats *models.QueueStatsResponse) error
}

// QueueService exposes the public queue operations: join, leave,
// status, list, stats and match lookup. Every mutation goes through the
// queue store's conditional writes, so these operations are safe to
// race with matchmaker passes.
type QueueService struct {
	queueStore  stores.QueueStore
	matchStore  stores.MatchStore
	dailyReader DailyMatchReader
	statsCache  StatsCache
	triggerRun  func()
}

// NewQueueService creates a new queue service instance
func NewQueueService(queueStore stores.QueueStore, matchStore stores.MatchStore) *QueueService {
	return &QueueService{
		queueStore: queueStore,
		matchStore: matchStore,
	}
}

// SetDailyMatchReader wires the daily match counter used by Stats
func (s *QueueService) SetDailyMatchReader(reader DailyMatchReader) {
	s.dailyReader = reader
}

// SetStatsCache wires the short-lived stats aggregate cache
func (s *QueueService) SetStatsCache(cache StatsCache) {
	s.statsCache = cache
}

// SetMatchmakingTrigger wires the best-effort on-demand matchmaking
// trigger invoked after every successful join.
func (s *QueueService) SetMatchmakingTrigger(trigger func()) {
	s.triggerRun = trigger
}

// Join inserts a new waiting entry for the user and requests one
// matchmaking pass. The pass is fire-and-forget: its outcome never
// affects the join response.
func (s *QueueService) Join(req *models.JoinQueueRequest) (*models.QueueStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	gameMode := req.GameMode
	if gameMode == "" {
		gameMode = models.DefaultGameMode
	}

	now := time.Now().UTC()
	entry := &models.QueueEntry{
		ID:                 uuid.NewString(),
		UserID:             req.UserID,
		Username:           req.Username,
		SkillLevel:         req.SkillLevel,
		GameMode:           gameMode,
		Status:             models.QueueStatusWaiting,
		CreatedAt:          now,
		MaxWaitTime:        req.MaxWaitTime,
		PreferredOpponents: req.PreferredOpponents,
		AvoidOpponents:     req.AvoidOpponents,
	}

	if err := s.queueStore.Insert(entry); err != nil {
		return nil, err
	}

	if s.triggerRun != nil {
		s.triggerRun()
	}

	resp := models.NewQueueStatusResponse(entry, now)
	return &resp, nil
}

// Leave transitions the user's waiting entry to left. Returns
// models.ErrNotQueued when the user has no waiting entry, including
// when the entry was matched concurrently: a leave never silently
// succeeds against a matched entry.
func (s *QueueService) Leave(userID string) (*models.QueueStatusResponse, error) {
	now := time.Now().UTC()
	entry, err := s.queueStore.MarkLeft(userID, now)
	if err != nil {
		return nil, err
	}
	resp := models.NewQueueStatusResponse(entry, now)
	return &resp, nil
}

// GetStatus returns the user's current queue-status view. A user with
// no waiting entry gets an explicit not-queued view, not an error.
func (s *QueueService) GetStatus(userID string) (*models.QueueStatusResponse, error) {
	now := time.Now().UTC()
	entry, err := s.queueStore.FindWaitingByUser(userID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &models.QueueStatusResponse{InQueue: false, UserID: userID}, nil
	}
	resp := models.NewQueueStatusResponse(entry, now)
	return &resp, nil
}

// List returns all waiting entries, oldest first, with recomputed waits
func (s *QueueService) List() ([]models.QueueStatusResponse, error) {
	now := time.Now().UTC()
	entries, err := s.queueStore.ListWaiting()
	if err != nil {
		return nil, err
	}

	views := make([]models.QueueStatusResponse, 0, len(entries))
	for i := range entries {
		views = append(views, models.NewQueueStatusResponse(&entries[i], now))
	}
	return views, nil
}

// Stats returns aggregate queue counters: waiting count, breakdowns by
// skill level and game mode, wait times, and matches created since the
// start of the current calendar day. A cached aggregate is served when
// available; the cache is invalidated whenever a match is created.
func (s *QueueService) Stats() (*models.QueueStatsResponse, error) {
	if s.statsCache != nil {
		var cached models.QueueStatsResponse
		if err := s.statsCache.GetStats(&cached); err == nil {
			return &cached, nil
		}
	}

	now := time.Now().UTC()
	entries, err := s.queueStore.ListWaiting()
	if err != nil {
		return nil, err
	}

	stats := &models.QueueStatsResponse{
		Waiting:      len(entries),
		BySkillLevel: make(map[string]int),
		ByGameMode:   make(map[string]int),
		Timestamp:    now.Format(time.RFC3339),
	}

	totalWait := 0
	for i := range entries {
		wait := entries[i].WaitTime(now)
		totalWait += wait
		if wait > stats.MaxWaitTime {
			stats.MaxWaitTime = wait
		}
		stats.BySkillLevel[entries[i].SkillLevel]++
		stats.ByGameMode[entries[i].GameMode]++
	}
	if len(entries) > 0 {
		stats.AvgWaitTime = float64(totalWait) / float64(len(entries))
	}

	stats.MatchesToday, err = s.matchesToday(now)
	if err != nil {
		return nil, err
	}

	if s.statsCache != nil {
		// Best-effort: a failed write just means the next call recomputes
		_ = s.statsCache.SetStats(stats)
	}
	return stats, nil
}

// matchesToday prefers the Redis daily counter and falls back to a
// match store count when the counter is unavailable.
func (s *QueueService) matchesToday(now time.Time) (int64, error) {
	if s.dailyReader != nil {
		if count, err := s.dailyReader.DailyMatches(now); err == nil {
			return count, nil
		}
	}
	return s.matchStore.CountCreatedSince(startOfDayUTC(now))
}

// GetMatch returns the match with the given id
func (s *QueueService) GetMatch(matchID string) (*models.MatchResponse, error) {
	match, err := s.matchStore.FindByID(matchID)
	if err != nil {
		return nil, err
	}
	resp := models.NewMatchResponse(match)
	return &resp, nil
}
