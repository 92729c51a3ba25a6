package stores

import (
	"sort"
	"sync"
	"time"

	"questmatch/app/models"
)

// MemoryQueueStore is an in-process QueueStore with the same
// conditional-write semantics as the Cassandra store. It backs the
// service tests and is usable for local development without a cluster.
type MemoryQueueStore struct {
	mu      sync.Mutex
	entries map[string]*models.QueueEntry
}

// NewMemoryQueueStore creates an empty in-memory queue store
func NewMemoryQueueStore() *MemoryQueueStore {
	return &MemoryQueueStore{entries: make(map[string]*models.QueueEntry)}
}

func (s *MemoryQueueStore) Insert(entry *models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.UserID == entry.UserID &&
			(e.Status == models.QueueStatusWaiting || e.Status == models.QueueStatusClaimed) {
			return models.ErrAlreadyQueued
		}
	}
	clone := *entry
	s.entries[entry.ID] = &clone
	return nil
}

func (s *MemoryQueueStore) FindWaitingByUser(userID string) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.UserID == userID &&
			(e.Status == models.QueueStatusWaiting || e.Status == models.QueueStatusClaimed) {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *MemoryQueueStore) GetByID(id string) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (s *MemoryQueueStore) ListWaiting() ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var waiting []models.QueueEntry
	for _, e := range s.entries {
		if e.Status == models.QueueStatusWaiting {
			waiting = append(waiting, *e)
		}
	}
	sort.SliceStable(waiting, func(i, j int) bool {
		return waiting[i].CreatedAt.Before(waiting[j].CreatedAt)
	})
	return waiting, nil
}

func (s *MemoryQueueStore) ClaimPair(a, b *models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ea, oka := s.entries[a.ID]
	eb, okb := s.entries[b.ID]
	if !oka || !okb ||
		ea.Status != models.QueueStatusWaiting || eb.Status != models.QueueStatusWaiting {
		return models.ErrClaimConflict
	}
	ea.Status = models.QueueStatusClaimed
	eb.Status = models.QueueStatusClaimed
	return nil
}

func (s *MemoryQueueStore) ReleasePair(entries ...*models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if e, ok := s.entries[entry.ID]; ok && e.Status == models.QueueStatusClaimed {
			e.Status = models.QueueStatusWaiting
		}
	}
	return nil
}

func (s *MemoryQueueStore) FinalizeMatched(matchID string, matchedAt time.Time, entries ...*models.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		e, ok := s.entries[entry.ID]
		if !ok || e.Status != models.QueueStatusClaimed {
			return models.ErrClaimConflict
		}
	}
	for _, entry := range entries {
		e := s.entries[entry.ID]
		e.Status = models.QueueStatusMatched
		e.MatchID = matchID
		e.MatchedAt = matchedAt
	}
	return nil
}

func (s *MemoryQueueStore) MarkLeft(userID string, leftAt time.Time) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.UserID == userID && e.Status == models.QueueStatusWaiting {
			e.Status = models.QueueStatusLeft
			e.LeftAt = leftAt
			clone := *e
			return &clone, nil
		}
	}
	return nil, models.ErrNotQueued
}

func (s *MemoryQueueStore) PurgeLeftBefore(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, e := range s.entries {
		if e.Status == models.QueueStatusLeft && e.LeftAt.Before(cutoff) {
			delete(s.entries, id)
			purged++
		}
	}
	return purged, nil
}

// AllEntries returns every stored entry regardless of status; test helper.
func (s *MemoryQueueStore) AllEntries() ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []models.QueueEntry
	for _, e := range s.entries {
		all = append(all, *e)
	}
	return all, nil
}

// MemoryMatchStore is the in-process MatchStore counterpart.
type MemoryMatchStore struct {
	mu      sync.Mutex
	matches map[string]*models.Match
}

// NewMemoryMatchStore creates an empty in-memory match store
func NewMemoryMatchStore() *MemoryMatchStore {
	return &MemoryMatchStore{matches: make(map[string]*models.Match)}
}

func (s *MemoryMatchStore) Insert(match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *match
	s.matches[match.ID] = &clone
	return nil
}

func (s *MemoryMatchStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.matches, id)
	return nil
}

func (s *MemoryMatchStore) FindByID(id string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, models.ErrMatchNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *MemoryMatchStore) CountCreatedSince(t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, m := range s.matches {
		if !m.CreatedAt.Before(t) {
			count++
		}
	}
	return count, nil
}

// All returns every stored match; test helper.
func (s *MemoryMatchStore) All() []models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []models.Match
	for _, m := range s.matches {
		all = append(all, *m)
	}
	return all
}
