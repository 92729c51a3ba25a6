package services

import (
	"sort"
	"time"

	"questmatch/app/models"
)

// SkillMixed marks a cross-skill group formed by the long-wait
// fallback; matches committed from such a group carry it as their
// skill level.
const SkillMixed = "mixed"

// CandidateGroup is a disjoint set of waiting entries that may be
// matched together, in join-time order.
type CandidateGroup struct {
	GameMode   string
	SkillLevel string
	CrossSkill bool
	Entries    []models.QueueEntry
}

// BuildGroups partitions the waiting pool into match-candidate groups.
// The input must be ordered by join time, oldest first; that order is
// preserved inside every group.
//
// Entries waiting longer than the long-wait threshold form one extra
// cross-skill group per game mode (when at least two such entries share
// the mode). Cross-skill groups come first in the result: if one of
// them produces a match, those entries are gone from their normal
// bucket for the rest of the pass. Normal buckets are keyed by
// (gameMode, skillLevel).
func BuildGroups(entries []models.QueueEntry, longWait time.Duration, now time.Time) []CandidateGroup {
	longWaitByMode := make(map[string][]models.QueueEntry)
	buckets := make(map[string]map[string][]models.QueueEntry)

	for _, e := range entries {
		if time.Duration(e.WaitTime(now))*time.Second > longWait {
			longWaitByMode[e.GameMode] = append(longWaitByMode[e.GameMode], e)
		}
		if buckets[e.GameMode] == nil {
			buckets[e.GameMode] = make(map[string][]models.QueueEntry)
		}
		buckets[e.GameMode][e.SkillLevel] = append(buckets[e.GameMode][e.SkillLevel], e)
	}

	var groups []CandidateGroup

	for _, mode := range sortedKeys(longWaitByMode) {
		waiters := longWaitByMode[mode]
		if len(waiters) < 2 {
			continue
		}
		groups = append(groups, CandidateGroup{
			GameMode:   mode,
			SkillLevel: SkillMixed,
			CrossSkill: true,
			Entries:    waiters,
		})
	}

	for _, mode := range sortedKeys(buckets) {
		bySkill := buckets[mode]
		for _, skill := range models.SkillLevels {
			members := bySkill[skill]
			if len(members) == 0 {
				continue
			}
			groups = append(groups, CandidateGroup{
				GameMode:   mode,
				SkillLevel: skill,
				Entries:    members,
			})
		}
	}

	return groups
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
