package stores

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"questmatch/app/models"
)

// A guard row pointing at a terminal or missing entry must be
// reclaimable on the next join; one pointing at an active entry
// must keep blocking duplicate joins.
func TestGuardSlotStale(t *testing.T) {
	assert.True(t, guardSlotStale(nil), "guard without an entry is stale")
	assert.True(t, guardSlotStale(&models.QueueEntry{Status: models.QueueStatusMatched}))
	assert.True(t, guardSlotStale(&models.QueueEntry{Status: models.QueueStatusLeft}))

	assert.False(t, guardSlotStale(&models.QueueEntry{Status: models.QueueStatusWaiting}))
	assert.False(t, guardSlotStale(&models.QueueEntry{Status: models.QueueStatusClaimed}))
}
